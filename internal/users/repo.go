package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

type Repo interface {
	// First returns the first row of the users table, or ErrNotFound when
	// the table is empty.
	First(ctx context.Context) (User, error)
}
