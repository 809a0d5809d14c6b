package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"status-backend/internal/users"
)

// DefaultTimeout bounds connection acquisition plus query execution.
const DefaultTimeout = 1500 * time.Millisecond

// ErrUnavailable is returned for every failed check: connection errors,
// query errors and timeouts alike.
var ErrUnavailable = errors.New("database unavailable")

// Status is the outcome of a successful check.
type Status struct {
	Database  bool `json:"database"`
	UserAdmin bool `json:"userAdmin"`
}

// Service checks database reachability and the first user's role.
type Service struct {
	Users   users.Repo
	Timeout time.Duration
}

// NewService constructs a new health service with the default timeout.
func NewService(repo users.Repo) *Service {
	return &Service{Users: repo, Timeout: DefaultTimeout}
}

type firstResult struct {
	user users.User
	err  error
}

// Check reads the first user under the service timeout. The deadline is
// passed down to the driver so a slow query is cancelled and its connection
// released; Check itself returns no later than the deadline either way.
func (s *Service) Check(ctx context.Context) (Status, error) {
	if s == nil || s.Users == nil {
		return Status{}, fmt.Errorf("%w: health service not configured", ErrUnavailable)
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan firstResult, 1)
	go func() {
		user, err := s.Users.First(ctx)
		done <- firstResult{user: user, err: err}
	}()

	var res firstResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		if errors.Is(res.err, users.ErrNotFound) {
			return Status{Database: true}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(res.err, ctxErr) {
			res.err = errors.Join(ctxErr, res.err)
		}
		return Status{}, fmt.Errorf("%w: %w", ErrUnavailable, res.err)
	}
	return Status{Database: true, UserAdmin: res.user.IsAdmin()}, nil
}

// Reason classifies a check failure for logs.
func Reason(err error) string {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &pgErr):
		return "pg_" + pgErr.Code
	default:
		return "error"
	}
}
