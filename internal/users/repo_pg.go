package users

import (
	"context"
	"database/sql"
	"fmt"
)

const firstUserQuery = `SELECT * FROM users LIMIT 1`

type PGRepo struct {
	DB *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

// First reads whatever columns the users table has and keeps role. A table
// without a role column yields a user with an empty role.
func (r *PGRepo) First(ctx context.Context) (User, error) {
	rows, err := r.DB.QueryContext(ctx, firstUserQuery)
	if err != nil {
		return User{}, fmt.Errorf("query first user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return User{}, fmt.Errorf("read first user: %w", err)
		}
		return User{}, ErrNotFound
	}

	cols, err := rows.Columns()
	if err != nil {
		return User{}, fmt.Errorf("read user columns: %w", err)
	}
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return User{}, fmt.Errorf("scan first user: %w", err)
	}

	var user User
	for i, col := range cols {
		if col == "role" {
			user.Role = textValue(values[i])
		}
	}
	return user, nil
}

func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}
