package users

import (
	"context"
	"sync"
)

// MemoryRepo keeps users in insertion order. First returns the oldest.
type MemoryRepo struct {
	mu    sync.RWMutex
	users []User
}

func NewMemoryRepo(users ...User) *MemoryRepo {
	return &MemoryRepo{users: append([]User(nil), users...)}
}

func (r *MemoryRepo) Add(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
	return nil
}

func (r *MemoryRepo) First(ctx context.Context) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.users) == 0 {
		return User{}, ErrNotFound
	}
	return r.users[0], nil
}
