package user

import (
	"context"
	"fmt"
	"sync"

	"github.com/sebastianrich18/link-shortener/internal/errx"
)

// memRepo is an in-memory Repository with the same error semantics as the
// PostgreSQL implementation.
type memRepo struct {
	mu     sync.Mutex
	users  map[int64]User
	nextID int64
}

// NewMemoryRepository creates an empty in-memory Repository.
func NewMemoryRepository() Repository {
	return &memRepo{users: make(map[int64]User)}
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (User, error) {
	const op = "user.memrepo.FindByEmail"

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, errx.E(op, errx.NotFound, fmt.Errorf("no user with email %q", email))
}

func (r *memRepo) Create(_ context.Context, fields CreateUser) (User, error) {
	const op = "user.memrepo.Create"

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == fields.Email {
			return User{}, errx.E(op, errx.Conflict, fmt.Errorf("email %q already registered", fields.Email))
		}
	}

	r.nextID++
	u := User{
		ID:           r.nextID,
		Email:        fields.Email,
		PasswordHash: fields.PasswordHash,
		Role:         fields.Role,
	}
	r.users[u.ID] = u
	return u, nil
}
