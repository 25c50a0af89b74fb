package user

import "context"

// Repository defines the persistence operations for User entities. Email
// uniqueness is enforced by storage and reported as a Conflict.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, fields CreateUser) (User, error)
}
