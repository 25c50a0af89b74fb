package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sebastianrich18/link-shortener/internal/errx"
)

// querier is the subset of *pgxpool.Pool the repository needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repo struct {
	q querier
}

// NewRepository creates a PostgreSQL-backed Repository.
func NewRepository(q querier) Repository {
	return &repo{q: q}
}

func isEmailUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" &&
		pgErr.ConstraintName == "users_email_key"
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isEmailUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func (r *repo) FindByEmail(ctx context.Context, email string) (User, error) {
	const op = "user.repo.FindByEmail"

	var u User
	row := r.q.QueryRow(ctx,
		"SELECT id, email, password_hash, role FROM users WHERE email = $1",
		email,
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role); err != nil {
		return User{}, mapRepoError(op, err)
	}
	return u, nil
}

func (r *repo) Create(ctx context.Context, fields CreateUser) (User, error) {
	const op = "user.repo.Create"

	var u User
	row := r.q.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, role)
		 VALUES ($1, $2, $3)
		 RETURNING id, email, password_hash, role`,
		fields.Email, fields.PasswordHash, fields.Role,
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role); err != nil {
		return User{}, mapRepoError(op, err)
	}
	return u, nil
}
