package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sebastianrich18/link-shortener/internal/errx"
)

// querier is the subset of *pgxpool.Pool the repository needs. Keeping it an
// interface lets tests substitute canned rows.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type repo struct {
	q querier
}

// NewRepository creates a PostgreSQL-backed Repository.
func NewRepository(q querier) Repository {
	return &repo{q: q}
}

const linkColumns = "id, slug, target_url, owner_id, created_at, expire_at"

func mustTime(ts pgtype.Timestamptz, field string) (time.Time, error) {
	if !ts.Valid {
		return time.Time{}, fmt.Errorf("%s unexpectedly NULL", field)
	}
	return ts.Time, nil
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func tsFromPtr(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func scanLink(row pgx.Row) (Link, error) {
	var (
		l         Link
		createdAt pgtype.Timestamptz
		expireAt  pgtype.Timestamptz
	)
	if err := row.Scan(&l.ID, &l.Slug, &l.TargetURL, &l.OwnerID, &createdAt, &expireAt); err != nil {
		return Link{}, err
	}

	created, err := mustTime(createdAt, "created_at")
	if err != nil {
		return Link{}, err
	}
	l.CreatedAt = created
	l.ExpireAt = timePtr(expireAt)
	return l, nil
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isSlugUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func (r *repo) FindBySlug(ctx context.Context, slug string) (Link, error) {
	const op = "link.repo.FindBySlug"

	row := r.q.QueryRow(ctx,
		"SELECT "+linkColumns+" FROM links WHERE slug = $1",
		slug,
	)

	l, err := scanLink(row)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return l, nil
}

func (r *repo) Create(ctx context.Context, fields CreateLink) (Link, error) {
	const op = "link.repo.Create"

	row := r.q.QueryRow(ctx,
		`INSERT INTO links (slug, target_url, owner_id, expire_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+linkColumns,
		fields.Slug, fields.TargetURL, fields.OwnerID, tsFromPtr(fields.ExpireAt),
	)

	l, err := scanLink(row)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return l, nil
}

func (r *repo) Update(ctx context.Context, link Link) error {
	const op = "link.repo.Update"

	tag, err := r.q.Exec(ctx,
		`UPDATE links
		 SET slug = $2, target_url = $3, owner_id = $4, expire_at = $5
		 WHERE id = $1`,
		link.ID, link.Slug, link.TargetURL, link.OwnerID, tsFromPtr(link.ExpireAt),
	)
	if err != nil {
		return mapRepoError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return errx.E(op, errx.NotFound, fmt.Errorf("no link with id %d", link.ID))
	}
	return nil
}
