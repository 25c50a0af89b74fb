package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sebastianrich18/link-shortener/internal/errx"
)

// memRepo is an in-memory Repository with the same error semantics as the
// PostgreSQL implementation. Used as a test double and nowhere else.
type memRepo struct {
	mu     sync.Mutex
	links  map[int64]Link
	nextID int64
}

// NewMemoryRepository creates an empty in-memory Repository.
func NewMemoryRepository() Repository {
	return &memRepo{links: make(map[int64]Link)}
}

func (r *memRepo) FindBySlug(_ context.Context, slug string) (Link, error) {
	const op = "link.memrepo.FindBySlug"

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.links {
		if l.Slug == slug {
			return l, nil
		}
	}
	return Link{}, errx.E(op, errx.NotFound, fmt.Errorf("no link with slug %q", slug))
}

func (r *memRepo) Create(_ context.Context, fields CreateLink) (Link, error) {
	const op = "link.memrepo.Create"

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.links {
		if l.Slug == fields.Slug {
			return Link{}, errx.E(op, errx.Conflict, fmt.Errorf("slug %q already exists", fields.Slug))
		}
	}

	r.nextID++
	l := Link{
		ID:        r.nextID,
		Slug:      fields.Slug,
		TargetURL: fields.TargetURL,
		OwnerID:   fields.OwnerID,
		CreatedAt: time.Now(),
		ExpireAt:  fields.ExpireAt,
	}
	r.links[l.ID] = l
	return l, nil
}

func (r *memRepo) Update(_ context.Context, link Link) error {
	const op = "link.memrepo.Update"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[link.ID]; !ok {
		return errx.E(op, errx.NotFound, fmt.Errorf("no link with id %d", link.ID))
	}
	for _, l := range r.links {
		if l.Slug == link.Slug && l.ID != link.ID {
			return errx.E(op, errx.Conflict, fmt.Errorf("slug %q already exists", link.Slug))
		}
	}

	r.links[link.ID] = link
	return nil
}
