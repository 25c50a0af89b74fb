package link

import "context"

// Repository defines the persistence operations for Link entities.
// Slug uniqueness is enforced here, at the storage boundary; callers may
// pre-check a slug but must be prepared for Create to report a conflict
// anyway. Update replaces the full record keyed by id; merging partial
// changes is the caller's job.
type Repository interface {
	FindBySlug(ctx context.Context, slug string) (Link, error)
	Create(ctx context.Context, fields CreateLink) (Link, error)
	Update(ctx context.Context, link Link) error
}
