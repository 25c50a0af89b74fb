package link

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sebastianrich18/link-shortener/internal/errx"
)

const (
	MaxURLLength = 2048

	// DefaultCreateRetries bounds how many times a create re-enters slug
	// allocation after losing a uniqueness race.
	DefaultCreateRetries = 5
)

// CreateLinkRequest represents the parameters for creating a new link.
type CreateLinkRequest struct {
	TargetURL string
	OwnerID   int64
	ExpireAt  *time.Time
}

// UpdateLinkRequest represents a partial update. Nil fields keep their
// current value. The slug and owner are not updatable.
type UpdateLinkRequest struct {
	TargetURL *string
	ExpireAt  *time.Time
}

// Service defines the management operations on links. The redirect path does
// not go through here; it uses Resolver directly.
type Service interface {
	Create(ctx context.Context, req CreateLinkRequest) (Link, error)
	GetBySlug(ctx context.Context, slug string, ownerID int64) (Link, error)
	Update(ctx context.Context, slug string, ownerID int64, req UpdateLinkRequest) error
}

type service struct {
	repo          Repository
	alloc         *Allocator
	createRetries int
	now           func() time.Time
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	Allocator     *Allocator
	CreateRetries int
	Now           func() time.Time // clock override for tests
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	alloc := config.Allocator
	if alloc == nil {
		alloc = NewAllocator(repo, nil)
	}

	retries := config.CreateRetries
	if retries <= 0 {
		retries = DefaultCreateRetries
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		repo:          repo,
		alloc:         alloc,
		createRetries: retries,
		now:           now,
	}
}

// Create validates the request, allocates a unique slug, and inserts the
// link. A Conflict from the insert means a concurrent creator claimed the
// slug after our pre-check; it is absorbed by re-running allocation rather
// than surfaced to the caller.
func (s *service) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	const op = "link.service.Create"

	if err := validateURL(req.TargetURL); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}
	if err := validateExpiry(req.ExpireAt, s.now()); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	for range s.createRetries {
		slug, err := s.alloc.GenerateUniqueSlug(ctx)
		if err != nil {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}

		created, err := s.repo.Create(ctx, CreateLink{
			Slug:      slug,
			TargetURL: req.TargetURL,
			OwnerID:   req.OwnerID,
			ExpireAt:  req.ExpireAt,
		})
		if err == nil {
			return created, nil
		}

		if errx.KindOf(err) != errx.Conflict {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}
	}

	return Link{}, errx.E(op, errx.Exhausted,
		errors.New("could not create link with a unique slug after retries"))
}

// GetBySlug returns the link if it belongs to ownerID.
func (s *service) GetBySlug(ctx context.Context, slug string, ownerID int64) (Link, error) {
	const op = "link.service.GetBySlug"

	if slug == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("slug cannot be empty"))
	}

	l, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}
	if l.OwnerID != ownerID {
		return Link{}, errx.E(op, errx.Forbidden,
			fmt.Errorf("link %q is not owned by user %d", slug, ownerID))
	}
	return l, nil
}

// Update merges the partial request into the stored record and replaces it.
func (s *service) Update(ctx context.Context, slug string, ownerID int64, req UpdateLinkRequest) error {
	const op = "link.service.Update"

	existing, err := s.GetBySlug(ctx, slug, ownerID)
	if err != nil {
		return err
	}

	if req.TargetURL != nil {
		if err := validateURL(*req.TargetURL); err != nil {
			return errx.E(op, errx.Invalid, err)
		}
		existing.TargetURL = *req.TargetURL
	}
	if req.ExpireAt != nil {
		if err := validateExpiry(req.ExpireAt, s.now()); err != nil {
			return errx.E(op, errx.Invalid, err)
		}
		existing.ExpireAt = req.ExpireAt
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}
	return nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return errors.New("url too long (max 2048 characters)")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if parsedURL.Scheme == "" {
		return errors.New("url must include scheme (http or https)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}

func validateExpiry(expireAt *time.Time, now time.Time) error {
	if expireAt != nil && expireAt.Before(now) {
		return errors.New("expiry date cannot be in the past")
	}
	return nil
}
