package link

import (
	"context"
	"fmt"

	"github.com/sebastianrich18/link-shortener/internal/errx"
	"github.com/sebastianrich18/link-shortener/sluggen"
)

const (
	// DefaultAllocAttempts bounds how many slugs the allocator draws before
	// giving up.
	DefaultAllocAttempts = 5
)

// Allocator produces slugs that are unique at the time of checking. The
// pre-check via FindBySlug is advisory only: a concurrent allocator can claim
// the same slug between the check and the insert, so the repository's unique
// constraint remains the authority and callers must retry on Conflict.
type Allocator struct {
	repo        Repository
	gen         sluggen.Generator
	slugLength  int
	maxAttempts int
}

// AllocatorConfig holds configuration for the allocator.
type AllocatorConfig struct {
	Generator   sluggen.Generator
	SlugLength  int
	MaxAttempts int
}

// NewAllocator creates a new Allocator.
func NewAllocator(repo Repository, config *AllocatorConfig) *Allocator {
	if config == nil {
		config = &AllocatorConfig{}
	}

	gen := config.Generator
	if gen == nil {
		gen = sluggen.NewAlphanum()
	}

	length := config.SlugLength
	if length <= 0 {
		length = SlugLength
	}

	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultAllocAttempts
	}

	return &Allocator{
		repo:        repo,
		gen:         gen,
		slugLength:  length,
		maxAttempts: attempts,
	}
}

// GenerateUniqueSlug draws random slugs until one is not present in the
// repository or the attempt budget runs out. Exhaustion is reported as
// errx.Exhausted, distinct from a storage failure, which aborts immediately
// with its own kind.
func (a *Allocator) GenerateUniqueSlug(ctx context.Context) (string, error) {
	const op = "link.allocator.GenerateUniqueSlug"

	for range a.maxAttempts {
		slug, err := a.gen.Generate(a.slugLength)
		if err != nil {
			return "", errx.E(op, errx.Unavailable, err)
		}

		_, err = a.repo.FindBySlug(ctx, slug)
		if err == nil {
			// Slug taken, draw again.
			continue
		}
		if errx.KindOf(err) == errx.NotFound {
			return slug, nil
		}
		return "", errx.E(op, errx.KindOf(err), err)
	}

	return "", errx.E(op, errx.Exhausted,
		fmt.Errorf("no unique slug after %d attempts", a.maxAttempts))
}
