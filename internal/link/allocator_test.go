package link

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/sebastianrich18/link-shortener/internal/errx"
)

func TestGenerateUniqueSlug(t *testing.T) {
	t.Run("returns first free slug", func(t *testing.T) {
		gen := &mockSlugGenerator{slugs: []string{"free00000000"}}
		alloc := NewAllocator(&mockRepository{}, &AllocatorConfig{Generator: gen})

		slug, err := alloc.GenerateUniqueSlug(context.Background())
		if err != nil {
			t.Fatalf("GenerateUniqueSlug() unexpected error: %v", err)
		}
		if slug != "free00000000" {
			t.Errorf("slug = %q, want %q", slug, "free00000000")
		}
		if gen.callCount != 1 {
			t.Errorf("generator called %d times, want 1", gen.callCount)
		}
	})

	t.Run("skips taken slugs", func(t *testing.T) {
		taken := map[string]bool{"taken0000001": true, "taken0000002": true}
		repo := &mockRepository{
			findBySlugFunc: func(ctx context.Context, slug string) (Link, error) {
				if taken[slug] {
					return Link{ID: 1, Slug: slug}, nil
				}
				return Link{}, errx.E("repo.FindBySlug", errx.NotFound, errors.New("not found"))
			},
		}
		gen := &mockSlugGenerator{slugs: []string{"taken0000001", "taken0000002", "free00000000"}}
		alloc := NewAllocator(repo, &AllocatorConfig{Generator: gen})

		slug, err := alloc.GenerateUniqueSlug(context.Background())
		if err != nil {
			t.Fatalf("GenerateUniqueSlug() unexpected error: %v", err)
		}
		if slug != "free00000000" {
			t.Errorf("slug = %q, want %q", slug, "free00000000")
		}
		if gen.callCount != 3 {
			t.Errorf("generator called %d times, want 3", gen.callCount)
		}
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		lookups := 0
		repo := &mockRepository{
			findBySlugFunc: func(ctx context.Context, slug string) (Link, error) {
				lookups++
				return Link{ID: 1, Slug: slug}, nil
			},
		}
		alloc := NewAllocator(repo, &AllocatorConfig{Generator: &mockSlugGenerator{}})

		_, err := alloc.GenerateUniqueSlug(context.Background())
		if errx.KindOf(err) != errx.Exhausted {
			t.Errorf("error kind = %v, want Exhausted", errx.KindOf(err))
		}
		if lookups != DefaultAllocAttempts {
			t.Errorf("repository probed %d times, want %d", lookups, DefaultAllocAttempts)
		}
	})

	t.Run("respects custom attempt budget", func(t *testing.T) {
		gen := &mockSlugGenerator{}
		repo := &mockRepository{
			findBySlugFunc: func(ctx context.Context, slug string) (Link, error) {
				return Link{ID: 1, Slug: slug}, nil
			},
		}
		alloc := NewAllocator(repo, &AllocatorConfig{Generator: gen, MaxAttempts: 2})

		_, err := alloc.GenerateUniqueSlug(context.Background())
		if errx.KindOf(err) != errx.Exhausted {
			t.Errorf("error kind = %v, want Exhausted", errx.KindOf(err))
		}
		if gen.callCount != 2 {
			t.Errorf("generator called %d times, want 2", gen.callCount)
		}
	})

	t.Run("aborts on storage failure", func(t *testing.T) {
		lookups := 0
		repo := &mockRepository{
			findBySlugFunc: func(ctx context.Context, slug string) (Link, error) {
				lookups++
				return Link{}, errx.E("repo.FindBySlug", errx.Unavailable, errors.New("connection refused"))
			},
		}
		alloc := NewAllocator(repo, &AllocatorConfig{Generator: &mockSlugGenerator{}})

		_, err := alloc.GenerateUniqueSlug(context.Background())
		if errx.KindOf(err) != errx.Unavailable {
			t.Errorf("error kind = %v, want Unavailable", errx.KindOf(err))
		}
		if lookups != 1 {
			t.Errorf("repository probed %d times after failure, want 1", lookups)
		}
	})

	t.Run("aborts on generator failure", func(t *testing.T) {
		gen := &mockSlugGenerator{
			generateFunc: func(length int) (string, error) {
				return "", errors.New("entropy source failed")
			},
		}
		alloc := NewAllocator(&mockRepository{}, &AllocatorConfig{Generator: gen})

		_, err := alloc.GenerateUniqueSlug(context.Background())
		if errx.KindOf(err) != errx.Unavailable {
			t.Errorf("error kind = %v, want Unavailable", errx.KindOf(err))
		}
	})

	t.Run("default generator yields valid slugs", func(t *testing.T) {
		alloc := NewAllocator(NewMemoryRepository(), nil)

		slug, err := alloc.GenerateUniqueSlug(context.Background())
		if err != nil {
			t.Fatalf("GenerateUniqueSlug() unexpected error: %v", err)
		}
		if !regexp.MustCompile(`^[a-z0-9]{12}$`).MatchString(slug) {
			t.Errorf("slug %q does not match ^[a-z0-9]{12}$", slug)
		}
	})
}
