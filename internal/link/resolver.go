package link

import (
	"context"
	"fmt"
	"time"

	"github.com/sebastianrich18/link-shortener/internal/errx"
)

// RedirectPayload is the public redirect view of a link. It deliberately
// excludes the owner id: cache entries built from it must never carry an
// ownership signal.
type RedirectPayload struct {
	TargetURL  string     `json:"targetUrl"`
	StatusCode int        `json:"statusCode"`
	ExpireAt   *time.Time `json:"expireAt,omitempty"`
}

// Resolver decides the terminal state for a slug: redirect, expired, or not
// found.
type Resolver interface {
	Resolve(ctx context.Context, slug string) (RedirectPayload, error)
}

type resolver struct {
	repo Repository
	now  func() time.Time
}

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	Now func() time.Time // clock override for tests
}

// NewResolver creates a new Resolver.
func NewResolver(repo Repository, config *ResolverConfig) Resolver {
	if config == nil {
		config = &ResolverConfig{}
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &resolver{repo: repo, now: now}
}

func (r *resolver) Resolve(ctx context.Context, slug string) (RedirectPayload, error) {
	const op = "link.resolver.Resolve"

	l, err := r.repo.FindBySlug(ctx, slug)
	if err != nil {
		return RedirectPayload{}, errx.E(op, errx.KindOf(err), err)
	}

	if l.ExpiredAt(r.now()) {
		return RedirectPayload{}, errx.E(op, errx.Expired,
			fmt.Errorf("link %q expired at %s", slug, l.ExpireAt.Format(time.RFC3339)))
	}

	return RedirectPayload{
		TargetURL:  l.TargetURL,
		StatusCode: 302,
		ExpireAt:   l.ExpireAt,
	}, nil
}
