package link

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sebastianrich18/link-shortener/internal/cache"
)

// CacheStatus reports whether a resolution was served from the cache.
type CacheStatus string

const (
	CacheHit  CacheStatus = "HIT"
	CacheMiss CacheStatus = "MISS"
)

const (
	// DefaultCacheTTL caps how long a redirect payload may live in the cache.
	DefaultCacheTTL = time.Hour

	populateTimeout = 5 * time.Second
)

// CachedResolver wraps a Resolver with a cache-aside policy: probe first,
// fall back to the resolver on miss, repopulate asynchronously with a TTL
// capped to the link's own expiration. Negative outcomes (not found, expired)
// are never cached. A failing cache store degrades to a miss; it never fails
// a redirect.
//
// Updates to a link do not invalidate its cache entry. A redirect cached
// before an update keeps serving the old target until the entry's TTL lapses,
// which is bounded by min(DefaultCacheTTL, remaining link lifetime).
type CachedResolver struct {
	next   Resolver
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// CachedResolverConfig holds configuration for the cached resolver.
type CachedResolverConfig struct {
	TTL    time.Duration
	Logger *slog.Logger
	Now    func() time.Time // clock override for tests
}

// NewCachedResolver creates a CachedResolver in front of next.
func NewCachedResolver(next Resolver, store cache.Store, config *CachedResolverConfig) *CachedResolver {
	if config == nil {
		config = &CachedResolverConfig{}
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &CachedResolver{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    now,
	}
}

// Resolve resolves slug, consulting the cache first. The returned status is
// HIT when the payload came from the cache (the inner resolver is not
// invoked) and MISS otherwise, including error outcomes.
func (r *CachedResolver) Resolve(ctx context.Context, slug string) (RedirectPayload, CacheStatus, error) {
	key := cache.LinkKey(slug)

	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		// Store unreachable. The redirect path must not depend on cache
		// availability, so treat it as a miss.
		r.logger.WarnContext(ctx, "cache probe failed",
			"slug", slug,
			"error", err.Error(),
		)
	} else if ok {
		var payload RedirectPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			r.logger.WarnContext(ctx, "discarding undecodable cache entry",
				"slug", slug,
				"error", err.Error(),
			)
		} else {
			return payload, CacheHit, nil
		}
	}

	payload, err := r.next.Resolve(ctx, slug)
	if err != nil {
		// Not found and expired are terminal but must stay uncached: an
		// entry here could mask a later creation or a borderline expiry.
		return RedirectPayload{}, CacheMiss, err
	}

	// Populate off the request path. The caller may already have its
	// response; a populate failure is logged and otherwise invisible.
	go r.populate(context.WithoutCancel(ctx), slug, payload)

	return payload, CacheMiss, nil
}

func (r *CachedResolver) populate(ctx context.Context, slug string, payload RedirectPayload) {
	ttl := r.ttl
	if payload.ExpireAt != nil {
		remaining := payload.ExpireAt.Sub(r.now())
		if remaining <= 0 {
			return
		}
		if remaining < ttl {
			ttl = remaining
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("failed to encode cache payload",
			"slug", slug,
			"error", err.Error(),
		)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, populateTimeout)
	defer cancel()

	if err := r.store.Set(ctx, cache.LinkKey(slug), string(data), ttl); err != nil {
		r.logger.Warn("cache populate failed",
			"slug", slug,
			"error", err.Error(),
		)
	}
}
