package link

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sebastianrich18/link-shortener/internal/auth"
	"github.com/sebastianrich18/link-shortener/internal/errx"
	"github.com/sebastianrich18/link-shortener/internal/httpx"
)

// HTTPCreateLinkRequest represents the JSON request body for creating a link.
type HTTPCreateLinkRequest struct {
	TargetURL string     `json:"targetUrl"`
	ExpireAt  *time.Time `json:"expireAt,omitempty"`
}

// HTTPUpdateLinkRequest represents the JSON request body for updating a link.
// The strict decoder rejects any other field, so the slug and owner cannot be
// changed through this endpoint.
type HTTPUpdateLinkRequest struct {
	TargetURL *string    `json:"targetUrl,omitempty"`
	ExpireAt  *time.Time `json:"expireAt,omitempty"`
}

// CreateLinkResponse represents the JSON response for a created link.
type CreateLinkResponse struct {
	Slug string `json:"slug"`
}

// LinkResponse represents the owner's view of a link.
type LinkResponse struct {
	ID        int64      `json:"id"`
	Slug      string     `json:"slug"`
	TargetURL string     `json:"targetUrl"`
	OwnerID   int64      `json:"ownerId"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpireAt  *time.Time `json:"expireAt,omitempty"`
}

// Handler provides HTTP handlers for link management and the redirect path.
type Handler struct {
	service  Service
	resolver *CachedResolver
	logger   *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service  Service
	Resolver *CachedResolver
	Logger   *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service:  cfg.Service,
		resolver: cfg.Resolver,
		logger:   logger,
	}
}

// CreateLink handles POST requests to create a new short link.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	identity, ok := auth.IdentityFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	created, err := h.service.Create(ctx, CreateLinkRequest{
		TargetURL: req.TargetURL,
		OwnerID:   identity.ID,
		ExpireAt:  req.ExpireAt,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "link created",
		"link_id", created.ID,
		"slug", created.Slug,
		"owner_id", identity.ID,
	)

	httpx.WriteJSON(w, http.StatusCreated, CreateLinkResponse{Slug: created.Slug})
}

// GetLink handles GET requests for a link's management view. Owner-only.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.IdentityFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}

	l, err := h.service.GetBySlug(ctx, r.PathValue("slug"), identity.ID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LinkResponse{
		ID:        l.ID,
		Slug:      l.Slug,
		TargetURL: l.TargetURL,
		OwnerID:   l.OwnerID,
		CreatedAt: l.CreatedAt,
		ExpireAt:  l.ExpireAt,
	})
}

// UpdateLink handles PUT requests replacing a link's mutable fields. Owner-only.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	identity, ok := auth.IdentityFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}

	req, err := httpx.DecodeJSON[HTTPUpdateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	slug := r.PathValue("slug")
	if err := h.service.Update(ctx, slug, identity.ID, UpdateLinkRequest{
		TargetURL: req.TargetURL,
		ExpireAt:  req.ExpireAt,
	}); err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "link updated", "slug", slug, "owner_id", identity.ID)

	w.WriteHeader(http.StatusNoContent)
}

// Redirect handles GET requests on the public redirect path. Ownership is
// ignored here; anyone with the slug gets redirected.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	slug := r.PathValue("slug")

	payload, status, err := h.resolver.Resolve(ctx, slug)
	w.Header().Set("X-Cache", string(status))
	if err != nil {
		h.handleRedirectError(ctx, w, err, slug)
		return
	}

	logger.InfoContext(ctx, "slug resolved",
		"slug", slug,
		"cache", string(status),
		"target_url", payload.TargetURL,
	)

	http.Redirect(w, r, payload.TargetURL, payload.StatusCode)
}

// writeServiceError maps management service errors onto HTTP responses.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.NotFound:
		h.logger.WarnContext(ctx, "link not found", logAttrs...)
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"short link doesn't exist", nil)

	case errx.Forbidden:
		h.logger.WarnContext(ctx, "link access denied", logAttrs...)
		httpx.WriteError(w, http.StatusForbidden, "forbidden",
			"you don't own this link", nil)

	case errx.Invalid:
		h.logger.WarnContext(ctx, "invalid link request", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)

	case errx.Conflict:
		h.logger.WarnContext(ctx, "slug conflict", logAttrs...)
		httpx.WriteError(w, http.StatusConflict, "conflict",
			"This slug is already taken", nil)

	case errx.Exhausted:
		h.logger.ErrorContext(ctx, "slug allocation exhausted", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "exhausted",
			"Unable to create short link at this time. Please try again.", nil)

	case errx.Unavailable:
		h.logger.ErrorContext(ctx, "service unavailable", logAttrs...)
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"Unable to process this request at this time. Please try again.", nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error handling link request", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to process this request at this time. Please try again.", nil)
	}
}

// handleRedirectError maps redirect path errors onto HTTP responses.
func (h *Handler) handleRedirectError(ctx context.Context, w http.ResponseWriter, err error, slug string) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
		"slug", slug,
	}

	switch kind {
	case errx.NotFound:
		h.logger.WarnContext(ctx, "slug not found", logAttrs...)
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"short link doesn't exist", nil)

	case errx.Expired:
		h.logger.InfoContext(ctx, "expired link requested", logAttrs...)
		httpx.WriteError(w, http.StatusGone, "expired",
			"this short link has expired", nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error resolving link", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to resolve this link at this time", nil)
	}
}
