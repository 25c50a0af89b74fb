package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sebastianrich18/link-shortener/internal/auth"
	"github.com/sebastianrich18/link-shortener/internal/errx"
	"github.com/sebastianrich18/link-shortener/internal/httpx"
)

const minPasswordLength = 8

// CredentialsRequest is the JSON request body for register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Handler provides HTTP handlers for registration and login.
type Handler struct {
	repo   Repository
	tokens *auth.Issuer
	logger *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Repo   Repository
	Tokens *auth.Issuer
	Logger *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		repo:   cfg.Repo,
		tokens: cfg.Tokens,
		logger: logger,
	}
}

// Register handles POST requests creating a new account. New accounts always
// get the USER role; admins are created manually in the database.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	req, err := httpx.DecodeJSON[CredentialsRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	if err := validateCredentials(req); err != nil {
		logger.WarnContext(ctx, "request validation failed", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.ErrorContext(ctx, "failed to hash password", "error", err.Error())
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to register at this time. Please try again.", nil)
		return
	}

	created, err := h.repo.Create(ctx, CreateUser{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         auth.RoleUser,
	})
	if err != nil {
		h.handleRegisterError(ctx, w, err)
		return
	}

	token, err := h.tokens.Issue(created.ID, created.Role)
	if err != nil {
		logger.ErrorContext(ctx, "failed to issue token", "error", err.Error())
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Account created but token issuing failed. Please log in.", nil)
		return
	}

	logger.InfoContext(ctx, "user registered", "user_id", created.ID)

	httpx.WriteJSON(w, http.StatusCreated, TokenResponse{Token: token})
}

// Login handles POST requests exchanging credentials for a token. Unknown
// email and wrong password are indistinguishable in the response so that
// registered addresses don't leak.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	req, err := httpx.DecodeJSON[CredentialsRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	u, err := h.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			h.writeInvalidCredentials(w)
			return
		}
		logger.ErrorContext(ctx, "failed to look up user", "error", err.Error())
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"Unable to log in at this time. Please try again.", nil)
		return
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		logger.WarnContext(ctx, "invalid login attempt", "user_id", u.ID)
		h.writeInvalidCredentials(w)
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Role)
	if err != nil {
		logger.ErrorContext(ctx, "failed to issue token", "error", err.Error())
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to log in at this time. Please try again.", nil)
		return
	}

	logger.InfoContext(ctx, "user logged in", "user_id", u.ID)

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) handleRegisterError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Conflict:
		h.logger.WarnContext(ctx, "email already registered", logAttrs...)
		httpx.WriteError(w, http.StatusConflict, "conflict",
			"This email is already registered", nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error registering user", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to register at this time. Please try again.", nil)
	}
}

func (h *Handler) writeInvalidCredentials(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials",
		"Invalid email or password", nil)
}

func validateCredentials(req CredentialsRequest) error {
	if req.Email == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(req.Email, "@") {
		return errors.New("email is not valid")
	}
	if len(req.Password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
