package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sebastianrich18/link-shortener/internal/httpx"
)

// TokenVerifier validates a bearer token and returns the identity it names.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

type contextKey string

const identityContextKey contextKey = "identity"

// IdentityFrom extracts the authenticated identity from context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}

// WithIdentity adds an identity to the context. Useful for tests.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// Require is a middleware that rejects requests without a valid bearer token
// and injects the verified Identity into the request context.
func Require(verifier TokenVerifier, logger *slog.Logger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized",
					"missing or malformed Authorization header", nil)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(r.Context(), "token verification failed",
					"request_id", httpx.GetRequestID(r.Context()),
					"error", err.Error(),
				)
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized",
					"invalid or expired token", nil)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
