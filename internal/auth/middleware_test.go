package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sebastianrich18/link-shortener/internal/errx"
)

// mockVerifier implements TokenVerifier for testing.
type mockVerifier struct {
	verifyFunc func(token string) (Identity, error)
}

func (m *mockVerifier) Verify(token string) (Identity, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(token)
	}
	return Identity{}, errx.E("verify", errx.Unauthorized, errors.New("invalid token"))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequire(t *testing.T) {
	t.Run("injects identity for valid token", func(t *testing.T) {
		verifier := &mockVerifier{
			verifyFunc: func(token string) (Identity, error) {
				if token != "good-token" {
					t.Errorf("verifier received token %q, want %q", token, "good-token")
				}
				return Identity{ID: 42, Role: RoleUser}, nil
			},
		}

		var got Identity
		var found bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, found = IdentityFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		r := httptest.NewRequest(http.MethodGet, "/link/abc", nil)
		r.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		Require(verifier, discardLogger())(next).ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if !found {
			t.Fatal("identity missing from handler context")
		}
		if got.ID != 42 || got.Role != RoleUser {
			t.Errorf("identity = %+v, want ID 42 role USER", got)
		}
	})

	t.Run("rejects missing header", func(t *testing.T) {
		nextCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
		})

		r := httptest.NewRequest(http.MethodGet, "/link/abc", nil)
		w := httptest.NewRecorder()
		Require(&mockVerifier{}, discardLogger())(next).ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
		if nextCalled {
			t.Error("handler ran without credentials")
		}
	})

	t.Run("rejects non-bearer scheme", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/link/abc", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		Require(&mockVerifier{}, discardLogger())(http.NotFoundHandler()).ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("rejects empty bearer token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/link/abc", nil)
		r.Header.Set("Authorization", "Bearer ")
		w := httptest.NewRecorder()
		Require(&mockVerifier{}, discardLogger())(http.NotFoundHandler()).ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("rejects token the verifier refuses", func(t *testing.T) {
		nextCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
		})

		r := httptest.NewRequest(http.MethodGet, "/link/abc", nil)
		r.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()
		Require(&mockVerifier{}, discardLogger())(next).ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
		if nextCalled {
			t.Error("handler ran with a refused token")
		}
	})
}

func TestIdentityContext(t *testing.T) {
	t.Run("round-trips through context", func(t *testing.T) {
		ctx := WithIdentity(t.Context(), Identity{ID: 7, Role: RoleAdmin})

		got, ok := IdentityFrom(ctx)
		if !ok {
			t.Fatal("IdentityFrom() did not find identity")
		}
		if got.ID != 7 || got.Role != RoleAdmin {
			t.Errorf("identity = %+v, want ID 7 role ADMIN", got)
		}
	})

	t.Run("absent identity reports false", func(t *testing.T) {
		if _, ok := IdentityFrom(t.Context()); ok {
			t.Error("IdentityFrom() found identity in empty context")
		}
	})
}
