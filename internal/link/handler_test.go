package link

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/sebastianrich18/link-shortener/internal/auth"
	"github.com/sebastianrich18/link-shortener/internal/cache"
)

func newTestHandler(t *testing.T) (*Handler, Repository, *cache.MemoryStore) {
	t.Helper()

	repo := NewMemoryRepository()
	store := cache.NewMemoryStore()
	svc := NewService(repo, nil)
	resolver := NewCachedResolver(NewResolver(repo, nil), store, nil)

	h := NewHandler(HandlerConfig{
		Service:  svc,
		Resolver: resolver,
	})
	return h, repo, store
}

func authedRequest(method, target string, body []byte, ownerID int64) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	ctx := auth.WithIdentity(r.Context(), auth.Identity{ID: ownerID, Role: auth.RoleUser})
	return r.WithContext(ctx)
}

func createViaHandler(t *testing.T, h *Handler, ownerID int64, body string) string {
	t.Helper()

	r := authedRequest(http.MethodPost, "/link", []byte(body), ownerID)
	w := httptest.NewRecorder()
	h.CreateLink(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("CreateLink status = %d, want 201; body: %s", w.Code, w.Body.String())
	}

	var resp CreateLinkResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.Slug
}

func TestHandlerCreateLink(t *testing.T) {
	t.Run("returns slug of the created link", func(t *testing.T) {
		h, _, _ := newTestHandler(t)

		slug := createViaHandler(t, h, 42, `{"targetUrl":"https://example.com"}`)
		if !regexp.MustCompile(`^[a-z0-9]{12}$`).MatchString(slug) {
			t.Errorf("slug %q does not match ^[a-z0-9]{12}$", slug)
		}
	})

	t.Run("rejects unauthenticated requests", func(t *testing.T) {
		h, _, _ := newTestHandler(t)

		r := httptest.NewRequest(http.MethodPost, "/link",
			strings.NewReader(`{"targetUrl":"https://example.com"}`))
		w := httptest.NewRecorder()
		h.CreateLink(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("rejects unknown body fields", func(t *testing.T) {
		h, _, _ := newTestHandler(t)

		r := authedRequest(http.MethodPost, "/link",
			[]byte(`{"targetUrl":"https://example.com","slug":"custom"}`), 42)
		w := httptest.NewRecorder()
		h.CreateLink(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		h, _, _ := newTestHandler(t)

		r := authedRequest(http.MethodPost, "/link", []byte(`{not json`), 42)
		w := httptest.NewRecorder()
		h.CreateLink(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("rejects invalid target url", func(t *testing.T) {
		h, _, _ := newTestHandler(t)

		r := authedRequest(http.MethodPost, "/link",
			[]byte(`{"targetUrl":"ftp://example.com/file"}`), 42)
		w := httptest.NewRecorder()
		h.CreateLink(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("rejects past expiry", func(t *testing.T) {
		h, _, _ := newTestHandler(t)

		past := time.Now().Add(-time.Hour).Format(time.RFC3339)
		r := authedRequest(http.MethodPost, "/link",
			[]byte(`{"targetUrl":"https://example.com","expireAt":"`+past+`"}`), 42)
		w := httptest.NewRecorder()
		h.CreateLink(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestHandlerGetLink(t *testing.T) {
	t.Run("returns the owner's view", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		slug := createViaHandler(t, h, 42, `{"targetUrl":"https://example.com"}`)

		r := authedRequest(http.MethodGet, "/link/"+slug, nil, 42)
		r.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		h.GetLink(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
		}

		var resp LinkResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Slug != slug {
			t.Errorf("slug = %q, want %q", resp.Slug, slug)
		}
		if resp.TargetURL != "https://example.com" {
			t.Errorf("target url = %q, want %q", resp.TargetURL, "https://example.com")
		}
		if resp.OwnerID != 42 {
			t.Errorf("owner id = %d, want 42", resp.OwnerID)
		}
	})

	t.Run("denies another user's link", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		slug := createViaHandler(t, h, 42, `{"targetUrl":"https://example.com"}`)

		r := authedRequest(http.MethodGet, "/link/"+slug, nil, 7)
		r.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		h.GetLink(w, r)

		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("unknown slug returns 404", func(t *testing.T) {
		h, _, _ := newTestHandler(t)

		r := authedRequest(http.MethodGet, "/link/missing00000", nil, 42)
		r.SetPathValue("slug", "missing00000")
		w := httptest.NewRecorder()
		h.GetLink(w, r)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestHandlerUpdateLink(t *testing.T) {
	t.Run("replaces the target url", func(t *testing.T) {
		h, repo, _ := newTestHandler(t)
		slug := createViaHandler(t, h, 42, `{"targetUrl":"https://old.example.com"}`)

		r := authedRequest(http.MethodPut, "/link/"+slug,
			[]byte(`{"targetUrl":"https://new.example.com"}`), 42)
		r.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		h.UpdateLink(w, r)

		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204; body: %s", w.Code, w.Body.String())
		}

		stored, err := repo.FindBySlug(context.Background(), slug)
		if err != nil {
			t.Fatalf("FindBySlug() unexpected error: %v", err)
		}
		if stored.TargetURL != "https://new.example.com" {
			t.Errorf("target url = %q, want %q", stored.TargetURL, "https://new.example.com")
		}
	})

	t.Run("slug is not updatable", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		slug := createViaHandler(t, h, 42, `{"targetUrl":"https://example.com"}`)

		r := authedRequest(http.MethodPut, "/link/"+slug,
			[]byte(`{"slug":"mynewslug000"}`), 42)
		r.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		h.UpdateLink(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("owner is not updatable", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		slug := createViaHandler(t, h, 42, `{"targetUrl":"https://example.com"}`)

		r := authedRequest(http.MethodPut, "/link/"+slug,
			[]byte(`{"ownerId":7}`), 42)
		r.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		h.UpdateLink(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("denies update by non-owner", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		slug := createViaHandler(t, h, 42, `{"targetUrl":"https://example.com"}`)

		r := authedRequest(http.MethodPut, "/link/"+slug,
			[]byte(`{"targetUrl":"https://new.example.com"}`), 7)
		r.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		h.UpdateLink(w, r)

		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}

func TestHandlerRedirect(t *testing.T) {
	t.Run("miss then hit", func(t *testing.T) {
		h, _, store := newTestHandler(t)
		slug := createViaHandler(t, h, 42, `{"targetUrl":"https://example.com/landing"}`)

		r := httptest.NewRequest(http.MethodGet, "/"+slug, nil)
		r.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		h.Redirect(w, r)

		if w.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302; body: %s", w.Code, w.Body.String())
		}
		if got := w.Header().Get("X-Cache"); got != "MISS" {
			t.Errorf("X-Cache = %q, want MISS", got)
		}
		if got := w.Header().Get("Location"); got != "https://example.com/landing" {
			t.Errorf("Location = %q, want %q", got, "https://example.com/landing")
		}

		waitFor(t, time.Second, func() bool {
			_, ok, _ := store.Get(context.Background(), cache.LinkKey(slug))
			return ok
		})

		r = httptest.NewRequest(http.MethodGet, "/"+slug, nil)
		r.SetPathValue("slug", slug)
		w = httptest.NewRecorder()
		h.Redirect(w, r)

		if w.Code != http.StatusFound {
			t.Fatalf("second redirect status = %d, want 302", w.Code)
		}
		if got := w.Header().Get("X-Cache"); got != "HIT" {
			t.Errorf("second redirect X-Cache = %q, want HIT", got)
		}
		if got := w.Header().Get("Location"); got != "https://example.com/landing" {
			t.Errorf("second redirect Location = %q, want %q", got, "https://example.com/landing")
		}
	})

	t.Run("unknown slug returns 404 with X-Cache MISS", func(t *testing.T) {
		h, _, _ := newTestHandler(t)

		r := httptest.NewRequest(http.MethodGet, "/missing00000", nil)
		r.SetPathValue("slug", "missing00000")
		w := httptest.NewRecorder()
		h.Redirect(w, r)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
		if got := w.Header().Get("X-Cache"); got != "MISS" {
			t.Errorf("X-Cache = %q, want MISS", got)
		}
	})

	t.Run("expired slug returns 410", func(t *testing.T) {
		h, repo, _ := newTestHandler(t)

		expire := time.Now().Add(-time.Minute)
		if _, err := repo.Create(context.Background(), CreateLink{
			Slug:      "expired00000",
			TargetURL: "https://example.com",
			OwnerID:   42,
			ExpireAt:  &expire,
		}); err != nil {
			t.Fatalf("seed repo: %v", err)
		}

		r := httptest.NewRequest(http.MethodGet, "/expired00000", nil)
		r.SetPathValue("slug", "expired00000")
		w := httptest.NewRecorder()
		h.Redirect(w, r)

		if w.Code != http.StatusGone {
			t.Errorf("status = %d, want 410", w.Code)
		}
		if got := w.Header().Get("X-Cache"); got != "MISS" {
			t.Errorf("X-Cache = %q, want MISS", got)
		}
	})
}
