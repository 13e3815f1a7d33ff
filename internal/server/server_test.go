package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/repositories"
	"github.com/desertthunder/lipl/internal/shared"
	tu "github.com/desertthunder/lipl/internal/testing"
)

func newTestServer(t *testing.T, cfg shared.ServerConfig) (*repositories.MemoryRepository, http.Handler) {
	t.Helper()
	repo := repositories.NewMemoryRepository(nil, nil)
	srv := New(cfg, repo, shared.NewLogger(io.Discard))
	return repo, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestLyricRoutes(t *testing.T) {
	_, h := newTestServer(t, shared.ServerConfig{})

	rec := do(t, h, http.MethodPost, "/api/v1/lyric", models.LyricPost{Title: "Roger", Parts: [][]string{{"Hello"}}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[models.Lyric](t, rec)
	if created.ID.IsZero() {
		t.Fatal("created lyric should have an ID")
	}
	if loc := rec.Header().Get("Location"); loc != "/api/v1/lyric/"+created.ID.String() {
		t.Errorf("unexpected Location %q", loc)
	}

	t.Run("Get", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/lyric/"+created.ID.String(), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Header().Get("ETag") == "" {
			t.Error("expected an ETag header")
		}
		got := decode[models.Lyric](t, rec)
		if got.Title != "Roger" {
			t.Errorf("expected title Roger, got %q", got.Title)
		}
	})

	t.Run("GetByUUID", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/lyric/"+created.ID.UUID().String(), nil)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200 for UUID form, got %d", rec.Code)
		}
	})

	t.Run("NotModified", func(t *testing.T) {
		first := do(t, h, http.MethodGet, "/api/v1/lyric/"+created.ID.String(), nil)
		tag := first.Header().Get("ETag")

		rec := do(t, h, http.MethodGet, "/api/v1/lyric/"+created.ID.String(), nil, "If-None-Match", tag)
		if rec.Code != http.StatusNotModified {
			t.Errorf("expected 304, got %d", rec.Code)
		}
	})

	t.Run("List", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/lyric", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		summaries := decode[[]models.Summary](t, rec)
		if len(summaries) != 1 || summaries[0].Title != "Roger" {
			t.Errorf("unexpected summaries %v", summaries)
		}

		rec = do(t, h, http.MethodGet, "/api/v1/lyric?full=true", nil)
		full := decode[[]models.Lyric](t, rec)
		if len(full) != 1 || len(full[0].Parts) != 1 {
			t.Errorf("unexpected full list %v", full)
		}

		rec = do(t, h, http.MethodGet, "/api/v1/lyric?full=maybe", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for bad full flag, got %d", rec.Code)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		before := do(t, h, http.MethodGet, "/api/v1/lyric/"+created.ID.String(), nil).Header().Get("ETag")

		rec := do(t, h, http.MethodPut, "/api/v1/lyric/"+created.ID.String(), models.LyricPost{Title: "Roger 2"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		got := decode[models.Lyric](t, rec)
		if got.ID != created.ID || got.Title != "Roger 2" {
			t.Errorf("unexpected replaced lyric %v", got)
		}

		after := do(t, h, http.MethodGet, "/api/v1/lyric/"+created.ID.String(), nil).Header().Get("ETag")
		if before == after {
			t.Error("ETag should change after replace")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, "/api/v1/lyric/"+created.ID.String(), nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}

		rec = do(t, h, http.MethodDelete, "/api/v1/lyric/"+created.ID.String(), nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 on repeated delete, got %d", rec.Code)
		}
	})
}

func TestErrorMapping(t *testing.T) {
	repo, h := newTestServer(t, shared.ServerConfig{})
	ctx := context.Background()

	lyric, err := repo.CreateLyric(ctx, models.Lyric{Title: "Taken"})
	if err != nil {
		t.Fatalf("failed to create lyric: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"malformed id", http.MethodGet, "/api/v1/lyric/not-an-id", nil, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/v1/playlist", "{", http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/api/v1/playlist/" + models.NewID().String(), nil, http.StatusNotFound},
		{"wrong kind", http.MethodGet, "/api/v1/playlist/" + lyric.ID.String(), nil, http.StatusNotFound},
		{"replace missing", http.MethodPut, "/api/v1/lyric/" + models.NewID().String(), models.LyricPost{Title: "x"}, http.StatusNotFound},
		{"method", http.MethodPatch, "/api/v1/lyric", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want != http.StatusMethodNotAllowed {
				body := decode[errorBody](t, rec)
				if body.Error == "" {
					t.Error("expected an error message")
				}
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NotFound(models.NewID()), http.StatusNotFound},
		{models.AlreadyExists(models.NewID()), http.StatusConflict},
		{fmt.Errorf("%w: bad", shared.ErrInvalidID), http.StatusBadRequest},
		{fmt.Errorf("%w: boom", shared.ErrPoisoned), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: disk", shared.ErrBackend), http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestPlaylistCascadeOverHTTP(t *testing.T) {
	_, h := newTestServer(t, shared.ServerConfig{})

	lyric := decode[models.Lyric](t, do(t, h, http.MethodPost, "/api/v1/lyric", models.LyricPost{Title: "Song"}))
	rec := do(t, h, http.MethodPost, "/api/v1/playlist", models.PlaylistPost{Title: "Gig", Members: []models.ID{lyric.ID}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	gig := decode[models.Playlist](t, rec)

	if rec := do(t, h, http.MethodDelete, "/api/v1/lyric/"+lyric.ID.String(), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	got := decode[models.Playlist](t, do(t, h, http.MethodGet, "/api/v1/playlist/"+gig.ID.String(), nil))
	if len(got.Members) != 0 {
		t.Errorf("expected empty members, got %v", got.Members)
	}
}

func TestRateLimit(t *testing.T) {
	_, h := newTestServer(t, shared.ServerConfig{RateLimit: 0.001, Burst: 2})

	for i := range 2 {
		if rec := do(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := do(t, h, http.MethodGet, "/api/v1/lyric", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	router := NewBasicRouter()
	router.Use(Recover(shared.NewLogger(io.Discard)))
	router.Handle(http.MethodGet, "/panic", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := do(t, router, http.MethodGet, "/panic", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestMatchesETag(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{"*", true},
		{`"other"`, false},
	}

	for _, tt := range tests {
		if got := matchesETag(tt.header, `"abc"`); got != tt.want {
			t.Errorf("matchesETag(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestRun(t *testing.T) {
	repo := repositories.NewMemoryRepository(nil, nil)
	srv := New(shared.ServerConfig{Host: "127.0.0.1", Port: 0}, repo, shared.NewLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}

func TestRepositoryFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"poisoned", fmt.Errorf("%w: panic during write: boom", shared.ErrPoisoned), http.StatusServiceUnavailable},
		{"backend", fmt.Errorf("%w: disk full", shared.ErrBackend), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &tu.ErrRepository{Err: tt.err}
			h := New(shared.ServerConfig{}, repo, shared.NewLogger(io.Discard)).Handler()

			rec := do(t, h, http.MethodGet, "/api/v1/playlist", nil)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if repo.Calls != 1 {
				t.Errorf("expected one repository call, got %d", repo.Calls)
			}

			body := decode[errorBody](t, rec)
			if tt.want == http.StatusInternalServerError && body.Error != "internal server error" {
				t.Errorf("internal errors should not leak details, got %q", body.Error)
			}
		})
	}
}
