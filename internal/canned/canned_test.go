package canned

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/line-relay/internal/cache"
	"github.com/ziadkadry99/line-relay/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func setupRouter(t *testing.T) (*Store, *cache.MemoryCache, chi.Router) {
	t.Helper()
	store := setupStore(t)
	c := cache.NewMemoryCache()
	r := chi.NewRouter()
	RegisterRoutes(r, store, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return store, c, r
}

func TestUpsertAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "  opening hours  ", "9 to 5"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := store.Get(ctx, "opening hours")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Reply != "9 to 5" {
		t.Errorf("Reply = %q, want %q", got.Reply, "9 to 5")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be populated")
	}

	if err := store.Upsert(ctx, "opening hours", "10 to 6"); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	got, _ = store.Get(ctx, "opening hours")
	if got.Reply != "10 to 6" {
		t.Errorf("Upsert should replace reply, got %q", got.Reply)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 row after replace, got %d", len(all))
	}
}

func TestUpsertNormalizesPrompt(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "Hello", "first"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Upsert(ctx, " hello ", "second"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].Prompt != "hello" || all[0].Reply != "second" {
		t.Errorf("expected one normalized row, got %+v", all)
	}
	if _, err := store.Get(ctx, "HELLO"); err != nil {
		t.Errorf("Get should match any case: %v", err)
	}
	if err := store.Delete(ctx, "HeLLo"); err != nil {
		t.Errorf("Delete should match any case: %v", err)
	}
	if all, _ := store.List(ctx); len(all) != 0 {
		t.Errorf("expected no rows after delete, got %+v", all)
	}
}

func TestUpsertValidation(t *testing.T) {
	store := setupStore(t)
	if err := store.Upsert(context.Background(), "", "reply"); err == nil {
		t.Error("expected error for empty prompt")
	}
	if err := store.Upsert(context.Background(), "prompt", "  "); err == nil {
		t.Error("expected error for blank reply")
	}
}

func TestGetAndDeleteNotFound(t *testing.T) {
	store := setupStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestSeeds(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Upsert(ctx, "b", "2")
	store.Upsert(ctx, "a", "1")

	seeds, err := store.Seeds(ctx)
	if err != nil {
		t.Fatalf("Seeds: %v", err)
	}
	if len(seeds) != 2 || seeds[0].Prompt != "a" || seeds[1].Reply != "2" {
		t.Errorf("unexpected seeds: %+v", seeds)
	}
}

func TestWarmFromStore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Upsert(ctx, "Where are you?", "Tokyo")

	c := cache.NewMemoryCache()
	if _, err := cache.Warm(ctx, c, store, nil); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if got, ok, _ := c.Get(ctx, cache.Key("where are you?")); !ok || got != "Tokyo" {
		t.Errorf("expected warmed entry, got %q %v", got, ok)
	}
}

func TestRoutesUpsertListDelete(t *testing.T) {
	_, c, r := setupRouter(t)
	ctx := context.Background()

	body := `{"prompt":"Opening hours?","reply":"9 to 5"}`
	req := httptest.NewRequest(http.MethodPut, "/api/canned/", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got, ok, _ := c.Get(ctx, cache.Key("opening hours?")); !ok || got != "9 to 5" {
		t.Errorf("PUT should update cache, got %q %v", got, ok)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/canned/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", w.Code)
	}
	var replies []Reply
	if err := json.Unmarshal(w.Body.Bytes(), &replies); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(replies) != 1 || replies[0].Prompt != "opening hours?" {
		t.Errorf("unexpected list: %+v", replies)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/canned/?prompt=Opening+hours%3F", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("DELETE: expected 204, got %d", w.Code)
	}
	if _, ok, _ := c.Get(ctx, cache.Key("opening hours?")); ok {
		t.Error("DELETE should evict cache entry")
	}
}

func TestRoutesErrors(t *testing.T) {
	_, _, r := setupRouter(t)

	tests := []struct {
		method, target, body string
		want                 int
	}{
		{http.MethodPut, "/api/canned/", "{bad", http.StatusBadRequest},
		{http.MethodPut, "/api/canned/", `{"prompt":"","reply":"x"}`, http.StatusBadRequest},
		{http.MethodDelete, "/api/canned/", "", http.StatusBadRequest},
		{http.MethodDelete, "/api/canned/?prompt=missing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.target, tt.want, w.Code)
		}
	}
}

func TestRoutesEmptyList(t *testing.T) {
	_, _, r := setupRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/canned/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %q", w.Body.String())
	}
}
