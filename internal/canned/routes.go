package canned

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/line-relay/internal/cache"
)

// RegisterRoutes mounts canned reply endpoints under /api/canned. Writes
// are mirrored into c so changes take effect without a restart.
func RegisterRoutes(r chi.Router, store *Store, c cache.Cache, logger *slog.Logger) {
	r.Route("/api/canned", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Put("/", handleUpsert(store, c, logger))
		r.Delete("/", handleDelete(store, c, logger))
	})
}

type upsertRequest struct {
	Prompt string `json:"prompt"`
	Reply  string `json:"reply"`
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		replies, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if replies == nil {
			replies = []Reply{}
		}
		writeJSON(w, http.StatusOK, replies)
	}
}

func handleUpsert(store *Store, c cache.Cache, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if err := store.Upsert(r.Context(), req.Prompt, req.Reply); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := c.Set(r.Context(), cache.Key(req.Prompt), req.Reply, 0); err != nil {
			logger.Warn("canned reply saved but cache not updated", "error", err)
		}

		saved, err := store.Get(r.Context(), req.Prompt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func handleDelete(store *Store, c cache.Cache, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prompt := r.URL.Query().Get("prompt")
		if prompt == "" {
			http.Error(w, "prompt query parameter is required", http.StatusBadRequest)
			return
		}
		if err := store.Delete(r.Context(), prompt); err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := c.Delete(r.Context(), cache.Key(prompt)); err != nil {
			logger.Warn("canned reply deleted but cache not updated", "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
