package bots

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the LINE webhook endpoint on the given router.
func RegisterRoutes(r chi.Router, lineHandler *LineHandler) {
	r.Post("/webhook", lineHandler.HandleWebhook)
}
