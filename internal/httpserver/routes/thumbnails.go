package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
)

func init() { Register(API, registerThumbnails) }

// Resolution fans out to third-party hosts, so it shares one rate limit.
func registerThumbnails(r chi.Router, d deps.Deps) {
	limited := r.With(rateLimited(d))
	limited.Get("/api/thumbnails", handlers.Thumbnail(d))
	limited.Post("/api/thumbnails/regenerate", handlers.RegenerateThumbnail(d))
}
