package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
)

func init() { Register(API, registerImport) }

func registerImport(r chi.Router, d deps.Deps) {
	r.With(rateLimited(d)).Post("/api/import", handlers.Import(d))
	r.Post("/api/linkcheck", handlers.LinkCheck(d))
}
