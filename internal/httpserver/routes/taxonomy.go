package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
)

func init() { Register(API, registerTaxonomy) }

func registerTaxonomy(r chi.Router, d deps.Deps) {
	r.Get("/api/tags", handlers.ListTags(d))
	r.Post("/api/tags", handlers.CreateTag(d))
	r.Get("/api/categories", handlers.ListCategories(d))
	r.Post("/api/categories", handlers.CreateCategory(d))
}
