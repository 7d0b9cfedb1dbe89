package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
)

func init() { Register(API, registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Get("/api/bookmarks", handlers.ListBookmarks(d))
	r.Post("/api/bookmarks", handlers.CreateBookmark(d))
	r.Get("/api/bookmarks/{id}", handlers.GetBookmark(d))
	r.Put("/api/bookmarks/{id}", handlers.UpdateBookmark(d))
	r.Delete("/api/bookmarks/{id}", handlers.DeleteBookmark(d))
	r.Post("/api/bookmarks/{id}/splat", handlers.Splat(d))
	r.Post("/api/bookmarks/{id}/visit", handlers.Visit(d))
	r.Put("/api/bookmarks/{id}/thumbnail", handlers.SetThumbnail(d))
	r.With(rateLimited(d)).Get("/api/bookmarks/{id}/thumbnail", handlers.BookmarkThumbnail(d))
}
