package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
)

type bookmarkletResponse struct {
	Bookmarklet string `json:"bookmarklet"`
}

func Bookmarklet(d deps.Deps) http.HandlerFunc {
	script := domain.Bookmarklet(d.AppURL)
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, bookmarkletResponse{Bookmarklet: script})
	}
}
