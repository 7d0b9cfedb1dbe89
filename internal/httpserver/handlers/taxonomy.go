package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/library"
)

type tagRequest struct {
	Name  string `json:"name" validate:"required,max=64"`
	Color string `json:"color" validate:"max=32"`
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=64"`
	Icon string `json:"icon" validate:"max=64"`
}

type duplicateResponse struct {
	Error    string `json:"error"`
	Existing any    `json:"existing"`
}

func ListTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := d.Library.Tags(r.Context(), owner(r))
		if err != nil {
			fail(w, d, r, err)
			return
		}
		if tags == nil {
			tags = []*domain.Tag{}
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

// CreateTag answers 409 with the existing tag when the name is taken.
func CreateTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tagRequest
		if err := decode(w, r, d, &req); err != nil {
			fail(w, d, r, err)
			return
		}
		t, err := d.Library.CreateTag(r.Context(), owner(r), req.Name, req.Color)
		if errors.Is(err, library.ErrDuplicateName) {
			writeJSON(w, http.StatusConflict, duplicateResponse{Error: err.Error(), Existing: t})
			return
		}
		if err != nil {
			fail(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func ListCategories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := d.Library.Categories(r.Context(), owner(r))
		if err != nil {
			fail(w, d, r, err)
			return
		}
		if categories == nil {
			categories = []*domain.Category{}
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

func CreateCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryRequest
		if err := decode(w, r, d, &req); err != nil {
			fail(w, d, r, err)
			return
		}
		c, err := d.Library.CreateCategory(r.Context(), owner(r), req.Name, req.Icon)
		if errors.Is(err, library.ErrDuplicateName) {
			writeJSON(w, http.StatusConflict, duplicateResponse{Error: err.Error(), Existing: c})
			return
		}
		if err != nil {
			fail(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}
