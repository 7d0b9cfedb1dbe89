package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/library"
)

type bookmarkRequest struct {
	URL                     string   `json:"url" validate:"required,max=2048"`
	Title                   string   `json:"title" validate:"max=500"`
	Description             string   `json:"description" validate:"max=5000"`
	Type                    string   `json:"type" validate:"omitempty,oneof=link video image document"`
	TagIDs                  []string `json:"tagIds" validate:"max=100,dive,required"`
	CategoryID              string   `json:"categoryId"`
	ThumbnailURL            string   `json:"thumbnailUrl" validate:"max=2048"`
	VideoThumbnailTimestamp *int     `json:"videoThumbnailTimestamp" validate:"omitempty,min=0"`
	Favicon                 string   `json:"favicon" validate:"max=2048"`
}

func (b bookmarkRequest) input(id string) library.BookmarkInput {
	return library.BookmarkInput{
		ID:                      id,
		URL:                     b.URL,
		Title:                   b.Title,
		Description:             b.Description,
		Type:                    domain.ParseBookmarkType(b.Type),
		TagIDs:                  b.TagIDs,
		CategoryID:              b.CategoryID,
		ThumbnailURL:            b.ThumbnailURL,
		VideoThumbnailTimestamp: b.VideoThumbnailTimestamp,
		Favicon:                 b.Favicon,
	}
}

type listResponse struct {
	Bookmarks []*domain.Bookmark `json:"bookmarks"`
	Count     int                `json:"count"`
	Total     int                `json:"total"`
}

// ListBookmarks runs the query engine over the caller's bookmarks.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec, err := filterSpec(r)
		if err != nil {
			fail(w, d, r, err)
			return
		}
		res, err := d.Library.Query(r.Context(), owner(r), spec, locale(r, d.DefaultLocale))
		if err != nil {
			fail(w, d, r, err)
			return
		}
		out := res.Bookmarks
		if out == nil {
			out = []*domain.Bookmark{}
		}
		writeJSON(w, http.StatusOK, listResponse{Bookmarks: out, Count: len(out), Total: res.Total})
	}
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Library.Bookmark(r.Context(), owner(r), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := decode(w, r, d, &req); err != nil {
			fail(w, d, r, err)
			return
		}
		b, err := d.Library.Save(r.Context(), owner(r), req.input(""))
		if err != nil {
			fail(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := decode(w, r, d, &req); err != nil {
			fail(w, d, r, err)
			return
		}
		b, err := d.Library.Save(r.Context(), owner(r), req.input(chi.URLParam(r, "id")))
		if err != nil {
			fail(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Library.Delete(r.Context(), owner(r), chi.URLParam(r, "id")); err != nil {
			fail(w, d, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type splatResponse struct {
	SplatCount int `json:"splatCount"`
}

// Splat adds one splat, or removes one with ?undo=true.
func Splat(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		delta := 1
		if undo, _ := strconv.ParseBool(r.URL.Query().Get("undo")); undo {
			delta = -1
		}
		n, err := d.Library.Splat(r.Context(), owner(r), chi.URLParam(r, "id"), delta)
		if err != nil {
			fail(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, splatResponse{SplatCount: n})
	}
}

func Visit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Library.RecordVisit(r.Context(), owner(r), chi.URLParam(r, "id")); err != nil {
			fail(w, d, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type thumbnailOverride struct {
	ThumbnailURL string `json:"thumbnailUrl" validate:"max=2048"`
}

// SetThumbnail stores a user supplied preview. An empty URL clears it.
func SetThumbnail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req thumbnailOverride
		if err := decode(w, r, d, &req); err != nil {
			fail(w, d, r, err)
			return
		}
		if err := d.Library.SetThumbnail(r.Context(), owner(r), chi.URLParam(r, "id"), req.ThumbnailURL); err != nil {
			fail(w, d, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func filterSpec(r *http.Request) (domain.FilterSpec, error) {
	q := r.URL.Query()
	spec := domain.FilterSpec{
		Query:    q.Get("q"),
		Type:     domain.ParseBookmarkType(q.Get("type")),
		Category: strings.TrimSpace(q.Get("category")),
		SortBy:   domain.ParseSortOption(q.Get("sort")),
	}
	for _, v := range q["tags"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				spec.Tags = append(spec.Tags, id)
			}
		}
	}

	var err error
	if spec.IsAlive, err = optionalBool(q, "alive"); err != nil {
		return spec, err
	}
	if spec.ContentChanged, err = optionalBool(q, "changed"); err != nil {
		return spec, err
	}
	searchCategory, err := optionalBool(q, "search_category")
	if err != nil {
		return spec, err
	}
	spec.SearchCategory = searchCategory != nil && *searchCategory
	return spec, nil
}

func optionalBool(q url.Values, key string) (*bool, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", errBadRequest, key)
	}
	return &v, nil
}

// locale picks the collation for title sorting: ?locale, then the first
// Accept-Language entry, then def.
func locale(r *http.Request, def language.Tag) language.Tag {
	if v := r.URL.Query().Get("locale"); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return tag
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		return tags[0]
	}
	return def
}
