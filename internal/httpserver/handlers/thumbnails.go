package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

type thumbnailRequest struct {
	URL  string `json:"url" validate:"required,max=2048"`
	Type string `json:"type" validate:"omitempty,oneof=link video image document"`
}

type thumbnailResponse struct {
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Thumbnail resolves a preview for ?url (and optional ?type). No preview,
// or a caller that stopped waiting, yields 204.
func Thumbnail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := thumbnailRequest{URL: r.URL.Query().Get("url"), Type: r.URL.Query().Get("type")}
		if err := check(d, req); err != nil {
			fail(w, d, r, err)
			return
		}
		if _, err := domain.ParseHTTPURL(req.URL); err != nil {
			fail(w, d, r, err)
			return
		}
		url, ok := d.Thumbnails.Resolve(r.Context(), req.URL, targetType(req))
		respondThumbnail(w, url, ok)
	}
}

// RegenerateThumbnail bypasses the cache for one URL.
func RegenerateThumbnail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req thumbnailRequest
		if err := decode(w, r, d, &req); err != nil {
			fail(w, d, r, err)
			return
		}
		if _, err := domain.ParseHTTPURL(req.URL); err != nil {
			fail(w, d, r, err)
			return
		}
		url, ok := d.Thumbnails.Regenerate(r.Context(), req.URL, targetType(req))
		respondThumbnail(w, url, ok)
	}
}

// BookmarkThumbnail resolves the preview of a stored bookmark, honoring its
// override and video timestamp.
func BookmarkThumbnail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Library.Bookmark(r.Context(), owner(r), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, d, r, err)
			return
		}
		url, ok := d.Thumbnails.ResolveBookmark(r.Context(), b)
		respondThumbnail(w, url, ok)
	}
}

func targetType(req thumbnailRequest) domain.BookmarkType {
	if t := domain.ParseBookmarkType(req.Type); t != "" {
		return t
	}
	return domain.DetectType(req.URL)
}

func respondThumbnail(w http.ResponseWriter, url string, ok bool) {
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, thumbnailResponse{ThumbnailURL: url})
}

type flushResponse struct {
	Removed int `json:"removed"`
}

// FlushThumbnails empties the shared thumbnail cache.
func FlushThumbnails(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Flusher == nil {
			writeError(w, http.StatusServiceUnavailable, "no shared thumbnail cache")
			return
		}
		n, err := d.Flusher.FlushThumbnails(r.Context())
		if err != nil {
			fail(w, d, r, err)
			return
		}
		d.Logger.Info("thumbnail cache flushed", logger.Int("removed", n))
		writeJSON(w, http.StatusOK, flushResponse{Removed: n})
	}
}
