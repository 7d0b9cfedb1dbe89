package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/sources/homepage"
	"github.com/MrSnakeDoc/marks/internal/sources/netscape"
)

// Import reads a bookmarks file from the request body. ?format selects the
// parser and defaults to the browser export format.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		if format == "" {
			format = netscape.Format
		}

		body := io.Reader(r.Body)
		if d.ImportMaxBytes > 0 {
			body = http.MaxBytesReader(w, r.Body, d.ImportMaxBytes)
		}

		drafts, err := parseImport(format, body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("import exceeds %d bytes", tooLarge.Limit))
				return
			}
			fail(w, d, r, err)
			return
		}

		res, err := d.Library.Import(r.Context(), owner(r), format, drafts)
		if err != nil {
			fail(w, d, r, err)
			return
		}
		d.Logger.Info("import finished",
			logger.String("owner", owner(r)),
			logger.String("format", format),
			logger.Int("imported", res.Imported),
			logger.Int("failed", res.Failed),
			logger.Int("skipped", res.Skipped))
		writeJSON(w, http.StatusOK, res)
	}
}

func parseImport(format string, r io.Reader) ([]domain.BookmarkDraft, error) {
	var (
		drafts []domain.BookmarkDraft
		err    error
	)
	switch format {
	case netscape.Format:
		drafts, err = netscape.Parse(r)
	case homepage.FormatBookmarks, homepage.FormatServices:
		drafts, err = homepage.Parse(format, r)
	default:
		return nil, fmt.Errorf("%w: unknown import format %q", errBadRequest, format)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return drafts, nil
}
