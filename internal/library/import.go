package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// ImportResult counts written bookmarks, drafts that were rejected or
// failed to save, and drafts whose URL is already bookmarked.
type ImportResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// Import merges drafts into the owner's library. Tags and categories are
// matched by name ignoring case. URLs already in the library, or repeated in
// the file, are skipped. Bookmarks are saved one by one so a bad row does not
// abort the rest.
func (l *Library) Import(ctx context.Context, owner, format string, drafts []domain.BookmarkDraft) (ImportResult, error) {
	c, err := l.Collection(ctx, owner)
	if err != nil {
		return ImportResult{}, err
	}

	known := make(map[string]bool, len(c.Bookmarks))
	for _, b := range c.Bookmarks {
		known[normalizeURL(b.URL)] = true
	}
	fresh := drafts[:0:0]
	skipped := 0
	for _, d := range drafts {
		key := normalizeURL(d.URL)
		if key != "" && known[key] {
			skipped++
			continue
		}
		if key != "" {
			known[key] = true
		}
		fresh = append(fresh, d)
	}

	plan := domain.PlanImport(fresh, c.Tags, c.Categories, l.newID, l.now())
	res := ImportResult{Failed: plan.Rejected, Skipped: skipped}

	defer l.invalidate(ctx, owner)
	if err := l.store.UpsertCategories(ctx, owner, plan.NewCategories...); err != nil {
		return res, fmt.Errorf("import categories: %w", err)
	}
	if err := l.store.UpsertTags(ctx, owner, plan.NewTags...); err != nil {
		return res, fmt.Errorf("import tags: %w", err)
	}

	for i, b := range plan.Bookmarks {
		if ctx.Err() != nil {
			res.Failed += len(plan.Bookmarks) - i
			break
		}
		if err := l.store.UpsertBookmark(ctx, owner, b); err != nil {
			l.log.Warn("import: bookmark not saved",
				logger.String("owner", owner),
				logger.String("url", b.URL),
				logger.Error(err))
			res.Failed++
			continue
		}
		res.Imported++
	}

	l.metrics.Imported(format, res.Imported, res.Failed)
	l.log.Info("import finished",
		logger.String("owner", owner),
		logger.String("format", format),
		logger.Int("imported", res.Imported),
		logger.Int("failed", res.Failed),
		logger.Int("skipped", res.Skipped),
		logger.Int("new_tags", len(plan.NewTags)),
		logger.Int("new_categories", len(plan.NewCategories)))
	return res, ctx.Err()
}

func normalizeURL(raw string) string {
	u, err := domain.ParseHTTPURL(raw)
	if err != nil {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
