package supabase

import (
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

const (
	tableBookmarks    = "bookmarks"
	tableTags         = "tags"
	tableCategories   = "categories"
	tableBookmarkTags = "bookmark_tags"
)

type bookmarkRow struct {
	ID                      string     `json:"id"`
	UserID                  string     `json:"user_id"`
	URL                     string     `json:"url"`
	Title                   string     `json:"title"`
	Description             *string    `json:"description"`
	Type                    string     `json:"type"`
	ThumbnailURL            *string    `json:"thumbnail_url"`
	VideoThumbnailTimestamp *int       `json:"video_thumbnail_timestamp"`
	DateAdded               time.Time  `json:"date_added"`
	LastVisited             *time.Time `json:"last_visited"`
	LastChecked             *time.Time `json:"last_checked"`
	IsAlive                 bool       `json:"is_alive"`
	ContentChanged          *bool      `json:"content_changed"`
	Favicon                 *string    `json:"favicon"`
	CategoryID              *string    `json:"category_id"`
	SplatCount              *int       `json:"splat_count"`
}

type tagRow struct {
	ID     string  `json:"id"`
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Color  *string `json:"color"`
}

type categoryRow struct {
	ID     string  `json:"id"`
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Icon   *string `json:"icon"`
}

type bookmarkTagRow struct {
	BookmarkID string `json:"bookmark_id"`
	TagID      string `json:"tag_id"`
}

func toBookmarkRow(owner string, b *domain.Bookmark) bookmarkRow {
	row := bookmarkRow{
		ID:                      b.ID,
		UserID:                  owner,
		URL:                     b.URL,
		Title:                   b.Title,
		Description:             optional(b.Description),
		Type:                    string(b.Type),
		ThumbnailURL:            optional(b.ThumbnailURL),
		VideoThumbnailTimestamp: b.VideoThumbnailTimestamp,
		DateAdded:               b.DateAdded.UTC(),
		LastVisited:             b.LastVisited,
		LastChecked:             b.LastChecked,
		IsAlive:                 b.IsAlive,
		ContentChanged:          b.ContentChanged,
		Favicon:                 optional(b.Favicon),
		SplatCount:              b.SplatCount,
	}
	if b.Category != nil {
		row.CategoryID = &b.Category.ID
	}
	return row
}

func toTagRow(owner string, t *domain.Tag) tagRow {
	return tagRow{ID: t.ID, UserID: owner, Name: t.Name, Color: optional(t.Color)}
}

func toCategoryRow(owner string, c *domain.Category) categoryRow {
	return categoryRow{ID: c.ID, UserID: owner, Name: c.Name, Icon: optional(c.Icon)}
}

func (r tagRow) toDomain() *domain.Tag {
	return &domain.Tag{ID: r.ID, Name: r.Name, Color: deref(r.Color)}
}

func (r categoryRow) toDomain() *domain.Category {
	return &domain.Category{ID: r.ID, Name: r.Name, Icon: deref(r.Icon)}
}

// assemble joins bookmark rows with their tags and category. Links to tags or
// categories that are not in the given sets are dropped.
func assemble(rows []bookmarkRow, tags []tagRow, categories []categoryRow, links []bookmarkTagRow) []*domain.Bookmark {
	tagByID := make(map[string]*domain.Tag, len(tags))
	for _, t := range tags {
		tagByID[t.ID] = t.toDomain()
	}
	catByID := make(map[string]*domain.Category, len(categories))
	for _, c := range categories {
		catByID[c.ID] = c.toDomain()
	}
	tagsOf := make(map[string][]domain.Tag, len(rows))
	for _, l := range links {
		t, ok := tagByID[l.TagID]
		if !ok {
			continue
		}
		tagsOf[l.BookmarkID] = append(tagsOf[l.BookmarkID], *t)
	}

	out := make([]*domain.Bookmark, 0, len(rows))
	for _, r := range rows {
		b := &domain.Bookmark{
			ID:                      r.ID,
			URL:                     r.URL,
			Title:                   r.Title,
			Description:             deref(r.Description),
			Type:                    domain.BookmarkType(r.Type),
			ThumbnailURL:            deref(r.ThumbnailURL),
			VideoThumbnailTimestamp: r.VideoThumbnailTimestamp,
			DateAdded:               r.DateAdded,
			LastVisited:             r.LastVisited,
			LastChecked:             r.LastChecked,
			IsAlive:                 r.IsAlive,
			ContentChanged:          r.ContentChanged,
			Favicon:                 deref(r.Favicon),
			SplatCount:              r.SplatCount,
			Tags:                    dedupeTags(tagsOf[r.ID]),
		}
		if !b.Type.Valid() {
			b.Type = domain.DetectType(b.URL)
		}
		if r.CategoryID != nil {
			if c, ok := catByID[*r.CategoryID]; ok {
				cat := *c
				b.Category = &cat
			}
		}
		out = append(out, b)
	}
	return out
}

func dedupeTags(tags []domain.Tag) []domain.Tag {
	out := make([]domain.Tag, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// patchColumns maps the set fields of p to column values.
func patchColumns(p domain.BookmarkPatch) map[string]any {
	cols := make(map[string]any, 6)
	if p.ThumbnailURL != nil {
		cols["thumbnail_url"] = optional(*p.ThumbnailURL)
	}
	if p.LastVisited != nil {
		cols["last_visited"] = p.LastVisited.UTC()
	}
	if p.LastChecked != nil {
		cols["last_checked"] = p.LastChecked.UTC()
	}
	if p.IsAlive != nil {
		cols["is_alive"] = *p.IsAlive
	}
	if p.ContentChanged != nil {
		cols["content_changed"] = *p.ContentChanged
	}
	if p.SplatCount != nil {
		cols["splat_count"] = *p.SplatCount
	}
	return cols
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
