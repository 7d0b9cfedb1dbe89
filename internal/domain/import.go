package domain

import (
	"strings"
	"time"
)

// BookmarkDraft is a bookmark as read from an import file, before tags and
// categories are resolved to IDs.
type BookmarkDraft struct {
	URL          string
	Title        string
	Description  string
	Type         BookmarkType
	DateAdded    time.Time
	TagNames     []string
	CategoryName string
}

// ImportPlan is what an import needs to write: the tags and categories that
// do not exist yet, and the bookmarks referencing them.
type ImportPlan struct {
	NewTags       []*Tag
	NewCategories []*Category
	Bookmarks     []*Bookmark
	// Rejected counts drafts dropped for an invalid URL.
	Rejected int
}

// PlanImport resolves drafts against the owner's existing tags and
// categories. Names are matched case-insensitively, so "Go" in a file merges
// into an existing "go" tag, and repeated new names are created once.
func PlanImport(drafts []BookmarkDraft, tags []*Tag, categories []*Category, newID func() string, now time.Time) ImportPlan {
	tagByName := make(map[string]*Tag, len(tags))
	for _, t := range tags {
		tagByName[nameKey(t.Name)] = t
	}
	catByName := make(map[string]*Category, len(categories))
	for _, c := range categories {
		catByName[nameKey(c.Name)] = c
	}

	var plan ImportPlan
	for _, d := range drafts {
		if _, err := ParseHTTPURL(d.URL); err != nil {
			plan.Rejected++
			continue
		}

		b := &Bookmark{
			ID:          newID(),
			URL:         strings.TrimSpace(d.URL),
			Title:       strings.TrimSpace(d.Title),
			Description: strings.TrimSpace(d.Description),
			Type:        d.Type,
			DateAdded:   d.DateAdded,
			IsAlive:     true,
			Tags:        []Tag{},
		}
		if b.Title == "" {
			b.Title = b.URL
		}
		if !b.Type.Valid() {
			b.Type = DetectType(b.URL)
		}
		if b.DateAdded.IsZero() {
			b.DateAdded = now
		}

		for _, name := range d.TagNames {
			key := nameKey(name)
			if key == "" {
				continue
			}
			t, ok := tagByName[key]
			if !ok {
				t = &Tag{ID: newID(), Name: strings.TrimSpace(name)}
				tagByName[key] = t
				plan.NewTags = append(plan.NewTags, t)
			}
			if !b.HasTag(t.ID) {
				b.Tags = append(b.Tags, *t)
			}
		}

		if key := nameKey(d.CategoryName); key != "" {
			c, ok := catByName[key]
			if !ok {
				c = &Category{ID: newID(), Name: strings.TrimSpace(d.CategoryName)}
				catByName[key] = c
				plan.NewCategories = append(plan.NewCategories, c)
			}
			cat := *c
			b.Category = &cat
		}

		plan.Bookmarks = append(plan.Bookmarks, b)
	}
	return plan
}

// SameName reports whether two tag or category names collide.
func SameName(a, b string) bool {
	return nameKey(a) == nameKey(b)
}

func nameKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
