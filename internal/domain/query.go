package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOption is "<field>-<direction>".
type SortOption string

const (
	SortDateAddedDesc   SortOption = "dateAdded-desc"
	SortDateAddedAsc    SortOption = "dateAdded-asc"
	SortLastVisitedDesc SortOption = "lastVisited-desc"
	SortLastVisitedAsc  SortOption = "lastVisited-asc"
	SortTitleAsc        SortOption = "title-asc"
	SortTitleDesc       SortOption = "title-desc"
	SortSplatCountDesc  SortOption = "splatCount-desc"
	SortSplatCountAsc   SortOption = "splatCount-asc"

	DefaultSort = SortDateAddedDesc
)

// FilterSpec describes one view of a collection. Zero values mean
// "no constraint", except SortBy which falls back to DefaultSort.
type FilterSpec struct {
	// Query is matched case-insensitively against title, description, url
	// and tag names.
	Query string

	// SearchCategory extends Query matching to the category name.
	SearchCategory bool

	// Tags lists tag IDs that must all be present on a bookmark.
	Tags []string

	// Type restricts to one bookmark type. Unknown values are ignored.
	Type BookmarkType

	// Category restricts to one category ID.
	Category string

	IsAlive        *bool
	ContentChanged *bool

	SortBy SortOption
}

// FilterAndSort returns the bookmarks matching spec in the requested order,
// comparing titles with English collation.
func FilterAndSort(bookmarks []*Bookmark, spec FilterSpec) []*Bookmark {
	return FilterAndSortIn(bookmarks, spec, language.English)
}

// FilterAndSortIn is FilterAndSort with titles collated for locale.
// The input slice is left untouched; the result is a new slice holding the
// same pointers. Nil entries are dropped.
func FilterAndSortIn(bookmarks []*Bookmark, spec FilterSpec, locale language.Tag) []*Bookmark {
	query := strings.ToLower(spec.Query)

	out := make([]*Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if b == nil || !spec.matches(b, query) {
			continue
		}
		out = append(out, b)
	}

	sortBookmarks(out, spec.SortBy, locale)
	return out
}

func (s FilterSpec) matches(b *Bookmark, query string) bool {
	if query != "" && !matchesQuery(b, query, s.SearchCategory) {
		return false
	}
	for _, id := range s.Tags {
		if id != "" && !b.HasTag(id) {
			return false
		}
	}
	if s.Type.Valid() && b.Type != s.Type {
		return false
	}
	if s.Category != "" && (b.Category == nil || b.Category.ID != s.Category) {
		return false
	}
	if s.IsAlive != nil && b.IsAlive != *s.IsAlive {
		return false
	}
	if s.ContentChanged != nil {
		// an absent flag means no change was detected
		changed := b.ContentChanged != nil && *b.ContentChanged
		if changed != *s.ContentChanged {
			return false
		}
	}
	return true
}

func matchesQuery(b *Bookmark, query string, withCategory bool) bool {
	if containsFold(b.Title, query) || containsFold(b.Description, query) || containsFold(b.URL, query) {
		return true
	}
	for _, t := range b.Tags {
		if containsFold(t.Name, query) {
			return true
		}
	}
	return withCategory && b.Category != nil && containsFold(b.Category.Name, query)
}

// containsFold expects needle to be lowercased already.
func containsFold(haystack, needle string) bool {
	return haystack != "" && strings.Contains(strings.ToLower(haystack), needle)
}

func sortBookmarks(out []*Bookmark, by SortOption, locale language.Tag) {
	if by == "" {
		by = DefaultSort
	}

	var compare func(a, b *Bookmark) int
	switch by {
	case SortDateAddedDesc:
		compare = func(a, b *Bookmark) int { return b.DateAdded.Compare(a.DateAdded) }
	case SortDateAddedAsc:
		compare = func(a, b *Bookmark) int { return a.DateAdded.Compare(b.DateAdded) }
	case SortLastVisitedDesc:
		compare = func(a, b *Bookmark) int { return compareMissingLast(a.LastVisited, b.LastVisited, true) }
	case SortLastVisitedAsc:
		compare = func(a, b *Bookmark) int { return compareMissingLast(a.LastVisited, b.LastVisited, false) }
	case SortTitleAsc, SortTitleDesc:
		col := collate.New(locale)
		desc := by == SortTitleDesc
		compare = func(a, b *Bookmark) int {
			if desc {
				return col.CompareString(b.Title, a.Title)
			}
			return col.CompareString(a.Title, b.Title)
		}
	case SortSplatCountDesc:
		compare = func(a, b *Bookmark) int { return cmp.Compare(b.Splats(), a.Splats()) }
	case SortSplatCountAsc:
		compare = func(a, b *Bookmark) int { return cmp.Compare(a.Splats(), b.Splats()) }
	default:
		// unknown sort key: keep input order
		return
	}

	slices.SortStableFunc(out, compare)
}

// compareMissingLast orders nil timestamps after every present one, in
// either direction.
func compareMissingLast(a, b *time.Time, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case desc:
		return b.Compare(*a)
	default:
		return a.Compare(*b)
	}
}

// ParseSortOption maps user input to a SortOption. Empty input yields
// DefaultSort; anything else is passed through and left for FilterAndSort
// to ignore if unknown.
func ParseSortOption(s string) SortOption {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSort
	}
	return SortOption(s)
}

// ParseBookmarkType maps user input to a BookmarkType, returning "" for
// anything unrecognized.
func ParseBookmarkType(s string) BookmarkType {
	t := BookmarkType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return ""
	}
	return t
}
