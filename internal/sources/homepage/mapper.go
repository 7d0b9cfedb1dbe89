package homepage

import (
	"sort"
	"strings"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// MapBookmarks turns groups into categories and abbreviations into tags.
// Entries without href are skipped.
func MapBookmarks(config BookmarksConfig) []domain.BookmarkDraft {
	var drafts []domain.BookmarkDraft
	for _, group := range config {
		for _, groupName := range sortedKeys(group) {
			for _, item := range group[groupName] {
				for _, name := range sortedKeys(item) {
					entries := item[name]
					if len(entries) == 0 || strings.TrimSpace(entries[0].Href) == "" {
						continue
					}
					e := entries[0]

					d := domain.BookmarkDraft{
						URL:          strings.TrimSpace(e.Href),
						Title:        name,
						Description:  e.Description,
						CategoryName: groupName,
					}
					if abbr := strings.TrimSpace(e.Abbr); abbr != "" {
						d.TagNames = []string{abbr}
					}
					drafts = append(drafts, d)
				}
			}
		}
	}
	return drafts
}

// MapServices turns each service into a link in its group's category.
func MapServices(config ServicesConfig) []domain.BookmarkDraft {
	var drafts []domain.BookmarkDraft
	for _, group := range config {
		for _, groupName := range sortedKeys(group) {
			for _, item := range group[groupName] {
				for _, name := range sortedKeys(item) {
					props := item[name]
					if strings.TrimSpace(props.Href) == "" {
						continue
					}
					drafts = append(drafts, domain.BookmarkDraft{
						URL:          strings.TrimSpace(props.Href),
						Title:        name,
						Description:  props.Description,
						Type:         domain.TypeLink,
						CategoryName: groupName,
					})
				}
			}
		}
	}
	return drafts
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
