// Package homepage imports gethomepage.dev bookmarks.yaml and services.yaml
// files as bookmark drafts.
package homepage

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

const (
	FormatBookmarks = "homepage"
	FormatServices  = "homepage-services"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// ParseBookmarks reads a bookmarks.yaml document.
func ParseBookmarks(r io.Reader) ([]domain.BookmarkDraft, error) {
	var config BookmarksConfig
	if err := decode(r, &config); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
	}
	return MapBookmarks(config), nil
}

// ParseServices reads a services.yaml document.
func ParseServices(r io.Reader) ([]domain.BookmarkDraft, error) {
	var config ServicesConfig
	if err := decode(r, &config); err != nil {
		return nil, fmt.Errorf("failed to parse services yaml: %w", err)
	}
	return MapServices(config), nil
}

// Parse dispatches on format.
func Parse(format string, r io.Reader) ([]domain.BookmarkDraft, error) {
	switch format {
	case FormatBookmarks:
		return ParseBookmarks(r)
	case FormatServices:
		return ParseServices(r)
	default:
		return nil, fmt.Errorf("unknown homepage format %q", format)
	}
}

// LoadFile parses a file from disk, used by the sync scheduler.
func LoadFile(format, path string) ([]domain.BookmarkDraft, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer utils.Close(f)
	return Parse(format, f)
}

func decode(r io.Reader, into any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(stripTemplateVariables(data), into)
}

// stripTemplateVariables blanks Homepage template variables
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
