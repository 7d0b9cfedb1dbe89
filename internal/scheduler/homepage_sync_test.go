package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/language"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/library"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/sources/homepage"
	"github.com/MrSnakeDoc/marks/internal/store/memory"
)

func TestHomepageSyncIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	content := `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	lib := library.New(library.Options{Store: memory.New(nil)})
	hs := NewHomepageSync(lib, "alice", homepage.FormatBookmarks, path, logger.New("error", false), 0)

	for i := 0; i < 2; i++ {
		if err := hs.Sync(ctx); err != nil {
			t.Fatalf("Sync() #%d error = %v", i, err)
		}
	}

	res, _ := lib.Query(ctx, "alice", domain.FilterSpec{}, language.English)
	if res.Total != 1 {
		t.Errorf("bookmarks after two syncs = %d, want 1", res.Total)
	}
	cats, _ := lib.Categories(ctx, "alice")
	if len(cats) != 1 || cats[0].Name != "Developer" {
		t.Errorf("categories = %+v", cats)
	}
}

func TestHomepageSyncMissingFile(t *testing.T) {
	lib := library.New(library.Options{Store: memory.New(nil)})
	hs := NewHomepageSync(lib, "alice", homepage.FormatBookmarks, "/nonexistent/bookmarks.yaml", logger.New("error", false), 0)
	if err := hs.Sync(context.Background()); err == nil {
		t.Error("Sync() should fail on a missing file")
	}
}
