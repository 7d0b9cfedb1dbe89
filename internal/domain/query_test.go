package domain

import (
	"fmt"
	"math"
	"testing"
	"time"

	"golang.org/x/text/language"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(days int) time.Time { return base.Add(time.Duration(days) * 24 * time.Hour) }

func ptr[T any](v T) *T { return &v }

func titles(bs []*Bookmark) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func fixture() []*Bookmark {
	golang := Tag{ID: "t-go", Name: "golang"}
	video := Tag{ID: "t-vid", Name: "Talks"}
	dev := &Category{ID: "c-dev", Name: "Development"}

	return []*Bookmark{
		{ID: "1", Title: "Go Blog", URL: "https://go.dev/blog", Type: TypeLink, DateAdded: at(1),
			Tags: []Tag{golang}, Category: dev, IsAlive: true, SplatCount: ptr(3)},
		{ID: "2", Title: "Concurrency is not parallelism", URL: "https://www.youtube.com/watch?v=oV9rvDllKEg",
			Type: TypeVideo, DateAdded: at(2), Tags: []Tag{golang, video}, IsAlive: true,
			LastVisited: ptr(at(5))},
		{ID: "3", Title: "cat", URL: "https://example.com/cat.png", Type: TypeImage, DateAdded: at(3),
			IsAlive: false, ContentChanged: ptr(true), SplatCount: ptr(7)},
		{ID: "4", Title: "Spec", URL: "https://example.com/spec.pdf", Type: TypeDocument, DateAdded: at(4),
			Description: "language reference", IsAlive: true, LastVisited: ptr(at(6))},
	}
}

func TestFilterAndSortDefaultReturnsAllByDateAddedDesc(t *testing.T) {
	got := FilterAndSort(fixture(), FilterSpec{})
	want := []string{"Spec", "cat", "Concurrency is not parallelism", "Go Blog"}
	if !equalStrings(titles(got), want) {
		t.Errorf("FilterAndSort() = %v, want %v", titles(got), want)
	}
}

func TestFilterAndSortFilters(t *testing.T) {
	tests := []struct {
		name string
		spec FilterSpec
		want []string
	}{
		{
			name: "query matches title case-insensitively",
			spec: FilterSpec{Query: "BLOG"},
			want: []string{"Go Blog"},
		},
		{
			name: "query matches description",
			spec: FilterSpec{Query: "reference"},
			want: []string{"Spec"},
		},
		{
			name: "query matches url",
			spec: FilterSpec{Query: "youtube"},
			want: []string{"Concurrency is not parallelism"},
		},
		{
			name: "query matches tag name",
			spec: FilterSpec{Query: "talks"},
			want: []string{"Concurrency is not parallelism"},
		},
		{
			name: "category name ignored by default",
			spec: FilterSpec{Query: "development"},
			want: []string{},
		},
		{
			name: "category name matched when enabled",
			spec: FilterSpec{Query: "development", SearchCategory: true},
			want: []string{"Go Blog"},
		},
		{
			name: "tags use AND semantics",
			spec: FilterSpec{Tags: []string{"t-go", "t-vid"}},
			want: []string{"Concurrency is not parallelism"},
		},
		{
			name: "single tag",
			spec: FilterSpec{Tags: []string{"t-go"}},
			want: []string{"Concurrency is not parallelism", "Go Blog"},
		},
		{
			name: "type",
			spec: FilterSpec{Type: TypeImage},
			want: []string{"cat"},
		},
		{
			name: "unknown type is no constraint",
			spec: FilterSpec{Type: BookmarkType("podcast")},
			want: []string{"Spec", "cat", "Concurrency is not parallelism", "Go Blog"},
		},
		{
			name: "category",
			spec: FilterSpec{Category: "c-dev"},
			want: []string{"Go Blog"},
		},
		{
			name: "unknown category matches nothing",
			spec: FilterSpec{Category: "c-missing"},
			want: []string{},
		},
		{
			name: "dead links",
			spec: FilterSpec{IsAlive: ptr(false)},
			want: []string{"cat"},
		},
		{
			name: "unchanged content includes missing flag",
			spec: FilterSpec{ContentChanged: ptr(false)},
			want: []string{"Spec", "Concurrency is not parallelism", "Go Blog"},
		},
		{
			name: "dimensions combine conjunctively",
			spec: FilterSpec{Query: "go", IsAlive: ptr(true), Type: TypeLink},
			want: []string{"Go Blog"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(FilterAndSort(fixture(), tt.spec))
			if !equalStrings(got, tt.want) {
				t.Errorf("FilterAndSort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterAndSortSorting(t *testing.T) {
	tests := []struct {
		sort SortOption
		want []string
	}{
		{SortDateAddedAsc, []string{"Go Blog", "Concurrency is not parallelism", "cat", "Spec"}},
		{SortDateAddedDesc, []string{"Spec", "cat", "Concurrency is not parallelism", "Go Blog"}},
		{SortLastVisitedDesc, []string{"Spec", "Concurrency is not parallelism", "Go Blog", "cat"}},
		{SortLastVisitedAsc, []string{"Concurrency is not parallelism", "Spec", "Go Blog", "cat"}},
		{SortTitleAsc, []string{"cat", "Concurrency is not parallelism", "Go Blog", "Spec"}},
		{SortTitleDesc, []string{"Spec", "Go Blog", "Concurrency is not parallelism", "cat"}},
		{SortSplatCountDesc, []string{"cat", "Go Blog", "Concurrency is not parallelism", "Spec"}},
		{SortSplatCountAsc, []string{"Concurrency is not parallelism", "Spec", "Go Blog", "cat"}},
		{SortOption("popularity-desc"), []string{"Go Blog", "Concurrency is not parallelism", "cat", "Spec"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			got := titles(FilterAndSort(fixture(), FilterSpec{SortBy: tt.sort}))
			if !equalStrings(got, tt.want) {
				t.Errorf("sort %s = %v, want %v", tt.sort, got, tt.want)
			}
		})
	}
}

func TestLastVisitedMissingSortsLast(t *testing.T) {
	var in []*Bookmark
	for i := 0; i < 5; i++ {
		in = append(in, &Bookmark{ID: "never", Title: "never", DateAdded: at(i)})
	}
	in = append(in, &Bookmark{ID: "seen", Title: "seen", DateAdded: at(9), LastVisited: ptr(at(1))})

	for _, sort := range []SortOption{SortLastVisitedDesc, SortLastVisitedAsc} {
		got := FilterAndSort(in, FilterSpec{SortBy: sort})
		if got[0].ID != "seen" {
			t.Errorf("%s: first = %s, want seen", sort, got[0].ID)
		}
		for _, b := range got[1:] {
			if b.LastVisited != nil {
				t.Errorf("%s: bookmark with lastVisited sorted after a missing one", sort)
			}
		}
	}
}

func TestTitleSortIsStable(t *testing.T) {
	in := []*Bookmark{
		{ID: "a", Title: "Same", DateAdded: at(1)},
		{ID: "b", Title: "Alpha", DateAdded: at(2)},
		{ID: "c", Title: "Same", DateAdded: at(3)},
		{ID: "d", Title: "Same", DateAdded: at(4)},
	}
	got := FilterAndSort(in, FilterSpec{SortBy: SortTitleAsc})
	ids := []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID}
	want := []string{"b", "a", "c", "d"}
	if !equalStrings(ids, want) {
		t.Errorf("title-asc ids = %v, want %v", ids, want)
	}
}

func TestTitleSortIsLocaleAware(t *testing.T) {
	in := []*Bookmark{
		{ID: "1", Title: "Zebra"},
		{ID: "2", Title: "Äpfel"},
		{ID: "3", Title: "Banane"},
	}
	got := titles(FilterAndSortIn(in, FilterSpec{SortBy: SortTitleAsc}, language.German))
	want := []string{"Äpfel", "Banane", "Zebra"}
	if !equalStrings(got, want) {
		t.Errorf("title-asc (de) = %v, want %v", got, want)
	}
}

func TestFilterAndSortDoesNotMutateInput(t *testing.T) {
	in := fixture()
	before := titles(in)

	first := titles(FilterAndSort(in, FilterSpec{SortBy: SortTitleAsc}))
	second := titles(FilterAndSort(in, FilterSpec{SortBy: SortTitleAsc}))

	if !equalStrings(first, second) {
		t.Errorf("repeated calls differ: %v vs %v", first, second)
	}
	if !equalStrings(titles(in), before) {
		t.Errorf("input reordered: %v, want %v", titles(in), before)
	}
}

func TestFilterAndSortScenario(t *testing.T) {
	in := []*Bookmark{
		{Title: "Alpha", DateAdded: at(1)},
		{Title: "Beta", DateAdded: at(2)},
	}

	asc := titles(FilterAndSort(in, FilterSpec{SortBy: SortDateAddedAsc}))
	if !equalStrings(asc, []string{"Alpha", "Beta"}) {
		t.Errorf("dateAdded-asc = %v", asc)
	}
	desc := titles(FilterAndSort(in, FilterSpec{SortBy: SortTitleDesc}))
	if !equalStrings(desc, []string{"Beta", "Alpha"}) {
		t.Errorf("title-desc = %v", desc)
	}
}

func TestFilterAndSortSkipsNil(t *testing.T) {
	in := []*Bookmark{nil, {Title: "ok", DateAdded: at(1)}, nil}
	got := FilterAndSort(in, FilterSpec{Query: "o"})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestParseSortOption(t *testing.T) {
	if got := ParseSortOption(""); got != DefaultSort {
		t.Errorf("ParseSortOption(\"\") = %s, want %s", got, DefaultSort)
	}
	if got := ParseSortOption(" title-asc "); got != SortTitleAsc {
		t.Errorf("ParseSortOption() = %s, want %s", got, SortTitleAsc)
	}
}

func TestParseBookmarkType(t *testing.T) {
	tests := map[string]BookmarkType{
		"video":   TypeVideo,
		" IMAGE ": TypeImage,
		"podcast": "",
		"":        "",
	}
	for in, want := range tests {
		if got := ParseBookmarkType(in); got != want {
			t.Errorf("ParseBookmarkType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQueryIsMatchedVerbatim(t *testing.T) {
	in := []*Bookmark{
		{ID: "1", Title: "Gopher", URL: "https://gopher.example.com", DateAdded: at(1)},
		{ID: "2", Title: "Go Blog", URL: "https://go.dev/blog", DateAdded: at(2)},
	}
	tests := []struct {
		query string
		want  []string
	}{
		{"go", []string{"Gopher", "Go Blog"}},
		{"go ", []string{"Go Blog"}},
		{"GO B", []string{"Go Blog"}},
		{" go", nil},
		{" ", []string{"Go Blog"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.query), func(t *testing.T) {
			got := titles(FilterAndSort(in, FilterSpec{Query: tt.query, SortBy: SortDateAddedAsc}))
			if !equalStrings(got, tt.want) {
				t.Errorf("query %q = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSplatSortHandlesExtremeCounts(t *testing.T) {
	in := []*Bookmark{
		{ID: "1", Title: "floor", SplatCount: ptr(math.MinInt)},
		{ID: "2", Title: "none"},
		{ID: "3", Title: "ceiling", SplatCount: ptr(math.MaxInt)},
		{ID: "4", Title: "one", SplatCount: ptr(1)},
	}
	tests := []struct {
		sort SortOption
		want []string
	}{
		{SortSplatCountDesc, []string{"ceiling", "one", "none", "floor"}},
		{SortSplatCountAsc, []string{"floor", "none", "one", "ceiling"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			got := titles(FilterAndSort(in, FilterSpec{SortBy: tt.sort}))
			if !equalStrings(got, tt.want) {
				t.Errorf("sort %s = %v, want %v", tt.sort, got, tt.want)
			}
		})
	}
}
