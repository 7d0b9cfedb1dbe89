package domain

import "time"

// BookmarkType is the content category of a bookmarked URL.
type BookmarkType string

const (
	TypeLink     BookmarkType = "link"
	TypeVideo    BookmarkType = "video"
	TypeImage    BookmarkType = "image"
	TypeDocument BookmarkType = "document"
)

// Valid reports whether t is one of the known bookmark types.
func (t BookmarkType) Valid() bool {
	switch t {
	case TypeLink, TypeVideo, TypeImage, TypeDocument:
		return true
	}
	return false
}

// Tag is a user-scoped label. Identity is the ID, Name is unique per user
// (case-insensitive).
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Category is a user-scoped folder. A bookmark belongs to at most one.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// User is the authenticated owner of a collection.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Bookmark represents a saved reference to a URL.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned at creation and never changes.
	ID string `json:"id"`

	// URL is the absolute target URL.
	URL string `json:"url"`

	// ─────────────────────────────
	// Descriptive metadata
	// ─────────────────────────────

	// Title defaults to URL when the user leaves it empty.
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Type        BookmarkType `json:"type"`
	Favicon     string       `json:"favicon,omitempty"`

	// ThumbnailURL is a stored preview. Empty means "resolve on demand".
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`

	// VideoThumbnailTimestamp is the offset in seconds used for frame capture.
	VideoThumbnailTimestamp *int `json:"videoThumbnailTimestamp,omitempty"`

	// ─────────────────────────────
	// Organization
	// ─────────────────────────────

	// Tags holds no duplicate IDs; insertion order is kept for display.
	Tags     []Tag     `json:"tags"`
	Category *Category `json:"category,omitempty"`

	// ─────────────────────────────
	// Activity & health
	// ─────────────────────────────

	DateAdded      time.Time  `json:"dateAdded"`
	LastVisited    *time.Time `json:"lastVisited,omitempty"`
	LastChecked    *time.Time `json:"lastChecked,omitempty"`
	IsAlive        bool       `json:"isAlive"`
	ContentChanged *bool      `json:"contentChanged,omitempty"`
	SplatCount     *int       `json:"splatCount,omitempty"`
}

// HasTag reports whether the bookmark carries the tag with the given ID.
func (b *Bookmark) HasTag(id string) bool {
	for _, t := range b.Tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Splats returns the splat counter, treating a missing value as zero.
func (b *Bookmark) Splats() int {
	if b.SplatCount == nil {
		return 0
	}
	return *b.SplatCount
}

// Clone returns a copy that shares no mutable state with b.
func (b *Bookmark) Clone() *Bookmark {
	if b == nil {
		return nil
	}
	c := *b
	c.Tags = append([]Tag(nil), b.Tags...)
	if b.Category != nil {
		cat := *b.Category
		c.Category = &cat
	}
	c.VideoThumbnailTimestamp = clonePtr(b.VideoThumbnailTimestamp)
	c.LastVisited = clonePtr(b.LastVisited)
	c.LastChecked = clonePtr(b.LastChecked)
	c.ContentChanged = clonePtr(b.ContentChanged)
	c.SplatCount = clonePtr(b.SplatCount)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// BookmarkPatch carries a partial update applied by collaborators
// (link checker, splat and visit tracking). Nil fields are left untouched.
type BookmarkPatch struct {
	ThumbnailURL   *string
	LastVisited    *time.Time
	LastChecked    *time.Time
	IsAlive        *bool
	ContentChanged *bool
	SplatCount     *int
}

// Apply writes the non-nil fields of p onto b.
func (p BookmarkPatch) Apply(b *Bookmark) {
	if p.ThumbnailURL != nil {
		b.ThumbnailURL = *p.ThumbnailURL
	}
	if p.LastVisited != nil {
		b.LastVisited = clonePtr(p.LastVisited)
	}
	if p.LastChecked != nil {
		b.LastChecked = clonePtr(p.LastChecked)
	}
	if p.IsAlive != nil {
		b.IsAlive = *p.IsAlive
	}
	if p.ContentChanged != nil {
		b.ContentChanged = clonePtr(p.ContentChanged)
	}
	if p.SplatCount != nil {
		b.SplatCount = clonePtr(p.SplatCount)
	}
}

// Collection is everything a user owns, loaded in one go.
type Collection struct {
	Bookmarks  []*Bookmark `json:"bookmarks"`
	Tags       []*Tag      `json:"tags"`
	Categories []*Category `json:"categories"`
	LoadedAt   time.Time   `json:"loadedAt"`
}

// Bookmark returns the bookmark with the given ID.
func (c *Collection) Bookmark(id string) (*Bookmark, bool) {
	for _, b := range c.Bookmarks {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// Tag returns the tag with the given ID.
func (c *Collection) Tag(id string) (*Tag, bool) {
	for _, t := range c.Tags {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Category returns the category with the given ID.
func (c *Collection) Category(id string) (*Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return nil, false
}
