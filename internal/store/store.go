package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

var (
	// ErrNotFound is returned when the row does not exist for that owner.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for a missing, expired or unknown session token.
	ErrUnauthorized = errors.New("unauthorized")
)

// Store is the persistence and auth backend. Every call is scoped to one
// owner; rows of other owners are invisible.
type Store interface {
	// CurrentUser resolves a session token to its user.
	CurrentUser(ctx context.Context, token string) (*domain.User, error)

	// ListBookmarks returns the owner's bookmarks with tags and category hydrated.
	ListBookmarks(ctx context.Context, owner string) ([]*domain.Bookmark, error)
	// UpsertBookmark writes the bookmark row and replaces its tag links.
	UpsertBookmark(ctx context.Context, owner string, b *domain.Bookmark) error
	PatchBookmark(ctx context.Context, owner, id string, patch domain.BookmarkPatch) error
	// DeleteBookmark removes the bookmark and its tag links, never the tags.
	DeleteBookmark(ctx context.Context, owner, id string) error

	ListTags(ctx context.Context, owner string) ([]*domain.Tag, error)
	UpsertTags(ctx context.Context, owner string, tags ...*domain.Tag) error

	ListCategories(ctx context.Context, owner string) ([]*domain.Category, error)
	UpsertCategories(ctx context.Context, owner string, categories ...*domain.Category) error

	Ping(ctx context.Context) error
}
