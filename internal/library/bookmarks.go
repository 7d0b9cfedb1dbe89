package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// BookmarkInput is a create (empty ID) or an edit. An empty Type means
// detect it from the URL.
type BookmarkInput struct {
	ID                      string
	URL                     string
	Title                   string
	Description             string
	Type                    domain.BookmarkType
	TagIDs                  []string
	CategoryID              string
	ThumbnailURL            string
	VideoThumbnailTimestamp *int
	Favicon                 string
}

// Save creates or edits a bookmark. On edit the id, dateAdded and the
// tracking fields (visits, health, splats) are kept from the stored row.
func (l *Library) Save(ctx context.Context, owner string, in BookmarkInput) (*domain.Bookmark, error) {
	u, err := domain.ParseHTTPURL(in.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, in.URL)
	}
	if in.ThumbnailURL != "" {
		if _, err := domain.ParseHTTPURL(in.ThumbnailURL); err != nil {
			return nil, fmt.Errorf("%w: thumbnail %q", ErrInvalidURL, in.ThumbnailURL)
		}
	}

	c, err := l.Collection(ctx, owner)
	if err != nil {
		return nil, err
	}

	var b *domain.Bookmark
	if in.ID != "" {
		existing, ok := c.Bookmark(in.ID)
		if !ok {
			return nil, ErrNotFound
		}
		b = existing.Clone()
	} else {
		b = &domain.Bookmark{
			ID:        l.newID(),
			DateAdded: l.now(),
			IsAlive:   true,
		}
	}

	b.URL = u.String()
	b.Title = strings.TrimSpace(in.Title)
	if b.Title == "" {
		b.Title = b.URL
	}
	b.Description = strings.TrimSpace(in.Description)
	b.Type = in.Type
	if !b.Type.Valid() {
		b.Type = domain.DetectType(b.URL)
	}
	b.ThumbnailURL = in.ThumbnailURL
	b.VideoThumbnailTimestamp = in.VideoThumbnailTimestamp
	b.Favicon = in.Favicon

	b.Tags = make([]domain.Tag, 0, len(in.TagIDs))
	for _, id := range in.TagIDs {
		t, ok := c.Tag(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTag, id)
		}
		if !b.HasTag(id) {
			b.Tags = append(b.Tags, *t)
		}
	}

	b.Category = nil
	if in.CategoryID != "" {
		cat, ok := c.Category(in.CategoryID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, in.CategoryID)
		}
		cp := *cat
		b.Category = &cp
	}

	defer l.invalidate(ctx, owner)
	if err := l.store.UpsertBookmark(ctx, owner, b); err != nil {
		return nil, fmt.Errorf("save bookmark: %w", err)
	}

	l.log.Info("bookmark saved",
		logger.String("owner", owner),
		logger.String("id", b.ID),
		logger.String("type", string(b.Type)),
		logger.Bool("created", in.ID == ""))
	return b, nil
}

// Delete removes a bookmark; its tags and category stay.
func (l *Library) Delete(ctx context.Context, owner, id string) error {
	defer l.invalidate(ctx, owner)
	return l.store.DeleteBookmark(ctx, owner, id)
}

// Splat adds delta to the splat counter, never going below zero, and returns
// the new value.
func (l *Library) Splat(ctx context.Context, owner, id string, delta int) (int, error) {
	b, err := l.Bookmark(ctx, owner, id)
	if err != nil {
		return 0, err
	}
	n := max(b.Splats()+delta, 0)
	if err := l.patch(ctx, owner, id, domain.BookmarkPatch{SplatCount: &n}); err != nil {
		return 0, err
	}
	return n, nil
}

// RecordVisit stamps lastVisited with the current time.
func (l *Library) RecordVisit(ctx context.Context, owner, id string) error {
	now := l.now()
	return l.patch(ctx, owner, id, domain.BookmarkPatch{LastVisited: &now})
}

// SetHealth records a link check result.
func (l *Library) SetHealth(ctx context.Context, owner, id string, alive bool, checkedAt time.Time) error {
	return l.patch(ctx, owner, id, domain.BookmarkPatch{IsAlive: &alive, LastChecked: &checkedAt})
}

// SetThumbnail overrides the preview image; an empty URL clears it.
func (l *Library) SetThumbnail(ctx context.Context, owner, id, thumbnailURL string) error {
	thumbnailURL = strings.TrimSpace(thumbnailURL)
	if thumbnailURL != "" {
		u, err := domain.ParseHTTPURL(thumbnailURL)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidURL, thumbnailURL)
		}
		thumbnailURL = u.String()
	}
	return l.patch(ctx, owner, id, domain.BookmarkPatch{ThumbnailURL: &thumbnailURL})
}

func (l *Library) patch(ctx context.Context, owner, id string, p domain.BookmarkPatch) error {
	defer l.invalidate(ctx, owner)
	return l.store.PatchBookmark(ctx, owner, id, p)
}
