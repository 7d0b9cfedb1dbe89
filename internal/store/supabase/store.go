// Package supabase persists bookmarks in a Supabase (PostgREST) project.
package supabase

import (
	"context"
	"fmt"
	"strings"

	supa "github.com/supabase-community/supabase-go"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/store"
)

// PostgREST puts the filter values in the query string; keep In() lists short.
const inChunk = 100

// Store implements store.Store on top of supabase-go.
type Store struct {
	client *supa.Client
	log    logger.Logger
}

var _ store.Store = (*Store)(nil)

// New connects to the project at url with the service key.
func New(url, key string, log logger.Logger) (*Store, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store{client: client, log: log}, nil
}

func (s *Store) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, store.ErrUnauthorized
	}
	user, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		s.log.Debug("supabase token rejected", logger.Error(err))
		return nil, store.ErrUnauthorized
	}
	return &domain.User{ID: user.ID.String(), Email: user.Email}, nil
}

func (s *Store) ListBookmarks(ctx context.Context, owner string) ([]*domain.Bookmark, error) {
	var rows []bookmarkRow
	if err := s.selectOwned(ctx, tableBookmarks, owner, &rows); err != nil {
		return nil, err
	}
	var tags []tagRow
	if err := s.selectOwned(ctx, tableTags, owner, &tags); err != nil {
		return nil, err
	}
	var categories []categoryRow
	if err := s.selectOwned(ctx, tableCategories, owner, &categories); err != nil {
		return nil, err
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var links []bookmarkTagRow
	for start := 0; start < len(ids); start += inChunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+inChunk, len(ids))
		var chunk []bookmarkTagRow
		_, err := s.client.From(tableBookmarkTags).
			Select("bookmark_id,tag_id", "", false).
			In("bookmark_id", ids[start:end]).
			ExecuteTo(&chunk)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", tableBookmarkTags, err)
		}
		links = append(links, chunk...)
	}

	return assemble(rows, tags, categories, links), nil
}

// UpsertBookmark writes the row and replaces its tag links. The context is
// only checked before the first request; once started the sequence runs to
// the end so a bookmark is never left with its links cleared.
func (s *Store) UpsertBookmark(ctx context.Context, owner string, b *domain.Bookmark) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := s.client.From(tableBookmarks).
		Upsert(toBookmarkRow(owner, b), "id", "minimal", "").
		Execute(); err != nil {
		return fmt.Errorf("upsert bookmark %s: %w", b.ID, err)
	}
	if _, _, err := s.client.From(tableBookmarkTags).
		Delete("minimal", "").
		Eq("bookmark_id", b.ID).
		Execute(); err != nil {
		return fmt.Errorf("clear tags of %s: %w", b.ID, err)
	}
	if len(b.Tags) == 0 {
		return nil
	}

	links := make([]bookmarkTagRow, 0, len(b.Tags))
	for _, t := range dedupeTags(b.Tags) {
		links = append(links, bookmarkTagRow{BookmarkID: b.ID, TagID: t.ID})
	}
	if _, _, err := s.client.From(tableBookmarkTags).
		Insert(links, false, "", "minimal", "").
		Execute(); err != nil {
		return fmt.Errorf("link tags of %s: %w", b.ID, err)
	}
	return nil
}

func (s *Store) PatchBookmark(ctx context.Context, owner, id string, p domain.BookmarkPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cols := patchColumns(p)
	if len(cols) == 0 {
		return s.exists(ctx, owner, id)
	}
	var updated []bookmarkRow
	_, err := s.client.From(tableBookmarks).
		Update(cols, "representation", "").
		Eq("id", id).
		Eq("user_id", owner).
		ExecuteTo(&updated)
	if err != nil {
		return fmt.Errorf("patch bookmark %s: %w", id, err)
	}
	if len(updated) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBookmark(ctx context.Context, owner, id string) error {
	if err := s.exists(ctx, owner, id); err != nil {
		return err
	}
	if _, _, err := s.client.From(tableBookmarkTags).
		Delete("minimal", "").
		Eq("bookmark_id", id).
		Execute(); err != nil {
		return fmt.Errorf("unlink bookmark %s: %w", id, err)
	}

	var deleted []bookmarkRow
	if _, err := s.client.From(tableBookmarks).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", owner).
		ExecuteTo(&deleted); err != nil {
		return fmt.Errorf("delete bookmark %s: %w", id, err)
	}
	if len(deleted) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListTags(ctx context.Context, owner string) ([]*domain.Tag, error) {
	var rows []tagRow
	if err := s.selectOwned(ctx, tableTags, owner, &rows); err != nil {
		return nil, err
	}
	out := make([]*domain.Tag, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) UpsertTags(ctx context.Context, owner string, tags ...*domain.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	rows := make([]tagRow, len(tags))
	for i, t := range tags {
		rows[i] = toTagRow(owner, t)
	}
	return s.upsert(ctx, tableTags, rows)
}

func (s *Store) ListCategories(ctx context.Context, owner string) ([]*domain.Category, error) {
	var rows []categoryRow
	if err := s.selectOwned(ctx, tableCategories, owner, &rows); err != nil {
		return nil, err
	}
	out := make([]*domain.Category, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) UpsertCategories(ctx context.Context, owner string, categories ...*domain.Category) error {
	if len(categories) == 0 {
		return nil
	}
	rows := make([]categoryRow, len(categories))
	for i, c := range categories {
		rows[i] = toCategoryRow(owner, c)
	}
	return s.upsert(ctx, tableCategories, rows)
}

// Ping issues a head-only count against the bookmarks table.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := s.client.From(tableBookmarks).
		Select("id", "exact", true).
		Execute(); err != nil {
		return fmt.Errorf("supabase ping: %w", err)
	}
	return nil
}

func (s *Store) selectOwned(ctx context.Context, table, owner string, into any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.From(table).
		Select("*", "", false).
		Eq("user_id", owner).
		ExecuteTo(into); err != nil {
		return fmt.Errorf("list %s: %w", table, err)
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, table string, rows any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := s.client.From(table).
		Upsert(rows, "id", "minimal", "").
		Execute(); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, owner, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var rows []bookmarkRow
	if _, err := s.client.From(tableBookmarks).
		Select("id", "", false).
		Eq("id", id).
		Eq("user_id", owner).
		ExecuteTo(&rows); err != nil {
		return fmt.Errorf("lookup bookmark %s: %w", id, err)
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}
