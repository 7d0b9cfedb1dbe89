package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/store"
)

type ownerData struct {
	bookmarks  []*domain.Bookmark
	tags       []*domain.Tag
	categories []*domain.Category
}

// Store keeps everything in process memory. Sessions are static tokens
// mapped to user IDs.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]string
	owners map[string]*ownerData
}

var _ store.Store = (*Store)(nil)

// New creates an empty store accepting the given token -> user ID sessions.
func New(tokens map[string]string) *Store {
	t := make(map[string]string, len(tokens))
	for k, v := range tokens {
		t[k] = v
	}
	return &Store{
		tokens: t,
		owners: make(map[string]*ownerData),
	}
}

func (s *Store) owner(id string) *ownerData {
	d, ok := s.owners[id]
	if !ok {
		d = &ownerData{}
		s.owners[id] = d
	}
	return d
}

func (s *Store) CurrentUser(_ context.Context, token string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[token]
	if !ok || token == "" {
		return nil, store.ErrUnauthorized
	}
	return &domain.User{ID: id}, nil
}

func (s *Store) ListBookmarks(_ context.Context, owner string) ([]*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.owners[owner]
	if !ok {
		return []*domain.Bookmark{}, nil
	}
	out := make([]*domain.Bookmark, 0, len(d.bookmarks))
	for _, b := range d.bookmarks {
		out = append(out, hydrate(b.Clone(), d))
	}
	return out, nil
}

// hydrate refreshes tag and category copies from the owner's current rows,
// dropping links to rows that no longer exist.
func hydrate(b *domain.Bookmark, d *ownerData) *domain.Bookmark {
	tags := make([]domain.Tag, 0, len(b.Tags))
	for _, t := range b.Tags {
		if i := slices.IndexFunc(d.tags, func(x *domain.Tag) bool { return x.ID == t.ID }); i >= 0 {
			tags = append(tags, *d.tags[i])
		}
	}
	b.Tags = tags

	if b.Category != nil {
		i := slices.IndexFunc(d.categories, func(x *domain.Category) bool { return x.ID == b.Category.ID })
		if i < 0 {
			b.Category = nil
		} else {
			c := *d.categories[i]
			b.Category = &c
		}
	}
	return b
}

func (s *Store) UpsertBookmark(_ context.Context, owner string, b *domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.owner(owner)
	c := b.Clone()
	if i := slices.IndexFunc(d.bookmarks, func(x *domain.Bookmark) bool { return x.ID == b.ID }); i >= 0 {
		d.bookmarks[i] = c
		return nil
	}
	d.bookmarks = append(d.bookmarks, c)
	return nil
}

func (s *Store) PatchBookmark(_ context.Context, owner, id string, patch domain.BookmarkPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.owners[owner]
	if !ok {
		return store.ErrNotFound
	}
	i := slices.IndexFunc(d.bookmarks, func(x *domain.Bookmark) bool { return x.ID == id })
	if i < 0 {
		return store.ErrNotFound
	}
	patch.Apply(d.bookmarks[i])
	return nil
}

func (s *Store) DeleteBookmark(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.owners[owner]
	if !ok {
		return store.ErrNotFound
	}
	i := slices.IndexFunc(d.bookmarks, func(x *domain.Bookmark) bool { return x.ID == id })
	if i < 0 {
		return store.ErrNotFound
	}
	d.bookmarks = slices.Delete(d.bookmarks, i, i+1)
	return nil
}

func (s *Store) ListTags(_ context.Context, owner string) ([]*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Tag{}
	if d, ok := s.owners[owner]; ok {
		for _, t := range d.tags {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) UpsertTags(_ context.Context, owner string, tags ...*domain.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.owner(owner)
	for _, t := range tags {
		c := *t
		if i := slices.IndexFunc(d.tags, func(x *domain.Tag) bool { return x.ID == t.ID }); i >= 0 {
			d.tags[i] = &c
			continue
		}
		d.tags = append(d.tags, &c)
	}
	return nil
}

func (s *Store) ListCategories(_ context.Context, owner string) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Category{}
	if d, ok := s.owners[owner]; ok {
		for _, cat := range d.categories {
			c := *cat
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) UpsertCategories(_ context.Context, owner string, categories ...*domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.owner(owner)
	for _, cat := range categories {
		c := *cat
		if i := slices.IndexFunc(d.categories, func(x *domain.Category) bool { return x.ID == cat.ID }); i >= 0 {
			d.categories[i] = &c
			continue
		}
		d.categories = append(d.categories, &c)
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
