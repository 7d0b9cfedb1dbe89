package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// CreateTag adds a tag. A name that already exists, ignoring case, returns
// the existing tag with ErrDuplicateName.
func (l *Library) CreateTag(ctx context.Context, owner, name, color string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	c, err := l.Collection(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, t := range c.Tags {
		if domain.SameName(t.Name, name) {
			cp := *t
			return &cp, ErrDuplicateName
		}
	}

	t := &domain.Tag{ID: l.newID(), Name: name, Color: strings.TrimSpace(color)}
	defer l.invalidate(ctx, owner)
	if err := l.store.UpsertTags(ctx, owner, t); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return t, nil
}

// CreateCategory adds a category, with the same name rule as CreateTag.
func (l *Library) CreateCategory(ctx context.Context, owner, name, icon string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	c, err := l.Collection(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, cat := range c.Categories {
		if domain.SameName(cat.Name, name) {
			cp := *cat
			return &cp, ErrDuplicateName
		}
	}

	cat := &domain.Category{ID: l.newID(), Name: name, Icon: strings.TrimSpace(icon)}
	defer l.invalidate(ctx, owner)
	if err := l.store.UpsertCategories(ctx, owner, cat); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return cat, nil
}
