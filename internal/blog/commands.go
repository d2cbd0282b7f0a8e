package blog

import (
	"blogsite/internal/content"
	"blogsite/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
)

// AddCategory creates a category, a blank name is rejected before the store is asked
func (s *Service) AddCategory(ctx context.Context, name string) (*storage.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}

	category, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("adding category %q: %w", name, err)
	}

	s.logger.Info("category added", "id", category.ID, "name", category.Name)
	return category, nil
}

// DeleteCategory removes a category, posts in it become uncategorised
func (s *Service) DeleteCategory(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return fmt.Errorf("%w: category %q", storage.ErrNotFound, rawID)
	}

	if err := s.store.DeleteCategoryByID(ctx, id); err != nil {
		return fmt.Errorf("deleting category %d: %w", id, err)
	}

	s.logger.Info("category deleted", "id", id)
	return nil
}

// DeletePost removes a post and, best effort, its feature image
func (s *Service) DeletePost(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return fmt.Errorf("%w: post %q", storage.ErrNotFound, rawID)
	}

	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}

	if err := s.store.DeletePostByID(ctx, id); err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}

	if post.FeatureImageKey != "" {
		keys := []string{post.FeatureImageKey}
		for _, width := range content.VariantWidths {
			keys = append(keys, content.VariantKey(post.FeatureImageKey, width))
		}
		for _, key := range keys {
			if err := s.media.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("post deleted but image remains", "id", id, "key", key, "err", err)
			}
		}
	}

	s.logger.Info("post deleted", "id", id)
	return nil
}
