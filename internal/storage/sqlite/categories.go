package sqlite

import (
	"blogsite/internal/storage"
	"context"
	"fmt"
	"strings"
)

func (s *Store) CreateCategory(ctx context.Context, name string) (*storage.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name cannot be empty: %w", storage.ErrCheckViolation)
	}

	query := `INSERT INTO categories (name)
		VALUES (?)
		RETURNING id, name`

	var category storage.Category
	if err := s.db.GetContext(ctx, &category, query, name); err != nil {
		return nil, fmt.Errorf("cannot create category %q: %w", name, mapSqlError(err))
	}
	return &category, nil
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*storage.Category, error) {
	query := `SELECT id, name FROM categories
		WHERE name = ?
		LIMIT 1`

	var category storage.Category
	if err := s.db.GetContext(ctx, &category, query, strings.TrimSpace(name)); err != nil {
		return nil, fmt.Errorf("cannot find category %q: %w", name, mapSqlError(err))
	}
	return &category, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*storage.Category, error) {
	categories := []*storage.Category{}
	if err := s.db.SelectContext(ctx, &categories, `SELECT id, name FROM categories ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", mapSqlError(err))
	}
	return categories, nil
}

func (s *Store) DeleteCategoryByID(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete category: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}
