package postgres

import (
	"blogsite/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const selectPosts = `SELECT p.id, p.title, p.body, p.post_date,
		COALESCE(p.category_id, 0) AS category_id,
		COALESCE(c.name, '') AS category_name,
		p.feature_image, p.feature_image_key, p.published, p.created_at
	FROM posts AS p
	LEFT JOIN categories AS c ON c.id = p.category_id`

func (s *Store) CreatePost(ctx context.Context, fields storage.PostFields) (*storage.Post, error) {
	query := `WITH inserted AS (
			INSERT INTO posts (title, body, post_date, category_id, feature_image, feature_image_key, published)
			VALUES ($1, $2, $3, NULLIF($4::bigint, 0), $5, $6, $7)
			RETURNING *
		)
		SELECT p.id, p.title, p.body, p.post_date,
			COALESCE(p.category_id, 0) AS category_id,
			COALESCE(c.name, '') AS category_name,
			p.feature_image, p.feature_image_key, p.published, p.created_at
		FROM inserted AS p
		LEFT JOIN categories AS c ON c.id = p.category_id`

	post, err := s.getPost(ctx, query,
		fields.Title,
		fields.Body,
		fields.PostDate.Time, // pgx encodes time.Time natively for DATE
		fields.CategoryID,
		fields.FeatureImage,
		fields.FeatureImageKey,
		fields.Published,
	)
	if err != nil {
		return nil, fmt.Errorf("could not create post %q: %w", fields.Title, err)
	}
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*storage.Post, error) {
	post, err := s.getPost(ctx, selectPosts+` WHERE p.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("cannot find post id %d: %w", id, err)
	}
	return post, nil
}

func (s *Store) DeletePostByID(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not delete post: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListPosts(ctx context.Context) ([]*storage.Post, error) {
	return s.listPosts(ctx, selectPosts+` ORDER BY p.id`)
}

func (s *Store) ListPublishedPosts(ctx context.Context) ([]*storage.Post, error) {
	return s.listPosts(ctx, selectPosts+` WHERE p.published ORDER BY p.id`)
}

func (s *Store) ListPublishedPostsByCategory(ctx context.Context, categoryID int64) ([]*storage.Post, error) {
	return s.listPosts(ctx, selectPosts+` WHERE p.published AND p.category_id = $1 ORDER BY p.id`, categoryID)
}

func (s *Store) ListPostsByMinDate(ctx context.Context, minDate storage.Date) ([]*storage.Post, error) {
	return s.listPosts(ctx, selectPosts+` WHERE p.post_date >= $1 ORDER BY p.id`, minDate.Time)
}

func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("could not count posts: %w", mapPgError(err))
	}
	return n, nil
}

func (s *Store) CreateCategory(ctx context.Context, name string) (*storage.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name cannot be empty: %w", storage.ErrCheckViolation)
	}

	category, err := s.getCategory(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id, name`, name)
	if err != nil {
		return nil, fmt.Errorf("cannot create category %q: %w", name, err)
	}
	return category, nil
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*storage.Category, error) {
	category, err := s.getCategory(ctx, `SELECT id, name FROM categories WHERE name = $1`, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("cannot find category %q: %w", name, err)
	}
	return category, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*storage.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", mapPgError(err))
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[storage.Category])
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", mapPgError(err))
	}
	return nonNil(categories), nil
}

func (s *Store) DeleteCategoryByID(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not delete category: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) getPost(ctx context.Context, query string, args ...any) (*storage.Post, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	post, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[storage.Post])
	if err != nil {
		return nil, mapPgError(err)
	}
	return post, nil
}

func (s *Store) listPosts(ctx context.Context, query string, args ...any) ([]*storage.Post, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", mapPgError(err))
	}
	posts, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[storage.Post])
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", mapPgError(err))
	}
	return nonNil(posts), nil
}

func (s *Store) getCategory(ctx context.Context, query string, args ...any) (*storage.Category, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	category, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[storage.Category])
	if err != nil {
		return nil, mapPgError(err)
	}
	return category, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %v", storage.ErrUniqueViolation, err)
		case "23514", "23502", "22007", "22008":
			return fmt.Errorf("%w: %v", storage.ErrCheckViolation, err)
		case "23503":
			return fmt.Errorf("%w: %v", storage.ErrForeignKeyViolation, err)
		}
	}
	return err
}
