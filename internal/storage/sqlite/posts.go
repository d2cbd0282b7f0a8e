package sqlite

import (
	"blogsite/internal/storage"
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const selectPosts = `SELECT p.id, p.title, p.body, p.post_date,
		COALESCE(p.category_id, 0) AS category_id,
		COALESCE(c.name, '') AS category_name,
		p.feature_image, p.feature_image_key, p.published, p.created_at
	FROM posts AS p
	LEFT JOIN categories AS c ON c.id = p.category_id`

// rows come back in insertion order, callers sort by date themselves

func (s *Store) CreatePost(ctx context.Context, fields storage.PostFields) (*storage.Post, error) {
	query := `INSERT INTO posts (title, body, post_date, category_id, feature_image, feature_image_key, published)
		VALUES (?, ?, ?, NULLIF(?, 0), ?, ?, ?)
		RETURNING id`

	var post storage.Post
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		var id int64
		if err := tx.GetContext(ctx, &id, query,
			fields.Title,
			fields.Body,
			fields.PostDate,
			fields.CategoryID,
			fields.FeatureImage,
			fields.FeatureImageKey,
			fields.Published,
		); err != nil {
			return err
		}
		return tx.GetContext(ctx, &post, selectPosts+` WHERE p.id = ?`, id)
	})
	if err != nil {
		return nil, fmt.Errorf("could not create post %q: %w", fields.Title, mapSqlError(err))
	}

	return &post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*storage.Post, error) {
	var post storage.Post
	if err := s.db.GetContext(ctx, &post, selectPosts+` WHERE p.id = ? LIMIT 1`, id); err != nil {
		return nil, fmt.Errorf("cannot find post id %d: %w", id, mapSqlError(err))
	}
	return &post, nil
}

func (s *Store) DeletePostByID(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete post: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *Store) ListPosts(ctx context.Context) ([]*storage.Post, error) {
	return s.selectPosts(ctx, selectPosts+` ORDER BY p.id`)
}

func (s *Store) ListPublishedPosts(ctx context.Context) ([]*storage.Post, error) {
	return s.selectPosts(ctx, selectPosts+` WHERE p.published = 1 ORDER BY p.id`)
}

func (s *Store) ListPublishedPostsByCategory(ctx context.Context, categoryID int64) ([]*storage.Post, error) {
	return s.selectPosts(ctx, selectPosts+` WHERE p.published = 1 AND p.category_id = ? ORDER BY p.id`, categoryID)
}

func (s *Store) ListPostsByMinDate(ctx context.Context, minDate storage.Date) ([]*storage.Post, error) {
	// YYYY-MM-DD text sorts chronologically
	return s.selectPosts(ctx, selectPosts+` WHERE p.post_date >= ? ORDER BY p.id`, minDate)
}

func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts`); err != nil {
		return 0, fmt.Errorf("could not count posts: %w", mapSqlError(err))
	}
	return n, nil
}

func (s *Store) selectPosts(ctx context.Context, query string, args ...any) ([]*storage.Post, error) {
	posts := []*storage.Post{}
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", mapSqlError(err))
	}
	return posts, nil
}
