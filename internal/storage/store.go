package storage

import (
	"context"
	"errors"
	"time"
)

// Store is the persistence contract for posts and categories
type Store interface {
	// posts
	CreatePost(ctx context.Context, fields PostFields) (*Post, error)
	GetPostByID(ctx context.Context, id int64) (*Post, error)
	DeletePostByID(ctx context.Context, id int64) error
	ListPosts(ctx context.Context) ([]*Post, error)
	ListPublishedPosts(ctx context.Context) ([]*Post, error)
	ListPublishedPostsByCategory(ctx context.Context, categoryID int64) ([]*Post, error)
	ListPostsByMinDate(ctx context.Context, minDate Date) ([]*Post, error)
	CountPosts(ctx context.Context) (int64, error)

	// categories
	CreateCategory(ctx context.Context, name string) (*Category, error)
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	DeleteCategoryByID(ctx context.Context, id int64) error

	Close() error
}

var (
	ErrNotFound            = errors.New("record not found")
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrCheckViolation      = errors.New("check constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
	ErrInvalidDate         = errors.New("invalid date")
)

type Post struct {
	ID              int64     `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Body            string    `db:"body" json:"body"`
	PostDate        Date      `db:"post_date" json:"postDate"`
	CategoryID      int64     `db:"category_id" json:"category"`
	CategoryName    string    `db:"category_name" json:"categoryName,omitempty"`
	FeatureImage    string    `db:"feature_image" json:"featureImage"`
	FeatureImageKey string    `db:"feature_image_key" json:"-"`
	Published       bool      `db:"published" json:"published"`
	CreatedAt       time.Time `db:"created_at" json:"-"`
}

// PostFields is everything a caller supplies when creating a post
type PostFields struct {
	Title           string
	Body            string
	PostDate        Date
	CategoryID      int64
	FeatureImage    string
	FeatureImageKey string
	Published       bool
}

type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"category"`
}
