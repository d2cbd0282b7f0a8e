package blog

import (
	"blogsite/internal/content"
	"blogsite/internal/storage"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"
)

var errBoom = errors.New("boom")

// fakeStore is an in-memory storage.Store that records which reads were made
type fakeStore struct {
	mu         sync.Mutex
	posts      []*storage.Post
	categories []*storage.Category
	calls      []string
	created    []storage.PostFields

	postsErr      error
	categoriesErr error
	getErr        error
	createErr     error
	block         bool // reads wait for ctx to end
	nilLists      bool // successful list reads return nil instead of an empty slice
}

var _ storage.Store = (*fakeStore)(nil)

func (f *fakeStore) record(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeStore) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.calls, name)
}

func (f *fakeStore) list(filter func(*storage.Post) bool) []*storage.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nilLists {
		return nil
	}
	out := []*storage.Post{}
	for _, p := range f.posts {
		if filter(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeStore) CreatePost(ctx context.Context, fields storage.PostFields) (*storage.Post, error) {
	if err := f.record(ctx, "CreatePost"); err != nil {
		return nil, err
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, fields)
	p := &storage.Post{
		ID:              int64(len(f.posts) + 1),
		Title:           fields.Title,
		Body:            fields.Body,
		PostDate:        fields.PostDate,
		CategoryID:      fields.CategoryID,
		FeatureImage:    fields.FeatureImage,
		FeatureImageKey: fields.FeatureImageKey,
		Published:       fields.Published,
	}
	f.posts = append(f.posts, p)
	return p, nil
}

func (f *fakeStore) GetPostByID(ctx context.Context, id int64) (*storage.Post, error) {
	if err := f.record(ctx, "GetPostByID"); err != nil {
		return nil, err
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	found := f.list(func(p *storage.Post) bool { return p.ID == id })
	if len(found) == 0 {
		return nil, storage.ErrNotFound
	}
	return found[0], nil
}

func (f *fakeStore) DeletePostByID(ctx context.Context, id int64) error {
	if err := f.record(ctx, "DeletePostByID"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.posts)
	f.posts = slices.DeleteFunc(f.posts, func(p *storage.Post) bool { return p.ID == id })
	if len(f.posts) == before {
		return storage.ErrNotFound
	}
	return nil
}

func (f *fakeStore) ListPosts(ctx context.Context) ([]*storage.Post, error) {
	if err := f.record(ctx, "ListPosts"); err != nil {
		return nil, err
	}
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	return f.list(func(*storage.Post) bool { return true }), nil
}

func (f *fakeStore) ListPublishedPosts(ctx context.Context) ([]*storage.Post, error) {
	if err := f.record(ctx, "ListPublishedPosts"); err != nil {
		return nil, err
	}
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	return f.list(func(p *storage.Post) bool { return p.Published }), nil
}

func (f *fakeStore) ListPublishedPostsByCategory(ctx context.Context, categoryID int64) ([]*storage.Post, error) {
	if err := f.record(ctx, "ListPublishedPostsByCategory"); err != nil {
		return nil, err
	}
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	return f.list(func(p *storage.Post) bool { return p.Published && p.CategoryID == categoryID }), nil
}

func (f *fakeStore) ListPostsByMinDate(ctx context.Context, minDate storage.Date) ([]*storage.Post, error) {
	if err := f.record(ctx, "ListPostsByMinDate"); err != nil {
		return nil, err
	}
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	return f.list(func(p *storage.Post) bool { return p.PostDate.Compare(minDate) >= 0 }), nil
}

func (f *fakeStore) CountPosts(ctx context.Context) (int64, error) {
	if err := f.record(ctx, "CountPosts"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.posts)), nil
}

func (f *fakeStore) CreateCategory(ctx context.Context, name string) (*storage.Category, error) {
	if err := f.record(ctx, "CreateCategory"); err != nil {
		return nil, err
	}
	if f.categoriesErr != nil {
		return nil, f.categoriesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name {
			return nil, storage.ErrUniqueViolation
		}
	}
	c := &storage.Category{ID: int64(len(f.categories) + 1), Name: name}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeStore) GetCategoryByName(ctx context.Context, name string) (*storage.Category, error) {
	if err := f.record(ctx, "GetCategoryByName"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]*storage.Category, error) {
	if err := f.record(ctx, "ListCategories"); err != nil {
		return nil, err
	}
	if f.categoriesErr != nil {
		return nil, f.categoriesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nilLists {
		return nil, nil
	}
	return slices.Clone(f.categories), nil
}

func (f *fakeStore) DeleteCategoryByID(ctx context.Context, id int64) error {
	if err := f.record(ctx, "DeleteCategoryByID"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.categories)
	f.categories = slices.DeleteFunc(f.categories, func(c *storage.Category) bool { return c.ID == id })
	if len(f.categories) == before {
		return storage.ErrNotFound
	}
	for _, p := range f.posts {
		if p.CategoryID == id {
			p.CategoryID = 0
		}
	}
	return nil
}

func (f *fakeStore) Close() error { return nil }

// fakeMedia records uploads and deletes instead of talking to a media host
type fakeMedia struct {
	mu        sync.Mutex
	uploadErr error
	uploads   int
	deleted   []string
	now       func() time.Time
	uploadAt  time.Time
}

func (m *fakeMedia) Upload(ctx context.Context, r io.Reader, name string) (content.Media, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return content.Media{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.now != nil {
		m.uploadAt = m.now()
	}
	if m.uploadErr != nil {
		return content.Media{}, m.uploadErr
	}
	m.uploads++
	return content.Media{Key: "img-" + name, URL: "https://media.example.com/img-" + name}, nil
}

func (m *fakeMedia) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	keys []string
}

func (q *fakeQueue) EnqueueVariants(ctx context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.keys = append(q.keys, key)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(s string) storage.Date {
	d, err := storage.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
