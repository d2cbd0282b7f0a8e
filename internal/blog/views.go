package blog

import (
	"blogsite/internal/storage"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MsgNoResults marks a failed fetch
	MsgNoResults = "no results"
	// MsgEmpty marks a successful fetch that found nothing on the list pages
	MsgEmpty = "No Results"
)

var errInvalidID = errors.New("invalid identifier")

type BlogQuery struct {
	Category string
	PostID   string
}

// BlogView is the listing shape. Message and CategoriesMessage fail independently.
type BlogView struct {
	Posts             []*storage.Post
	Post              *storage.Post
	Categories        []*storage.Category
	Message           string
	CategoriesMessage string
	ViewingCategory   string
}

type Filter int

const (
	FilterNone Filter = iota
	FilterCategory
	FilterMinDate
)

func (f Filter) String() string {
	switch f {
	case FilterCategory:
		return "category"
	case FilterMinDate:
		return "minDate"
	default:
		return "none"
	}
}

type PostsQuery struct {
	Category string
	MinDate  string
}

type PostsView struct {
	Posts   []*storage.Post
	Message string
	Filter  Filter
}

type CategoriesView struct {
	Categories []*storage.Category
	Message    string
}

// BlogView assembles the blog index and blog-by-id pages. It never fails,
// every read error is turned into a message on the view.
func (s *Service) BlogView(ctx context.Context, q BlogQuery) BlogView {
	ctx, span := s.tracer.Start(ctx, "Service.BlogView", trace.WithAttributes(
		attribute.String("blog.category", q.Category),
		attribute.String("blog.post_id", q.PostID),
	))
	defer span.End()

	view := BlogView{ViewingCategory: q.Category}

	var (
		wg           sync.WaitGroup
		posts        []*storage.Post
		postsErr     error
		featured     *storage.Post
		featuredErr  error
		categories   []*storage.Category
		categoryErr  error
		wantFeatured = q.PostID != ""
	)

	wg.Go(func() {
		posts, postsErr = s.listingPosts(ctx, q.Category)
	})
	if wantFeatured {
		wg.Go(func() {
			featured, featuredErr = s.postByID(ctx, q.PostID)
		})
	}
	wg.Go(func() {
		categories, categoryErr = s.listCategories(ctx)
	})
	wg.Wait()

	if postsErr != nil {
		s.fetchFailed(ctx, "posts", postsErr)
		view.Message = MsgNoResults
		posts = nil
	}
	sortByDateDesc(posts)
	view.Posts = nonNil(posts)

	switch {
	case !wantFeatured:
		if len(posts) > 0 {
			view.Post = posts[0]
		}
	case featuredErr != nil:
		s.fetchFailed(ctx, "post", featuredErr)
		view.Message = MsgNoResults
	default:
		view.Post = featured
	}

	if categoryErr != nil {
		s.fetchFailed(ctx, "categories", categoryErr)
		view.CategoriesMessage = MsgNoResults
	} else {
		view.Categories = nonNil(categories)
	}

	return view
}

// PostsView assembles the filtered posts table. category wins over minDate,
// which wins over no filter at all.
func (s *Service) PostsView(ctx context.Context, q PostsQuery) PostsView {
	ctx, span := s.tracer.Start(ctx, "Service.PostsView")
	defer span.End()

	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	var (
		view  PostsView
		posts []*storage.Post
		err   error
	)

	switch {
	case q.Category != "":
		view.Filter = FilterCategory
		var id int64
		if id, err = s.resolveCategory(ctx, q.Category); err == nil {
			posts, err = s.store.ListPublishedPostsByCategory(ctx, id)
		}
	case q.MinDate != "":
		view.Filter = FilterMinDate
		var minDate storage.Date
		if minDate, err = storage.ParseDate(q.MinDate); err == nil {
			posts, err = s.store.ListPostsByMinDate(ctx, minDate)
		}
	default:
		posts, err = s.store.ListPosts(ctx)
	}
	span.SetAttributes(attribute.String("blog.filter", view.Filter.String()))

	switch {
	case err != nil:
		s.fetchFailed(ctx, "posts", err)
		view.Message = MsgNoResults
		view.Posts = []*storage.Post{}
	case len(posts) == 0:
		view.Message = MsgEmpty
		view.Posts = []*storage.Post{}
	default:
		sortByDateDesc(posts)
		view.Posts = posts
	}

	return view
}

func (s *Service) CategoriesView(ctx context.Context) CategoriesView {
	categories, err := s.listCategories(ctx)
	switch {
	case err != nil:
		s.fetchFailed(ctx, "categories", err)
		return CategoriesView{Message: MsgNoResults}
	case len(categories) == 0:
		return CategoriesView{Categories: []*storage.Category{}, Message: MsgEmpty}
	default:
		return CategoriesView{Categories: categories}
	}
}

// Categories feeds the add-post form, a failure just leaves the select empty
func (s *Service) Categories(ctx context.Context) []*storage.Category {
	categories, err := s.listCategories(ctx)
	if err != nil {
		s.fetchFailed(ctx, "categories", err)
		return []*storage.Category{}
	}
	return nonNil(categories)
}

// Post returns a single post, malformed ids are reported as storage.ErrNotFound
func (s *Service) Post(ctx context.Context, id string) (*storage.Post, error) {
	return s.postByID(ctx, id)
}

func (s *Service) listingPosts(ctx context.Context, category string) ([]*storage.Post, error) {
	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	if category == "" {
		return s.store.ListPublishedPosts(ctx)
	}

	id, err := s.resolveCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return s.store.ListPublishedPostsByCategory(ctx, id)
}

// resolveCategory accepts a category id or, failing that, a category name
func (s *Service) resolveCategory(ctx context.Context, raw string) (int64, error) {
	if id, err := parseID(raw); err == nil {
		return id, nil
	}

	category, err := s.store.GetCategoryByName(ctx, strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("category %q: %w", raw, err)
	}
	return category.ID, nil
}

func (s *Service) postByID(ctx context.Context, raw string) (*storage.Post, error) {
	id, err := parseID(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: post %q: %v", storage.ErrNotFound, raw, err)
	}

	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	return s.store.GetPostByID(ctx, id)
}

func (s *Service) listCategories(ctx context.Context) ([]*storage.Category, error) {
	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	return s.store.ListCategories(ctx)
}

func sortByDateDesc(posts []*storage.Post) {
	slices.SortStableFunc(posts, func(a, b *storage.Post) int {
		return b.PostDate.Compare(a.PostDate)
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, raw)
	}
	return id, nil
}
