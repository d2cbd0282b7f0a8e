package blog

import (
	"blogsite/internal/storage"
	"context"
	"testing"
	"testing/synctest"
	"time"
)

func seededStore() *fakeStore {
	return &fakeStore{
		posts: []*storage.Post{
			{ID: 1, Title: "old", PostDate: date("2023-01-01"), CategoryID: 1, Published: true},
			{ID: 2, Title: "new", PostDate: date("2024-06-01"), CategoryID: 2, Published: true},
			{ID: 3, Title: "mid", PostDate: date("2023-09-15"), CategoryID: 1, Published: true},
			{ID: 4, Title: "draft", PostDate: date("2024-07-01"), CategoryID: 1, Published: false},
		},
		categories: []*storage.Category{{ID: 1, Name: "tech"}, {ID: 2, Name: "travel"}},
	}
}

func titles(posts []*storage.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBlogViewSortsDescending(t *testing.T) {
	t.Parallel()
	svc := NewService(seededStore(), &fakeMedia{}, discardLogger())

	view := svc.BlogView(context.Background(), BlogQuery{})

	if got, want := titles(view.Posts), []string{"new", "mid", "old"}; !equalStrings(got, want) {
		t.Errorf("posts = %v, want %v", got, want)
	}
	for i := 1; i < len(view.Posts); i++ {
		if view.Posts[i-1].PostDate.Compare(view.Posts[i].PostDate) <= 0 {
			t.Errorf("posts not strictly descending at %d", i)
		}
	}
	if view.Post == nil || view.Post.Title != "new" {
		t.Errorf("featured post should be the most recent, got %+v", view.Post)
	}
	if view.Message != "" || view.CategoriesMessage != "" {
		t.Errorf("unexpected messages %q / %q", view.Message, view.CategoriesMessage)
	}
	if len(view.Categories) != 2 {
		t.Errorf("want 2 categories, got %d", len(view.Categories))
	}
}

func TestBlogViewStableForEqualDates(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	for i, title := range []string{"a", "b", "c", "d"} {
		store.posts = append(store.posts, &storage.Post{ID: int64(i + 1), Title: title, PostDate: date("2024-01-01"), Published: true})
	}
	store.posts = append(store.posts, &storage.Post{ID: 5, Title: "later", PostDate: date("2024-02-01"), Published: true})

	view := NewService(store, &fakeMedia{}, discardLogger()).BlogView(context.Background(), BlogQuery{})

	if got, want := titles(view.Posts), []string{"later", "a", "b", "c", "d"}; !equalStrings(got, want) {
		t.Errorf("posts = %v, want %v", got, want)
	}
}

func TestBlogViewPostFailure(t *testing.T) {
	t.Parallel()

	for _, category := range []string{"", "1"} {
		store := seededStore()
		store.postsErr = errBoom

		view := NewService(store, &fakeMedia{}, discardLogger()).BlogView(context.Background(), BlogQuery{Category: category})

		if view.Message != MsgNoResults {
			t.Errorf("category %q: message = %q, want %q", category, view.Message, MsgNoResults)
		}
		if view.Posts == nil || len(view.Posts) != 0 {
			t.Errorf("category %q: posts should be empty and non-nil, got %v", category, view.Posts)
		}
		if view.Post != nil {
			t.Errorf("category %q: no featured post expected", category)
		}
		if view.CategoriesMessage != "" || len(view.Categories) != 2 {
			t.Errorf("category %q: category data should be unaffected", category)
		}
	}
}

func TestBlogViewCategoryFailureIsIndependent(t *testing.T) {
	t.Parallel()
	store := seededStore()
	store.categoriesErr = errBoom

	view := NewService(store, &fakeMedia{}, discardLogger()).BlogView(context.Background(), BlogQuery{})

	if view.Categories != nil {
		t.Errorf("categories should be absent, got %v", view.Categories)
	}
	if view.CategoriesMessage != MsgNoResults {
		t.Errorf("categoriesMessage = %q", view.CategoriesMessage)
	}
	if view.Message != "" || len(view.Posts) != 3 || view.Post == nil {
		t.Errorf("posts side should be unaffected: msg=%q posts=%d post=%v", view.Message, len(view.Posts), view.Post)
	}
}

func TestBlogViewCategoryFilter(t *testing.T) {
	t.Parallel()
	store := seededStore()

	view := NewService(store, &fakeMedia{}, discardLogger()).BlogView(context.Background(), BlogQuery{Category: "1"})

	if !store.called("ListPublishedPostsByCategory") || store.called("ListPublishedPosts") {
		t.Errorf("expected only the by-category fetch, calls: %v", store.calls)
	}
	if got, want := titles(view.Posts), []string{"mid", "old"}; !equalStrings(got, want) {
		t.Errorf("posts = %v, want %v", got, want)
	}
	if view.ViewingCategory != "1" {
		t.Errorf("viewing category = %q", view.ViewingCategory)
	}
}

func TestBlogViewCategoryByName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		category   string
		wantTitles []string
		wantMsg    string
	}{
		{name: "known name", category: "tech", wantTitles: []string{"mid", "old"}},
		{name: "name with spaces", category: " travel ", wantTitles: []string{"new"}},
		{name: "unknown name", category: "cooking", wantTitles: []string{}, wantMsg: MsgNoResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := seededStore()

			view := NewService(store, &fakeMedia{}, discardLogger()).BlogView(context.Background(), BlogQuery{Category: tt.category})

			if store.called("ListPublishedPosts") {
				t.Errorf("all-posts fetch must not run for a category request")
			}
			if !store.called("GetCategoryByName") {
				t.Errorf("category name should be resolved, calls: %v", store.calls)
			}
			if tt.wantMsg == "" && !store.called("ListPublishedPostsByCategory") {
				t.Errorf("expected the by-category fetch, calls: %v", store.calls)
			}
			if got := titles(view.Posts); !equalStrings(got, tt.wantTitles) {
				t.Errorf("posts = %v, want %v", got, tt.wantTitles)
			}
			if view.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", view.Message, tt.wantMsg)
			}
			if view.Posts == nil {
				t.Errorf("posts must never be nil")
			}
		})
	}
}

func TestBlogViewNilListsBecomeEmpty(t *testing.T) {
	t.Parallel()
	store := &fakeStore{nilLists: true}

	view := NewService(store, &fakeMedia{}, discardLogger()).BlogView(context.Background(), BlogQuery{})

	if view.Posts == nil || len(view.Posts) != 0 {
		t.Errorf("posts should be empty and non-nil, got %#v", view.Posts)
	}
	if view.Categories == nil || len(view.Categories) != 0 {
		t.Errorf("categories should be empty and non-nil, got %#v", view.Categories)
	}
	if view.Message != "" || view.CategoriesMessage != "" || view.Post != nil {
		t.Errorf("an empty store is not a failure: %q / %q / %v", view.Message, view.CategoriesMessage, view.Post)
	}
}

func TestBlogViewRequestedPost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		postID    string
		getErr    error
		wantTitle string
		wantMsg   string
	}{
		{name: "found", postID: "1", wantTitle: "old"},
		{name: "missing", postID: "99", wantMsg: MsgNoResults},
		{name: "malformed", postID: "abc", wantMsg: MsgNoResults},
		{name: "store error", postID: "1", getErr: errBoom, wantMsg: MsgNoResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := seededStore()
			store.getErr = tt.getErr

			view := NewService(store, &fakeMedia{}, discardLogger()).BlogView(context.Background(), BlogQuery{PostID: tt.postID})

			if view.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", view.Message, tt.wantMsg)
			}
			if tt.wantTitle != "" && (view.Post == nil || view.Post.Title != tt.wantTitle) {
				t.Errorf("post = %+v, want %q", view.Post, tt.wantTitle)
			}
			if tt.wantTitle == "" && view.Post != nil {
				t.Errorf("no post expected, got %+v", view.Post)
			}
			// the listing is assembled regardless
			if len(view.Posts) != 3 {
				t.Errorf("posts list should be untouched, got %d", len(view.Posts))
			}
		})
	}
}

func TestBlogViewFetchTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		store := seededStore()
		store.block = true

		svc := NewService(store, &fakeMedia{}, discardLogger(), WithFetchTimeout(2*time.Second))

		start := time.Now()
		view := svc.BlogView(context.Background(), BlogQuery{PostID: "1"})

		if elapsed := time.Since(start); elapsed != 2*time.Second {
			t.Errorf("fetches should run concurrently and time out together, took %s", elapsed)
		}
		if view.Message != MsgNoResults || view.CategoriesMessage != MsgNoResults {
			t.Errorf("timeouts should surface as messages, got %q / %q", view.Message, view.CategoriesMessage)
		}
		if view.Posts == nil {
			t.Errorf("posts must never be nil")
		}
	})
}

func TestPostsViewFilterPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      PostsQuery
		wantCall   string
		notCalled  []string
		wantFilter Filter
		wantTitles []string
		wantMsg    string
	}{
		{
			name:       "category wins",
			query:      PostsQuery{Category: "1", MinDate: "2024-01-01"},
			wantCall:   "ListPublishedPostsByCategory",
			notCalled:  []string{"ListPostsByMinDate", "ListPosts"},
			wantFilter: FilterCategory,
			wantTitles: []string{"mid", "old"},
		},
		{
			name:       "min date",
			query:      PostsQuery{MinDate: "2023-09-15"},
			wantCall:   "ListPostsByMinDate",
			notCalled:  []string{"ListPublishedPostsByCategory", "ListPosts"},
			wantFilter: FilterMinDate,
			wantTitles: []string{"draft", "new", "mid"},
		},
		{
			name:       "no filter",
			query:      PostsQuery{},
			wantCall:   "ListPosts",
			notCalled:  []string{"ListPublishedPostsByCategory", "ListPostsByMinDate"},
			wantFilter: FilterNone,
			wantTitles: []string{"draft", "new", "mid", "old"},
		},
		{
			name:       "empty result",
			query:      PostsQuery{MinDate: "2030-01-01"},
			wantCall:   "ListPostsByMinDate",
			wantFilter: FilterMinDate,
			wantTitles: []string{},
			wantMsg:    MsgEmpty,
		},
		{
			name:       "category by name",
			query:      PostsQuery{Category: "travel"},
			wantCall:   "ListPublishedPostsByCategory",
			notCalled:  []string{"ListPostsByMinDate", "ListPosts"},
			wantFilter: FilterCategory,
			wantTitles: []string{"new"},
		},
		{
			name:       "unknown category name",
			query:      PostsQuery{Category: "cooking", MinDate: "2023-01-01"},
			notCalled:  []string{"ListPublishedPostsByCategory", "ListPostsByMinDate", "ListPosts"},
			wantFilter: FilterCategory,
			wantTitles: []string{},
			wantMsg:    MsgNoResults,
		},
		{
			name:       "bad date",
			query:      PostsQuery{MinDate: "yesterday"},
			notCalled:  []string{"ListPostsByMinDate", "ListPosts"},
			wantFilter: FilterMinDate,
			wantTitles: []string{},
			wantMsg:    MsgNoResults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := seededStore()

			view := NewService(store, &fakeMedia{}, discardLogger()).PostsView(context.Background(), tt.query)

			if tt.wantCall != "" && !store.called(tt.wantCall) {
				t.Errorf("expected %s, calls: %v", tt.wantCall, store.calls)
			}
			for _, name := range tt.notCalled {
				if store.called(name) {
					t.Errorf("%s should not be called", name)
				}
			}
			if view.Filter != tt.wantFilter {
				t.Errorf("filter = %v, want %v", view.Filter, tt.wantFilter)
			}
			if got := titles(view.Posts); !equalStrings(got, tt.wantTitles) {
				t.Errorf("posts = %v, want %v", got, tt.wantTitles)
			}
			if view.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", view.Message, tt.wantMsg)
			}
		})
	}
}

func TestPostsViewFailure(t *testing.T) {
	t.Parallel()
	store := seededStore()
	store.postsErr = errBoom

	view := NewService(store, &fakeMedia{}, discardLogger()).PostsView(context.Background(), PostsQuery{})

	if view.Message != MsgNoResults || len(view.Posts) != 0 {
		t.Errorf("got %q with %d posts", view.Message, len(view.Posts))
	}
}

func TestCategoriesView(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		store   *fakeStore
		wantLen int
		wantMsg string
	}{
		{name: "ok", store: seededStore(), wantLen: 2},
		{name: "empty", store: &fakeStore{}, wantMsg: MsgEmpty},
		{name: "failure", store: &fakeStore{categoriesErr: errBoom}, wantMsg: MsgNoResults},
		{name: "nil from store", store: &fakeStore{nilLists: true}, wantMsg: MsgEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewService(tt.store, &fakeMedia{}, discardLogger())

			view := svc.CategoriesView(context.Background())
			if len(view.Categories) != tt.wantLen || view.Message != tt.wantMsg {
				t.Errorf("got %d categories, message %q", len(view.Categories), view.Message)
			}

			// the form variant never fails
			if got := svc.Categories(context.Background()); got == nil {
				t.Errorf("Categories should never return nil")
			}
			if tt.wantMsg == MsgEmpty && view.Categories == nil {
				t.Errorf("CategoriesView should carry an empty list, got nil")
			}
		})
	}
}

func TestPostByID(t *testing.T) {
	t.Parallel()
	svc := NewService(seededStore(), &fakeMedia{}, discardLogger())

	post, err := svc.Post(context.Background(), "2")
	if err != nil || post.Title != "new" {
		t.Fatalf("Post(2) = %+v, %v", post, err)
	}

	for _, id := range []string{"99", "x", "-1", ""} {
		if _, err := svc.Post(context.Background(), id); !errorsIsNotFound(err) {
			t.Errorf("Post(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}
