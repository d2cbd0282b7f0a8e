package components

import (
	"blogsite/internal/blog"
	"blogsite/internal/storage"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

type upperRenderer struct{ err error }

func (u upperRenderer) Render(src []byte) ([]byte, error) {
	if u.err != nil {
		return nil, u.err
	}
	return []byte("<p>" + strings.ToUpper(string(src)) + "</p>"), nil
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return sb.String()
}

func mustDate(s string) storage.Date {
	d, err := storage.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBlogPage(t *testing.T) {
	t.Parallel()

	post := &storage.Post{ID: 7, Title: "Hello <world>", Body: "body", PostDate: mustDate("2024-02-03"), CategoryID: 2, CategoryName: "tech", FeatureImage: "/media/a.png"}

	tests := []struct {
		name     string
		view     blog.BlogView
		contains []string
		excludes []string
	}{
		{
			name: "featured post",
			view: blog.BlogView{Posts: []*storage.Post{post}, Post: post, Categories: []*storage.Category{{ID: 2, Name: "tech"}}, ViewingCategory: "2"},
			contains: []string{
				"Hello &lt;world&gt;", "<p>BODY</p>", `src="/media/a.png"`, "2024-02-03",
				`href="/blog/7?category=2"`, `<a href="/blog?category=2" class="active">tech</a>`,
			},
			excludes: []string{"Hello <world>", emptyListingHint},
		},
		{
			name: "viewing category by name",
			view: blog.BlogView{Posts: []*storage.Post{post}, Post: post, Categories: []*storage.Category{{ID: 2, Name: "tech"}, {ID: 3, Name: "news"}}, ViewingCategory: "tech"},
			contains: []string{
				`href="/blog/7?category=tech"`, `<a href="/blog?category=2" class="active">tech</a>`,
				`<a href="/blog?category=3">news</a>`,
			},
			excludes: []string{`<a href="/blog" class="active">All</a>`},
		},
		{
			name:     "empty listing hint",
			view:     blog.BlogView{Posts: []*storage.Post{}},
			contains: []string{emptyListingHint},
		},
		{
			name:     "failures shown independently",
			view:     blog.BlogView{Posts: []*storage.Post{}, Message: blog.MsgNoResults, CategoriesMessage: blog.MsgNoResults},
			contains: []string{`<p class="message">no results</p></section>`, `<h2>Categories</h2><p class="message">no results</p>`},
			excludes: []string{emptyListingHint},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := render(t, BlogPage(CommonData{SiteName: "Site", ActiveRoute: "/blog"}, tt.view, upperRenderer{}))
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("missing %q in\n%s", want, out)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(out, bad) {
					t.Errorf("unexpected %q in\n%s", bad, out)
				}
			}
		})
	}
}

func TestNavLinkActive(t *testing.T) {
	t.Parallel()

	out := render(t, Layout(CommonData{SiteName: "Site", ActiveRoute: "/posts", Flash: "Post deleted"}, "x", templ.NopComponent))

	if !strings.Contains(out, `<a href="/posts" class="active" aria-current="page">Posts</a>`) {
		t.Errorf("posts link should be active:\n%s", out)
	}
	if strings.Contains(out, `<a href="/blog" class="active"`) {
		t.Errorf("blog link should not be active")
	}
	if !strings.Contains(out, "Post deleted") {
		t.Errorf("flash message missing")
	}
}

func TestSafeHTMLFallsBackToText(t *testing.T) {
	t.Parallel()

	out := render(t, SafeHTML(upperRenderer{err: errors.New("bad")}, "<b>x</b>"))
	if out != "&lt;b&gt;x&lt;/b&gt;" {
		t.Errorf("got %q", out)
	}
}

func TestAddPostPageKeepsValues(t *testing.T) {
	t.Parallel()

	form := PostForm{Title: `"quoted"`, Body: "draft body", Category: "3", Published: true, Error: "Title is required"}
	out := render(t, AddPostPage(CommonData{CSRFToken: "tok"}, form, []*storage.Category{{ID: 3, Name: "news"}}))

	for _, want := range []string{
		`name="csrf_token" value="tok"`,
		`value="&#34;quoted&#34;"`,
		">draft body</textarea>",
		`<option value="3" selected>news</option>`,
		`name="published" checked`,
		"Title is required",
		`enctype="multipart/form-data"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}

func TestPostsPage(t *testing.T) {
	t.Parallel()

	view := blog.PostsView{Posts: []*storage.Post{{ID: 1, Title: "a", PostDate: mustDate("2024-01-01"), Published: false}}}
	out := render(t, PostsPage(CommonData{}, view, blog.PostsQuery{MinDate: "2023-01-01"}, nil))
	for _, want := range []string{`href="/posts/delete/1"`, "draft", `value="2023-01-01"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}

	out = render(t, PostsPage(CommonData{}, blog.PostsView{Posts: []*storage.Post{}, Message: blog.MsgEmpty}, blog.PostsQuery{}, nil))
	if !strings.Contains(out, "No Results") || strings.Contains(out, "<table>") {
		t.Errorf("empty result should show the message only")
	}
}

func TestPostsPageFilterByName(t *testing.T) {
	t.Parallel()

	categories := []*storage.Category{{ID: 2, Name: "tech"}, {ID: 3, Name: "news"}}
	out := render(t, PostsPage(CommonData{}, blog.PostsView{Posts: []*storage.Post{}}, blog.PostsQuery{Category: "news"}, categories))
	if !strings.Contains(out, `<option value="3" selected>news</option>`) {
		t.Errorf("named filter should be selected:\n%s", out)
	}
	if !strings.Contains(out, `<option value="2">tech</option>`) {
		t.Errorf("other categories should not be selected:\n%s", out)
	}
}

func TestRenderStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sb strings.Builder
	err := AboutPage(CommonData{SiteName: "Site"}).Render(ctx, &sb)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if sb.Len() != 0 {
		t.Errorf("wrote %q after cancellation", sb.String())
	}
}
