package components

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

import (
	"blogsite/internal/blog"
	"blogsite/internal/storage"
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

const emptyListingHint = "Please try another post / category"

// CommonData is what every page layout needs
type CommonData struct {
	SiteName        string
	ActiveRoute     string
	ViewingCategory string
	CSRFToken       string
	Flash           string
	Year            int
}

// BodyRenderer turns a markdown post body into HTML
type BodyRenderer interface {
	Render(source []byte) ([]byte, error)
}

// PostForm holds what was submitted so a rejected form keeps its values
type PostForm struct {
	Title     string
	Body      string
	Category  string
	Published bool
	Error     string
}

// FormatDate renders a post date as YYYY-MM-DD
func FormatDate(d storage.Date) string {
	return d.String()
}

// SafeHTML renders a post body through md, escaping it as text if conversion fails
func SafeHTML(md BodyRenderer, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := md.Render([]byte(body))
		if err != nil {
			_, err = io.WriteString(w, templ.EscapeString(body))
			return err
		}
		_, err = w.Write(out)
		return err
	})
}

func pageTitle(title, siteName string) string {
	if title == "" {
		return siteName
	}
	return title + " | " + siteName
}

func blogTitle(view blog.BlogView) string {
	if view.Post != nil {
		return view.Post.Title
	}
	return "Blog"
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func postHref(id int64, category string) string {
	href := "/blog/" + idString(id)
	if category != "" {
		href += "?category=" + url.QueryEscape(category)
	}
	return href
}

// isViewing matches a category filter given either as an id or as a name
func isViewing(viewing string, c *storage.Category) bool {
	viewing = strings.TrimSpace(viewing)
	return viewing != "" && (viewing == idString(c.ID) || viewing == c.Name)
}
