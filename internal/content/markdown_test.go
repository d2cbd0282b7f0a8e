package content

import (
	"strings"
	"testing"
)

func TestMarkdownRender(t *testing.T) {
	t.Parallel()
	md := NewMarkdownRenderer("/media/")

	tests := []struct {
		name     string
		source   string
		contains []string
		excludes []string
	}{
		{
			name:     "heading and emphasis",
			source:   "# Hello\n\nsome *text*",
			contains: []string{`<h1 id="hello">Hello</h1>`, "<em>text</em>"},
		},
		{
			name:     "raw html is dropped",
			source:   "before\n\n<script>alert('x')</script>\n\nafter",
			contains: []string{"before", "after"},
			excludes: []string{"<script>"},
		},
		{
			name:     "relative image goes through media",
			source:   "![cat](cat.png)",
			contains: []string{`src="/media/cat.png"`},
		},
		{
			name:     "external image untouched",
			source:   "![cat](https://example.com/cat.png)",
			contains: []string{`src="https://example.com/cat.png"`},
		},
		{
			name:     "absolute image untouched",
			source:   "![logo](/static/logo.png)",
			contains: []string{`src="/static/logo.png"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := md.Render([]byte(tt.source))
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			html := string(out)
			for _, want := range tt.contains {
				if !strings.Contains(html, want) {
					t.Errorf("output missing %q:\n%s", want, html)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(html, bad) {
					t.Errorf("output should not contain %q:\n%s", bad, html)
				}
			}
		})
	}
}

func TestIsExternalLink(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"https://x.com/a.png": true,
		"HTTP://x.com/a.png":  true,
		"//cdn.x.com/a.png":   true,
		"httpdocs/a.png":      false,
		"images/a.png":        false,
	}
	for in, want := range tests {
		if got := isExternalLink(in); got != want {
			t.Errorf("isExternalLink(%q) = %v, want %v", in, got, want)
		}
	}
}
