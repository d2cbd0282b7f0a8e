package content

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MarkdownRenderer turns post bodies into HTML. Raw HTML in the source is
// omitted, so script tags never reach the page.
type MarkdownRenderer struct {
	engine goldmark.Markdown
}

// NewMarkdownRenderer resolves relative image paths in bodies against mediaBaseURL
func NewMarkdownRenderer(mediaBaseURL string) *MarkdownRenderer {
	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
			emoji.Emoji,
			highlighting.NewHighlighting(
				highlighting.WithStyle("solarized-dark"),
				highlighting.WithGuessLanguage(true),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(&mediaTransformer{baseURL: mediaBaseURL}, 100)),
		),
	)
	return &MarkdownRenderer{engine: engine}
}

func (m *MarkdownRenderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	// html output is larger than markdown add 50% to the buffer
	buf.Grow(len(source) + (len(source) / 2))

	if err := m.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMDConversion, err)
	}

	return buf.Bytes(), nil
}

type mediaTransformer struct {
	baseURL string
}

func (a *mediaTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}

		dest := string(img.Destination)
		if dest == "" || isExternalLink(dest) || strings.HasPrefix(dest, "/") {
			return ast.WalkContinue, nil
		}

		newPath, err := url.JoinPath(a.baseURL, dest)
		if err != nil {
			return ast.WalkContinue, nil
		}

		img.Destination = []byte(newPath)

		return ast.WalkContinue, nil
	})
}

func isExternalLink(s string) bool {
	s = strings.ToLower(s)

	for _, prefix := range []string{"http:", "https:", "ftp:", "ftps:", "sftp:", "data:", "//"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
