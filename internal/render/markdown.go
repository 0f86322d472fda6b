// internal/render/markdown.go
package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// newMarkdown builds the converter used by the markdown content mode. Raw
// HTML is let through here because the sanitizer runs afterwards.
func newMarkdown(base string) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&linkTransformer{base: base}, 100),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithUnsafe(),
		),
	)
}

// linkTransformer rewrites relative link destinations onto the site base
// URL, the same way call-to-action links are normalized.
type linkTransformer struct {
	base string
}

// Transform implements parser.ASTTransformer.
func (t *linkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := string(link.Destination)
		if keepLink(dest) {
			return ast.WalkContinue, nil
		}
		link.Destination = []byte(NormalizeLink(t.base, dest))
		return ast.WalkContinue, nil
	})
}

func keepLink(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return true
	}
	for _, scheme := range []string{"mailto:", "tel:"} {
		if strings.HasPrefix(strings.ToLower(dest), scheme) {
			return true
		}
	}
	return false
}

func convertMarkdown(md goldmark.Markdown, src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
