// internal/render/format.go
package render

import (
	"html/template"
	"regexp"
	"strings"
)

var blankRun = regexp.MustCompile(`\n{3,}`)

// FormatText turns plain free text into escaped paragraph markup. Line
// endings are normalized, runs of blank lines collapse to one, blank-line
// separated blocks become paragraphs and single newlines become <br>.
// Empty text renders as nothing.
func FormatText(text string) template.HTML {
	return template.HTML(formatBlocks(text, template.HTMLEscapeString))
}

// formatBlocks applies the paragraph rules, passing each line through esc.
func formatBlocks(text string, esc func(string) string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankRun.ReplaceAllString(text, "\n\n")

	paragraphs := strings.Split(text, "\n\n")
	for i, para := range paragraphs {
		lines := strings.Split(para, "\n")
		for j, line := range lines {
			lines[j] = esc(line)
		}
		paragraphs[i] = strings.Join(lines, "<br>")
	}
	return "<p>" + strings.Join(paragraphs, "</p><p>") + "</p>"
}

// NormalizeLink makes a call-to-action link absolute. Links that already
// start with "http" are kept; anything else is joined onto base after its
// leading slashes are dropped. An empty link stays empty.
func NormalizeLink(base, link string) string {
	if link == "" || strings.HasPrefix(link, "http") {
		return link
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimLeft(link, "/")
}
