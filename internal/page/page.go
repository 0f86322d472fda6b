// internal/page/page.go
package page

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrRootNotFound is returned when the host page lacks the care container.
var ErrRootNotFound = errors.New("care root container not found")

const (
	templateSlotPrefix = "template-slot-"
	slotPrefix         = "slot-"
)

// Parse reads a host page into a document.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse host page: %w", err)
	}
	return doc, nil
}

// Serialize renders the whole document back to HTML.
func Serialize(doc *goquery.Document, w io.Writer) error {
	for _, n := range doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("render host page: %w", err)
		}
	}
	return nil
}

// Root returns the container element with the given id.
func Root(doc *goquery.Document, id string) (*goquery.Selection, error) {
	root := byID(doc.Selection, id)
	if root.Length() == 0 {
		return nil, fmt.Errorf("%w: #%s", ErrRootNotFound, id)
	}
	return root, nil
}

// Mount replaces every child of root with fragment.
func Mount(root *goquery.Selection, fragment template.HTML) {
	root.SetHtml(string(fragment))
}

// InjectSlots copies the content of each <template id="template-slot-NAME">
// into the element with id "slot-NAME". Templates without a matching
// container are skipped. It returns the ids of the filled containers.
func InjectSlots(doc *goquery.Document) []string {
	var filled []string
	doc.Find("template[id^='" + templateSlotPrefix + "']").Each(func(_ int, tpl *goquery.Selection) {
		id, _ := tpl.Attr("id")
		slotID := slotPrefix + strings.TrimPrefix(id, templateSlotPrefix)
		slot := byID(doc.Selection, slotID)
		if slot.Length() == 0 {
			return
		}
		slot.AppendSelection(tpl.Contents().Clone())
		filled = append(filled, slotID)
	})
	return filled
}

// byID matches on the id attribute directly so ids that are not valid CSS
// identifiers still resolve.
func byID(sel *goquery.Selection, id string) *goquery.Selection {
	return sel.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	}).First()
}
