package page

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const hostPage = `<!DOCTYPE html>
<html><head><title>Care</title></head>
<body>
<div id="care-root"><p>Loading…</p></div>
<template id="template-slot-after-hero"><aside class="promo">Call <b>now</b></aside></template>
<template id="template-slot-after-faq"><p class="note">Still unsure?</p></template>
<template id="template-slot-nowhere"><p>orphan</p></template>
</body></html>`

const fragment = `<div class="care-page">
<div id="slot-after-hero"></div>
<section class="care-faq">
  <div class="care-faq-item">
    <div class="care-faq-question">Q1</div>
    <div class="care-faq-answer"><p>A1</p></div>
  </div>
  <div class="care-faq-item">
    <div class="care-faq-question">Q2</div>
    <div class="care-faq-answer"><p>A2</p></div>
  </div>
</section>
<div id="slot-after-faq"></div>
</div>`

func parseHost(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestRootMissing(t *testing.T) {
	doc := parseHost(t, `<html><body><div id="other"></div></body></html>`)
	_, err := Root(doc, "care-root")
	require.ErrorIs(t, err, ErrRootNotFound)
}

func TestMountReplacesChildren(t *testing.T) {
	doc := parseHost(t, hostPage)
	root, err := Root(doc, "care-root")
	require.NoError(t, err)

	Mount(root, fragment)
	require.NotContains(t, root.Text(), "Loading")
	require.Equal(t, 1, root.Children().Length())
	require.True(t, root.Children().First().HasClass("care-page"))
}

func TestInjectSlotsCopiesTemplateContent(t *testing.T) {
	doc := parseHost(t, hostPage)
	root, err := Root(doc, "care-root")
	require.NoError(t, err)
	Mount(root, fragment)

	filled := InjectSlots(doc)
	require.Equal(t, []string{"slot-after-hero", "slot-after-faq"}, filled)

	hero := doc.Find("#slot-after-hero")
	require.Equal(t, 1, hero.Find("aside.promo b").Length())
	require.Equal(t, "Still unsure?", doc.Find("#slot-after-faq .note").Text())

	// The template definitions stay in place for later passes.
	require.Equal(t, 3, doc.Find("template").Length())
}

func TestInjectSlotsNoop(t *testing.T) {
	doc := parseHost(t, `<html><body><div id="care-root"></div></body></html>`)
	require.Empty(t, InjectSlots(doc))
}

func TestActivateFAQAndToggle(t *testing.T) {
	doc := parseHost(t, hostPage)
	root, err := Root(doc, "care-root")
	require.NoError(t, err)
	Mount(root, fragment)

	require.Equal(t, 2, ActivateFAQ(root))
	require.Equal(t, 1, root.Find("script#"+faqScriptID).Length())

	// Activating twice does not duplicate the script.
	ActivateFAQ(root)
	require.Equal(t, 1, root.Find("script#"+faqScriptID).Length())

	q := root.Find(".care-faq-question").First()
	require.Equal(t, "button", q.AttrOr("role", ""))
	require.Equal(t, "false", q.AttrOr("aria-expanded", ""))

	require.True(t, ToggleFAQ(q))
	require.True(t, q.HasClass("open"))
	require.True(t, q.Next().HasClass("open"))
	require.Equal(t, "true", q.AttrOr("aria-expanded", ""))

	other := root.Find(".care-faq-question").Last()
	require.False(t, other.HasClass("open"))
	require.False(t, other.Next().HasClass("open"))

	require.False(t, ToggleFAQ(q))
	require.False(t, q.HasClass("open"))
	require.False(t, q.Next().HasClass("open"))
	require.Equal(t, "false", q.AttrOr("aria-expanded", ""))
}

func TestActivateFAQWithoutQuestions(t *testing.T) {
	doc := parseHost(t, `<html><body><div id="care-root"><p>none</p></div></body></html>`)
	root, err := Root(doc, "care-root")
	require.NoError(t, err)

	require.Zero(t, ActivateFAQ(root))
	require.Zero(t, root.Find("script").Length())
}

func TestSerializeKeepsDocument(t *testing.T) {
	doc := parseHost(t, hostPage)
	var buf bytes.Buffer
	require.NoError(t, Serialize(doc, &buf))
	require.True(t, strings.HasPrefix(buf.String(), "<!DOCTYPE html>"))
	require.Contains(t, buf.String(), `id="care-root"`)
}
