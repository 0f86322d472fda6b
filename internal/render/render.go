// internal/render/render.go
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"careloader/internal/care"
	"careloader/internal/config"
)

//go:embed templates/care.html
var templateFS embed.FS

// SlotIDs lists the empty extension point containers of a rendered page, in
// document order.
var SlotIDs = []string{
	"slot-after-hero",
	"slot-after-intro",
	"slot-after-benefits",
	"slot-after-overlay",
	"slot-after-faq",
	"slot-after-bottom",
}

// Options configures a Renderer.
type Options struct {
	// Mode is one of config.ModeText, config.ModeHTML or config.ModeMarkdown.
	Mode    string
	BaseURL string
	// Unsafe skips sanitization of markup in the html and markdown modes.
	Unsafe bool
}

// Renderer turns an aggregated care page into an HTML fragment. Feed content
// is always escaped or sanitized according to the content mode.
type Renderer struct {
	opts     Options
	tmpl     *template.Template
	md       goldmark.Markdown
	sanitize *bluemonday.Policy
}

// New parses the embedded templates and prepares the content mode.
func New(opts Options) (*Renderer, error) {
	switch opts.Mode {
	case "":
		opts.Mode = config.ModeText
	case config.ModeText, config.ModeHTML, config.ModeMarkdown:
	default:
		return nil, fmt.Errorf("unknown content mode %q", opts.Mode)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = config.DefaultBaseURL
	}

	tmpl, err := template.ParseFS(templateFS, "templates/care.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{
		opts:     opts,
		tmpl:     tmpl,
		md:       newMarkdown(opts.BaseURL),
		sanitize: bluemonday.UGCPolicy(),
	}, nil
}

type ctaView struct {
	Text template.HTML
	Link string
}

type benefitView struct {
	Icon  string
	Label template.HTML
}

type overlayView struct {
	Image   string
	Heading template.HTML
	Text    template.HTML
}

type faqView struct {
	Question template.HTML
	Answer   template.HTML
}

type bottomView struct {
	Heading    template.HTML
	Text       template.HTML
	ButtonText template.HTML
	ButtonLink string
}

type pageView struct {
	Title        template.HTML
	IntroHeading template.HTML
	IntroText    template.HTML
	Primary      ctaView
	Secondary    ctaView
	Benefits     []benefitView
	Overlay      *overlayView
	FAQs         []faqView
	Bottom       *bottomView
}

// Render produces the full care fragment for p.
func (r *Renderer) Render(p care.Page) (template.HTML, error) {
	view, err := r.view(p)
	if err != nil {
		return "", err
	}
	return r.execute("care", view)
}

// RenderNoData is shown when no feed row matches slug.
func (r *Renderer) RenderNoData(slug string) (template.HTML, error) {
	return r.execute("no-data", slug)
}

// RenderLoadError is shown when the feed could not be loaded.
func (r *Renderer) RenderLoadError() (template.HTML, error) {
	return r.execute("load-error", nil)
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) view(p care.Page) (pageView, error) {
	v := pageView{
		Title:        r.inline(p.Title),
		IntroHeading: r.inline(p.IntroHeading),
		Primary:      ctaView{Text: r.inline(p.Primary.Text), Link: NormalizeLink(r.opts.BaseURL, p.Primary.Link)},
		Secondary:    ctaView{Text: r.inline(p.Secondary.Text), Link: NormalizeLink(r.opts.BaseURL, p.Secondary.Link)},
	}

	var err error
	if v.IntroText, err = r.block(p.IntroText); err != nil {
		return pageView{}, err
	}

	for _, b := range p.Benefits {
		v.Benefits = append(v.Benefits, benefitView{Icon: strings.TrimSpace(b.Icon), Label: r.inline(b.Label)})
	}

	if p.Overlay != nil {
		text, err := r.block(p.Overlay.Text)
		if err != nil {
			return pageView{}, err
		}
		v.Overlay = &overlayView{Image: p.Overlay.Image, Heading: r.inline(p.Overlay.Heading), Text: text}
	}

	for _, f := range p.FAQs {
		answer, err := r.block(f.Answer)
		if err != nil {
			return pageView{}, err
		}
		v.FAQs = append(v.FAQs, faqView{Question: r.inline(f.Question), Answer: answer})
	}

	if p.Bottom != nil {
		text, err := r.block(p.Bottom.Text)
		if err != nil {
			return pageView{}, err
		}
		v.Bottom = &bottomView{
			Heading:    r.inline(p.Bottom.Heading),
			Text:       text,
			ButtonText: r.inline(p.Bottom.ButtonText),
			ButtonLink: NormalizeLink(r.opts.BaseURL, p.Bottom.ButtonLink),
		}
	}
	return v, nil
}

// inline renders a short single-line field.
func (r *Renderer) inline(s string) template.HTML {
	if r.opts.Mode == config.ModeHTML {
		return r.clean(s)
	}
	return template.HTML(template.HTMLEscapeString(s))
}

// block renders a free-text field.
func (r *Renderer) block(s string) (template.HTML, error) {
	switch r.opts.Mode {
	case config.ModeHTML:
		return r.clean(formatBlocks(s, func(line string) string { return line })), nil
	case config.ModeMarkdown:
		out, err := convertMarkdown(r.md, s)
		if err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		return r.clean(out), nil
	default:
		return FormatText(s), nil
	}
}

func (r *Renderer) clean(s string) template.HTML {
	if r.opts.Unsafe {
		return template.HTML(s)
	}
	return template.HTML(r.sanitize.Sanitize(s))
}
