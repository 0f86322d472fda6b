// internal/loader/loader.go

// Package loader runs one care page render pass: fetch the feed, select the
// rows for the page slug, render the care sections and mount them into the
// host page.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"careloader/internal/care"
	"careloader/internal/config"
	"careloader/internal/feed"
	"careloader/internal/logging"
	"careloader/internal/metrics"
	"careloader/internal/page"
	"careloader/internal/render"
)

// Outcome reports how a pass ended.
type Outcome = metrics.Outcome

// Loader wires a feed source to a renderer. The zero value is not usable;
// build one with New.
type Loader struct {
	Source   feed.Source
	Renderer *render.Renderer
	RootID   string
	Logger   *zap.Logger
	Metrics  metrics.Recorder
}

// New builds a Loader from configuration. unsafe disables sanitization of
// trusted markup.
func New(cfg config.Config, src feed.Source, unsafe bool, logger *zap.Logger, rec metrics.Recorder) (*Loader, error) {
	r, err := render.New(render.Options{Mode: cfg.ContentMode, BaseURL: cfg.BaseURL, Unsafe: unsafe})
	if err != nil {
		return nil, err
	}
	if src == nil {
		src = feed.NewHTTPSource(cfg.FeedURL, cfg.FetchTimeout)
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Loader{
		Source:   src,
		Renderer: r,
		RootID:   cfg.RootID,
		Logger:   logging.OrNop(logger),
		Metrics:  rec,
	}, nil
}

// WithSource returns a copy of l reading from src.
func (l *Loader) WithSource(src feed.Source) *Loader {
	cp := *l
	cp.Source = src
	return &cp
}

// Load renders the care page for pagePath into doc. A missing container
// returns page.ErrRootNotFound and leaves doc untouched. Fetch failures and
// pages without data are rendered as inline messages and are not errors.
// Every call records exactly one pass.
func (l *Loader) Load(ctx context.Context, doc *goquery.Document, pagePath string) (outcome Outcome, err error) {
	rows := 0
	defer func() { l.Metrics.ObservePass(outcome, rows) }()

	log := l.Logger
	root, err := page.Root(doc, l.RootID)
	if err != nil {
		log.Error("care root not found, skipping page", zap.String("root_id", l.RootID), zap.String("path", pagePath))
		return metrics.OutcomeRootMissing, err
	}

	slug := care.SlugFromPath(pagePath)
	log = log.With(zap.String("slug", slug))
	log.Debug("fetching care feed")

	start := time.Now()
	body, err := l.Source.Fetch(ctx)
	l.Metrics.ObserveFetch(time.Since(start), err)
	if err != nil {
		log.Error("care feed fetch failed", zap.Error(err))
		return metrics.OutcomeFetchError, l.mount(root, l.Renderer.RenderLoadError)
	}

	records := care.Match(feed.Records(body), slug)
	rows = len(records)
	log.Debug("matched care rows", zap.Int("rows", rows))

	if rows == 0 {
		log.Warn("no care data for page")
		return metrics.OutcomeNoData, l.mount(root, func() (template.HTML, error) { return l.Renderer.RenderNoData(slug) })
	}

	if err := l.mount(root, func() (template.HTML, error) { return l.Renderer.Render(care.NewPage(records)) }); err != nil {
		return metrics.OutcomeRendered, err
	}
	slots := page.InjectSlots(doc)
	questions := page.ActivateFAQ(root)
	log.Info("care page rendered",
		zap.Int("rows", rows),
		zap.Strings("slots", slots),
		zap.Int("faq_questions", questions),
	)
	return metrics.OutcomeRendered, nil
}

func (l *Loader) mount(root *goquery.Selection, build func() (template.HTML, error)) error {
	fragment, err := build()
	if err != nil {
		return fmt.Errorf("render care fragment: %w", err)
	}
	page.Mount(root, fragment)
	return nil
}

// RenderHTML parses a host page, runs Load and serializes the result. When
// the container is missing the host page is returned unchanged together
// with page.ErrRootNotFound.
func (l *Loader) RenderHTML(ctx context.Context, host io.Reader, pagePath string) ([]byte, Outcome, error) {
	doc, err := page.Parse(host)
	if err != nil {
		return nil, "", err
	}
	outcome, loadErr := l.Load(ctx, doc, pagePath)
	if loadErr != nil && !errors.Is(loadErr, page.ErrRootNotFound) {
		return nil, outcome, loadErr
	}
	var buf bytes.Buffer
	if err := page.Serialize(doc, &buf); err != nil {
		return nil, outcome, err
	}
	return buf.Bytes(), outcome, loadErr
}

// Records fetches the feed and returns the records matching slug.
func (l *Loader) Records(ctx context.Context, slug string) ([]care.Record, error) {
	body, err := l.Source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return care.Match(feed.Records(body), slug), nil
}
