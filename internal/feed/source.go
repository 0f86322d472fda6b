// internal/feed/source.go
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// ErrFetch marks a terminal failure to retrieve the feed body.
var ErrFetch = errors.New("feed fetch failed")

// Source yields the raw feed body for one render pass.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// HTTPSource retrieves a published CSV feed over HTTP. Each request carries a
// "t" query parameter holding the current time so intermediate caches are
// bypassed. Failures are not retried.
type HTTPSource struct {
	URL    string
	Client *http.Client
	// Now is overridable for tests.
	Now func() time.Time
}

// NewHTTPSource returns a source for feedURL. A zero timeout leaves the
// request unbounded apart from ctx.
func NewHTTPSource(feedURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:    feedURL,
		Client: &http.Client{Timeout: timeout},
		Now:    time.Now,
	}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	target, err := s.requestURL()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: unexpected status %s", ErrFetch, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	return string(body), nil
}

func (s *HTTPSource) requestURL() (string, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", fmt.Errorf("parse feed url: %w", err)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FileSource reads the feed from a local file.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (s FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return string(data), nil
}

// StaticSource serves a body that was fetched earlier.
type StaticSource string

// Fetch implements Source.
func (s StaticSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return string(s), nil
}
