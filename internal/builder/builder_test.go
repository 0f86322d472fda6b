package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"careloader/internal/config"
	"careloader/internal/loader"
	"careloader/internal/metrics"
)

type countingSource struct {
	body  string
	err   error
	calls int
}

func (s *countingSource) Fetch(context.Context) (string, error) {
	s.calls++
	return s.body, s.err
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestPagePath(t *testing.T) {
	cases := map[string]string{
		"detox.html":          "/detox",
		"services/detox.html": "/services/detox",
		"care/index.html":     "/care",
		"index.html":          "/",
	}
	for in, want := range cases {
		require.Equal(t, want, PagePath(in), "rel path %q", in)
	}
}

func TestBuildSite(t *testing.T) {
	dir := t.TempDir()
	pages := filepath.Join(dir, "pages")
	static := filepath.Join(dir, "static")
	out := filepath.Join(dir, "public")

	host := `<html><body><div id="care-root"></div></body></html>`
	writeFile(t, filepath.Join(pages, "care", "detox.html"), host)
	writeFile(t, filepath.Join(pages, "care", "missing.html"), host)
	writeFile(t, filepath.Join(pages, "about.html"), `<html><body><p>About us</p></body></html>`)
	writeFile(t, filepath.Join(pages, "notes.txt"), "skip me")
	writeFile(t, filepath.Join(static, "css", "care.css"), ".care-page{}")
	writeFile(t, filepath.Join(static, "secret.env"), "NOPE=1")
	writeFile(t, filepath.Join(out, "stale.html"), "old")

	src := &countingSource{body: "slug,title\ndetox,Medical Detox\n"}
	l, err := loader.New(config.Default(), src, false, nil, nil)
	require.NoError(t, err)

	summary, err := BuildSite(context.Background(), out, pages, static, l, BuildOptions{CleanDestination: true})
	require.NoError(t, err)
	require.Equal(t, 3, summary.Pages)
	require.Equal(t, 1, summary.ByKind[metrics.OutcomeRendered])
	require.Equal(t, 1, summary.ByKind[metrics.OutcomeNoData])
	require.Equal(t, 1, summary.ByKind[metrics.OutcomeRootMissing])
	require.Equal(t, 1, src.calls, "the feed is fetched once per build")

	detox, err := os.ReadFile(filepath.Join(out, "care", "detox.html"))
	require.NoError(t, err)
	require.Contains(t, string(detox), "Medical Detox")

	missing, err := os.ReadFile(filepath.Join(out, "care", "missing.html"))
	require.NoError(t, err)
	require.Contains(t, string(missing), "No care data found for:")

	about, err := os.ReadFile(filepath.Join(out, "about.html"))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(about), "About us"))

	require.FileExists(t, filepath.Join(out, "static", "css", "care.css"))
	require.NoFileExists(t, filepath.Join(out, "static", "secret.env"))
	require.NoFileExists(t, filepath.Join(out, "notes.txt"))
	require.NoFileExists(t, filepath.Join(out, "stale.html"))
}

func TestBuildSiteFetchFailureIsNotRetried(t *testing.T) {
	dir := t.TempDir()
	pages := filepath.Join(dir, "pages")
	out := filepath.Join(dir, "public")

	host := `<html><body><div id="care-root"></div></body></html>`
	for _, name := range []string{"detox.html", "rehab.html", "care/index.html"} {
		writeFile(t, filepath.Join(pages, name), host)
	}

	src := &countingSource{err: errors.New("feed down")}
	l, err := loader.New(config.Default(), src, false, nil, nil)
	require.NoError(t, err)

	summary, err := BuildSite(context.Background(), out, pages, filepath.Join(dir, "static"), l, BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, summary.Pages)
	require.Equal(t, 3, summary.ByKind[metrics.OutcomeFetchError])
	require.Equal(t, 1, src.calls)

	rehab, err := os.ReadFile(filepath.Join(out, "rehab.html"))
	require.NoError(t, err)
	require.Contains(t, string(rehab), "Error loading care content.")
}
