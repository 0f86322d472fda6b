// internal/builder/builder.go
package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"careloader/internal/feed"
	"careloader/internal/loader"
	"careloader/internal/logging"
	"careloader/internal/metrics"
	"careloader/internal/page"
)

type BuildOptions struct {
	CleanDestination bool
	Logger           *zap.Logger
}

// Summary counts the pages of a build by outcome.
type Summary struct {
	Pages  int
	ByKind map[metrics.Outcome]int
}

// BuildSite renders every host page under pagesDir into outputDir and copies
// static assets. The feed is fetched once and shared by all pages of the
// build. Pages without a care container are copied through unchanged.
func BuildSite(ctx context.Context, outputDir, pagesDir, staticDir string, l *loader.Loader, opts BuildOptions) (Summary, error) {
	log := logging.OrNop(opts.Logger)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return Summary{}, err
	}

	if opts.CleanDestination {
		log.Info("cleaning destination directory", zap.String("dir", outputDir))
		entries, err := os.ReadDir(outputDir)
		if err != nil {
			return Summary{}, err
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(outputDir, entry.Name())); err != nil {
				return Summary{}, err
			}
		}
	}

	var build *loader.Loader
	if body, err := l.Source.Fetch(ctx); err == nil {
		build = l.WithSource(feed.StaticSource(body))
	} else {
		// Every page gets the load-error state from this one failure.
		log.Error("care feed fetch failed for build", zap.Error(err))
		build = l.WithSource(failedSource{err: err})
	}

	summary := Summary{ByKind: map[metrics.Outcome]int{}}
	if err := filepath.Walk(pagesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(info.Name()) != ".html" {
			return nil
		}

		hostBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if !utf8.Valid(hostBytes) {
			return fmt.Errorf("host page is not valid UTF-8: %s", path)
		}

		relPath, err := filepath.Rel(pagesDir, path)
		if err != nil {
			return err
		}

		out, outcome, err := build.RenderHTML(ctx, bytes.NewReader(hostBytes), PagePath(relPath))
		if errors.Is(err, page.ErrRootNotFound) {
			out = hostBytes
		} else if err != nil {
			return fmt.Errorf("failed to render page %s: %w", path, err)
		}

		outputPath := filepath.Join(outputDir, relPath)
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(outputPath, out, 0644); err != nil {
			return fmt.Errorf("failed to write page %s: %w", outputPath, err)
		}
		summary.Pages++
		summary.ByKind[outcome]++
		return nil
	}); err != nil {
		return Summary{}, err
	}

	if err := copyStaticAssets(staticDir, filepath.Join(outputDir, "static")); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// failedSource replays the error of the build's single fetch.
type failedSource struct{ err error }

func (s failedSource) Fetch(context.Context) (string, error) { return "", s.err }

// PagePath maps a host page file to the URL path it is published at:
// "services/detox.html" becomes "/services/detox" and "care/index.html"
// becomes "/care".
func PagePath(relPath string) string {
	p := filepath.ToSlash(strings.TrimSuffix(relPath, filepath.Ext(relPath)))
	p = strings.TrimSuffix(p, "/index")
	if p == "index" {
		p = ""
	}
	return "/" + p
}

// copyStaticAssets copies files from the static directory to the output directory.
// A missing static directory is not an error.
func copyStaticAssets(staticDir, outputDir string) error {
	allowedExts := map[string]bool{
		".css": true, ".js": true, ".txt": true, ".svg": true,
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	}
	if _, err := os.Stat(staticDir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return filepath.Walk(staticDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !allowedExts[filepath.Ext(info.Name())] {
			return nil
		}

		rel, err := filepath.Rel(staticDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		dst, err := os.Create(dest)
		if err != nil {
			return err
		}
		defer dst.Close()
		_, err = io.Copy(dst, src)
		return err
	})
}
