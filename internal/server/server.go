// internal/server/server.go
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"careloader/internal/loader"
	"careloader/internal/logging"
	"careloader/internal/metrics"
	"careloader/internal/page"
)

// Options configures the preview server.
type Options struct {
	Port       int
	PagesDir   string
	StaticDir  string
	ConfigPath string
	Loader     *loader.Loader
	// Reload rebuilds the loader after the config file changes. Optional.
	Reload   func() (*loader.Loader, error)
	Registry *prom.Registry
	Logger   *zap.Logger
}

// Server renders host pages on every request and tells connected browsers
// to reload when pages, assets or config change.
type Server struct {
	opts   Options
	log    *zap.Logger
	hub    *Hub
	loader atomic.Pointer[loader.Loader]
}

// New prepares a server without starting it.
func New(opts Options) *Server {
	s := &Server{opts: opts, log: logging.OrNop(opts.Logger)}
	s.hub = newHub(s.log)
	s.loader.Store(opts.Loader)
	return s
}

// Run starts the file watcher and serves until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	s := New(opts)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()
	if err := s.watch(watcher); err != nil {
		return err
	}
	go s.watchForChanges(ctx, watcher)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("serving care pages", zap.String("addr", "http://localhost"+srv.Addr), zap.String("pages", opts.PagesDir))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.opts.Registry != nil {
		r.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
	}
	r.Get("/ws", s.hub.serveWs)
	if s.opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.opts.StaticDir))))
	}
	r.With(liveReloadWrapper).Get("/*", s.handlePage)
	return r
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	file, ok := resolveHostPage(s.opts.PagesDir, r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	host, err := os.Open(file)
	if err != nil {
		http.Error(w, "could not open host page", http.StatusInternalServerError)
		return
	}
	defer host.Close()

	pagePath := strings.TrimSuffix(r.URL.Path, ".html")
	out, outcome, err := s.loader.Load().RenderHTML(r.Context(), host, pagePath)
	if err != nil && !errors.Is(err, page.ErrRootNotFound) {
		s.log.Error("render failed", zap.String("file", file), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Care-Outcome", string(outcome))
	_, _ = w.Write(out)
}

// resolveHostPage maps a request path to a host page file: "/a/b" is served
// from "a/b.html" or "a/b/index.html".
func resolveHostPage(pagesDir, urlPath string) (string, bool) {
	clean := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	var candidates []string
	switch {
	case clean == "":
		candidates = []string{"index.html"}
	case strings.HasSuffix(clean, ".html"):
		candidates = []string{clean}
	default:
		candidates = []string{clean + ".html", path.Join(clean, "index.html")}
	}
	for _, c := range candidates {
		full := filepath.Join(pagesDir, filepath.FromSlash(c))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return full, true
		}
	}
	return "", false
}

func (s *Server) watch(watcher *fsnotify.Watcher) error {
	watchedDirs := make(map[string]bool)
	addWatch := func(dir string) {
		dir = filepath.Clean(dir)
		if watchedDirs[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			s.log.Warn("could not watch directory", zap.String("dir", dir), zap.Error(err))
			return
		}
		s.log.Debug("watching directory", zap.String("dir", dir))
		watchedDirs[dir] = true
	}

	for _, p := range []string{s.opts.PagesDir, s.opts.StaticDir, s.opts.ConfigPath} {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("could not stat path %s: %w", p, err)
		}
		if !info.IsDir() {
			// Watch the parent so editors that save by rename are seen.
			addWatch(filepath.Dir(p))
			continue
		}
		if err := filepath.Walk(p, func(walkPath string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				addWatch(walkPath)
			}
			return nil
		}); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", p, err)
		}
	}
	return nil
}

const debounceDuration = 500 * time.Millisecond

func (s *Server) watchForChanges(ctx context.Context, watcher *fsnotify.Watcher) {
	var lastReload time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				continue
			}
			lastReload = s.handleEvent(event.Name, time.Now(), lastReload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// handleEvent debounces browser reloads. Config changes bypass the debounce
// so a save right after a page edit still swaps the loader.
func (s *Server) handleEvent(name string, now, lastReload time.Time) time.Time {
	if !s.isConfigFile(name) && now.Sub(lastReload) <= debounceDuration {
		return lastReload
	}
	s.handleChange(name)
	return now
}

func (s *Server) isConfigFile(name string) bool {
	return s.opts.ConfigPath != "" && filepath.Clean(name) == filepath.Clean(s.opts.ConfigPath)
}

func (s *Server) handleChange(name string) {
	s.log.Info("change detected, reloading clients", zap.String("file", name))
	if s.opts.Reload != nil && s.isConfigFile(name) {
		l, err := s.opts.Reload()
		if err != nil {
			s.log.Error("config reload failed, keeping previous settings", zap.Error(err))
			return
		}
		s.loader.Store(l)
	}
	s.hub.broadcastMessage([]byte("reload"))
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func liveReloadWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		iw := newInterceptingWriter()
		next.ServeHTTP(iw, r)

		for key, values := range iw.Header() {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		body := iw.body.Bytes()
		isHTML := strings.HasPrefix(iw.Header().Get("Content-Type"), "text/html")
		if iw.statusCode != http.StatusOK || !isHTML {
			w.WriteHeader(iw.statusCode)
			_, _ = w.Write(body)
			return
		}

		injected := bytes.Replace(body, []byte("</body>"), []byte(liveReloadScript+"</body>"), 1)
		w.Header().Set("Content-Length", fmt.Sprint(len(injected)))
		w.WriteHeader(iw.statusCode)
		_, _ = w.Write(injected)
	})
}

type interceptingWriter struct {
	body       *bytes.Buffer
	statusCode int
	header     http.Header
}

func newInterceptingWriter() *interceptingWriter {
	return &interceptingWriter{
		body:       new(bytes.Buffer),
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (iw *interceptingWriter) Header() http.Header {
	return iw.header
}

func (iw *interceptingWriter) Write(b []byte) (int, error) {
	return iw.body.Write(b)
}

func (iw *interceptingWriter) WriteHeader(statusCode int) {
	iw.statusCode = statusCode
}

const liveReloadScript = `
<script>
  (function() {
    var socket = new WebSocket("ws://" + window.location.host + "/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function() {
      console.error("Live reload connection error. Please restart 'careloader serve'.");
    };
  })();
</script>
`
