package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPSourceAppendsCacheBuster(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("slug\ndetox\n"))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/pub?output=csv", 0)
	src.Now = func() time.Time { return time.UnixMilli(1700000000123) }

	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "slug\ndetox\n", body)
	require.Equal(t, []string{"csv"}, gotQuery["output"])
	require.Equal(t, []string{"1700000000123"}, gotQuery["t"])
}

func TestHTTPSourceStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetch)
}

func TestHTTPSourceTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPSource(addr, time.Second).Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetch)
}

func TestHTTPSourceHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPSource(srv.URL, 0).Fetch(ctx)
	require.ErrorIs(t, err, ErrFetch)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFileAndStaticSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(path, []byte("slug\n"), 0o644))

	body, err := FileSource{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "slug\n", body)

	_, err = FileSource{Path: path + ".missing"}.Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetch)

	body, err = StaticSource("a,b").Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a,b", body)
}
