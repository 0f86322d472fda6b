package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"careloader/internal/config"
	"careloader/internal/page"
)

func TestCreateNewSite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")

	written, err := CreateNewSite(dir)
	require.NoError(t, err)
	require.Len(t, written, 3)

	t.Setenv("CARELOADER_FEED_URL", "")
	t.Setenv("CARELOADER_BASE_URL", "")
	cfg, err := config.Load(filepath.Join(dir, "careloader.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.DefaultFeedURL, cfg.FeedURL)
	require.Equal(t, config.ModeText, cfg.ContentMode)

	host, err := os.ReadFile(filepath.Join(dir, "pages", "care", "example.html"))
	require.NoError(t, err)
	doc, err := page.Parse(strings.NewReader(string(host)))
	require.NoError(t, err)
	_, err = page.Root(doc, cfg.RootID)
	require.NoError(t, err)
	require.Equal(t, 1, doc.Find("template#template-slot-after-intro").Length())

	_, err = CreateNewSite(dir)
	require.Error(t, err, "a second scaffold must not overwrite files")
}
