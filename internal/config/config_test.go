package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CARELOADER_FEED_URL", "")
	t.Setenv("CARELOADER_BASE_URL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "careloader.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	t.Setenv("CARELOADER_FEED_URL", "")
	t.Setenv("CARELOADER_BASE_URL", "")

	path := filepath.Join(t.TempDir(), "careloader.yaml")
	body := "feed_url: https://example.com/feed.csv\nbase_url: https://example.com\ncontent_mode: Markdown\nfetch_timeout: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/feed.csv", cfg.FeedURL)
	require.Equal(t, "https://example.com/", cfg.BaseURL)
	require.Equal(t, ModeMarkdown, cfg.ContentMode)
	require.Equal(t, 5*time.Second, cfg.FetchTimeout)
	require.Equal(t, DefaultRootID, cfg.RootID)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CARELOADER_FEED_URL", "https://override.test/feed.csv")
	t.Setenv("CARELOADER_BASE_URL", "https://override.test")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	require.Equal(t, "https://override.test/feed.csv", cfg.FeedURL)
	require.Equal(t, "https://override.test/", cfg.BaseURL)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := map[string]func(*Config){
		"empty feed":    func(c *Config) { c.FeedURL = " " },
		"relative base": func(c *Config) { c.BaseURL = "mtnhlth.com/" },
		"unknown mode":  func(c *Config) { c.ContentMode = "rich" },
		"negative wait": func(c *Config) { c.FetchTimeout = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
