// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate when a setting cannot be used.
var ErrInvalid = errors.New("invalid config")

// Content modes decide how feed fields are inserted into markup.
const (
	ModeText     = "text"
	ModeHTML     = "html"
	ModeMarkdown = "markdown"
)

const (
	DefaultFeedURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vSvXIfFgTY8Vn3_eFScAp-gbB0JfNTUanbFTuWGnGf1-4xPYt1M3iGDOrzzLpMW6cEAk0wh1mHx5akr/pub?output=csv"
	DefaultBaseURL = "https://mtnhlth.com/"
	DefaultRootID  = "care-root"
)

// Config holds the settings from the careloader.yaml file.
// The `yaml` tags map file keys to struct fields.
type Config struct {
	FeedURL      string        `yaml:"feed_url"`
	BaseURL      string        `yaml:"base_url"`
	RootID       string        `yaml:"root_id"`
	ContentMode  string        `yaml:"content_mode"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	PagesDir     string        `yaml:"pages_dir"`
	StaticDir    string        `yaml:"static_dir"`
	OutputDir    string        `yaml:"output_dir"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		FeedURL:     DefaultFeedURL,
		BaseURL:     DefaultBaseURL,
		RootID:      DefaultRootID,
		ContentMode: ModeText,
		PagesDir:    "pages",
		StaticDir:   "static",
		OutputDir:   "public",
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file is
// not an error. CARELOADER_FEED_URL and CARELOADER_BASE_URL override the file.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("could not read config file at %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("CARELOADER_FEED_URL")); v != "" {
		cfg.FeedURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CARELOADER_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	def := Default()
	if strings.TrimSpace(c.RootID) == "" {
		c.RootID = def.RootID
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = def.BaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	c.ContentMode = strings.ToLower(strings.TrimSpace(c.ContentMode))
	if c.ContentMode == "" {
		c.ContentMode = ModeText
	}
	if c.PagesDir == "" {
		c.PagesDir = def.PagesDir
	}
	if c.StaticDir == "" {
		c.StaticDir = def.StaticDir
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if strings.TrimSpace(c.FeedURL) == "" {
		return fmt.Errorf("%w: feed_url is required", ErrInvalid)
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("%w: base_url %q must be an absolute URL", ErrInvalid, c.BaseURL)
	}
	switch c.ContentMode {
	case ModeText, ModeHTML, ModeMarkdown:
	default:
		return fmt.Errorf("%w: content_mode %q (want text, html or markdown)", ErrInvalid, c.ContentMode)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("%w: fetch_timeout must not be negative", ErrInvalid)
	}
	return nil
}
