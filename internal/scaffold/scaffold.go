// internal/scaffold/scaffold.go
package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"careloader/internal/config"
)

// CreateNewSite writes a starter project into dir: a config file, one host
// page with the care container and a slot template, and a stylesheet.
// Existing files are never overwritten.
func CreateNewSite(dir string) ([]string, error) {
	cfg := config.Default()
	mkdir := func(path string) error { return os.MkdirAll(filepath.Join(dir, path), 0755) }
	for _, d := range []string{cfg.PagesDir + "/care", cfg.StaticDir + "/css"} {
		if err := mkdir(d); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}

	configBody, err := renderConfig(cfg)
	if err != nil {
		return nil, err
	}

	files := []struct{ path, content string }{
		{"careloader.yaml", configBody},
		{filepath.Join(cfg.PagesDir, "care", "example.html"), hostPageContent},
		{filepath.Join(cfg.StaticDir, "css", "care.css"), stylesheetContent},
	}
	var written []string
	for _, f := range files {
		full := filepath.Join(dir, f.path)
		if _, err := os.Stat(full); err == nil {
			return written, fmt.Errorf("refusing to overwrite %s", full)
		}
		if err := os.WriteFile(full, []byte(f.content), 0644); err != nil {
			return written, fmt.Errorf("failed to write file %s: %w", full, err)
		}
		written = append(written, full)
	}
	return written, nil
}

func renderConfig(cfg config.Config) (string, error) {
	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse config template: %w", err)
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, cfg); err != nil {
		return "", fmt.Errorf("failed to execute config template: %w", err)
	}
	return out.String(), nil
}

const configTemplate = `# Published CSV of the care sheet.
feed_url: "{{.FeedURL}}"
# Relative call-to-action links are joined onto this URL.
base_url: "{{.BaseURL}}"
root_id: {{.RootID}}
# text escapes every field; html and markdown allow sanitized markup.
content_mode: {{.ContentMode}}
fetch_timeout: 15s
pages_dir: {{.PagesDir}}
static_dir: {{.StaticDir}}
output_dir: {{.OutputDir}}
`

const hostPageContent = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Care</title>
  <link rel="stylesheet" href="/static/css/care.css">
</head>
<body>
  <div id="care-root"><p>Loading care information…</p></div>

  <template id="template-slot-after-intro">
    <aside class="care-callout">Questions? Call us any time.</aside>
  </template>
</body>
</html>
`

const stylesheetContent = `.care-page { max-width: 960px; margin: 0 auto; font-family: sans-serif; }
.care-benefits-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(180px, 1fr)); gap: 1rem; }
.care-overlay { background-size: cover; padding: 4rem 1rem; }
.care-overlay-box { background: rgba(255, 255, 255, 0.9); padding: 2rem; }
.care-faq-question { cursor: pointer; font-weight: bold; }
.care-faq-answer { display: none; }
.care-faq-answer.open { display: block; }
`
