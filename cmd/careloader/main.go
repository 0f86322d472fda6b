// cmd/careloader/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"careloader/internal/builder"
	"careloader/internal/config"
	"careloader/internal/feed"
	"careloader/internal/loader"
	"careloader/internal/logging"
	"careloader/internal/metrics"
	"careloader/internal/page"
	"careloader/internal/scaffold"
	"careloader/internal/server"
)

type appConfig struct {
	configPath string
	debug      bool
	port       int
	unsafe     bool
	feedFile   string
}

func main() {
	appCfg := appConfig{}
	flag.StringVar(&appCfg.configPath, "config", "careloader.yaml", "Path to the config file.")
	flag.BoolVar(&appCfg.debug, "debug", false, "Enable debug logging.")
	flag.IntVar(&appCfg.port, "port", 1313, "Port for the preview server.")
	flag.BoolVar(&appCfg.unsafe, "unsafe", false, "Disable sanitization of feed markup in html and markdown modes.")
	flag.StringVar(&appCfg.feedFile, "feed", "", "Read the feed from a local CSV file instead of the configured URL.")
	flag.Usage = printHelp
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Operation failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg appConfig) error {
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return nil
	}

	logger, err := logging.New(appCfg.debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	switch args[0] {
	case "render":
		return handleRender(ctx, appCfg, args[1:], logger)

	case "inspect":
		if len(args) < 2 {
			flag.Usage()
			return nil
		}
		return handleInspect(ctx, appCfg, args[1], logger)

	case "build":
		cfg, l, err := newLoader(appCfg, logger, nil)
		if err != nil {
			return err
		}
		fmt.Println("--- Building care pages ---")
		summary, err := builder.BuildSite(ctx, cfg.OutputDir, cfg.PagesDir, cfg.StaticDir, l, builder.BuildOptions{
			CleanDestination: true,
			Logger:           logger,
		})
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		fmt.Printf("📄 %d pages written (%d rendered, %d without data, %d load errors).\n",
			summary.Pages,
			summary.ByKind[metrics.OutcomeRendered],
			summary.ByKind[metrics.OutcomeNoData],
			summary.ByKind[metrics.OutcomeFetchError],
		)
		fmt.Println("✅ Build successful.")
		return nil

	case "serve":
		reg := prom.NewRegistry()
		rec := metrics.NewPrometheusRecorder(reg)
		cfg, l, err := newLoader(appCfg, logger, rec)
		if err != nil {
			return err
		}
		return server.Run(ctx, server.Options{
			Port:       appCfg.port,
			PagesDir:   cfg.PagesDir,
			StaticDir:  cfg.StaticDir,
			ConfigPath: appCfg.configPath,
			Loader:     l,
			Reload: func() (*loader.Loader, error) {
				_, l, err := newLoader(appCfg, logger, rec)
				return l, err
			},
			Registry: reg,
			Logger:   logger,
		})

	case "new":
		if len(args) < 3 || args[1] != "site" {
			flag.Usage()
			return nil
		}
		fmt.Println("Scaffolding new site in:", args[2])
		written, err := scaffold.CreateNewSite(args[2])
		if err != nil {
			return err
		}
		for _, f := range written {
			fmt.Println("Created:", f)
		}
		fmt.Println("Site scaffolded. You can now:")
		fmt.Println("  cd", args[2])
		fmt.Println("  careloader serve")
		return nil

	default:
		flag.Usage()
	}

	return nil
}

// handleRender prints the rendered host page for a URL path.
func handleRender(ctx context.Context, appCfg appConfig, args []string, logger *zap.Logger) error {
	renderCmd := flag.NewFlagSet("render", flag.ExitOnError)
	hostFile := renderCmd.String("host", "", "Host page to render into. Defaults to a bare page holding only the container.")
	renderCmd.Usage = func() {
		fmt.Println("Usage: careloader render [options] <url-path>")
		fmt.Println("\nRender the care page for a URL path and print the HTML.")
		fmt.Println("\nOptions:")
		renderCmd.PrintDefaults()
	}
	_ = renderCmd.Parse(args)
	if renderCmd.NArg() != 1 {
		renderCmd.Usage()
		return nil
	}

	cfg, l, err := newLoader(appCfg, logger, nil)
	if err != nil {
		return err
	}

	host := fmt.Sprintf(`<!DOCTYPE html><html><head><meta charset="utf-8"></head><body><div id="%s"></div></body></html>`, cfg.RootID)
	if *hostFile != "" {
		data, err := os.ReadFile(*hostFile)
		if err != nil {
			return fmt.Errorf("could not read host page: %w", err)
		}
		host = string(data)
	}

	out, outcome, err := l.RenderHTML(ctx, strings.NewReader(host), renderCmd.Arg(0))
	if errors.Is(err, page.ErrRootNotFound) {
		return fmt.Errorf("host page has no #%s container", cfg.RootID)
	}
	if err != nil {
		return err
	}
	logger.Debug("render finished", zap.String("outcome", string(outcome)))
	_, err = os.Stdout.Write(out)
	return err
}

// handleInspect prints the records matching slug as YAML.
func handleInspect(ctx context.Context, appCfg appConfig, slug string, logger *zap.Logger) error {
	_, l, err := newLoader(appCfg, logger, nil)
	if err != nil {
		return err
	}
	records, err := l.Records(ctx, slug)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("🔎 No care rows for %q.\n", slug)
		return nil
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(records)
}

func newLoader(appCfg appConfig, logger *zap.Logger, rec metrics.Recorder) (config.Config, *loader.Loader, error) {
	cfg, err := config.Load(appCfg.configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	var src feed.Source
	if appCfg.feedFile != "" {
		src = feed.FileSource{Path: filepath.Clean(appCfg.feedFile)}
	}
	l, err := loader.New(cfg, src, appCfg.unsafe, logger, rec)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, l, nil
}

func printHelp() {
	fmt.Println("careloader - render care pages from a published spreadsheet feed")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  careloader [global-flags] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  render <url-path>  Print the rendered page. Use 'careloader render -h' for options.")
	fmt.Println("  inspect <slug>     Print the feed rows for a slug as YAML")
	fmt.Println("  build              Render every host page into the output directory")
	fmt.Println("  serve              Run a preview server with live reload")
	fmt.Println("  new site <name>    Create a new site scaffold")
	fmt.Println()
	fmt.Println("Global Flags:")
	flag.PrintDefaults()
}
