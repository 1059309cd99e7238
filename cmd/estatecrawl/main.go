package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/shanehull/estatecrawler/internal/config"
	"github.com/shanehull/estatecrawler/internal/enrich"
	"github.com/shanehull/estatecrawler/internal/extract"
	"github.com/shanehull/estatecrawler/internal/pipeline"
	"github.com/shanehull/estatecrawler/internal/source"
	"github.com/shanehull/estatecrawler/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	envFile := flag.String("env", ".env", "Path to .env file")
	outDir := flag.String("outdir", "", "Output directory for exports and database")
	dbPath := flag.String("db", "", "Path to DuckDB file")
	format := flag.String("format", "", "Export format (csv, parquet, json)")
	mode := flag.String("mode", "", "Pagination mode (auto, counted, heuristic)")
	dedupe := flag.Bool("dedupe", false, "Drop duplicate detail URLs across pages")
	debug := flag.Bool("debug", false, "Enable debug logs")
	exportOnly := flag.Bool("export-only", false, "Only export existing data, skip scraping")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.LoadEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load environment: %v\n", err)
		os.Exit(1)
	}

	// Flags override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "outdir":
			cfg.OutDir = *outDir
			if *dbPath == "" {
				cfg.DBPath = filepath.Join(*outDir, filepath.Base(cfg.DBPath))
			}
		case "db":
			cfg.DBPath = *dbPath
		case "format":
			cfg.Format = *format
		case "mode":
			cfg.Crawl.Mode = *mode
		case "dedupe":
			cfg.Crawl.Dedupe = *dedupe
		}
	})
	if flag.NArg() > 0 {
		cfg.StartURLs = flag.Args()
	}
	if len(cfg.StartURLs) == 0 {
		cfg.StartURLs = []string{config.DefaultStartURL}
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	exportFormat, _ := storage.ParseFormat(cfg.Format)

	// Ensure output directory exists
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		logger.Error("Failed to create output directory", "dir", cfg.OutDir, "err", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error("Failed to create database directory", "path", cfg.DBPath, "err", err)
		os.Exit(1)
	}

	repo, err := storage.NewDuckDBRepo(cfg.DBPath, logger)
	if err != nil {
		logger.Error("DB connection failed", "err", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := repo.Init(ctx); err != nil {
		logger.Error("DB init failed", "err", err)
		os.Exit(1)
	}

	fetcher, err := source.NewCollyFetcher(logger, source.FetcherOptions{
		UserAgent:   cfg.Crawl.UserAgent,
		Timeout:     cfg.Crawl.RequestTimeout,
		Delay:       cfg.Crawl.RequestDelay,
		RandomDelay: cfg.Crawl.RandomDelay,
	})
	if err != nil {
		logger.Error("Fetcher setup failed", "err", err)
		os.Exit(1)
	}
	extractor := extract.New(cfg.Selectors)
	client := enrich.NewNominatimClient(logger.With("component", "geocoder"), cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Email, cfg.Geocoder.Timeout)

	// The resolver is shared across crawls so its rate gate spans the whole run.
	resolver := enrich.NewResolver(logger.With("component", "geocoder"), client, enrich.ResolverOptions{
		MaxAttempts: cfg.Geocoder.MaxAttempts,
		RetryDelay:  cfg.Geocoder.RetryDelay,
		Timeout:     cfg.Geocoder.Timeout,
		MinInterval: cfg.Geocoder.MinInterval,
	})
	geocoder := enrich.NewGeocoder(resolver, cfg.Geocoder.Fields)

	failed := 0
	for _, startURL := range cfg.StartURLs {
		if ctx.Err() != nil {
			break
		}
		u, err := source.ValidateStartURL(startURL)
		if err != nil {
			logger.Error("Skipping start URL", "url", startURL, "err", err)
			failed++
			continue
		}
		srcLogger := logger.With("source", u.Host)

		outPath, err := storage.OutputPath(cfg.OutDir, startURL, exportFormat)
		if err != nil {
			srcLogger.Error("Bad start URL", "url", startURL, "err", err)
			failed++
			continue
		}

		if !*exportOnly {
			paginator := source.NewPaginator(srcLogger, fetcher, extractor, source.PaginatorOptions{
				Mode:        source.Mode(cfg.Crawl.Mode),
				MaxFailures: cfg.Crawl.MaxFailures,
				MaxPages:    cfg.Crawl.MaxPages,
			})
			p := pipeline.New(srcLogger, fetcher, paginator, extractor, geocoder, repo, cfg.Crawl.Dedupe)
			if _, err := p.Run(ctx, startURL); err != nil {
				srcLogger.Error("Crawl failed", "url", startURL, "err", err)
				failed++
				continue
			}
		} else {
			srcLogger.Info("Export-only mode enabled, exporting existing data")
		}

		n, err := repo.Export(ctx, storage.ExportOptions{Source: startURL, Path: outPath, Format: exportFormat})
		if err != nil {
			srcLogger.Error("Export failed", "err", err)
			failed++
			continue
		}
		srcLogger.Info("Export successful", "path", outPath, "records", n)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
