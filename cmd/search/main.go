package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shanehull/estatecrawler/internal/storage"
)

func main() {
	dbPath := flag.String("db", "out/estatecrawler.duckdb", "Path to DuckDB file")
	src := flag.String("source", "", "Only records crawled from this start URL")
	transaction := flag.String("transaction", "", "Filter by transaction type (e.g. rent, sale)")
	propertyType := flag.String("type", "", "Filter by property type (case-insensitive contains)")
	geocoded := flag.Bool("geocoded", false, "Only records with coordinates")
	format := flag.String("format", "csv", "Export format (csv, parquet, json)")
	outPath := flag.String("out", "", "Output path (default out/search_results.<format>)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	f, err := storage.ParseFormat(*format)
	if err != nil {
		logger.Error("Invalid format", "error", err)
		os.Exit(1)
	}
	if *outPath == "" {
		*outPath = filepath.Join("out", "search_results."+string(f))
	}

	repo, err := storage.NewDuckDBRepo(*dbPath, logger)
	if err != nil {
		logger.Error("Failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	n, err := repo.Export(ctx, storage.ExportOptions{
		Source:          *src,
		Path:            *outPath,
		Format:          f,
		TransactionType: *transaction,
		PropertyType:    *propertyType,
		OnlyGeocoded:    *geocoded,
	})
	if err != nil {
		logger.Error("Search failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Search complete", "output", *outPath, "records", n)
}
