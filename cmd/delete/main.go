package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shanehull/estatecrawler/internal/storage"
)

func main() {
	src := flag.String("source", "", "Delete records crawled from this start URL")
	url := flag.String("url", "", "Delete the record for this detail URL")
	transaction := flag.String("transaction", "", "Record transaction type (for matching)")
	ungeocoded := flag.Bool("ungeocoded", false, "Only records without coordinates")
	dbPath := flag.String("db", "out/estatecrawler.duckdb", "Path to DuckDB file")
	yes := flag.Bool("yes", false, "Skip confirmation")
	flag.Parse()

	// Check if at least one filter flag was explicitly provided
	hasFilters := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "source" || f.Name == "url" || f.Name == "transaction" || f.Name == "ungeocoded" {
			hasFilters = true
		}
	})
	if !hasFilters {
		fmt.Fprintf(os.Stderr, "Error: at least one filter is required (-source, -url, -transaction, or -ungeocoded)\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	repo, err := storage.NewDuckDBRepo(*dbPath, logger)
	if err != nil {
		logger.Error("DB connection failed", "err", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	filters := map[string]interface{}{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			filters["source"] = *src
		case "url":
			filters["url"] = *url
		case "transaction":
			filters["transaction_type"] = *transaction
		case "ungeocoded":
			filters["ungeocoded"] = *ungeocoded
		}
	})

	if !*yes {
		fmt.Println("\nDelete with filters:")
		for k, v := range filters {
			fmt.Printf("  %s: %v\n", k, v)
		}
		fmt.Print("\nAre you sure? (yes/no): ")

		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "yes" && response != "y" {
			fmt.Println("Cancelled.")
			os.Exit(0)
		}
	}

	rowsDeleted, err := repo.DeleteByFilters(ctx, filters)
	if err != nil {
		logger.Error("Delete failed", "filters", filters, "err", err)
		os.Exit(1)
	}

	if rowsDeleted == 0 {
		logger.Warn("No records matched the filters", "filters", filters)
	} else {
		logger.Info("Deleted successfully", "filters", filters, "rows_deleted", rowsDeleted)
	}
}
