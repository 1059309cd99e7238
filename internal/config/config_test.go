package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Got: %v, expected %v", err, nil)
	}
	if cfg.Geocoder.MaxAttempts != 3 || cfg.Geocoder.RetryDelay != 2*time.Second || cfg.Crawl.MaxFailures != 3 {
		t.Fatalf("Got unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.yaml")
	data := `
start_urls:
  - https://example.test/listings/
format: parquet
crawl:
  mode: heuristic
  request_delay: 250ms
  dedupe: true
geocoder:
  retry_delay: 5s
  fields: [city, country]
selectors:
  listing_link: a.card-link
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Got: %v, expected %v", err, nil)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Got: %v, expected %v", err, nil)
	}

	if len(cfg.StartURLs) != 1 || cfg.Format != "parquet" || cfg.Crawl.Mode != "heuristic" || !cfg.Crawl.Dedupe {
		t.Errorf("Got: %+v", cfg)
	}
	if cfg.Crawl.RequestDelay != 250*time.Millisecond || cfg.Geocoder.RetryDelay != 5*time.Second {
		t.Errorf("Got durations %v / %v", cfg.Crawl.RequestDelay, cfg.Geocoder.RetryDelay)
	}
	// Unset values keep their defaults.
	if cfg.Crawl.MaxFailures != 3 || cfg.Geocoder.MaxAttempts != 3 {
		t.Errorf("Got: %+v, expected defaults to survive", cfg.Crawl)
	}
	if cfg.Selectors.ListingLink != "a.card-link" || cfg.Selectors.Price != "li.item-price" {
		t.Errorf("Got selectors: %+v", cfg.Selectors)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Got no error for a missing config file")
	}
}

func TestLoadEnv(t *testing.T) {
	env := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(env, []byte("GEOCODER_EMAIL=ops@example.test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEOCODER_BASE_URL", "http://localhost:8080/search")
	t.Setenv("GEOCODER_EMAIL", "")
	os.Unsetenv("GEOCODER_EMAIL")

	cfg := Default()
	if err := cfg.LoadEnv(env); err != nil {
		t.Fatalf("Got: %v, expected %v", err, nil)
	}
	if cfg.Geocoder.BaseURL != "http://localhost:8080/search" || cfg.Geocoder.Email != "ops@example.test" {
		t.Fatalf("Got: %+v", cfg.Geocoder)
	}

	if err := cfg.LoadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Got: %v for a missing .env, expected %v", err, nil)
	}
}

func TestLoadEnvOutDirMovesDatabase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ESTATECRAWL_OUTDIR", dir)

	cfg := Default()
	if err := cfg.LoadEnv(""); err != nil {
		t.Fatalf("Got: %v, expected %v", err, nil)
	}
	if cfg.OutDir != dir {
		t.Fatalf("Got out dir %q, expected %q", cfg.OutDir, dir)
	}
	if exp := filepath.Join(dir, "estatecrawler.duckdb"); cfg.DBPath != exp {
		t.Fatalf("Got db path %q, expected %q", cfg.DBPath, exp)
	}
}

func TestValidateLeavesStartURLsToEachCrawl(t *testing.T) {
	cfg := Default()
	cfg.StartURLs = []string{"ftp://example.test/", DefaultStartURL}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Got: %v, expected %v", err, nil)
	}
}

func TestValidateRejects(t *testing.T) {
	cfg := Default()
	cfg.Crawl.Mode = "sideways"
	cfg.Format = "xlsx"
	cfg.Geocoder.UserAgent = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Got no error for an invalid config")
	}
}
