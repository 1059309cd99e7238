package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/shanehull/estatecrawler/internal/extract"
	"github.com/shanehull/estatecrawler/internal/source"
	"github.com/shanehull/estatecrawler/internal/storage"
)

const DefaultStartURL = "https://real-estate-tanzania.beforward.jp/status/for-sale/"

type Config struct {
	StartURLs []string          `yaml:"start_urls"`
	OutDir    string            `yaml:"out_dir"`
	DBPath    string            `yaml:"db_path"`
	Format    string            `yaml:"format"`
	Crawl     CrawlConfig       `yaml:"crawl"`
	Geocoder  GeocoderConfig    `yaml:"geocoder"`
	Selectors extract.Selectors `yaml:"selectors"`
}

type CrawlConfig struct {
	Mode           string        `yaml:"mode"`
	UserAgent      string        `yaml:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RequestDelay   time.Duration `yaml:"request_delay"`
	RandomDelay    time.Duration `yaml:"random_delay"`
	MaxFailures    int           `yaml:"max_failures"`
	MaxPages       int           `yaml:"max_pages"`
	Dedupe         bool          `yaml:"dedupe"`
}

type GeocoderConfig struct {
	BaseURL     string        `yaml:"base_url"`
	UserAgent   string        `yaml:"user_agent"`
	Email       string        `yaml:"email"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	MinInterval time.Duration `yaml:"min_interval"`
	Fields      []string      `yaml:"fields"`
}

func Default() Config {
	return Config{
		OutDir: "out",
		DBPath: "out/estatecrawler.duckdb",
		Format: string(storage.FormatCSV),
		Crawl: CrawlConfig{
			Mode:           string(source.ModeAuto),
			RequestTimeout: 10 * time.Second,
			RequestDelay:   1 * time.Second,
			MaxFailures:    3,
			MaxPages:       500,
		},
		Geocoder: GeocoderConfig{
			BaseURL:     "https://nominatim.openstreetmap.org/search",
			UserAgent:   "property_scraper",
			Timeout:     10 * time.Second,
			MaxAttempts: 3,
			RetryDelay:  2 * time.Second,
			MinInterval: 1 * time.Second,
			Fields:      []string{"city"},
		},
		Selectors: extract.DefaultSelectors(),
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Selectors = cfg.Selectors.WithDefaults()
	return cfg, nil
}

// LoadEnv loads a .env file if present, then applies environment overrides.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv("GEOCODER_BASE_URL"); v != "" {
		c.Geocoder.BaseURL = v
	}
	if v := os.Getenv("GEOCODER_USER_AGENT"); v != "" {
		c.Geocoder.UserAgent = v
	}
	if v := os.Getenv("GEOCODER_EMAIL"); v != "" {
		c.Geocoder.Email = v
	}
	if v := os.Getenv("ESTATECRAWL_OUTDIR"); v != "" {
		c.OutDir = v
		c.DBPath = filepath.Join(v, filepath.Base(c.DBPath))
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	switch source.Mode(c.Crawl.Mode) {
	case source.ModeAuto, source.ModeCounted, source.ModeHeuristic:
	default:
		errs = append(errs, fmt.Errorf("unknown crawl mode %q", c.Crawl.Mode))
	}
	if _, err := storage.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Crawl.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("crawl.max_failures must be at least 1"))
	}
	if c.Geocoder.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("geocoder.max_attempts must be at least 1"))
	}
	if c.Crawl.RequestTimeout <= 0 || c.Geocoder.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeouts must be positive"))
	}
	if strings.TrimSpace(c.Geocoder.UserAgent) == "" {
		errs = append(errs, fmt.Errorf("geocoder.user_agent is required by the Nominatim usage policy"))
	}
	return errors.Join(errs...)
}
