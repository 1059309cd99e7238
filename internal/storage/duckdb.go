package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/shanehull/estatecrawler/internal/model"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatParquet, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ExportOptions selects which stored records are written and where.
type ExportOptions struct {
	Source string // Start URL of the crawl; empty exports every source
	Path   string
	Format Format

	TransactionType string // Case-insensitive substring match
	PropertyType    string // Case-insensitive substring match
	OnlyGeocoded    bool
}

var _ Repository = (*DuckDBRepo)(nil)

type DuckDBRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewDuckDBRepo(path string, logger *slog.Logger) (*DuckDBRepo, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	return &DuckDBRepo{db: db, logger: logger}, nil
}

func (r *DuckDBRepo) Init(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		source TEXT,
		position INTEGER,
		url TEXT,
		name TEXT,
		description TEXT,
		price TEXT,
		transaction_type TEXT,
		property_type TEXT,
		area_text TEXT,
		area_value DOUBLE,
		area_unit TEXT,
		address TEXT,
		amenities TEXT,
		characteristics TEXT,
		latitude DOUBLE,
		longitude DOUBLE,
		scraped_at TIMESTAMP
	);`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *DuckDBRepo) ReplaceRecords(ctx context.Context, source string, records []model.PropertyRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM properties WHERE source = ?", source); err != nil {
		return fmt.Errorf("clear %s: %w", source, err)
	}

	query := `
	INSERT INTO properties (source, position, url, name, description, price, transaction_type, property_type,
		area_text, area_value, area_unit, address, amenities, characteristics, latitude, longitude, scraped_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	now := time.Now()
	for i, rec := range records {
		address, err := json.Marshal(rec.Address)
		if err != nil {
			return err
		}
		amenities, err := json.Marshal(rec.Amenities)
		if err != nil {
			return err
		}
		characteristics, err := json.Marshal(rec.Characteristics)
		if err != nil {
			return err
		}

		var areaValue sql.NullFloat64
		var areaUnit sql.NullString
		if rec.Area != nil {
			areaValue = sql.NullFloat64{Float64: rec.Area.Value, Valid: true}
			areaUnit = sql.NullString{String: rec.Area.Unit, Valid: true}
		}
		var lat, lon sql.NullFloat64
		if rec.Location != nil {
			lat = sql.NullFloat64{Float64: rec.Location.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: rec.Location.Lon, Valid: true}
		}

		_, err = tx.ExecContext(ctx, query,
			source, i, rec.URL,
			nullText(rec.Name), nullText(rec.Description), nullText(rec.Price),
			rec.TransactionType, nullText(rec.PropertyType), nullText(rec.AreaText),
			areaValue, areaUnit,
			string(address), string(amenities), string(characteristics),
			lat, lon, now,
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", rec.URL, err)
		}
	}
	return tx.Commit()
}

// Export copies the matching records, in crawl order, to opts.Path and
// returns how many rows were written.
func (r *DuckDBRepo) Export(ctx context.Context, opts ExportOptions) (int, error) {
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return 0, err
	}

	filters := []string{"TRUE"}
	if opts.Source != "" {
		filters = append(filters, "source = "+quote(opts.Source))
	}
	if opts.TransactionType != "" {
		filters = append(filters, fmt.Sprintf("contains(lower(transaction_type), %s)", quote(strings.ToLower(opts.TransactionType))))
	}
	if opts.PropertyType != "" {
		filters = append(filters, fmt.Sprintf("contains(lower(property_type), %s)", quote(strings.ToLower(opts.PropertyType))))
	}
	if opts.OnlyGeocoded {
		filters = append(filters, "latitude IS NOT NULL AND longitude IS NOT NULL")
	}
	where := strings.Join(filters, " AND ")

	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM properties WHERE "+where).Scan(&count); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		COPY (
			SELECT url, name, description, price, transaction_type, property_type, area_text, area_value, area_unit,
				address, amenities, characteristics, latitude, longitude, source, scraped_at
			FROM properties
			WHERE %s
			ORDER BY source, position
		) TO %s (%s);`, where, quote(opts.Path), copyOptions(format))

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return 0, fmt.Errorf("export to %s: %w", opts.Path, err)
	}
	r.logger.Debug("Exported records", "path", opts.Path, "format", format, "rows", count)
	return count, nil
}

func (r *DuckDBRepo) DeleteByFilters(ctx context.Context, filters map[string]interface{}) (int64, error) {
	var conditions []string
	var args []interface{}

	if source, ok := filters["source"].(string); ok && source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, source)
	}
	if u, ok := filters["url"].(string); ok && u != "" {
		conditions = append(conditions, "url = ?")
		args = append(args, u)
	}
	if tt, ok := filters["transaction_type"].(string); ok && tt != "" {
		conditions = append(conditions, "lower(transaction_type) = ?")
		args = append(args, strings.ToLower(tt))
	}
	if ungeocoded, ok := filters["ungeocoded"].(bool); ok && ungeocoded {
		conditions = append(conditions, "latitude IS NULL")
	}

	if len(conditions) == 0 {
		return 0, fmt.Errorf("no filters provided")
	}

	query := fmt.Sprintf("DELETE FROM properties WHERE %s", strings.Join(conditions, " AND "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *DuckDBRepo) Close() error {
	return r.db.Close()
}

// OutputPath derives the export file name from the start URL's host and path,
// e.g. https://a.example.jp/status/for-sale/ becomes a_example_jp-status-for-sale.csv.
func OutputPath(dir, startURL string, format Format) (string, error) {
	u, err := url.Parse(startURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("cannot derive output path from %q", startURL)
	}
	if format == "" {
		format = FormatCSV
	}

	name := strings.ReplaceAll(u.Hostname(), ".", "_")
	for _, seg := range strings.Split(u.Path, "/") {
		if seg = sanitize(seg); seg != "" {
			name += "-" + seg
		}
	}
	return filepath.Join(dir, name+"."+string(format)), nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, s)
}

func copyOptions(f Format) string {
	switch f {
	case FormatParquet:
		return "FORMAT PARQUET"
	case FormatJSON:
		return "FORMAT JSON, ARRAY true"
	default:
		return "HEADER, DELIMITER ','"
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func nullText(t model.Text) sql.NullString {
	return sql.NullString{String: t.Value, Valid: t.Valid}
}
