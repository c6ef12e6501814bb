package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// timeLayout is fixed-width so that stored timestamps compare correctly as
// strings. Values are always formatted in UTC.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SQLiteStore persists cities and measurements in SQLite. It implements both
// weather.Store and weather.AggregateStore.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ weather.Store          = (*SQLiteStore)(nil)
	_ weather.AggregateStore = (*SQLiteStore)(nil)
)

// Open opens (creating if needed) the database at path and applies pending
// migrations. The pool is limited to one connection so that writes from
// concurrent runs are serialized by the driver.
func Open(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildDSN(path string) (string, error) {
	if path == "" || path == MemoryPath {
		return "file::memory:?_foreign_keys=on&_busy_timeout=5000", nil
	}

	// Ensure directory exists for file-backed sqlite db
	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func storageErr(op string, err error) error {
	return &weather.StorageError{Op: op, Err: err}
}

// metricColumns maps a metric to its table and value column.
func metricColumns(m weather.Metric) (table, column string, err error) {
	switch m {
	case weather.MetricWeather:
		return "weather_readings", "temperature_f", nil
	case weather.MetricUV:
		return "uv_readings", "uv_index", nil
	case weather.MetricAirQuality:
		return "air_quality_readings", "aqi", nil
	default:
		return "", "", fmt.Errorf("unknown metric %q", m)
	}
}
