package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

const (
	RunModeServe = "serve"
	RunModeOnce  = "once"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	OpenUVAPIKey      string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	// Cities to track, in collection order.
	Cities []string `validate:"required,dive,required"`
	// Coordinates by exact city name, used by coordinate-based providers.
	Coordinates map[string]weather.Coordinates `validate:"dive"`

	DBPath        string `validate:"required"`
	ReportPath    string `validate:"required"`
	ChartDataPath string `validate:"required"`

	// FetchInterval controls how often a full collection runs in serve mode.
	FetchInterval time.Duration `validate:"min=1m"`
	HTTPTimeout   time.Duration `validate:"min=1s"`
	PacingDelay   time.Duration `validate:"min=0s"`
	RunCap        int           `validate:"min=1"`

	RunMode  string `validate:"oneof=serve once"`
	Port     string `validate:"required,numeric"`
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found or error loading it", "error", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenUVAPIKey = os.Getenv("OPENUV_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.Cities = append([]string(nil), DefaultCities...)
	if v := os.Getenv("CITIES"); v != "" {
		cfg.Cities = splitList(v)
	}

	coords, err := parseCoordinates(os.Getenv("CITY_COORDS"))
	if err != nil {
		return nil, err
	}
	cfg.Coordinates = DefaultCoordinates()
	for name, c := range coords {
		cfg.Coordinates[name] = c
	}

	cfg.DBPath = getenvDefault("DB_PATH", "data/weather_data.db")
	cfg.ReportPath = getenvDefault("REPORT_PATH", "calculations_output.txt")
	cfg.ChartDataPath = getenvDefault("CHART_DATA_PATH", "chart_data.json")

	// Scheduler interval: default one hour; the daily skip rule makes
	// repeated runs on the same day cheap.
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.PacingDelay, err = getenvDuration("PACING_DELAY", "500ms"); err != nil {
		return nil, err
	}
	if cfg.RunCap, err = getenvInt("RUN_CAP", weather.DefaultRunCap); err != nil {
		return nil, err
	}

	cfg.RunMode = strings.ToLower(getenvDefault("RUN_MODE", RunModeServe))
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AppEnv = strings.ToLower(getenvDefault("APP_ENV", "dev"))

	if cfg.LogLevel, err = parseLogLevel(getenvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseCoordinates reads "Name=lat:lon;Other Name=lat:lon".
func parseCoordinates(s string) (map[string]weather.Coordinates, error) {
	out := make(map[string]weather.Coordinates)
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, pair, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid CITY_COORDS entry %q: want Name=lat:lon", entry)
		}
		latStr, lonStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid CITY_COORDS entry %q: want Name=lat:lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude for %s: %w", name, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude for %s: %w", name, err)
		}
		out[name] = weather.Coordinates{Lat: lat, Lon: lon}
	}
	return out, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
