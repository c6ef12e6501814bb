package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	httpapi "github.com/i474232898/outdoor-safety-index/internal/api/http"
	"github.com/i474232898/outdoor-safety-index/internal/config"
	"github.com/i474232898/outdoor-safety-index/internal/geocode"
	"github.com/i474232898/outdoor-safety-index/internal/scheduler"
	"github.com/i474232898/outdoor-safety-index/internal/store"
	"github.com/i474232898/outdoor-safety-index/internal/weather"
	"github.com/i474232898/outdoor-safety-index/internal/weather/providers"
)

const AppName = "outdoor-safety-index"

// Run wires the store, providers and aggregation, then either performs a
// single pass (RUN_MODE=once) or serves the HTTP API with scheduled passes
// until ctx is cancelled.
func Run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"runMode", cfg.RunMode,
		"dbPath", cfg.DBPath,
		"cities", len(cfg.Cities),
		"fetchInterval", cfg.FetchInterval.String(),
		"runCap", cfg.RunCap,
		"pacingDelay", cfg.PacingDelay.String(),
	)

	st, err := store.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	coords := make(map[string]weather.Coordinates, len(cfg.Coordinates))
	for k, v := range cfg.Coordinates {
		coords[k] = v
	}
	if cfg.GeocoderAPIKey != "" {
		added := geocode.NewResolver(cfg.GeocoderAPIKey, logger).Fill(cfg.Cities, coords)
		logger.Info("geocoding complete", "added", added)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	provs := []weather.Provider{
		providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey),
		providers.NewOpenUVProvider(httpClient, cfg.OpenUVAPIKey),
		providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey),
	}

	service := weather.NewService(st, provs, weather.ServiceConfig{
		Cities:      cfg.Cities,
		Coordinates: coords,
		RunCap:      cfg.RunCap,
		PacingDelay: cfg.PacingDelay,
	}, logger)
	aggregator := weather.NewAggregator(st)
	pipeline := NewPipeline(service, aggregator, cfg.ReportPath, cfg.ChartDataPath, logger)

	if cfg.RunMode == config.RunModeOnce {
		return pipeline.Run(ctx)
	}

	sched := scheduler.New(pipeline, cfg.FetchInterval, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(AppName, logger)
	httpapi.RegisterRoutes(app, aggregator, service)

	addr := net.JoinHostPort("", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("http shutting down")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return nil
}
