package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/outdoor-safety-index/internal/store"
	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

type staticProvider struct {
	metric weather.Metric
	values map[string]float64
}

func (p staticProvider) Name() string              { return "static-" + string(p.metric) }
func (p staticProvider) Metric() weather.Metric    { return p.metric }
func (p staticProvider) RequiresCoordinates() bool { return false }

func (p staticProvider) Fetch(_ context.Context, loc weather.Location) (weather.Reading, error) {
	v, ok := p.values[loc.City]
	if !ok {
		return weather.Reading{}, weather.NetworkError(p.Name(), errors.New("city not served"))
	}
	return weather.Reading{ProviderName: p.Name(), Metric: p.metric, Value: v}, nil
}

type failingCollector struct{}

func (failingCollector) RunAll(context.Context) ([]weather.RunSummary, error) {
	return nil, &weather.StorageError{Op: "insert", Err: errors.New("readonly database")}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "calculations_output.txt")
	chartPath := filepath.Join(dir, "chart_data.json")

	st := store.NewMemoryStore()
	svc := weather.NewService(st, []weather.Provider{
		staticProvider{weather.MetricWeather, map[string]float64{"Seattle": 58, "Miami": 88}},
		staticProvider{weather.MetricUV, map[string]float64{"Seattle": 2, "Miami": 9}},
		staticProvider{weather.MetricAirQuality, map[string]float64{"Seattle": 1}},
	}, weather.ServiceConfig{Cities: []string{"Seattle", "Miami"}}, discardLogger())

	p := NewPipeline(svc, weather.NewAggregator(st), reportPath, chartPath, discardLogger())
	p.now = func() time.Time { return time.Date(2024, 9, 1, 6, 0, 0, 0, time.UTC) }

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "air_quality") || !strings.Contains(out, "failed 1") {
		t.Fatalf("report should include the collection results:\n%s", out)
	}

	raw, err := os.ReadFile(chartPath)
	if err != nil {
		t.Fatalf("read chart data: %v", err)
	}
	var cd weather.ChartData
	if err := json.Unmarshal(raw, &cd); err != nil {
		t.Fatalf("decode chart data: %v", err)
	}
	if len(cd.Cities) != 1 || cd.Cities[0] != "Seattle" {
		t.Fatalf("only Seattle has every metric, got %v", cd.Cities)
	}
}

func TestPipelineRunStopsOnCollectionError(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.txt")

	p := NewPipeline(failingCollector{}, weather.NewAggregator(store.NewMemoryStore()), reportPath, filepath.Join(dir, "chart.json"), discardLogger())

	err := p.Run(context.Background())
	if !weather.IsStorageError(err) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if _, statErr := os.Stat(reportPath); !os.IsNotExist(statErr) {
		t.Fatalf("report must not be written after a failed collection")
	}
}
