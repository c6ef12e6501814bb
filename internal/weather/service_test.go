package weather_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/i474232898/outdoor-safety-index/internal/store"
	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

var testDay = time.Date(2024, 7, 4, 15, 0, 0, 0, time.UTC)

type fakeProvider struct {
	metric      weather.Metric
	needsCoords bool
	fail        map[string]error
	calls       []string
}

func (f *fakeProvider) Name() string              { return "fake-" + string(f.metric) }
func (f *fakeProvider) Metric() weather.Metric    { return f.metric }
func (f *fakeProvider) RequiresCoordinates() bool { return f.needsCoords }

func (f *fakeProvider) Fetch(_ context.Context, loc weather.Location) (weather.Reading, error) {
	f.calls = append(f.calls, loc.City)
	if err, ok := f.fail[loc.City]; ok {
		return weather.Reading{}, err
	}
	return weather.Reading{
		ProviderName:  f.Name(),
		Metric:        f.metric,
		Timestamp:     testDay.Add(-10 * time.Minute),
		Value:         float64(len(f.calls)),
		Condition:     weather.ConditionClear,
		ConditionText: "Clear",
	}, nil
}

// failingStore rejects every insert.
type failingStore struct {
	*store.MemoryStore
}

func (failingStore) InsertMeasurement(context.Context, weather.Measurement) (int64, error) {
	return 0, &weather.StorageError{Op: "insert", Err: errors.New("disk full")}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cityNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("City %02d", i+1)
	}
	return names
}

func newService(st weather.Store, cities []string, clock *time.Time, providers ...weather.Provider) *weather.Service {
	return weather.NewService(st, providers, weather.ServiceConfig{
		Cities: cities,
		Coordinates: map[string]weather.Coordinates{
			"Denver": {Lat: 39.7392, Lon: -104.9903},
		},
		Clock: func() time.Time { return *clock },
	}, discardLogger())
}

func TestRunCollection_CapsStoredMeasurements(t *testing.T) {
	st := store.NewMemoryStore()
	p := &fakeProvider{metric: weather.MetricWeather}
	now := testDay
	svc := newService(st, cityNames(30), &now, p)

	sum, err := svc.RunCollection(context.Background(), weather.MetricWeather)
	if err != nil {
		t.Fatalf("RunCollection: %v", err)
	}
	if sum.Stored != weather.DefaultRunCap {
		t.Fatalf("stored: got %d, want %d", sum.Stored, weather.DefaultRunCap)
	}
	if sum.Deferred != 5 {
		t.Fatalf("deferred: got %d, want 5", sum.Deferred)
	}
	if len(p.calls) != weather.DefaultRunCap {
		t.Fatalf("provider calls: got %d, want %d", len(p.calls), weather.DefaultRunCap)
	}
	if sum.RunID == "" {
		t.Fatalf("expected run id")
	}

	cities, _ := st.Cities(context.Background())
	if len(cities) != weather.DefaultRunCap {
		t.Fatalf("cities created: got %d, want %d", len(cities), weather.DefaultRunCap)
	}
}

func TestRunCollection_SkipsCitiesCollectedToday(t *testing.T) {
	st := store.NewMemoryStore()
	p := &fakeProvider{metric: weather.MetricAirQuality}
	now := testDay
	svc := newService(st, []string{"Austin", "Boise", "Austin"}, &now, p)

	first, err := svc.RunCollection(context.Background(), weather.MetricAirQuality)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Stored != 2 || first.Skipped != 1 {
		t.Fatalf("first run: got %+v", first)
	}

	now = testDay.Add(2 * time.Hour)
	second, err := svc.RunCollection(context.Background(), weather.MetricAirQuality)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Stored != 0 || second.Attempted != 0 || second.Skipped != 3 {
		t.Fatalf("second run: got %+v", second)
	}

	now = testDay.Add(24 * time.Hour)
	third, err := svc.RunCollection(context.Background(), weather.MetricAirQuality)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Stored != 2 {
		t.Fatalf("next day should collect again: got %+v", third)
	}
}

func TestRunCollection_IsolatesFetchFailures(t *testing.T) {
	st := store.NewMemoryStore()
	p := &fakeProvider{
		metric: weather.MetricWeather,
		fail: map[string]error{
			"Boise": weather.NetworkError("fake", errors.New("connection refused")),
			"Chico": weather.MalformedResponse("fake", errors.New("missing main.temp")),
		},
	}
	now := testDay
	svc := newService(st, []string{"Austin", "Boise", "Chico", "Dallas"}, &now, p)

	sum, err := svc.RunCollection(context.Background(), weather.MetricWeather)
	if err != nil {
		t.Fatalf("RunCollection: %v", err)
	}
	if sum.Stored != 2 || sum.Failed != 2 || sum.Attempted != 4 {
		t.Fatalf("summary: got %+v", sum)
	}

	ctx := context.Background()
	if _, found, _ := st.LookupCity(ctx, "Boise"); found {
		t.Fatalf("failed city must not be registered")
	}
	id, found, _ := st.LookupCity(ctx, "Dallas")
	if !found {
		t.Fatalf("city after failures should be stored")
	}
	m, ok, _ := st.Latest(ctx, id, weather.MetricWeather)
	if !ok || m.Condition != weather.ConditionClear || !m.CollectedAt.Equal(testDay) {
		t.Fatalf("stored measurement: got %+v", m)
	}
	if !m.ObservedAt.Equal(testDay.Add(-10 * time.Minute)) {
		t.Fatalf("observed_at should come from the provider, got %v", m.ObservedAt)
	}
}

func TestRunCollection_ConfigurationGap(t *testing.T) {
	st := store.NewMemoryStore()
	p := &fakeProvider{metric: weather.MetricUV, needsCoords: true}
	now := testDay
	svc := newService(st, []string{"Atlantis", "Denver"}, &now, p)

	sum, err := svc.RunCollection(context.Background(), weather.MetricUV)
	if err != nil {
		t.Fatalf("RunCollection: %v", err)
	}
	if sum.Stored != 1 || sum.Skipped != 1 {
		t.Fatalf("summary: got %+v", sum)
	}
	if len(p.calls) != 1 || p.calls[0] != "Denver" {
		t.Fatalf("provider should only be called for Denver, got %v", p.calls)
	}
}

func TestRunCollection_StorageErrorAbortsRun(t *testing.T) {
	st := failingStore{store.NewMemoryStore()}
	p := &fakeProvider{metric: weather.MetricWeather}
	now := testDay
	svc := newService(st, []string{"Austin", "Boise"}, &now, p)

	sum, err := svc.RunCollection(context.Background(), weather.MetricWeather)
	if !weather.IsStorageError(err) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if len(p.calls) != 1 || sum.Stored != 0 || sum.Attempted != 1 {
		t.Fatalf("run should stop at the first failed insert: calls=%v summary=%+v", p.calls, sum)
	}
}

func TestRunCollection_EmptyCityList(t *testing.T) {
	now := testDay
	svc := newService(store.NewMemoryStore(), nil, &now, &fakeProvider{metric: weather.MetricUV})

	sum, err := svc.RunCollection(context.Background(), weather.MetricUV)
	if err != nil {
		t.Fatalf("RunCollection: %v", err)
	}
	if sum.Stored != 0 || sum.Attempted != 0 || sum.Skipped != 0 {
		t.Fatalf("summary: got %+v", sum)
	}
}

func TestRunCollection_NoProvider(t *testing.T) {
	now := testDay
	svc := newService(store.NewMemoryStore(), []string{"Austin"}, &now)

	if _, err := svc.RunCollection(context.Background(), weather.MetricUV); !errors.Is(err, weather.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestRunCollection_ContextCancelled(t *testing.T) {
	now := testDay
	p := &fakeProvider{metric: weather.MetricWeather}
	svc := newService(store.NewMemoryStore(), []string{"Austin"}, &now, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.RunCollection(ctx, weather.MetricWeather); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(p.calls) != 0 {
		t.Fatalf("no provider calls expected, got %v", p.calls)
	}
}

func TestRunAll_CollectsEveryMetricInOrder(t *testing.T) {
	st := store.NewMemoryStore()
	now := testDay
	svc := newService(st, []string{"Denver"}, &now,
		&fakeProvider{metric: weather.MetricAirQuality},
		&fakeProvider{metric: weather.MetricWeather},
		&fakeProvider{metric: weather.MetricUV, needsCoords: true},
	)

	sums, err := svc.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(sums) != 3 {
		t.Fatalf("summaries: got %d, want 3", len(sums))
	}
	for i, m := range weather.Metrics {
		if sums[i].Metric != m || sums[i].Stored != 1 {
			t.Fatalf("summary %d: got %+v", i, sums[i])
		}
	}

	ranking, err := weather.NewAggregator(st).RankCities(context.Background())
	if err != nil {
		t.Fatalf("RankCities: %v", err)
	}
	if len(ranking) != 1 || ranking[0].City.Name != "Denver" {
		t.Fatalf("ranking: got %+v", ranking)
	}
}
