package weather

import (
	"context"
	"time"
)

// Reading is a single provider's normalized observation, produced only after
// a successful fetch and parse.
type Reading struct {
	ProviderName string
	Metric       Metric
	Timestamp    time.Time // provider-reported time if present, else receipt time; UTC

	Value         float64
	Condition     Condition
	ConditionText string
}

// Provider abstracts one metric source (e.g. OpenWeatherMap, OpenUV, WeatherAPI).
// Fetch has no side effects beyond the outbound request.
type Provider interface {
	Name() string
	Metric() Metric
	RequiresCoordinates() bool
	Fetch(ctx context.Context, loc Location) (Reading, error)
}

// Store is the contract the collection run writes through.
type Store interface {
	// LookupCity returns the identifier for name without creating it.
	LookupCity(ctx context.Context, name string) (int64, bool, error)
	// ResolveCity returns the identifier for name, creating the city on first sight.
	ResolveCity(ctx context.Context, name string) (int64, error)
	// HasFreshReading reports whether a measurement of metric was collected for
	// the city on the UTC calendar day containing day.
	HasFreshReading(ctx context.Context, cityID int64, metric Metric, day time.Time) (bool, error)
	// InsertMeasurement appends m and returns its storage-assigned identifier.
	InsertMeasurement(ctx context.Context, m Measurement) (int64, error)
}

// AggregateStore is the read side used by the Aggregator.
type AggregateStore interface {
	LookupCity(ctx context.Context, name string) (int64, bool, error)
	Cities(ctx context.Context) ([]City, error)
	// Average returns the mean value of metric, optionally restricted to one
	// city. ok is false when there are no readings to average.
	Average(ctx context.Context, metric Metric, cityID *int64) (avg float64, ok bool, err error)
	// CityAverages returns per-city averages for every metric, in city
	// discovery order.
	CityAverages(ctx context.Context) ([]CityAverages, error)
	// Latest returns the most recently collected measurement of metric for a city.
	Latest(ctx context.Context, cityID int64, metric Metric) (Measurement, bool, error)
}
