package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of the weather
// stores. Identifiers start at 1 and increase per table, like the SQLite store.
type MemoryStore struct {
	mu sync.RWMutex

	cities []weather.City
	byName map[string]int64

	// key: metric, value: append-only history
	data map[weather.Metric][]weather.Measurement
}

var (
	_ weather.Store          = (*MemoryStore)(nil)
	_ weather.AggregateStore = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byName: make(map[string]int64),
		data:   make(map[weather.Metric][]weather.Measurement),
	}
}

func (s *MemoryStore) LookupCity(_ context.Context, name string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[strings.TrimSpace(name)]
	return id, ok, nil
}

func (s *MemoryStore) ResolveCity(_ context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, weather.ErrEmptyCityName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byName[name]; ok {
		return id, nil
	}
	id := int64(len(s.cities) + 1)
	s.cities = append(s.cities, weather.City{ID: id, Name: name})
	s.byName[name] = id
	return id, nil
}

func (s *MemoryStore) Cities(_ context.Context) ([]weather.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.City, len(s.cities))
	copy(out, s.cities)
	return out, nil
}

func (s *MemoryStore) InsertMeasurement(_ context.Context, m weather.Measurement) (int64, error) {
	if !m.Metric.Valid() {
		return 0, storageErr("insert measurement", fmt.Errorf("unknown metric %q", m.Metric))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.CityID <= 0 || int(m.CityID) > len(s.cities) {
		return 0, storageErr("insert "+string(m.Metric), fmt.Errorf("unknown city id %d", m.CityID))
	}
	if m.CollectedAt.IsZero() {
		m.CollectedAt = time.Now().UTC()
	}
	if m.ObservedAt.IsZero() {
		m.ObservedAt = m.CollectedAt
	}

	history := s.data[m.Metric]
	m.ID = int64(len(history) + 1)
	s.data[m.Metric] = append(history, m)
	return m.ID, nil
}

func (s *MemoryStore) HasFreshReading(_ context.Context, cityID int64, metric weather.Metric, day time.Time) (bool, error) {
	start, end := weather.DayBounds(day)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.data[metric] {
		if m.CityID != cityID {
			continue
		}
		if !m.CollectedAt.Before(start) && m.CollectedAt.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

// Latest returns the most recently collected measurement of metric for a city.
func (s *MemoryStore) Latest(_ context.Context, cityID int64, metric weather.Metric) (weather.Measurement, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest weather.Measurement
		found  bool
	)
	for _, m := range s.data[metric] {
		if m.CityID != cityID {
			continue
		}
		if !found || !m.CollectedAt.Before(latest.CollectedAt) {
			latest, found = m, true
		}
	}
	return latest, found, nil
}

func (s *MemoryStore) Average(_ context.Context, metric weather.Metric, cityID *int64) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sum float64
		n   int
	)
	for _, m := range s.data[metric] {
		if cityID != nil && m.CityID != *cityID {
			continue
		}
		sum += m.Value
		n++
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

func (s *MemoryStore) CityAverages(ctx context.Context) ([]weather.CityAverages, error) {
	cities, _ := s.Cities(ctx)

	out := make([]weather.CityAverages, 0, len(cities))
	for _, c := range cities {
		id := c.ID
		ca := weather.CityAverages{City: c}
		for _, metric := range weather.Metrics {
			avg, ok, _ := s.Average(ctx, metric, &id)
			if !ok {
				continue
			}
			v := avg
			switch metric {
			case weather.MetricWeather:
				ca.TemperatureF = &v
			case weather.MetricUV:
				ca.UVIndex = &v
			case weather.MetricAirQuality:
				ca.AQI = &v
			}
		}
		out = append(out, ca)
	}
	return out, nil
}
