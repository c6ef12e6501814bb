package weather

import (
	"context"
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestSafetyScore(t *testing.T) {
	tests := []struct {
		name         string
		temp, uv, aq float64
		want         float64
	}{
		{"ideal", 70, 0, 0, 0.0},
		{"worst of every scale", 100, 12, 6, 1.0},
		{"cold counts like hot", 40, 12, 6, 1.0},
		{"mixed", 80, 6, 3, 0.3*(10.0/30.0) + 0.15 + 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafetyScore(tt.temp, tt.uv, tt.aq)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("SafetyScore(%v, %v, %v) = %v, want %v", tt.temp, tt.uv, tt.aq, got, tt.want)
			}
		})
	}
}

func TestRank_OrdersAscendingAndExcludesIncomplete(t *testing.T) {
	// Scores 0.5, 0.1, 0.9 by AQI alone (temp 70, uv 0).
	averages := []CityAverages{
		{City: City{ID: 1, Name: "A"}, TemperatureF: ptr(70), UVIndex: ptr(0), AQI: ptr(0.5 * 6 / 0.4)},
		{City: City{ID: 2, Name: "B"}, TemperatureF: ptr(70), UVIndex: ptr(0), AQI: ptr(0.1 * 6 / 0.4)},
		{City: City{ID: 3, Name: "C"}, TemperatureF: ptr(70), UVIndex: ptr(0), AQI: ptr(0.9 * 6 / 0.4)},
		{City: City{ID: 4, Name: "NoUV"}, TemperatureF: ptr(70), AQI: ptr(1)},
	}

	got := Rank(averages)
	if len(got) != 3 {
		t.Fatalf("Rank: got %d entries, want 3", len(got))
	}
	want := []string{"B", "A", "C"}
	for i, name := range want {
		if got[i].City.Name != name {
			t.Fatalf("Rank[%d]: got %s, want %s", i, got[i].City.Name, name)
		}
	}
	if math.Abs(got[0].Score-0.1) > 1e-9 || math.Abs(got[2].Score-0.9) > 1e-9 {
		t.Fatalf("scores: got %v, %v", got[0].Score, got[2].Score)
	}
}

func TestRank_TiesKeepDiscoveryOrder(t *testing.T) {
	averages := []CityAverages{
		{City: City{ID: 1, Name: "First"}, TemperatureF: ptr(75), UVIndex: ptr(2), AQI: ptr(1)},
		{City: City{ID: 2, Name: "Second"}, TemperatureF: ptr(65), UVIndex: ptr(2), AQI: ptr(1)},
	}

	got := Rank(averages)
	if got[0].City.Name != "First" || got[1].City.Name != "Second" {
		t.Fatalf("tie order: got %s, %s", got[0].City.Name, got[1].City.Name)
	}
}

func TestRank_ZeroUVIsPresent(t *testing.T) {
	got := Rank([]CityAverages{
		{City: City{ID: 1, Name: "Night"}, TemperatureF: ptr(70), UVIndex: ptr(0), AQI: ptr(0)},
	})
	if len(got) != 1 || got[0].Score != 0 {
		t.Fatalf("Rank: got %+v", got)
	}
}

func TestNewChartData_IndexAligned(t *testing.T) {
	ranking := Rank([]CityAverages{
		{City: City{ID: 1, Name: "Hot"}, TemperatureF: ptr(100), UVIndex: ptr(12), AQI: ptr(6)},
		{City: City{ID: 2, Name: "Mild"}, TemperatureF: ptr(70), UVIndex: ptr(3), AQI: ptr(1)},
	})

	cd := NewChartData(ranking)
	if len(cd.Cities) != 2 || cd.Cities[0] != "Mild" || cd.Cities[1] != "Hot" {
		t.Fatalf("cities: got %v", cd.Cities)
	}
	if cd.AvgTemps[1] != 100 || cd.AvgUV[0] != 3 || cd.AvgAQI[1] != 6 {
		t.Fatalf("columns misaligned: %+v", cd)
	}
	if cd.SafetyScores[1] != ranking[1].Score {
		t.Fatalf("score column: got %v, want %v", cd.SafetyScores[1], ranking[1].Score)
	}
}

// stubAggregateStore serves fixed averages.
type stubAggregateStore struct {
	cities   []City
	overall  map[Metric]float64
	averages []CityAverages
}

func (s stubAggregateStore) LookupCity(_ context.Context, name string) (int64, bool, error) {
	for _, c := range s.cities {
		if c.Name == name {
			return c.ID, true, nil
		}
	}
	return 0, false, nil
}

func (s stubAggregateStore) Cities(context.Context) ([]City, error) { return s.cities, nil }

func (s stubAggregateStore) Average(_ context.Context, m Metric, _ *int64) (float64, bool, error) {
	v, ok := s.overall[m]
	return v, ok, nil
}

func (s stubAggregateStore) CityAverages(context.Context) ([]CityAverages, error) {
	return s.averages, nil
}

func (s stubAggregateStore) Latest(context.Context, int64, Metric) (Measurement, bool, error) {
	return Measurement{}, false, nil
}

func TestAggregator_Summarize(t *testing.T) {
	st := stubAggregateStore{
		cities:  []City{{ID: 1, Name: "Only"}},
		overall: map[Metric]float64{MetricWeather: 68, MetricUV: 0},
		averages: []CityAverages{
			{City: City{ID: 1, Name: "Only"}, TemperatureF: ptr(68), UVIndex: ptr(0)},
		},
	}

	sum, err := NewAggregator(st).Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.OverallTemperatureF == nil || *sum.OverallTemperatureF != 68 {
		t.Fatalf("overall temperature: got %v", sum.OverallTemperatureF)
	}
	if sum.OverallUVIndex == nil || *sum.OverallUVIndex != 0 {
		t.Fatalf("zero UV average must be reported, got %v", sum.OverallUVIndex)
	}
	if sum.OverallAQI != nil {
		t.Fatalf("AQI has no readings, got %v", *sum.OverallAQI)
	}
	if len(sum.Cities) != 1 || len(sum.Rankings) != 0 {
		t.Fatalf("incomplete city must not be ranked: %+v", sum)
	}
}

func TestAggregator_AverageForUnknownCity(t *testing.T) {
	a := NewAggregator(stubAggregateStore{})

	_, ok, found, err := a.AverageForCity(context.Background(), MetricUV, "Nowhere")
	if err != nil || ok || found {
		t.Fatalf("AverageForCity: ok=%v found=%v err=%v", ok, found, err)
	}
}
