package weather

import (
	"context"
	"math"
	"sort"
)

// Safety score constants. The temperature band is centred on a comfortable
// 70°F; UV and AQI are normalized by plausible maxima of their scales.
const (
	ComfortTemperatureF = 70.0
	TemperatureBandF    = 30.0
	MaxUVIndex          = 12.0
	MaxAQICategory      = 6.0

	TemperatureWeight = 0.3
	UVWeight          = 0.3
	AQIWeight         = 0.4
)

// CityAverages holds per-city metric averages. A nil field means the city has
// no readings for that metric.
type CityAverages struct {
	City         City     `json:"city"`
	TemperatureF *float64 `json:"avgTemperatureF"`
	UVIndex      *float64 `json:"avgUvIndex"`
	AQI          *float64 `json:"avgAqi"`
}

// Complete reports whether all three averages are present.
func (c CityAverages) Complete() bool {
	return c.TemperatureF != nil && c.UVIndex != nil && c.AQI != nil
}

// CityScore is a ranked safety score with the averages it was derived from.
type CityScore struct {
	City            City    `json:"city"`
	Score           float64 `json:"score"`
	AvgTemperatureF float64 `json:"avgTemperatureF"`
	AvgUVIndex      float64 `json:"avgUvIndex"`
	AvgAQI          float64 `json:"avgAqi"`
}

// ChartData is the index-aligned structure consumed by chart rendering, one
// entry per ranked city in ranking order.
type ChartData struct {
	Cities       []string  `json:"cities"`
	SafetyScores []float64 `json:"safety_scores"`
	AvgTemps     []float64 `json:"avg_temps"`
	AvgUV        []float64 `json:"avg_uv"`
	AvgAQI       []float64 `json:"avg_aqi"`
}

// Summary bundles everything an aggregation pass produces.
type Summary struct {
	OverallTemperatureF *float64
	OverallUVIndex      *float64
	OverallAQI          *float64
	Cities              []CityAverages
	Rankings            []CityScore
}

// SafetyScore blends normalized temperature deviation, UV index and AQI into
// a lower-is-safer composite.
func SafetyScore(avgTemperatureF, avgUVIndex, avgAQI float64) float64 {
	tempScore := math.Abs(avgTemperatureF-ComfortTemperatureF) / TemperatureBandF
	uvScore := avgUVIndex / MaxUVIndex
	aqiScore := avgAQI / MaxAQICategory
	return TemperatureWeight*tempScore + UVWeight*uvScore + AQIWeight*aqiScore
}

// Rank scores every complete city and orders them safest first. Cities missing
// any metric are left out entirely; ties keep input order.
func Rank(averages []CityAverages) []CityScore {
	scores := make([]CityScore, 0, len(averages))
	for _, a := range averages {
		if !a.Complete() {
			continue
		}
		scores = append(scores, CityScore{
			City:            a.City,
			Score:           SafetyScore(*a.TemperatureF, *a.UVIndex, *a.AQI),
			AvgTemperatureF: *a.TemperatureF,
			AvgUVIndex:      *a.UVIndex,
			AvgAQI:          *a.AQI,
		})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score < scores[j].Score
	})
	return scores
}

// NewChartData flattens a ranking into chart columns.
func NewChartData(ranking []CityScore) ChartData {
	cd := ChartData{
		Cities:       make([]string, 0, len(ranking)),
		SafetyScores: make([]float64, 0, len(ranking)),
		AvgTemps:     make([]float64, 0, len(ranking)),
		AvgUV:        make([]float64, 0, len(ranking)),
		AvgAQI:       make([]float64, 0, len(ranking)),
	}
	for _, s := range ranking {
		cd.Cities = append(cd.Cities, s.City.Name)
		cd.SafetyScores = append(cd.SafetyScores, s.Score)
		cd.AvgTemps = append(cd.AvgTemps, s.AvgTemperatureF)
		cd.AvgUV = append(cd.AvgUV, s.AvgUVIndex)
		cd.AvgAQI = append(cd.AvgAQI, s.AvgAQI)
	}
	return cd
}

// Aggregator computes averages and rankings from stored measurements.
// Nothing is cached; every call reads the store afresh.
type Aggregator struct {
	store AggregateStore
}

// NewAggregator creates a new Aggregator.
func NewAggregator(store AggregateStore) *Aggregator {
	return &Aggregator{store: store}
}

// Average returns the mean of metric across all cities, or for one city when
// cityID is non-nil. ok is false when nothing has been stored.
func (a *Aggregator) Average(ctx context.Context, metric Metric, cityID *int64) (float64, bool, error) {
	return a.store.Average(ctx, metric, cityID)
}

// AverageForCity looks the city up by name first. found is false for unknown cities.
func (a *Aggregator) AverageForCity(ctx context.Context, metric Metric, name string) (avg float64, ok bool, found bool, err error) {
	id, found, err := a.store.LookupCity(ctx, name)
	if err != nil || !found {
		return 0, false, found, err
	}
	avg, ok, err = a.store.Average(ctx, metric, &id)
	return avg, ok, true, err
}

// LatestForCity returns the newest measurement of metric for the named city.
func (a *Aggregator) LatestForCity(ctx context.Context, metric Metric, name string) (m Measurement, ok bool, found bool, err error) {
	id, found, err := a.store.LookupCity(ctx, name)
	if err != nil || !found {
		return Measurement{}, false, found, err
	}
	m, ok, err = a.store.Latest(ctx, id, metric)
	return m, ok, true, err
}

// Cities lists every known city in discovery order.
func (a *Aggregator) Cities(ctx context.Context) ([]City, error) {
	return a.store.Cities(ctx)
}

// RankCities returns the safety ranking over cities with all three metrics.
func (a *Aggregator) RankCities(ctx context.Context) ([]CityScore, error) {
	averages, err := a.store.CityAverages(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(averages), nil
}

// ChartData returns the ranking in chart-column form.
func (a *Aggregator) ChartData(ctx context.Context) (ChartData, error) {
	ranking, err := a.RankCities(ctx)
	if err != nil {
		return ChartData{}, err
	}
	return NewChartData(ranking), nil
}

// Summarize runs a full aggregation pass.
func (a *Aggregator) Summarize(ctx context.Context) (Summary, error) {
	var (
		sum Summary
		err error
	)
	if sum.OverallTemperatureF, err = a.overall(ctx, MetricWeather); err != nil {
		return Summary{}, err
	}
	if sum.OverallUVIndex, err = a.overall(ctx, MetricUV); err != nil {
		return Summary{}, err
	}
	if sum.OverallAQI, err = a.overall(ctx, MetricAirQuality); err != nil {
		return Summary{}, err
	}

	averages, err := a.store.CityAverages(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum.Cities = averages
	sum.Rankings = Rank(averages)
	return sum, nil
}

func (a *Aggregator) overall(ctx context.Context, metric Metric) (*float64, error) {
	avg, ok, err := a.store.Average(ctx, metric, nil)
	if err != nil || !ok {
		return nil, err
	}
	return &avg, nil
}
