package weather

import (
	"fmt"
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// NormalizeCondition maps a provider's free-form condition text onto the
// Condition vocabulary.
func NormalizeCondition(text string) Condition {
	s := strings.ToLower(strings.TrimSpace(text))
	switch {
	case s == "":
		return ConditionUnknown
	case containsAny(s, "thunder", "storm", "tornado", "squall"):
		return ConditionStorm
	case containsAny(s, "snow", "sleet", "blizzard"):
		return ConditionSnow
	case containsAny(s, "rain", "drizzle", "shower"):
		return ConditionRain
	case containsAny(s, "mist", "fog", "haze", "smoke", "dust", "sand", "ash"):
		return ConditionMist
	case containsAny(s, "cloud", "overcast"):
		return ConditionCloudy
	case containsAny(s, "clear", "sunny"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Metric identifies one of the three measurement streams.
type Metric string

const (
	MetricWeather    Metric = "weather"
	MetricUV         Metric = "uv"
	MetricAirQuality Metric = "air_quality"
)

// Metrics lists every metric in collection order.
var Metrics = []Metric{MetricWeather, MetricUV, MetricAirQuality}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	switch m {
	case MetricWeather, MetricUV, MetricAirQuality:
		return true
	}
	return false
}

// ParseMetric converts a string such as "uv" into a Metric.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown metric %q (allowed: weather, uv, air_quality)", s)
	}
	return m, nil
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// Location identifies what a provider should be asked about.
// Lat/Lon are only set when coordinates are registered for the city.
type Location struct {
	City string   `json:"city"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// NewLocation builds a Location for city, attaching coordinates when known.
func NewLocation(city string, coords map[string]Coordinates) Location {
	loc := Location{City: city}
	if c, ok := coords[city]; ok {
		lat, lon := c.Lat, c.Lon
		loc.Lat = &lat
		loc.Lon = &lon
	}
	return loc
}

// HasCoordinates reports whether both latitude and longitude are present.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// City is a named, uniquely identified location tracked by the system.
type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Measurement is one stored observation of a metric for a city.
// Value holds the temperature in °F, the UV index or the US-EPA AQI category
// depending on Metric. Condition fields are only populated for MetricWeather.
type Measurement struct {
	ID            int64     `json:"id"`
	CityID        int64     `json:"cityId"`
	Metric        Metric    `json:"metric"`
	Value         float64   `json:"value"`
	Condition     Condition `json:"condition,omitempty"`
	ConditionText string    `json:"conditionText,omitempty"`
	ObservedAt    time.Time `json:"observedAt"`  // provider time when available, always UTC
	CollectedAt   time.Time `json:"collectedAt"` // wall-clock receipt time, always UTC
}

// DayBounds returns the UTC calendar day [start, end) containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
