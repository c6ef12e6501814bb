package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for
// WeatherAPI.com, reading the US-EPA air quality category (1-6).
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		client:  client,
		circuit: newCircuitBreaker("weatherapi"),
		now:     time.Now,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Metric() weather.Metric {
	return weather.MetricAirQuality
}

func (p *WeatherAPIProvider) RequiresCoordinates() bool {
	return false
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, weather.NetworkError(p.name, errNoAPIKey)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", loc.City)
		values.Set("aqi", "yes")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.name, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, err
	}

	var payload struct {
		Current *struct {
			LastUpdatedEpoch int64 `json:"last_updated_epoch"`
			AirQuality       *struct {
				USEPAIndex *float64 `json:"us-epa-index"`
			} `json:"air_quality"`
		} `json:"current"`
	}

	if err := decodeJSON(p.name, resp, &payload); err != nil {
		return weather.Reading{}, err
	}
	if payload.Current == nil {
		return weather.Reading{}, missingField(p.name, "current")
	}
	if payload.Current.AirQuality == nil || payload.Current.AirQuality.USEPAIndex == nil {
		return weather.Reading{}, missingField(p.name, "current.air_quality.us-epa-index")
	}

	return weather.Reading{
		ProviderName: p.name,
		Metric:       weather.MetricAirQuality,
		Timestamp:    unixOrNow(payload.Current.LastUpdatedEpoch, p.now),
		Value:        *payload.Current.AirQuality.USEPAIndex,
	}, nil
}
