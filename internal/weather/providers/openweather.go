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

// OpenWeatherProvider implements the weather.Provider interface for
// OpenWeatherMap current conditions (temperature in °F and condition).
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		client:  client,
		circuit: newCircuitBreaker("openweather"),
		now:     time.Now,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Metric() weather.Metric {
	return weather.MetricWeather
}

func (p *OpenWeatherProvider) RequiresCoordinates() bool {
	return false
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, weather.NetworkError(p.name, errNoAPIKey)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("q", loc.City)
		values.Set("appid", p.apiKey)
		values.Set("units", "imperial")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.name, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, err
	}

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := decodeJSON(p.name, resp, &payload); err != nil {
		return weather.Reading{}, err
	}
	if payload.Main.Temp == nil {
		return weather.Reading{}, missingField(p.name, "main.temp")
	}
	if len(payload.Weather) == 0 || payload.Weather[0].Main == "" {
		return weather.Reading{}, missingField(p.name, "weather[0].main")
	}

	return weather.Reading{
		ProviderName:  p.name,
		Metric:        weather.MetricWeather,
		Timestamp:     unixOrNow(payload.Dt, p.now),
		Value:         *payload.Main.Temp,
		Condition:     weather.NormalizeCondition(payload.Weather[0].Main),
		ConditionText: payload.Weather[0].Main,
	}, nil
}
