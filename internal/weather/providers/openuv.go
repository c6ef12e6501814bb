package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

// OpenUVProvider implements the weather.Provider interface for OpenUV.
// OpenUV only accepts coordinates, so cities need a registered lat/lon.
type OpenUVProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewOpenUVProvider(client *http.Client, apiKey string) *OpenUVProvider {
	return &OpenUVProvider{
		name:    "openuv",
		apiKey:  apiKey,
		baseURL: "https://api.openuv.io/api/v1/uv",
		client:  client,
		circuit: newCircuitBreaker("openuv"),
		now:     time.Now,
	}
}

func (p *OpenUVProvider) Name() string {
	return p.name
}

func (p *OpenUVProvider) Metric() weather.Metric {
	return weather.MetricUV
}

func (p *OpenUVProvider) RequiresCoordinates() bool {
	return true
}

func (p *OpenUVProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	if !loc.HasCoordinates() {
		return weather.Reading{}, weather.ConfigurationGap(p.name, loc.City)
	}
	if p.apiKey == "" {
		return weather.Reading{}, weather.NetworkError(p.name, errNoAPIKey)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(*loc.Lat, 'f', 4, 64))
		values.Set("lng", strconv.FormatFloat(*loc.Lon, 'f', 4, 64))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-access-token", p.apiKey)
		return req, nil
	}

	resp, err := doRequest(ctx, p.name, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, err
	}

	var payload struct {
		Result *struct {
			UV     *float64 `json:"uv"`
			UVTime string   `json:"uv_time"`
		} `json:"result"`
	}

	if err := decodeJSON(p.name, resp, &payload); err != nil {
		return weather.Reading{}, err
	}
	if payload.Result == nil || payload.Result.UV == nil {
		return weather.Reading{}, missingField(p.name, "result.uv")
	}

	ts, err := time.Parse(time.RFC3339, payload.Result.UVTime)
	if err != nil {
		ts = p.now()
	}

	return weather.Reading{
		ProviderName: p.name,
		Metric:       weather.MetricUV,
		Timestamp:    ts.UTC(),
		Value:        *payload.Result.UV,
	}, nil
}
