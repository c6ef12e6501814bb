package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
	errNoAPIKey     = errors.New("api key is not configured")
	errMissingField = errors.New("missing field in response")
)

const maxBodyPreview = 256

// newCircuitBreaker returns the breaker shared by all calls to one provider.
// After five consecutive upstream failures the provider is short-circuited
// for two minutes. Only transport errors, 429 and 5xx count; a 4xx answer
// about one city says nothing about the health of the provider.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errUnexpected)
		},
	})
}

// doRequest executes one request through the circuit breaker. Every failure
// comes back as a network-kind *weather.FetchError; there are no retries.
func doRequest(
	ctx context.Context,
	provider string,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, weather.NetworkError(provider, errNoHTTPClient)
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, weather.NetworkError(provider, err)
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			defer resp.Body.Close()
			preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyPreview))
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			default:
				return nil, fmt.Errorf("%w: %d: %s", errUnexpected, resp.StatusCode, preview)
			}
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, weather.NetworkError(provider, fmt.Errorf("%w: %v", errCircuitOpen, err))
		}
		return nil, weather.NetworkError(provider, err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, weather.NetworkError(provider, fmt.Errorf("unexpected result type from circuit breaker"))
	}
	return resp, nil
}

// decodeJSON decodes the response body into v; decode failures are malformed
// responses.
func decodeJSON(provider string, resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return weather.MalformedResponse(provider, fmt.Errorf("decode body: %w", err))
	}
	return nil
}

func missingField(provider, path string) error {
	return weather.MalformedResponse(provider, fmt.Errorf("%w: %s", errMissingField, path))
}

// unixOrNow converts a provider epoch to UTC, falling back to now when absent.
func unixOrNow(sec int64, now func() time.Time) time.Time {
	if sec <= 0 {
		return now().UTC()
	}
	return time.Unix(sec, 0).UTC()
}
