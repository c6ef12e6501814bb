package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationGap is returned when a coordinate-based provider is asked
	// about a city with no registered coordinates.
	ErrConfigurationGap = errors.New("no coordinates registered for city")
	// ErrNoProvider is returned when a run is requested for a metric with no provider.
	ErrNoProvider = errors.New("no provider configured for metric")
	// ErrEmptyCityName is returned when resolving a blank city name.
	ErrEmptyCityName = errors.New("city name must not be empty")
)

// FetchErrorKind classifies provider failures.
type FetchErrorKind int

const (
	KindNetwork FetchErrorKind = iota + 1
	KindMalformed
	KindConfigurationGap
)

func (k FetchErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed_response"
	case KindConfigurationGap:
		return "configuration_gap"
	default:
		return "unknown"
	}
}

// FetchError is the failure half of a provider fetch. Every kind is
// recoverable: the run logs it and moves on to the next city.
type FetchError struct {
	Provider string
	Kind     FetchErrorKind
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NetworkError wraps connection failures, timeouts and non-2xx statuses.
func NetworkError(provider string, err error) *FetchError {
	return &FetchError{Provider: provider, Kind: KindNetwork, Err: err}
}

// MalformedResponse wraps undecodable payloads and missing fields.
func MalformedResponse(provider string, err error) *FetchError {
	return &FetchError{Provider: provider, Kind: KindMalformed, Err: err}
}

// ConfigurationGap reports a city that a coordinate-based provider cannot
// serve. It wraps ErrConfigurationGap.
func ConfigurationGap(provider, city string) *FetchError {
	return &FetchError{Provider: provider, Kind: KindConfigurationGap, Err: fmt.Errorf("%s: %w", city, ErrConfigurationGap)}
}

// StorageError marks a persistence failure. It aborts the current run.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err is or wraps a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
