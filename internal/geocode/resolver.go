package geocode

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

var errNoAPIKey = errors.New("geocoder api key is not configured")

// LookupFunc turns a city name into coordinates.
type LookupFunc func(city string) (weather.Coordinates, error)

// Resolver fills coordinate gaps for coordinate-based providers using the
// Google geocoding API.
type Resolver struct {
	lookup LookupFunc
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by kelvins/geocoder. With an empty
// apiKey every lookup fails and Fill leaves the table unchanged.
func NewResolver(apiKey string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	lookup := func(string) (weather.Coordinates, error) {
		return weather.Coordinates{}, errNoAPIKey
	}
	if apiKey != "" {
		geocoder.ApiKey = apiKey
		lookup = googleLookup
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// NewResolverWithLookup is NewResolver with a custom lookup.
func NewResolverWithLookup(lookup LookupFunc, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{lookup: lookup, logger: logger}
}

func googleLookup(city string) (weather.Coordinates, error) {
	loc, err := geocoder.Geocoding(geocoder.Address{City: city})
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("geocode %s: %w", city, err)
	}
	return weather.Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}

// Fill looks up every city missing from coords and records the result in
// place. Lookup failures are logged and leave the city without coordinates.
// It returns the number of cities added.
func (r *Resolver) Fill(cities []string, coords map[string]weather.Coordinates) int {
	added := 0
	for _, city := range cities {
		city = strings.TrimSpace(city)
		if city == "" {
			continue
		}
		if _, ok := coords[city]; ok {
			continue
		}

		c, err := r.lookup(city)
		if err != nil {
			r.logger.Warn("geocoding failed; city stays without coordinates", "city", city, "error", err)
			continue
		}
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			r.logger.Warn("geocoding returned out-of-range coordinates", "city", city, "lat", c.Lat, "lon", c.Lon)
			continue
		}
		coords[city] = c
		added++
		r.logger.Info("geocoded city", "city", city, "lat", c.Lat, "lon", c.Lon)
	}
	return added
}
