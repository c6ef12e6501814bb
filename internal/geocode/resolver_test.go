package geocode

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

func TestFill(t *testing.T) {
	var looked []string
	lookup := func(city string) (weather.Coordinates, error) {
		looked = append(looked, city)
		switch city {
		case "Reno":
			return weather.Coordinates{Lat: 39.5296, Lon: -119.8138}, nil
		case "Bogus":
			return weather.Coordinates{Lat: 200, Lon: 0}, nil
		default:
			return weather.Coordinates{}, errors.New("ZERO_RESULTS")
		}
	}
	r := NewResolverWithLookup(lookup, slog.New(slog.NewTextHandler(io.Discard, nil)))

	coords := map[string]weather.Coordinates{"Denver": {Lat: 39.7392, Lon: -104.9903}}
	added := r.Fill([]string{"Denver", "Reno", "Atlantis", "Bogus", " "}, coords)

	if added != 1 {
		t.Fatalf("added: got %d, want 1", added)
	}
	if _, ok := coords["Reno"]; !ok {
		t.Fatalf("Reno should be geocoded")
	}
	if _, ok := coords["Atlantis"]; ok {
		t.Fatalf("failed lookup must not add coordinates")
	}
	if _, ok := coords["Bogus"]; ok {
		t.Fatalf("out-of-range coordinates must be rejected")
	}
	if len(looked) != 3 {
		t.Fatalf("known cities must not be looked up, got %v", looked)
	}
}

func TestNewResolverWithoutKey(t *testing.T) {
	r := NewResolver("", slog.New(slog.NewTextHandler(io.Discard, nil)))

	coords := map[string]weather.Coordinates{}
	if added := r.Fill([]string{"Reno"}, coords); added != 0 || len(coords) != 0 {
		t.Fatalf("no lookups expected without key: added=%d coords=%v", added, coords)
	}
}
