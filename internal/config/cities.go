package config

import "github.com/i474232898/outdoor-safety-index/internal/weather"

// DefaultCities is the tracked city list when CITIES is unset.
var DefaultCities = []string{
	"New York", "Los Angeles", "Chicago", "Houston", "Phoenix",
	"Philadelphia", "San Antonio", "San Diego", "Dallas", "Austin",
	"Jacksonville", "Fort Worth", "Columbus", "Charlotte", "Indianapolis",
	"San Francisco", "Seattle", "Denver", "Boston", "Nashville",
	"Detroit", "Portland", "Las Vegas", "Memphis", "Louisville",
}

var defaultCoordinates = map[string]weather.Coordinates{
	"New York":      {Lat: 40.7128, Lon: -74.0060},
	"Los Angeles":   {Lat: 34.0522, Lon: -118.2437},
	"Chicago":       {Lat: 41.8781, Lon: -87.6298},
	"Houston":       {Lat: 29.7604, Lon: -95.3698},
	"Phoenix":       {Lat: 33.4484, Lon: -112.0740},
	"Philadelphia":  {Lat: 39.9526, Lon: -75.1652},
	"San Antonio":   {Lat: 29.4241, Lon: -98.4936},
	"San Diego":     {Lat: 32.7157, Lon: -117.1611},
	"Dallas":        {Lat: 32.7767, Lon: -96.7970},
	"Austin":        {Lat: 30.2672, Lon: -97.7431},
	"Jacksonville":  {Lat: 30.3322, Lon: -81.6557},
	"Fort Worth":    {Lat: 32.7555, Lon: -97.3308},
	"Columbus":      {Lat: 39.9612, Lon: -82.9988},
	"Charlotte":     {Lat: 35.2271, Lon: -80.8431},
	"Indianapolis":  {Lat: 39.7684, Lon: -86.1581},
	"San Francisco": {Lat: 37.7749, Lon: -122.4194},
	"Seattle":       {Lat: 47.6062, Lon: -122.3321},
	"Denver":        {Lat: 39.7392, Lon: -104.9903},
	"Boston":        {Lat: 42.3601, Lon: -71.0589},
	"Nashville":     {Lat: 36.1627, Lon: -86.7816},
	"Detroit":       {Lat: 42.3314, Lon: -83.0458},
	"Portland":      {Lat: 45.5152, Lon: -122.6784},
	"Las Vegas":     {Lat: 36.1699, Lon: -115.1398},
	"Memphis":       {Lat: 35.1495, Lon: -90.0490},
	"Louisville":    {Lat: 38.2527, Lon: -85.7585},
}

// DefaultCoordinates returns a copy of the built-in coordinate table.
func DefaultCoordinates() map[string]weather.Coordinates {
	out := make(map[string]weather.Coordinates, len(defaultCoordinates))
	for k, v := range defaultCoordinates {
		out[k] = v
	}
	return out
}
