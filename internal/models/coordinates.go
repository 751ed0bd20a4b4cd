package models

import "math"

// Coordinates represents a geographical point defined by its latitude and longitude.
type Coordinates struct {
	Latitude  float64 // Latitude of the geographical point, in [-90, 90].
	Longitude float64 // Longitude of the geographical point, in [-180, 180].
}

// IsZero reports whether the point sits exactly on (0, 0). Providers use that value
// for "no location", so records carrying it are treated as missing.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// Valid reports whether both components are finite and inside the WGS84 ranges.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}

	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Place is the best match returned by a geocoding provider.
type Place struct {
	Coordinates
	DisplayName string // DisplayName is the provider's human-readable label for the match.
}

// GeocodeResult is the outcome of geocoding a single property address.
type GeocodeResult struct {
	OriginalAddress string      // OriginalAddress is the address as submitted (trimmed).
	CleanedAddress  string      // CleanedAddress is the address sent to the provider.
	Location        Coordinates // Location of the best match.
	DisplayName     string      // DisplayName is the provider label for the match.
}
