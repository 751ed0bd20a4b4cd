package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/UnknownOlympus/terra/internal/models"
)

// Provider is an interface that defines a method for geocoding an address.
// The Geocode method takes a context and a cleaned address string as input,
// and returns the best-matching place or an error.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Place, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Common provider errors.
var (
	// ErrNoMatch is returned when the provider answers successfully but finds nothing.
	ErrNoMatch = errors.New("geocoding provider returned no matches")
	// ErrInvalidCoords is returned when the provider answers with coordinates that cannot be parsed.
	ErrInvalidCoords = errors.New("geocoding provider returned invalid coordinates")
	// ErrEmptyAddress is returned when an empty query reaches a provider.
	ErrEmptyAddress = errors.New("geocoding provider got empty address")
)

// StatusError reports a non-200 answer from a geocoding API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}
