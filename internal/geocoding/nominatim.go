package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/terra/internal/models"
	"golang.org/x/time/rate"
)

const (
	// NominatimBaseURL is the public OpenStreetMap search endpoint.
	NominatimBaseURL = "https://nominatim.openstreetmap.org/search"
	// DefaultUserAgent identifies the service to providers that require it.
	DefaultUserAgent = "Terra-Property-Report/1.0 (https://github.com/UnknownOlympus/terra)"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Nominatim search API
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Limiter pacing outgoing requests
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// nominatimResponse represents one entry of the JSON array returned by Nominatim.
type nominatimResponse struct {
	Lat         string `json:"lat"`          // Latitude as string
	Lon         string `json:"lon"`          // Longitude as string
	DisplayName string `json:"display_name"` // Human-readable label
}

// NominatimOption customizes a NominatimProvider.
type NominatimOption func(*NominatimProvider)

// WithNominatimBaseURL points the provider at a self-hosted or mirror instance.
func WithNominatimBaseURL(baseURL string) NominatimOption {
	return func(np *NominatimProvider) {
		if baseURL != "" {
			np.baseURL = baseURL
		}
	}
}

// WithNominatimUserAgent overrides the User-Agent sent with every request.
func WithNominatimUserAgent(userAgent string) NominatimOption {
	return func(np *NominatimProvider) {
		if userAgent != "" {
			np.userAgent = userAgent
		}
	}
}

// WithNominatimLimiter replaces the default request limiter.
func WithNominatimLimiter(limiter *rate.Limiter) NominatimOption {
	return func(np *NominatimProvider) {
		if limiter != nil {
			np.limiter = limiter
		}
	}
}

// NewNominatimProvider creates a Nominatim provider on top of the given HTTP client.
// By default it targets the public endpoint and allows one request per second.
func NewNominatimProvider(client HTTPClient, log *slog.Logger, opts ...NominatimOption) *NominatimProvider {
	np := &NominatimProvider{
		client:    client,
		baseURL:   NominatimBaseURL,
		log:       log,
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(np)
	}

	return np
}

// Geocode resolves an address to its best match using the Nominatim API.
// Only the first result is used. A successful answer with no results yields ErrNoMatch.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Place, error) {
	if strings.TrimSpace(address) == "" {
		return nil, ErrEmptyAddress
	}

	if err := np.limiter.Wait(ctx); err != nil {
		// Wait fails early when the next slot lies past the deadline; report that as the deadline.
		if _, hasDeadline := ctx.Deadline(); hasDeadline && ctx.Err() == nil {
			return nil, fmt.Errorf("rate limit wait: %w", context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1") // Only need the top result
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers per Nominatim usage policy
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, &StatusError{Provider: "nominatim", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoMatch
	}

	hit := results[0]
	np.log.DebugContext(ctx, "Nominatim found result", "lat", hit.Lat, "lon", hit.Lon, "name", hit.DisplayName)

	lat, err := strconv.ParseFloat(hit.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrInvalidCoords, hit.Lat)
	}
	lon, err := strconv.ParseFloat(hit.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrInvalidCoords, hit.Lon)
	}

	coords := models.Coordinates{Latitude: lat, Longitude: lon}
	if !coords.Valid() {
		return nil, fmt.Errorf("%w: out of range: %s,%s", ErrInvalidCoords, hit.Lat, hit.Lon)
	}

	return &models.Place{
		Coordinates: coords,
		DisplayName: hit.DisplayName,
	}, nil
}
