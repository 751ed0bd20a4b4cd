// Package sources contains adapters for the environmental data providers.
// Each adapter translates one provider's response shape into models.RawRecord.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/UnknownOlympus/terra/internal/models"
)

// Source fetches records located near a point.
type Source interface {
	// Name returns the label used for logging and metrics.
	Name() string
	// Fetch returns records around center. Implementations may return records
	// outside radiusMiles; callers apply the authoritative distance filter.
	Fetch(ctx context.Context, center models.Coordinates, radiusMiles float64) ([]models.RawRecord, error)
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-200 answer from a data source.
type StatusError struct {
	Source     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Source, e.StatusCode)
}

// get performs a GET request with the given query and returns the response body.
func get(ctx context.Context, client HTTPClient, source, baseURL string, query url.Values) ([]byte, error) {
	reqURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s request: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Source: source, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", source, err)
	}

	return body, nil
}
