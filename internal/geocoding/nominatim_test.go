package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/UnknownOlympus/terra/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respondWith(status int, body string) *mockHTTPClient {
	return &mockHTTPClient{
		doFunc: func(_ *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(bytes.NewBufferString(body)),
			}, nil
		},
	}
}

func newNominatim(client geocoding.HTTPClient) *geocoding.NominatimProvider {
	return geocoding.NewNominatimProvider(client, slog.Default(),
		geocoding.WithNominatimLimiter(rate.NewLimiter(rate.Inf, 0)))
}

func TestNominatimProvider_Geocode(t *testing.T) {
	ctx := t.Context()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org")
				assert.Equal(t, "1600 Pennsylvania Ave NW, Washington, DC", req.URL.Query().Get("q"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Equal(t, geocoding.DefaultUserAgent, req.Header.Get("User-Agent"))

				responseBody := `[{"lat":"38.8976633","lon":"-77.0365739","display_name":"White House, Washington, DC"}]`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		place, err := newNominatim(mockClient).Geocode(ctx, "1600 Pennsylvania Ave NW, Washington, DC")

		require.NoError(t, err)
		require.NotNil(t, place)
		assert.InEpsilon(t, 38.8976633, place.Latitude, 0.0001)
		assert.InEpsilon(t, -77.0365739, place.Longitude, 0.0001)
		assert.Equal(t, "White House, Washington, DC", place.DisplayName)
	})

	t.Run("custom base URL and user agent", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "geo.internal", req.URL.Host)
				assert.Equal(t, "terra-test/0.1", req.Header.Get("User-Agent"))
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`[{"lat":"1.5","lon":"2.5"}]`)),
				}, nil
			},
		}
		provider := geocoding.NewNominatimProvider(mockClient, slog.Default(),
			geocoding.WithNominatimBaseURL("http://geo.internal/search"),
			geocoding.WithNominatimUserAgent("terra-test/0.1"),
			geocoding.WithNominatimLimiter(rate.NewLimiter(rate.Inf, 0)),
		)

		place, err := provider.Geocode(ctx, "somewhere")

		require.NoError(t, err)
		assert.InEpsilon(t, 1.5, place.Latitude, 0.0001)
		assert.Empty(t, place.DisplayName)
	})

	t.Run("empty response from API", func(t *testing.T) {
		place, err := newNominatim(respondWith(http.StatusOK, `[]`)).Geocode(ctx, "invalid address")

		require.Nil(t, place)
		require.ErrorIs(t, err, geocoding.ErrNoMatch)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		place, err := newNominatim(respondWith(http.StatusTooManyRequests, `{"error":"Rate limit exceeded"}`)).
			Geocode(ctx, "some address")

		require.Nil(t, place)
		var statusErr *geocoding.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
		assert.Contains(t, err.Error(), "nominatim API returned status 429")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		place, err := newNominatim(respondWith(http.StatusOK, `invalid json`)).Geocode(ctx, "some address")

		require.Nil(t, place)
		assert.ErrorContains(t, err, "failed to decode nominatim response")
	})

	t.Run("invalid latitude in response", func(t *testing.T) {
		place, err := newNominatim(respondWith(http.StatusOK, `[{"lat":"invalid","lon":"-122.08"}]`)).
			Geocode(ctx, "some address")

		require.Nil(t, place)
		require.ErrorIs(t, err, geocoding.ErrInvalidCoords)
		assert.Contains(t, err.Error(), "invalid latitude")
	})

	t.Run("invalid longitude in response", func(t *testing.T) {
		place, err := newNominatim(respondWith(http.StatusOK, `[{"lat":"37.42","lon":"invalid"}]`)).
			Geocode(ctx, "some address")

		require.Nil(t, place)
		require.ErrorIs(t, err, geocoding.ErrInvalidCoords)
		assert.Contains(t, err.Error(), "invalid longitude")
	})

	t.Run("HTTP client returns error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		place, err := newNominatim(mockClient).Geocode(ctx, "some address")

		require.Nil(t, place)
		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to execute geocoding request")
	})

	t.Run("empty address", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("HTTP client should not be called for an empty address")
				return nil, nil
			},
		}

		place, err := newNominatim(mockClient).Geocode(ctx, "   ")

		require.Nil(t, place)
		require.ErrorIs(t, err, geocoding.ErrEmptyAddress)
	})

	t.Run("exhausted limiter reports the deadline", func(t *testing.T) {
		calls := 0
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				calls++
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`[{"lat":"1","lon":"2"}]`)),
				}, nil
			},
		}
		provider := geocoding.NewNominatimProvider(mockClient, slog.Default(),
			geocoding.WithNominatimLimiter(rate.NewLimiter(rate.Every(time.Minute), 1)))

		_, err := provider.Geocode(ctx, "first")
		require.NoError(t, err)

		deadlineCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		place, err := provider.Geocode(deadlineCtx, "second")

		require.Nil(t, place)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, calls)
	})

	t.Run("out of range coordinates", func(t *testing.T) {
		place, err := newNominatim(respondWith(http.StatusOK, `[{"lat":"NaN","lon":"-77.0"}]`)).
			Geocode(ctx, "some address")

		require.Nil(t, place)
		require.ErrorIs(t, err, geocoding.ErrInvalidCoords)
	})

	t.Run("rate limiter respects cancellation", func(t *testing.T) {
		rateCtx, cancel := context.WithCancel(context.Background())
		cancel()
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("HTTP client should not be called when rate limit blocks")
				return nil, nil
			},
		}
		provider := geocoding.NewNominatimProvider(mockClient, slog.Default(),
			geocoding.WithNominatimLimiter(rate.NewLimiter(rate.Every(time.Second), 1)))

		place, err := provider.Geocode(rateCtx, "some address")

		require.Nil(t, place)
		assert.ErrorContains(t, err, "rate limit wait")
	})
}
