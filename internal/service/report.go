package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"strings"
	"time"

	"github.com/UnknownOlympus/terra/internal/address"
	"github.com/UnknownOlympus/terra/internal/aggregate"
	"github.com/UnknownOlympus/terra/internal/geocoding"
	"github.com/UnknownOlympus/terra/internal/metrics"
	"github.com/UnknownOlympus/terra/internal/models"
)

const (
	// DefaultRadiusMiles is used when a report request carries no radius.
	DefaultRadiusMiles = 3.0
	// MaxRadiusMiles is the largest radius a report may cover.
	MaxRadiusMiles = 50.0
	// DefaultGeocodeTimeout bounds a single geocoding call.
	DefaultGeocodeTimeout = 15 * time.Second
)

// Collector gathers raw records from the environmental sources.
type Collector interface {
	Collect(ctx context.Context, center models.Coordinates, radiusMiles float64) []models.RawRecord
}

// Settings tunes a ReportService. Zero values select the defaults.
type Settings struct {
	ProviderName   string        // Name of the provider for metrics labeling
	GeocodeTimeout time.Duration // Timeout of a single geocoding call
	DefaultRadius  float64       // Radius used when the caller passes zero
	MaxRadius      float64       // Upper bound for the radius
}

// ReportService geocodes addresses and assembles environmental reports around them.
type ReportService struct {
	log            *slog.Logger       // Logger for logging service activities
	provider       geocoding.Provider // Geocoding provider for external geocoding services
	providerName   string             // Name of the provider for metrics labeling
	collector      Collector          // Collector fanning out to the data sources
	metrics        *metrics.Metrics   // Metrics for tracking service performance
	geocodeTimeout time.Duration
	defaultRadius  float64
	maxRadius      float64
}

// NewReportService creates a new instance of ReportService.
func NewReportService(
	log *slog.Logger,
	provider geocoding.Provider,
	collector Collector,
	metrics *metrics.Metrics,
	settings Settings,
) *ReportService {
	if settings.GeocodeTimeout <= 0 {
		settings.GeocodeTimeout = DefaultGeocodeTimeout
	}
	if settings.MaxRadius <= 0 {
		settings.MaxRadius = MaxRadiusMiles
	}
	if settings.DefaultRadius <= 0 || settings.DefaultRadius > settings.MaxRadius {
		settings.DefaultRadius = math.Min(DefaultRadiusMiles, settings.MaxRadius)
	}

	return &ReportService{
		log:            log,
		provider:       provider,
		providerName:   settings.ProviderName,
		collector:      collector,
		metrics:        metrics,
		geocodeTimeout: settings.GeocodeTimeout,
		defaultRadius:  settings.DefaultRadius,
		maxRadius:      settings.MaxRadius,
	}
}

// Geocode validates and cleans the raw address and resolves it to coordinates.
func (rs *ReportService) Geocode(ctx context.Context, rawAddress string) (*models.GeocodeResult, error) {
	original := strings.TrimSpace(rawAddress)
	if original == "" {
		return nil, ErrBlankAddress
	}

	cleaned, err := address.Normalize(original)
	if err != nil {
		return nil, err
	}

	geoCtx, cancel := context.WithTimeout(ctx, rs.geocodeTimeout)
	defer cancel()

	rs.log.DebugContext(ctx, "Geocoding address", "original", original, "cleaned", cleaned)

	startTime := time.Now()
	place, err := rs.provider.Geocode(geoCtx, cleaned)
	rs.metrics.GeocodeSeconds.WithLabelValues(rs.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		err = classifyGeocodeError(ctx, err)
		rs.metrics.GeocodeRequests.WithLabelValues(geocodeStatus(err)).Inc()
		rs.log.WarnContext(ctx, "Failed to geocode", "address", cleaned, "error", err)
		return nil, err
	}

	rs.metrics.GeocodeRequests.WithLabelValues("success").Inc()

	return &models.GeocodeResult{
		OriginalAddress: original,
		CleanedAddress:  cleaned,
		Location:        place.Coordinates,
		DisplayName:     place.DisplayName,
	}, nil
}

// BuildReport geocodes the address and lists the facilities found within radiusMiles of it.
// A zero radius selects the default. Source failures reduce the findings but never fail the report.
func (rs *ReportService) BuildReport(
	ctx context.Context,
	rawAddress string,
	radiusMiles float64,
) (*models.Report, error) {
	radius, err := rs.resolveRadius(radiusMiles)
	if err != nil {
		return nil, err
	}

	rs.metrics.ReportsInFlight.Inc()
	defer rs.metrics.ReportsInFlight.Dec()

	geo, err := rs.Geocode(ctx, rawAddress)
	if err != nil {
		rs.metrics.Reports.WithLabelValues("failure").Inc()
		return nil, err
	}

	records := rs.collector.Collect(ctx, geo.Location, radius)
	if err = ctx.Err(); err != nil {
		rs.metrics.Reports.WithLabelValues("aborted").Inc()
		return nil, fmt.Errorf("report aborted: %w", err)
	}

	facilities := aggregate.Merge(geo.Location, radius, records)

	rs.metrics.Reports.WithLabelValues("success").Inc()
	rs.log.InfoContext(
		ctx,
		"Report built",
		"address", geo.CleanedAddress,
		"radius", radius,
		"raw_records", len(records),
		"findings", len(facilities),
	)

	return &models.Report{
		QueryAddress:  geo.CleanedAddress,
		Center:        geo.Location,
		RadiusMiles:   radius,
		TotalFindings: len(facilities),
		Facilities:    facilities,
	}, nil
}

func (rs *ReportService) resolveRadius(radiusMiles float64) (float64, error) {
	if radiusMiles == 0 {
		return rs.defaultRadius, nil
	}
	if math.IsNaN(radiusMiles) || radiusMiles < 0 || radiusMiles > rs.maxRadius {
		return 0, fmt.Errorf("%w: %g must be greater than 0 and at most %g", ErrInvalidRadius, radiusMiles, rs.maxRadius)
	}

	return radiusMiles, nil
}

// classifyGeocodeError maps a provider failure onto the service error taxonomy.
// Cancellation by the caller is returned as is.
func classifyGeocodeError(ctx context.Context, err error) error {
	if errors.Is(err, geocoding.ErrNoMatch) {
		return ErrGeocodeNotFound
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrUpstreamError, err)
}

func geocodeStatus(err error) string {
	switch {
	case errors.Is(err, ErrGeocodeNotFound):
		return "not_found"
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
