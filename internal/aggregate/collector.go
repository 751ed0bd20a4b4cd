// Package aggregate fans out to the environmental sources and merges their
// records into a ranked list of facilities.
package aggregate

import (
	"context"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/terra/internal/metrics"
	"github.com/UnknownOlympus/terra/internal/models"
	"github.com/UnknownOlympus/terra/internal/sources"
	"golang.org/x/sync/errgroup"
)

// DefaultSourceTimeout bounds a single source fetch.
const DefaultSourceTimeout = 30 * time.Second

// Collector queries every configured source concurrently.
// A failing source contributes no records and never fails the collection.
type Collector struct {
	log     *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	sources []sources.Source
}

// NewCollector creates a Collector. Records are concatenated in the order the sources are given.
func NewCollector(
	log *slog.Logger,
	metrics *metrics.Metrics,
	timeout time.Duration,
	srcs ...sources.Source,
) *Collector {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}

	return &Collector{
		log:     log,
		metrics: metrics,
		timeout: timeout,
		sources: srcs,
	}
}

// Collect fetches records around center from all sources and waits for each to finish.
func (c *Collector) Collect(ctx context.Context, center models.Coordinates, radiusMiles float64) []models.RawRecord {
	results := make([][]models.RawRecord, len(c.sources))

	g, gCtx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			results[i] = c.fetch(gCtx, src, center, radiusMiles)
			return nil
		})
	}
	_ = g.Wait()

	var total int
	for _, recs := range results {
		total += len(recs)
	}

	records := make([]models.RawRecord, 0, total)
	for _, recs := range results {
		records = append(records, recs...)
	}

	return records
}

func (c *Collector) fetch(
	ctx context.Context,
	src sources.Source,
	center models.Coordinates,
	radiusMiles float64,
) []models.RawRecord {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name := src.Name()
	start := time.Now()
	records, err := src.Fetch(fetchCtx, center, radiusMiles)
	c.metrics.SourceSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.SourceFailures.WithLabelValues(name).Inc()
		c.log.WarnContext(ctx, "Source fetch failed, continuing without it", "source", name, "error", err)
		return nil
	}

	c.metrics.SourceRecords.WithLabelValues(name).Add(float64(len(records)))
	c.log.DebugContext(ctx, "Source fetch completed", "source", name, "records", len(records))

	return records
}
