package aggregate_test

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UnknownOlympus/terra/internal/aggregate"
	"github.com/UnknownOlympus/terra/internal/metrics"
	"github.com/UnknownOlympus/terra/internal/models"
	"github.com/UnknownOlympus/terra/internal/sources"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name    string
	records []models.RawRecord
	err     error
	block   bool
	calls   atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, _ models.Coordinates, _ float64) ([]models.RawRecord, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.records, s.err
}

var center = models.Coordinates{Latitude: 30.0, Longitude: -97.0}

func site(id string, lat, lon float64) models.RawRecord {
	return models.RawRecord{
		Name:       "Site " + id,
		ExternalID: id,
		Location:   models.Coordinates{Latitude: lat, Longitude: lon},
		Source:     models.SourceUSGS,
	}
}

func newCollector(t *testing.T, timeout time.Duration, srcs ...*stubSource) (*aggregate.Collector, *metrics.Metrics) {
	t.Helper()

	m := metrics.NewMetrics(prometheus.NewRegistry())
	list := make([]sources.Source, 0, len(srcs))
	for _, src := range srcs {
		list = append(list, src)
	}

	return aggregate.NewCollector(slog.Default(), m, timeout, list...), m
}

func TestCollector_Collect(t *testing.T) {
	t.Run("concatenates in source order", func(t *testing.T) {
		echo := &stubSource{name: models.SourceEPAEcho, records: []models.RawRecord{
			{Name: "Plant", ExternalID: "1", Source: models.SourceEPAEcho},
		}}
		usgs := &stubSource{name: models.SourceUSGS, records: []models.RawRecord{site("a", 1, 1), site("b", 2, 2)}}
		collector, m := newCollector(t, time.Second, echo, usgs)

		records := collector.Collect(t.Context(), center, 3)

		require.Len(t, records, 3)
		assert.Equal(t, models.SourceEPAEcho, records[0].Source)
		assert.Equal(t, "a", records[1].ExternalID)
		assert.Equal(t, "b", records[2].ExternalID)
		assert.InDelta(t, 2.0, testutil.ToFloat64(m.SourceRecords.WithLabelValues(models.SourceUSGS)), 1e-9)
		assert.Equal(t, 2, testutil.CollectAndCount(m.SourceSeconds))
	})

	t.Run("failed source degrades to empty", func(t *testing.T) {
		echo := &stubSource{name: models.SourceEPAEcho, err: errors.New("boom")}
		usgs := &stubSource{name: models.SourceUSGS, records: []models.RawRecord{site("a", 1, 1)}}
		collector, m := newCollector(t, time.Second, echo, usgs)

		records := collector.Collect(t.Context(), center, 3)

		require.Len(t, records, 1)
		assert.Equal(t, models.SourceUSGS, records[0].Source)
		assert.InDelta(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues(models.SourceEPAEcho)), 1e-9)
		assert.Zero(t, testutil.ToFloat64(m.SourceFailures.WithLabelValues(models.SourceUSGS)))
	})

	t.Run("slow source is cut off by timeout", func(t *testing.T) {
		echo := &stubSource{name: models.SourceEPAEcho, block: true}
		usgs := &stubSource{name: models.SourceUSGS, records: []models.RawRecord{
			site("a", 30.01, -97.0), site("b", 30.02, -97.0), site("c", 30.03, -97.0),
		}}
		collector, m := newCollector(t, 20*time.Millisecond, echo, usgs)

		start := time.Now()
		records := collector.Collect(t.Context(), center, 10)

		assert.Less(t, time.Since(start), 5*time.Second)
		facilities := aggregate.Merge(center, 10, records)
		require.Len(t, facilities, 3)
		for _, f := range facilities {
			assert.Equal(t, models.SourceUSGS, f.Source)
		}
		assert.InDelta(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues(models.SourceEPAEcho)), 1e-9)
	})

	t.Run("both sources fail", func(t *testing.T) {
		echo := &stubSource{name: models.SourceEPAEcho, err: errors.New("down")}
		usgs := &stubSource{name: models.SourceUSGS, err: errors.New("down")}
		collector, _ := newCollector(t, time.Second, echo, usgs)

		records := collector.Collect(t.Context(), center, 3)

		assert.Empty(t, records)
		assert.Equal(t, int32(1), echo.calls.Load())
		assert.Equal(t, int32(1), usgs.calls.Load())
	})
}

func TestMerge(t *testing.T) {
	t.Run("excludes records beyond radius", func(t *testing.T) {
		records := []models.RawRecord{
			site("far", 30.178, -97.0),
			site("near", 30.05, -97.0),
		}

		facilities := aggregate.Merge(center, 10, records)

		require.Len(t, facilities, 1)
		assert.Equal(t, "near", facilities[0].ExternalID)
		assert.InDelta(t, 3.45, facilities[0].DistanceMiles, 0.01)
		assert.Equal(t, "N", facilities[0].Direction)
	})

	t.Run("sorted by distance with direction", func(t *testing.T) {
		records := []models.RawRecord{
			site("south", 29.9, -97.0),
			site("north", 30.05, -97.0),
			site("east", 30.0, -96.95),
		}

		facilities := aggregate.Merge(center, 10, records)

		require.Len(t, facilities, 3)
		assert.Equal(t, "east", facilities[0].ExternalID)
		assert.Equal(t, "E", facilities[0].Direction)
		assert.Equal(t, "north", facilities[1].ExternalID)
		assert.Equal(t, "south", facilities[2].ExternalID)
		assert.Equal(t, "S", facilities[2].Direction)
		for i := 1; i < len(facilities); i++ {
			assert.LessOrEqual(t, facilities[i-1].DistanceMiles, facilities[i].DistanceMiles)
		}
	})

	t.Run("dedupes by id and source, first wins", func(t *testing.T) {
		first := site("dup", 30.01, -97.0)
		second := site("dup", 30.02, -97.0)
		second.Name = "Second"
		otherSource := site("dup", 30.03, -97.0)
		otherSource.Source = models.SourceEPAEcho

		facilities := aggregate.Merge(center, 10, []models.RawRecord{first, second, otherSource})

		require.Len(t, facilities, 2)
		assert.Equal(t, "Site dup", facilities[0].Name)
		assert.Equal(t, models.SourceEPAEcho, facilities[1].Source)
	})

	t.Run("records without id dedupe by name and location", func(t *testing.T) {
		a := models.RawRecord{Name: "Plant", ExternalID: models.MissingID, Source: models.SourceEPAEcho,
			Location: models.Coordinates{Latitude: 30.01, Longitude: -97.0}}
		sameSpot := a
		elsewhere := a
		elsewhere.Location.Latitude = 30.02

		facilities := aggregate.Merge(center, 10, []models.RawRecord{a, sameSpot, elsewhere})

		assert.Len(t, facilities, 2)
	})

	t.Run("dedupe happens before the radius filter", func(t *testing.T) {
		outside := site("x", 30.5, -97.0)
		inside := site("x", 30.01, -97.0)

		facilities := aggregate.Merge(center, 10, []models.RawRecord{outside, inside})

		assert.Empty(t, facilities)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		records := []models.RawRecord{site("one", 30.01, -97.0), site("two", 29.99, -97.0)}

		facilities := aggregate.Merge(center, 10, records)

		require.Len(t, facilities, 2)
		assert.InDelta(t, facilities[0].DistanceMiles, facilities[1].DistanceMiles, 1e-9)
		assert.Equal(t, "one", facilities[0].ExternalID)
		assert.Equal(t, "two", facilities[1].ExternalID)
	})

	t.Run("non-finite distances are dropped", func(t *testing.T) {
		records := []models.RawRecord{
			site("nan", math.NaN(), -97.0),
			site("inf", 30.0, math.Inf(1)),
			site("ok", 30.01, -97.0),
		}

		facilities := aggregate.Merge(center, 10, records)

		require.Len(t, facilities, 1)
		assert.Equal(t, "ok", facilities[0].ExternalID)
	})

	t.Run("no records", func(t *testing.T) {
		facilities := aggregate.Merge(center, 10, nil)

		assert.NotNil(t, facilities)
		assert.Empty(t, facilities)
	})
}
