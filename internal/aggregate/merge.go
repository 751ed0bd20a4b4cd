package aggregate

import (
	"sort"

	"github.com/UnknownOlympus/terra/internal/geomath"
	"github.com/UnknownOlympus/terra/internal/models"
)

type dedupeKey struct {
	externalID string
	name       string
	latitude   float64
	longitude  float64
	source     string
}

func keyOf(rec models.RawRecord) dedupeKey {
	if rec.HasExternalID() {
		return dedupeKey{externalID: rec.ExternalID, source: rec.Source}
	}

	return dedupeKey{
		name:      rec.Name,
		latitude:  rec.Location.Latitude,
		longitude: rec.Location.Longitude,
		source:    rec.Source,
	}
}

// Merge turns raw records into facilities around center.
// Duplicates are dropped first (first occurrence wins), then every facility farther
// than radiusMiles is discarded. The result is sorted by distance; ties keep input order.
func Merge(center models.Coordinates, radiusMiles float64, records []models.RawRecord) []models.Facility {
	seen := make(map[dedupeKey]struct{}, len(records))
	facilities := make([]models.Facility, 0, len(records))

	for _, rec := range records {
		key := keyOf(rec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		distance := geomath.Distance(center, rec.Location)
		// NaN distances fail the comparison and are dropped too.
		if !(distance <= radiusMiles) {
			continue
		}

		facilities = append(facilities, models.Facility{
			Name:          rec.Name,
			ExternalID:    rec.ExternalID,
			Location:      rec.Location,
			DistanceMiles: distance,
			Direction:     geomath.Bearing(center, rec.Location),
			Source:        rec.Source,
		})
	}

	sort.SliceStable(facilities, func(i, j int) bool {
		return facilities[i].DistanceMiles < facilities[j].DistanceMiles
	})

	return facilities
}
