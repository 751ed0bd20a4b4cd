// Package geomath holds the spherical helpers used to rank findings around a point.
package geomath

import (
	"math"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/terra/internal/models"
)

const (
	// EarthRadiusMiles is the mean Earth radius used by the haversine formula.
	EarthRadiusMiles = 3958.8
	// MilesPerDegreeLat approximates the length of one degree of latitude.
	MilesPerDegreeLat = 69.0

	poleEpsilon = 1e-6
)

var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Distance returns the great-circle distance in miles between two points,
// rounded to 2 decimal places.
func Distance(from, to models.Coordinates) float64 {
	lat1 := toRadians(from.Latitude)
	lat2 := toRadians(to.Latitude)
	dLat := toRadians(to.Latitude - from.Latitude)
	dLon := toRadians(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return round(EarthRadiusMiles*c, 2)
}

// Bearing returns the 8-point compass direction from one point to another.
// The azimuth is taken on the plain lat/lon deltas (0 = North, clockwise) and
// bucketed into 45 degree sectors; exact sector boundaries round half up, so 22.5
// degrees is "NE". Coincident points yield "N" since atan2(0, 0) is 0.
func Bearing(from, to models.Coordinates) string {
	dLat := to.Latitude - from.Latitude
	dLon := to.Longitude - from.Longitude

	angle := toDegrees(math.Atan2(dLon, dLat))
	angle = math.Mod(angle+360, 360)

	idx := int(math.Round(angle/45)) % len(compassPoints)

	return compassPoints[idx]
}

// BBox is a west/south/east/north rectangle in decimal degrees.
type BBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// String formats the box as "west,south,east,north".
func (b BBox) String() string {
	parts := []string{
		strconv.FormatFloat(b.West, 'f', -1, 64),
		strconv.FormatFloat(b.South, 'f', -1, 64),
		strconv.FormatFloat(b.East, 'f', -1, 64),
		strconv.FormatFloat(b.North, 'f', -1, 64),
	}

	return strings.Join(parts, ",")
}

// BoundingBox approximates a circle of radiusMiles around center with a lat/lon box.
// Longitude spacing shrinks with cos(latitude); near the poles the box spans every
// longitude. Edges are clamped to valid ranges and rounded to 6 decimal places.
func BoundingBox(center models.Coordinates, radiusMiles float64) BBox {
	latDelta := radiusMiles / MilesPerDegreeLat

	lonDelta := 180.0
	if cosLat := math.Cos(toRadians(center.Latitude)); cosLat > poleEpsilon {
		lonDelta = radiusMiles / (MilesPerDegreeLat * cosLat)
	}

	return BBox{
		West:  round(math.Max(center.Longitude-lonDelta, -180), 6),
		South: round(math.Max(center.Latitude-latDelta, -90), 6),
		East:  round(math.Min(center.Longitude+lonDelta, 180), 6),
		North: round(math.Min(center.Latitude+latDelta, 90), 6),
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
