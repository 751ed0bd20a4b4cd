package sources

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/terra/internal/geomath"
	"github.com/UnknownOlympus/terra/internal/models"
)

// USGSBaseURL is the USGS Water Services site endpoint.
const USGSBaseURL = "https://waterservices.usgs.gov/nwis/site/"

const (
	// minSiteFields is the fewest columns a usable data row may have.
	minSiteFields = 5
	// maxLineBytes caps a single RDB line.
	maxLineBytes = 1 << 20
)

// dataTypeCode matches the column descriptors of the RDB format, e.g. "5s" or "16d".
var dataTypeCode = regexp.MustCompile(`^\d+[sdna]$`)

// USGSSource queries USGS Water Services for active monitoring sites.
type USGSSource struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

// NewUSGSSource creates a USGS adapter. An empty baseURL selects USGSBaseURL.
func NewUSGSSource(client HTTPClient, baseURL string, log *slog.Logger) *USGSSource {
	if baseURL == "" {
		baseURL = USGSBaseURL
	}

	return &USGSSource{client: client, baseURL: baseURL, log: log}
}

func (us *USGSSource) Name() string {
	return models.SourceUSGS
}

// Fetch asks USGS for active sites with instantaneous data inside the bounding box
// that encloses the search circle.
func (us *USGSSource) Fetch(
	ctx context.Context,
	center models.Coordinates,
	radiusMiles float64,
) ([]models.RawRecord, error) {
	query := url.Values{}
	query.Set("format", "rdb")
	query.Set("bBox", geomath.BoundingBox(center, radiusMiles).String())
	query.Set("siteStatus", "active")
	query.Set("hasDataTypeCd", "iv")

	body, err := get(ctx, us.client, us.Name(), us.baseURL, query)
	if err != nil {
		return nil, err
	}

	records, err := parseRDB(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	us.log.DebugContext(ctx, "USGS sites parsed", "count", len(records))

	return records, nil
}

// parseRDB reads the tab-delimited RDB format. Comment lines and the header row
// are skipped, as is the column descriptor row that follows the header.
// Fields are split on tabs only; RDB has no quoting.
func parseRDB(r io.Reader) ([]models.RawRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []models.RawRecord
	headerSeen := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		if !headerSeen {
			headerSeen = true
			continue
		}

		parts := strings.Split(line, "\t")
		if isDataTypeRow(parts) || len(parts) < minSiteFields {
			continue
		}

		record, ok := siteRecord(parts)
		if !ok {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read USGS response: %w", err)
	}

	return records, nil
}

func isDataTypeRow(parts []string) bool {
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" && !dataTypeCode.MatchString(part) {
			return false
		}
	}

	return true
}

// siteRecord converts one data row. The longitude column may be absent.
func siteRecord(parts []string) (models.RawRecord, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
	if err != nil {
		return models.RawRecord{}, false
	}

	var lon float64
	if len(parts) > 5 {
		lon, err = strconv.ParseFloat(strings.TrimSpace(parts[5]), 64)
		if err != nil {
			return models.RawRecord{}, false
		}
	}

	location := models.Coordinates{Latitude: lat, Longitude: lon}
	if location.IsZero() || !location.Valid() {
		return models.RawRecord{}, false
	}

	return models.RawRecord{
		Name:       strings.TrimSpace(parts[2]),
		ExternalID: strings.TrimSpace(parts[1]),
		Location:   location,
		Source:     models.SourceUSGS,
	}, true
}
