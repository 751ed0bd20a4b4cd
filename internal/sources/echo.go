package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/terra/internal/models"
)

const (
	// EchoBaseURL is the EPA ECHO facility lookup endpoint.
	EchoBaseURL = "https://echo.epa.gov/api/rest_lookups.get_facility_info"

	unknownFacility = "Unknown Facility"
)

// EchoSource queries the EPA ECHO facility registry.
type EchoSource struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

// NewEchoSource creates an ECHO adapter. An empty baseURL selects EchoBaseURL.
func NewEchoSource(client HTTPClient, baseURL string, log *slog.Logger) *EchoSource {
	if baseURL == "" {
		baseURL = EchoBaseURL
	}

	return &EchoSource{client: client, baseURL: baseURL, log: log}
}

func (es *EchoSource) Name() string {
	return models.SourceEPAEcho
}

// Fetch asks ECHO for facilities within radiusMiles of center.
func (es *EchoSource) Fetch(
	ctx context.Context,
	center models.Coordinates,
	radiusMiles float64,
) ([]models.RawRecord, error) {
	query := url.Values{}
	query.Set("output", "JSON")
	query.Set("p_lat", strconv.FormatFloat(center.Latitude, 'f', -1, 64))
	query.Set("p_long", strconv.FormatFloat(center.Longitude, 'f', -1, 64))
	query.Set("p_radius", strconv.FormatFloat(radiusMiles, 'f', -1, 64))

	body, err := get(ctx, es.client, es.Name(), es.baseURL, query)
	if err != nil {
		return nil, err
	}

	records, err := parseEcho(body)
	if err != nil {
		return nil, err
	}

	es.log.DebugContext(ctx, "ECHO facilities parsed", "count", len(records))

	return records, nil
}

// parseEcho extracts facilities from an ECHO JSON document. Rows whose
// coordinates are missing, unparsable, out of range or (0,0) are skipped.
func parseEcho(body []byte) ([]models.RawRecord, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var doc struct {
		Results struct {
			Facilities   []map[string]any `json:"Facilities"`
			FacilityList []map[string]any `json:"FacilityList"`
		} `json:"Results"`
	}
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode ECHO response: %w", err)
	}

	rows := doc.Results.Facilities
	if len(rows) == 0 {
		rows = doc.Results.FacilityList
	}

	records := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		lat, ok := numberField(row, "Lat83", "FacLat")
		if !ok {
			continue
		}
		lon, ok := numberField(row, "Long83", "FacLong")
		if !ok {
			continue
		}
		location := models.Coordinates{Latitude: lat, Longitude: lon}
		if location.IsZero() || !location.Valid() {
			continue
		}

		records = append(records, models.RawRecord{
			Name:       stringField(row, unknownFacility, "FacName", "Name"),
			ExternalID: stringField(row, models.MissingID, "RegistryID", "FacId"),
			Location:   location,
			Source:     models.SourceEPAEcho,
		})
	}

	return records, nil
}

// lookup returns the first key present with a non-null value.
func lookup(row map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if value, ok := row[key]; ok && value != nil {
			return value, true
		}
	}

	return nil, false
}

// numberField reads a coordinate that may be encoded as a JSON number or a numeric string.
// A missing field counts as zero.
func numberField(row map[string]any, keys ...string) (float64, bool) {
	value, found := lookup(row, keys...)
	if !found {
		return 0, true
	}

	switch typed := value.(type) {
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringField(row map[string]any, fallback string, keys ...string) string {
	value, found := lookup(row, keys...)
	if !found {
		return fallback
	}

	switch typed := value.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}
