package models

// Source tags identify which provider a record came from.
const (
	SourceEPAEcho = "EPA_ECHO"
	SourceUSGS    = "USGS"
)

// MissingID is the sentinel used when a provider record carries no identifier.
const MissingID = "N/A"

// RawRecord is a facility or site as normalized by a source adapter, before ranking.
type RawRecord struct {
	Name       string
	ExternalID string
	Location   Coordinates
	Source     string
}

// HasExternalID reports whether the record carries a usable provider identifier.
func (r RawRecord) HasExternalID() bool {
	return r.ExternalID != "" && r.ExternalID != MissingID
}

// Facility is a ranked finding within a report.
type Facility struct {
	Name          string
	ExternalID    string
	Location      Coordinates
	DistanceMiles float64 // DistanceMiles from the report center, rounded to 2 decimals.
	Direction     string  // Direction is the 8-point compass heading from the report center.
	Source        string
}

// Report is the ranked, deduplicated list of facilities around a geocoded address.
type Report struct {
	QueryAddress  string
	Center        Coordinates
	RadiusMiles   float64
	TotalFindings int
	Facilities    []Facility // Facilities sorted ascending by DistanceMiles.
}
