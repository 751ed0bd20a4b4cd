package api

import "github.com/UnknownOlympus/terra/internal/models"

type geocodeRequest struct {
	Address string `json:"address"`
}

type geocodeResponse struct {
	OriginalAddress string  `json:"original_address"`
	CleanedAddress  string  `json:"cleaned_address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	DisplayName     string  `json:"display_name"`
}

type reportRequest struct {
	Address string `json:"address"`
	// RadiusMiles is optional; nil selects the default radius.
	RadiusMiles *float64 `json:"radius_miles"`
}

type facilityResponse struct {
	Name          string  `json:"name"`
	RegistryID    string  `json:"registry_id"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	DistanceMiles float64 `json:"distance_miles"`
	Direction     string  `json:"direction"`
	Source        string  `json:"source"`
}

type reportResponse struct {
	Address       string             `json:"address"`
	Latitude      float64            `json:"latitude"`
	Longitude     float64            `json:"longitude"`
	RadiusMiles   float64            `json:"radius_miles"`
	TotalFindings int                `json:"total_findings"`
	Facilities    []facilityResponse `json:"facilities"`
}

func toGeocodeResponse(result *models.GeocodeResult) geocodeResponse {
	return geocodeResponse{
		OriginalAddress: result.OriginalAddress,
		CleanedAddress:  result.CleanedAddress,
		Latitude:        result.Location.Latitude,
		Longitude:       result.Location.Longitude,
		DisplayName:     result.DisplayName,
	}
}

func toReportResponse(report *models.Report) reportResponse {
	facilities := make([]facilityResponse, 0, len(report.Facilities))
	for _, f := range report.Facilities {
		facilities = append(facilities, facilityResponse{
			Name:          f.Name,
			RegistryID:    f.ExternalID,
			Latitude:      f.Location.Latitude,
			Longitude:     f.Location.Longitude,
			DistanceMiles: f.DistanceMiles,
			Direction:     f.Direction,
			Source:        f.Source,
		})
	}

	return reportResponse{
		Address:       report.QueryAddress,
		Latitude:      report.Center.Latitude,
		Longitude:     report.Center.Longitude,
		RadiusMiles:   report.RadiusMiles,
		TotalFindings: report.TotalFindings,
		Facilities:    facilities,
	}
}
