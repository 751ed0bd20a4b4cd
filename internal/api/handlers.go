package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/terra/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the geocode and report endpoints.
type Handler struct {
	log      *slog.Logger
	reporter Reporter
}

// Geocode cleans and geocodes a single address.
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	var req geocodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.reporter.Geocode(r.Context(), req.Address)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toGeocodeResponse(result))
}

// Report builds the environmental report around an address.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !h.decode(w, r, &req) {
		return
	}

	var radius float64
	if req.RadiusMiles != nil {
		radius = *req.RadiusMiles
		if radius <= 0 {
			h.writeError(w, r, http.StatusUnprocessableEntity, "radius_miles must be greater than 0")
			return
		}
	}

	report, err := h.reporter.BuildReport(r.Context(), req.Address, radius)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toReportResponse(report))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		h.writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}

	return true
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var msg string

	switch {
	case errors.Is(err, service.ErrBlankAddress):
		status, msg = http.StatusUnprocessableEntity, "Address must not be blank."
	case errors.Is(err, service.ErrInvalidRadius):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrEmptyAddressAfterNormalization):
		status, msg = http.StatusBadRequest, "Address became empty after removing unit/suite number."
	case errors.Is(err, service.ErrGeocodeNotFound):
		status, msg = http.StatusNotFound, "Address not found. Please check the address and try again."
	case errors.Is(err, service.ErrUpstreamTimeout):
		status, msg = http.StatusGatewayTimeout, "Geocoding service timed out. Please try again."
	case errors.Is(err, service.ErrUpstreamError):
		status, msg = http.StatusBadGateway, err.Error()
	case errors.Is(err, context.Canceled):
		// The client is gone; the status only shows up in the access log.
		status, msg = 499, "request canceled"
	default:
		status, msg = http.StatusInternalServerError, "internal server error"
	}

	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "status", status, "error", err)
	}

	h.writeError(w, r, status, msg)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.log.ErrorContext(r.Context(), "Failed to encode response", "method", r.Method, "path", r.URL.Path, "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(append(body, '\n')); err != nil {
		h.log.DebugContext(r.Context(), "Failed to write response", "path", r.URL.Path, "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, map[string]string{"error": msg})
}
