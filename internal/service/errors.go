package service

import (
	"errors"

	"github.com/UnknownOlympus/terra/internal/address"
)

var (
	// ErrBlankAddress is returned when the input address is empty or whitespace.
	ErrBlankAddress = errors.New("address must not be blank")
	// ErrEmptyAddressAfterNormalization is returned when unit removal leaves nothing to geocode.
	ErrEmptyAddressAfterNormalization = address.ErrEmptyAfterNormalization
	// ErrInvalidRadius is returned for a radius outside (0, max].
	ErrInvalidRadius = errors.New("invalid radius")
	// ErrGeocodeNotFound is returned when the provider finds no match for the address.
	ErrGeocodeNotFound = errors.New("address could not be geocoded")
	// ErrUpstreamTimeout is returned when the geocoding provider does not answer in time.
	ErrUpstreamTimeout = errors.New("geocoding service timed out")
	// ErrUpstreamError is returned for any other geocoding provider failure.
	ErrUpstreamError = errors.New("geocoding service error")
)
