package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCoordinate is returned for latitudes or longitudes
	// outside the WGS84 range.
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	// ErrInvalidInput is returned for locally recoverable input errors
	// such as a blank event code.
	ErrInvalidInput = errors.New("invalid input")
)

// Coordinate is a validated (latitude, longitude) pair. Immutable once
// attached to a marker.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: lat %v", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: lng %v", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%v, %v)", c.Lat, c.Lng)
}

// DefaultCenter is the fallback map center (Belfast) used when an event
// is created without coordinates.
var DefaultCenter = Coordinate{Lat: 54.5973, Lng: -5.9301}

// CanonicalEventKey upper-cases and trims an event code so that lookups
// are case-insensitive. Returns "" for blank input.
func CanonicalEventKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
