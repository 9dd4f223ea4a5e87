package models

import "time"

// DefaultTimezone is used when an event is created without one, or with
// one the IANA database does not know.
const DefaultTimezone = "Europe/London"

// EventRecord is the persisted event document. Created once, never
// mutated. Field names are the wire contract shared with existing
// stored data; do not rename.
type EventRecord struct {
	ID        string    `json:"id"        bson:"_id,omitempty"`
	Code      string    `json:"eventCode" bson:"eventCode"`
	Latitude  float64   `json:"latitude"  bson:"latitude"`
	Longitude float64   `json:"longitude" bson:"longitude"`
	Timezone  string    `json:"timeZone"  bson:"timeZone"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Center returns the event's map center.
func (e EventRecord) Center() Coordinate {
	return Coordinate{Lat: e.Latitude, Lng: e.Longitude}
}
