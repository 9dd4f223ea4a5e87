package models

import "time"

// Category is one of the fixed emoji report categories.
type Category string

const (
	CategoryAlert       Category = "🚨"
	CategoryFire        Category = "🔥"
	CategoryWarning     Category = "⚠️"
	CategoryFlood       Category = "💧"
	CategoryTornado     Category = "🌪️"
	CategoryMap         Category = "🗺️"
	CategoryFirefighter Category = "🧑‍🚒"
)

// DefaultCategory is the generic alert assigned to new markers.
const DefaultCategory = CategoryAlert

// Categories lists every selectable category in display order.
var Categories = []Category{
	CategoryAlert, CategoryFire, CategoryWarning, CategoryFlood,
	CategoryTornado, CategoryMap, CategoryFirefighter,
}

func (c Category) IsValid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// MarkerRecord is the persisted marker document. Field names are the
// wire contract shared with existing stored data; do not rename.
type MarkerRecord struct {
	ID        string    `json:"id"            bson:"_id,omitempty"`
	Lat       float64   `json:"lat"           bson:"lat"`
	Lng       float64   `json:"lng"           bson:"lng"`
	Report    string    `json:"report"        bson:"report"`
	Emoji     string    `json:"reportEmoji"   bson:"reportEmoji"`
	EventKey  string    `json:"eventPassword" bson:"eventPassword"`
	Timestamp time.Time `json:"timestamp"     bson:"timestamp"`
}

// Position returns the record's coordinate pair.
func (m MarkerRecord) Position() Coordinate {
	return Coordinate{Lat: m.Lat, Lng: m.Lng}
}
