package syncengine

import (
	"time"

	"github.com/spes-app/core/internal/models"
)

// State is the persistence state of a client-visible marker.
type State int

const (
	// StateDraft is the zero state before the engine materializes a
	// marker; no marker in the visible list carries it.
	StateDraft State = iota
	// StatePending means locally created, not yet confirmed persisted.
	StatePending
	// StatePersisted means the remote store has assigned an id.
	StatePersisted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePersisted:
		return "persisted"
	default:
		return "draft"
	}
}

// Marker is a client-visible marker owned by the engine. Editing is
// orthogonal to the persistence state and tracked by the engine's edit
// session, not here.
type Marker struct {
	// LocalID is assigned at creation time and stable for the marker's
	// local lifetime regardless of persistence state.
	LocalID string
	// RemoteID transitions ""→value exactly once, on first persist.
	RemoteID string
	State    State
	Position models.Coordinate
	Report   string
	Category models.Category
	EventKey string
	// CreatedAt is set once by whichever side first assigns it: the
	// local clock at creation, or the store timestamp for markers first
	// seen via a snapshot.
	CreatedAt time.Time
	// IsPending drives the short new-marker display window; it is
	// independent of persistence progress and never stored remotely.
	IsPending bool
}
