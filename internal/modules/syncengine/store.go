package syncengine

import (
	"context"

	"github.com/spes-app/core/internal/models"
)

// Subscription is a cancellable live-delivery handle. Cancel must be
// idempotent.
type Subscription interface {
	Cancel()
}

// Store is the remote marker store the engine reconciles against.
// marker.Service is the canonical implementation; tests use fakes.
type Store interface {
	// ListMarkers returns only markers whose stored event key equals
	// the argument.
	ListMarkers(ctx context.Context, eventKey string) ([]models.MarkerRecord, error)

	// CreateMarker persists a new record and returns its remote id.
	CreateMarker(ctx context.Context, eventKey string, pos models.Coordinate, text string, category models.Category) (string, error)

	// UpdateMarker mutates text and category only; position and event
	// key are immutable post-creation.
	UpdateMarker(ctx context.Context, remoteID, text string, category models.Category) error

	// DeleteMarker removes the record. Returns marker.ErrNotFound when
	// it is already gone.
	DeleteMarker(ctx context.Context, remoteID string) error

	// SubscribeMarkers registers a callback invoked with the full
	// current marker set for the event whenever the collection changes.
	SubscribeMarkers(eventKey string, onChange func(eventKey string, snapshot []models.MarkerRecord)) Subscription
}
