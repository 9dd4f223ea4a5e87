package main

import (
	"context"

	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/modules/marker"
	"github.com/spes-app/core/internal/modules/syncengine"
)

// engineStore adapts marker.Service to the engine's store contract.
type engineStore struct {
	svc *marker.Service
}

func (s engineStore) ListMarkers(ctx context.Context, eventKey string) ([]models.MarkerRecord, error) {
	return s.svc.List(ctx, eventKey)
}

func (s engineStore) CreateMarker(ctx context.Context, eventKey string, pos models.Coordinate, text string, category models.Category) (string, error) {
	return s.svc.Create(ctx, eventKey, pos, text, category)
}

func (s engineStore) UpdateMarker(ctx context.Context, remoteID, text string, category models.Category) error {
	return s.svc.Update(ctx, remoteID, text, category)
}

func (s engineStore) DeleteMarker(ctx context.Context, remoteID string) error {
	return s.svc.Delete(ctx, remoteID)
}

func (s engineStore) SubscribeMarkers(eventKey string, onChange func(eventKey string, snapshot []models.MarkerRecord)) syncengine.Subscription {
	return s.svc.Subscribe(eventKey, onChange)
}
