package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/modules/event"
	"go.uber.org/zap"
)

// DefaultZoom is applied whenever an event is joined.
const DefaultZoom = 13

// ErrInvalidCode is surfaced when joining with a code no event is
// registered under. Session state is left untouched.
var ErrInvalidCode = errors.New("invalid event code")

// Registry is the event lookup/creation surface the session needs.
// event.Service is the canonical implementation.
type Registry interface {
	Find(ctx context.Context, code string) (models.EventRecord, error)
	Create(ctx context.Context, code string, center *models.Coordinate, timezone string) (models.EventRecord, error)
}

// Listener is notified after the active event key changes. The
// synchronization engine implements it to tear down and rebuild its
// subscription.
type Listener interface {
	EventChanged(ctx context.Context, key string)
}

// Context is the session's event state: the active event key, the map
// center and the zoom level. It is an owned, injected object, not
// ambient global state; every mutation flows through Join, Create and
// Leave.
type Context struct {
	registry Registry
	logger   *zap.Logger

	mu        sync.Mutex
	listeners []Listener

	activeKey string
	center    models.Coordinate
	zoom      int
	timezone  string
}

func New(registry Registry, logger *zap.Logger) *Context {
	return &Context{
		registry: registry,
		logger:   logger,
		center:   models.DefaultCenter,
		zoom:     DefaultZoom,
		timezone: models.DefaultTimezone,
	}
}

// AddListener registers a listener for event-key changes.
func (s *Context) AddListener(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Join activates the event registered under code. The code is
// canonicalized before lookup; on a miss the session is unchanged and
// ErrInvalidCode is returned to the caller, never retried.
func (s *Context) Join(ctx context.Context, code string) error {
	key := models.CanonicalEventKey(code)
	if key == "" {
		return fmt.Errorf("%w: event code required", models.ErrInvalidInput)
	}

	rec, err := s.registry.Find(ctx, key)
	switch {
	case errors.Is(err, event.ErrNotFound):
		return ErrInvalidCode
	case err != nil:
		return err
	}

	s.apply(ctx, rec)
	return nil
}

// Create registers a new event and then behaves as Join. The center
// defaults to the fallback coordinate when nil.
func (s *Context) Create(ctx context.Context, code string, center *models.Coordinate, timezone string) error {
	key := models.CanonicalEventKey(code)
	if key == "" {
		return fmt.Errorf("%w: event code required", models.ErrInvalidInput)
	}

	rec, err := s.registry.Create(ctx, key, center, timezone)
	if err != nil {
		return err
	}

	s.apply(ctx, rec)
	return nil
}

// Leave clears the active event key. Listeners react by clearing their
// marker lists and cancelling subscriptions. Map center and zoom keep
// their last values.
func (s *Context) Leave(ctx context.Context) {
	s.mu.Lock()
	if s.activeKey == "" {
		s.mu.Unlock()
		return
	}
	s.activeKey = ""
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.EventChanged(ctx, "")
	}
}

func (s *Context) apply(ctx context.Context, rec models.EventRecord) {
	s.mu.Lock()
	s.activeKey = rec.Code
	s.center = rec.Center()
	s.zoom = DefaultZoom
	s.timezone = rec.Timezone
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.logger.Info("event joined",
		zap.String("code", rec.Code),
		zap.Float64("lat", rec.Latitude),
		zap.Float64("lng", rec.Longitude),
		zap.String("tz", rec.Timezone),
	)
	for _, l := range listeners {
		l.EventChanged(ctx, rec.Code)
	}
}

// ActiveEventKey returns the canonical active event code, or "".
func (s *Context) ActiveEventKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeKey
}

// MapCenter returns the current map center.
func (s *Context) MapCenter() models.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

// ZoomLevel returns the current zoom level.
func (s *Context) ZoomLevel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// Timezone returns the active event's timezone, or the default when no
// event is active.
func (s *Context) Timezone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timezone
}
