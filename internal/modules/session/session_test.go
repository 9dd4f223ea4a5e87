package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/modules/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRegistry struct {
	mu     sync.Mutex
	events map[string]models.EventRecord

	findErr   error
	createErr error
}

func newFakeRegistry(events ...models.EventRecord) *fakeRegistry {
	r := &fakeRegistry{events: make(map[string]models.EventRecord)}
	for _, e := range events {
		r.events[e.Code] = e
	}
	return r
}

func (r *fakeRegistry) Find(_ context.Context, code string) (models.EventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return models.EventRecord{}, r.findErr
	}
	rec, ok := r.events[code]
	if !ok {
		return models.EventRecord{}, event.ErrNotFound
	}
	return rec, nil
}

func (r *fakeRegistry) Create(_ context.Context, code string, center *models.Coordinate, timezone string) (models.EventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return models.EventRecord{}, r.createErr
	}
	if _, ok := r.events[code]; ok {
		return models.EventRecord{}, event.ErrAlreadyExists
	}
	c := models.DefaultCenter
	if center != nil {
		c = *center
	}
	if timezone == "" {
		timezone = models.DefaultTimezone
	}
	rec := models.EventRecord{Code: code, Latitude: c.Lat, Longitude: c.Lng, Timezone: timezone}
	r.events[code] = rec
	return rec, nil
}

type recordingListener struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingListener) EventChanged(_ context.Context, key string) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
}

func (l *recordingListener) seen() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.keys...)
}

func TestSessionDefaults(t *testing.T) {
	s := New(newFakeRegistry(), zap.NewNop())

	assert.Empty(t, s.ActiveEventKey())
	assert.Equal(t, models.DefaultCenter, s.MapCenter())
	assert.Equal(t, DefaultZoom, s.ZoomLevel())
	assert.Equal(t, models.DefaultTimezone, s.Timezone())
}

func TestJoinCanonicalizesCode(t *testing.T) {
	reg := newFakeRegistry(models.EventRecord{
		Code: "CORK2025", Latitude: 51.8985, Longitude: -8.4756, Timezone: "Europe/Dublin",
	})
	s := New(reg, zap.NewNop())
	l := &recordingListener{}
	s.AddListener(l)

	require.NoError(t, s.Join(context.Background(), "  cork2025 "))

	assert.Equal(t, "CORK2025", s.ActiveEventKey())
	assert.Equal(t, models.Coordinate{Lat: 51.8985, Lng: -8.4756}, s.MapCenter())
	assert.Equal(t, DefaultZoom, s.ZoomLevel())
	assert.Equal(t, "Europe/Dublin", s.Timezone())
	assert.Equal(t, []string{"CORK2025"}, l.seen())
}

func TestJoinUnknownCodeLeavesStateUntouched(t *testing.T) {
	reg := newFakeRegistry(models.EventRecord{Code: "CORK2025", Latitude: 1, Longitude: 2, Timezone: "Europe/Dublin"})
	s := New(reg, zap.NewNop())
	require.NoError(t, s.Join(context.Background(), "CORK2025"))
	l := &recordingListener{}
	s.AddListener(l)

	err := s.Join(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrInvalidCode)

	assert.Equal(t, "CORK2025", s.ActiveEventKey())
	assert.Equal(t, "Europe/Dublin", s.Timezone())
	assert.Empty(t, l.seen())
}

func TestJoinBlankCode(t *testing.T) {
	s := New(newFakeRegistry(), zap.NewNop())
	err := s.Join(context.Background(), "   ")
	require.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Empty(t, s.ActiveEventKey())
}

func TestJoinRegistryFailurePropagates(t *testing.T) {
	reg := newFakeRegistry()
	reg.findErr = errors.New("store unavailable")
	s := New(reg, zap.NewNop())

	err := s.Join(context.Background(), "CORK2025")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCode)
	assert.Empty(t, s.ActiveEventKey())
}

func TestCreateActivatesNewEvent(t *testing.T) {
	reg := newFakeRegistry()
	s := New(reg, zap.NewNop())
	l := &recordingListener{}
	s.AddListener(l)

	require.NoError(t, s.Create(context.Background(), "galway2026", nil, ""))

	assert.Equal(t, "GALWAY2026", s.ActiveEventKey())
	assert.Equal(t, models.DefaultCenter, s.MapCenter())
	assert.Equal(t, models.DefaultTimezone, s.Timezone())
	assert.Equal(t, []string{"GALWAY2026"}, l.seen())

	// a duplicate create must not re-notify or change state
	err := s.Create(context.Background(), "GALWAY2026", nil, "")
	require.ErrorIs(t, err, event.ErrAlreadyExists)
	assert.Equal(t, []string{"GALWAY2026"}, l.seen())
}

func TestCreateWithExplicitCenter(t *testing.T) {
	s := New(newFakeRegistry(), zap.NewNop())
	center := models.Coordinate{Lat: 53.2707, Lng: -9.0568}

	require.NoError(t, s.Create(context.Background(), "GALWAY2026", &center, "Europe/Dublin"))
	assert.Equal(t, center, s.MapCenter())
	assert.Equal(t, "Europe/Dublin", s.Timezone())
}

func TestLeave(t *testing.T) {
	reg := newFakeRegistry(models.EventRecord{Code: "CORK2025", Latitude: 1, Longitude: 2, Timezone: "Europe/Dublin"})
	s := New(reg, zap.NewNop())
	l := &recordingListener{}
	s.AddListener(l)
	require.NoError(t, s.Join(context.Background(), "CORK2025"))

	s.Leave(context.Background())

	assert.Empty(t, s.ActiveEventKey())
	// map position survives leaving; only the key is cleared
	assert.Equal(t, models.Coordinate{Lat: 1, Lng: 2}, s.MapCenter())
	assert.Equal(t, []string{"CORK2025", ""}, l.seen())

	// leaving with no active event is a no-op and does not re-notify
	s.Leave(context.Background())
	assert.Equal(t, []string{"CORK2025", ""}, l.seen())
}
