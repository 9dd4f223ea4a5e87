package syncengine

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/modules/marker"
	"go.uber.org/zap"
)

const (
	// pendingWindow is the new-marker display window. It runs
	// independently of the persistence round-trip.
	pendingWindow = 1500 * time.Millisecond
	// noticeTTL is how long a transient notice stays visible.
	noticeTTL = 3 * time.Second

	// noEventNotice is shown when a marker is placed with no active
	// event.
	noEventNotice = "Please enter the correct event password to add markers."
)

var (
	// ErrNoActiveEvent is returned when an operation needs an active
	// event and none is set.
	ErrNoActiveEvent = errors.New("no active event")
	// ErrNoEditSession is returned when Save/Cancel/Delete runs with no
	// marker open for editing.
	ErrNoEditSession = errors.New("no marker open for editing")
	// ErrMarkerGone is returned when the edited marker disappeared from
	// the visible list before the operation ran.
	ErrMarkerGone = errors.New("marker no longer present")
)

// EditSession is the scratch buffer captured when a marker is opened
// for editing. Save commits it; Cancel discards it.
type EditSession struct {
	LocalID  string
	Text     string
	Category models.Category
}

// Engine is the single source of truth for the client-visible marker
// list and its relationship to the remote store. It owns the list
// exclusively; callers read copies and mutate only through its
// operations. All timers run on the injected clock so tests are
// deterministic.
type Engine struct {
	store  Store
	clock  clockwork.Clock
	logger *zap.Logger

	mu        sync.Mutex
	eventKey  string
	markers   []*Marker
	sub       Subscription
	edit      *EditSession
	notice    string
	noticeSeq int
	lastLocal int64
}

func New(store Store, clock clockwork.Clock, logger *zap.Logger) *Engine {
	return &Engine{store: store, clock: clock, logger: logger}
}

// EventChanged reacts to the session's active event switching: the
// prior subscription is cancelled before anything else, the visible
// list is cleared, and for a non-empty key the engine lists and
// subscribes to the new event.
func (e *Engine) EventChanged(ctx context.Context, key string) {
	key = models.CanonicalEventKey(key)

	e.mu.Lock()
	old := e.sub
	e.sub = nil
	e.markers = nil
	e.edit = nil
	e.eventKey = key
	e.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	if key == "" {
		return
	}

	// Subscribe before the initial list: a change landing between the
	// two would otherwise fan out with no subscriber registered and
	// never be replayed. Snapshot application is a full reconcile, so
	// an older list applied after a newer delivery is corrected by the
	// next one.
	sub := e.store.SubscribeMarkers(key, e.applySnapshot)

	e.mu.Lock()
	if e.eventKey != key || e.sub != nil {
		e.mu.Unlock()
		// the event switched again while we were subscribing
		sub.Cancel()
		return
	}
	e.sub = sub
	e.mu.Unlock()

	snapshot, err := e.store.ListMarkers(ctx, key)
	if err != nil {
		e.logger.Warn("initial marker list failed", zap.String("event", key), zap.Error(err))
		return
	}
	e.applySnapshot(key, snapshot)
}

// AddAt places a new marker at pos and opens it for editing. With no
// active event nothing is created: a transient notice is raised instead
// and the store is never called.
func (e *Engine) AddAt(pos models.Coordinate) (Marker, error) {
	if err := pos.Validate(); err != nil {
		return Marker{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.eventKey == "" {
		e.setNoticeLocked(noEventNotice)
		return Marker{}, ErrNoActiveEvent
	}

	now := e.clock.Now()
	m := &Marker{
		LocalID:   e.nextLocalIDLocked(now),
		State:     StatePending,
		Position:  pos,
		Category:  models.DefaultCategory,
		EventKey:  e.eventKey,
		CreatedAt: now,
		IsPending: true,
	}
	e.markers = append(e.markers, m)
	e.edit = &EditSession{LocalID: m.LocalID, Category: models.DefaultCategory}

	localID := m.LocalID
	e.clock.AfterFunc(pendingWindow, func() {
		e.mu.Lock()
		if mm := e.findLocked(localID); mm != nil {
			mm.IsPending = false
		}
		e.mu.Unlock()
	})

	return *m, nil
}

// OpenEdit captures the marker's current text and category into a fresh
// scratch buffer. Only one marker is edited at a time: any prior edit
// session is discarded, as if cancelled.
func (e *Engine) OpenEdit(localID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.findLocked(localID)
	if m == nil {
		return ErrMarkerGone
	}
	cat := m.Category
	if !cat.IsValid() {
		cat = models.DefaultCategory
	}
	e.edit = &EditSession{LocalID: localID, Text: m.Report, Category: cat}
	return nil
}

// SetScratch updates the open edit session's buffer.
func (e *Engine) SetScratch(text string, category models.Category) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.edit == nil {
		return ErrNoEditSession
	}
	e.edit.Text = text
	e.edit.Category = category
	return nil
}

// ActiveEdit returns a copy of the open edit session, if any.
func (e *Engine) ActiveEdit() (EditSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.edit == nil {
		return EditSession{}, false
	}
	return *e.edit, true
}

// CancelEdit discards the scratch buffer.
func (e *Engine) CancelEdit() {
	e.mu.Lock()
	e.edit = nil
	e.mu.Unlock()
}

// Save commits the scratch buffer: the first save of a marker creates
// the remote record and attaches the returned remote id; later saves
// update the mutable fields only. On store failure the edit session
// stays open and local state is left as it was.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.edit == nil {
		e.mu.Unlock()
		return ErrNoEditSession
	}
	if e.eventKey == "" {
		e.mu.Unlock()
		return ErrNoActiveEvent
	}
	m := e.findLocked(e.edit.LocalID)
	if m == nil {
		e.edit = nil
		e.mu.Unlock()
		return ErrMarkerGone
	}
	localID := m.LocalID
	remoteID := m.RemoteID
	eventKey := m.EventKey
	pos := m.Position
	text := e.edit.Text
	cat := e.edit.Category
	if !cat.IsValid() {
		cat = models.DefaultCategory
	}
	e.mu.Unlock()

	if remoteID == "" {
		id, err := e.store.CreateMarker(ctx, eventKey, pos, text, cat)
		if err != nil {
			e.logger.Warn("marker create failed", zap.String("event", eventKey), zap.Error(err))
			return err
		}
		e.commitSave(localID, id, text, cat)
		return nil
	}

	if err := e.store.UpdateMarker(ctx, remoteID, text, cat); err != nil {
		e.logger.Warn("marker update failed", zap.String("remote_id", remoteID), zap.Error(err))
		return err
	}
	e.commitSave(localID, "", text, cat)
	return nil
}

// commitSave applies a successful save to local state and closes the
// edit session if it still targets the saved marker.
func (e *Engine) commitSave(localID, newRemoteID, text string, cat models.Category) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m := e.findLocked(localID); m != nil {
		m.Report = text
		m.Category = cat
		if newRemoteID != "" && m.RemoteID == "" {
			m.RemoteID = newRemoteID
			m.State = StatePersisted
		}
	}
	if e.edit != nil && e.edit.LocalID == localID {
		e.edit = nil
	}
}

// Delete removes the marker open for editing, bypassing the scratch
// buffer. A marker never persisted is removed locally only. A failed
// remote delete is logged, not retried; local removal happens
// regardless, and an already-deleted remote record counts as success.
func (e *Engine) Delete(ctx context.Context) error {
	e.mu.Lock()
	if e.edit == nil {
		e.mu.Unlock()
		return ErrNoEditSession
	}
	localID := e.edit.LocalID
	var remoteID string
	if m := e.findLocked(localID); m != nil {
		remoteID = m.RemoteID
	}
	e.mu.Unlock()

	if remoteID != "" {
		err := e.store.DeleteMarker(ctx, remoteID)
		if err != nil && !errors.Is(err, marker.ErrNotFound) {
			e.logger.Warn("remote delete failed, removing locally anyway",
				zap.String("remote_id", remoteID), zap.Error(err))
		}
	}

	e.mu.Lock()
	e.removeLocked(localID)
	if e.edit != nil && e.edit.LocalID == localID {
		e.edit = nil
	}
	e.mu.Unlock()
	return nil
}

// Markers returns a copy of the visible marker list.
func (e *Engine) Markers() []Marker {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Marker, len(e.markers))
	for i, m := range e.markers {
		out[i] = *m
	}
	return out
}

// Notice returns the current transient notice, or "" once it expired.
func (e *Engine) Notice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notice
}

// EventKey returns the event the engine is currently bound to.
func (e *Engine) EventKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eventKey
}

// applySnapshot reconciles a live snapshot into the visible list.
// Snapshots for any event other than the active one are stale and
// discarded. Reconciliation is by remote id: local markers still
// awaiting their first save survive until their own save completes or a
// later snapshot includes their assigned id.
func (e *Engine) applySnapshot(eventKey string, snapshot []models.MarkerRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if eventKey != e.eventKey {
		e.logger.Debug("stale snapshot discarded",
			zap.String("snapshot_event", eventKey), zap.String("active_event", e.eventKey))
		return
	}

	prevByRemote := make(map[string]*Marker, len(e.markers))
	var unconfirmed []*Marker
	for _, m := range e.markers {
		if m.RemoteID == "" {
			unconfirmed = append(unconfirmed, m)
			continue
		}
		prevByRemote[m.RemoteID] = m
	}

	next := make([]*Marker, 0, len(snapshot)+len(unconfirmed))
	for _, rec := range snapshot {
		m := &Marker{
			LocalID:   rec.ID,
			RemoteID:  rec.ID,
			State:     StatePersisted,
			Position:  rec.Position(),
			Report:    rec.Report,
			Category:  models.Category(rec.Emoji),
			EventKey:  eventKey,
			CreatedAt: rec.Timestamp,
		}
		if prev, ok := prevByRemote[rec.ID]; ok {
			m.LocalID = prev.LocalID
			m.CreatedAt = prev.CreatedAt
			m.IsPending = prev.IsPending
		}
		next = append(next, m)
	}
	next = append(next, unconfirmed...)
	e.markers = next

	if e.edit != nil && e.findLocked(e.edit.LocalID) == nil {
		// the edited marker was deleted by another client
		e.edit = nil
	}
}

func (e *Engine) setNoticeLocked(msg string) {
	e.notice = msg
	e.noticeSeq++
	seq := e.noticeSeq
	e.clock.AfterFunc(noticeTTL, func() {
		e.mu.Lock()
		if e.noticeSeq == seq {
			e.notice = ""
		}
		e.mu.Unlock()
	})
}

// nextLocalIDLocked derives a monotonic-ish local id from the creation
// timestamp, bumping on same-instant collisions.
func (e *Engine) nextLocalIDLocked(now time.Time) string {
	id := now.UnixMilli()
	if id <= e.lastLocal {
		id = e.lastLocal + 1
	}
	e.lastLocal = id
	return strconv.FormatInt(id, 10)
}

func (e *Engine) findLocked(localID string) *Marker {
	for _, m := range e.markers {
		if m.LocalID == localID {
			return m
		}
	}
	return nil
}

func (e *Engine) removeLocked(localID string) {
	for i, m := range e.markers {
		if m.LocalID == localID {
			e.markers = append(e.markers[:i], e.markers[i+1:]...)
			return
		}
	}
}
