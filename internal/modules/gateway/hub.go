package gateway

import (
	"context"
	"net/http"

	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/modules/marker"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

func NewHub(markers *marker.Service, logger *zap.Logger) *Hub {
	sio := socketio.NewServer(nil, nil)
	h := &Hub{
		sidRoom:    make(map[string]string),
		roomCount:  make(map[string]int),
		roomSubs:   make(map[string]*marker.Subscription),
		broadcast:  make(chan Message, 256),
		register:   make(chan clientMeta, 256),
		unregister: make(chan clientMeta, 256),
		markers:    markers,
		logger:     logger,
		sio:        sio,
	}
	h.registerNamespaces()
	return h
}

// Run starts the hub loop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// registerClient moves the client into its event room, opening the
// room's store subscription when it gains its first member.
func (h *Hub) registerClient(c clientMeta) {
	h.mu.Lock()
	if oldRoom, ok := h.sidRoom[c.sid]; ok {
		if oldRoom == c.room {
			h.mu.Unlock()
			return
		}
		h.dropFromRoomLocked(c.sid, oldRoom)
	}

	h.sidRoom[c.sid] = c.room
	h.roomCount[c.room]++
	first := h.roomCount[c.room] == 1
	h.mu.Unlock()

	if !first {
		return
	}

	sub := h.markers.Subscribe(c.room, func(eventKey string, snapshot []models.MarkerRecord) {
		h.broadcast <- Message{
			Event:   eventMarkerSnapshot,
			Payload: newSnapshotPayload(eventKey, snapshot),
			Room:    eventKey,
		}
	})

	h.mu.Lock()
	if h.roomCount[c.room] > 0 && h.roomSubs[c.room] == nil {
		h.roomSubs[c.room] = sub
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	// the room emptied (or raced another subscribe) while we subscribed
	sub.Cancel()
}

func (h *Hub) unregisterClient(c clientMeta) {
	h.mu.Lock()
	room, ok := h.sidRoom[c.sid]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sidRoom, c.sid)
	h.dropFromRoomLocked(c.sid, room)
	h.mu.Unlock()
}

// dropFromRoomLocked decrements the room count and cancels the room's
// subscription when the last member leaves.
func (h *Hub) dropFromRoomLocked(sid, room string) {
	if h.roomCount[room] > 0 {
		h.roomCount[room]--
	}
	if h.roomCount[room] > 0 {
		return
	}
	delete(h.roomCount, room)
	if sub := h.roomSubs[room]; sub != nil {
		delete(h.roomSubs, room)
		sub.Cancel()
	}
}

// ClientCount returns the number of connected clients (optionally
// filtered by event room).
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room == "" {
		return len(h.sidRoom)
	}
	return h.roomCount[room]
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}

func (h *Hub) logDebug(msg string, fields ...zap.Field) {
	if h.logger != nil {
		h.logger.Debug(msg, fields...)
	}
}
