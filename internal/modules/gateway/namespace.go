package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/spes-app/core/internal/models"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

type inboundWebMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// roomTracker remembers which room a socket currently occupies, so a
// re-join can leave the prior socket.io room and stop receiving its
// broadcasts.
type roomTracker struct {
	mu   sync.Mutex
	room string
}

// swap records next as the socket's room and returns the room to leave,
// or "" when there is none.
func (t *roomTracker) swap(next string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.room
	t.room = next
	if prev == next {
		return ""
	}
	return prev
}

func (h *Hub) registerNamespaces() {
	webNS := h.sio.Of(namespaceWeb, nil)
	_ = webNS.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		sid := string(client.Id())
		rooms := &roomTracker{}
		_ = client.Emit("message", gatewayMessageFormat(eventGatewayConnect, "WebSocket connected"))

		_ = client.On("message", func(eventArgs ...any) {
			msg, ok := parseInboundWebMessage(eventArgs...)
			if !ok {
				return
			}

			switch msg.Type {
			case messageJoin:
				key := models.CanonicalEventKey(strFromAny(msg.Payload["event"]))
				if key == "" {
					return
				}
				if prev := rooms.swap(key); prev != "" {
					client.Leave(socketio.Room(prev))
				}
				client.Join(socketio.Room(key))
				h.register <- clientMeta{sid: sid, room: key}
				h.logDebug("gateway join", zap.String("sid", sid), zap.String("event", key))

				_ = client.Emit("message", gatewayMessageFormat(eventJoinedEvent, key))
				h.sendSnapshotTo(client, key)

			case messageLeave:
				key := models.CanonicalEventKey(strFromAny(msg.Payload["event"]))
				if key == "" {
					return
				}
				rooms.swap("")
				client.Leave(socketio.Room(key))
				h.unregister <- clientMeta{sid: sid}
				_ = client.Emit("message", gatewayMessageFormat(eventLeftEvent, key))
			}
		})

		_ = client.On("disconnect", func(_ ...any) {
			h.unregister <- clientMeta{sid: sid}
		})
	})
}

// sendSnapshotTo delivers the current marker set for an event to one
// freshly joined client, so it renders without waiting for a change.
func (h *Hub) sendSnapshotTo(client *socketio.Socket, eventKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snapshot, err := h.markers.List(ctx, eventKey)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("initial snapshot failed", zap.String("event", eventKey), zap.Error(err))
		}
		return
	}
	_ = client.Emit("message", gatewayMessageFormat(eventMarkerSnapshot, newSnapshotPayload(eventKey, snapshot)))
}

func parseInboundWebMessage(args ...any) (inboundWebMessage, bool) {
	if len(args) == 0 {
		return inboundWebMessage{}, false
	}

	switch v := args[0].(type) {
	case string:
		var msg inboundWebMessage
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			return inboundWebMessage{}, false
		}
		return msg, msg.Type != ""

	case map[string]interface{}:
		msg := inboundWebMessage{Type: strFromAny(v["type"])}
		if p, ok := v["payload"].(map[string]interface{}); ok {
			msg.Payload = p
		}
		return msg, msg.Type != ""
	}
	return inboundWebMessage{}, false
}

func strFromAny(v interface{}) string {
	s, _ := v.(string)
	return s
}
