package gateway

import (
	"github.com/spes-app/core/internal/models"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func gatewayMessageFormat(event string, payload interface{}) gatewayPayload {
	return gatewayPayload{Type: event, Data: payload}
}

func newSnapshotPayload(eventKey string, snapshot []models.MarkerRecord) snapshotPayload {
	if snapshot == nil {
		snapshot = []models.MarkerRecord{}
	}
	return snapshotPayload{Event: eventKey, Markers: snapshot}
}

// deliver emits a message to every member of the target room.
func (h *Hub) deliver(msg Message) {
	ns := h.sio.Of(namespaceWeb, nil)
	if msg.Room == "" {
		ns.Emit("message", gatewayMessageFormat(msg.Event, msg.Payload))
		return
	}
	ns.To(socketio.Room(msg.Room)).Emit("message", gatewayMessageFormat(msg.Event, msg.Payload))
}
