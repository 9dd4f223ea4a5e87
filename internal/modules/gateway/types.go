package gateway

import (
	"sync"

	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/modules/marker"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	namespaceWeb = "/web"

	eventGatewayConnect = "GATEWAY_CONNECT"
	eventMarkerSnapshot = "MARKER_SNAPSHOT"
	eventJoinedEvent    = "EVENT_JOINED"
	eventLeftEvent      = "EVENT_LEFT"

	messageJoin  = "join"
	messageLeave = "leave"
)

// Message is the envelope used by hub broadcasts.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Room    string      `json:"room,omitempty"`
}

type gatewayPayload struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type snapshotPayload struct {
	Event   string                `json:"event"`
	Markers []models.MarkerRecord `json:"markers"`
}

type clientMeta struct {
	sid  string
	room string
}

// Hub manages the socket.io web namespace. Clients join one room at a
// time, named by the canonical event code; the hub holds a single live
// store subscription per occupied room and re-broadcasts every snapshot
// to the room's members. Cross-instance change delivery rides the
// marker notifier, so the hub itself needs no fan-out channel.
type Hub struct {
	mu sync.RWMutex

	sidRoom   map[string]string
	roomCount map[string]int
	roomSubs  map[string]*marker.Subscription

	broadcast  chan Message
	register   chan clientMeta
	unregister chan clientMeta

	markers *marker.Service
	logger  *zap.Logger
	sio     *socketio.Server
}
