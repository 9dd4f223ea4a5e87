package gateway

import (
	"encoding/json"
	"testing"

	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/modules/marker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	svc := marker.NewService(nil, marker.NewNotifier(nil, zap.NewNop()), zap.NewNop())
	return NewHub(svc, zap.NewNop())
}

func TestRoomBookkeeping(t *testing.T) {
	h := newTestHub(t)

	h.registerClient(clientMeta{sid: "s1", room: "CORK2025"})
	h.registerClient(clientMeta{sid: "s2", room: "CORK2025"})

	assert.Equal(t, 2, h.ClientCount("CORK2025"))
	assert.Equal(t, 2, h.ClientCount(""))
	// one store subscription per occupied room, not per client
	require.Len(t, h.roomSubs, 1)
	assert.NotNil(t, h.roomSubs["CORK2025"])

	h.unregisterClient(clientMeta{sid: "s1"})
	assert.Equal(t, 1, h.ClientCount("CORK2025"))
	assert.NotNil(t, h.roomSubs["CORK2025"])

	h.unregisterClient(clientMeta{sid: "s2"})
	assert.Zero(t, h.ClientCount("CORK2025"))
	assert.Zero(t, h.ClientCount(""))
	assert.Empty(t, h.roomSubs)
}

func TestRegisterMovesClientBetweenRooms(t *testing.T) {
	h := newTestHub(t)

	h.registerClient(clientMeta{sid: "s1", room: "CORK2025"})
	h.registerClient(clientMeta{sid: "s1", room: "DUBLIN"})

	assert.Zero(t, h.ClientCount("CORK2025"))
	assert.Equal(t, 1, h.ClientCount("DUBLIN"))
	assert.Equal(t, 1, h.ClientCount(""))
	require.Len(t, h.roomSubs, 1)
	assert.NotNil(t, h.roomSubs["DUBLIN"])
}

func TestRegisterSameRoomTwiceIsIdempotent(t *testing.T) {
	h := newTestHub(t)

	h.registerClient(clientMeta{sid: "s1", room: "CORK2025"})
	h.registerClient(clientMeta{sid: "s1", room: "CORK2025"})

	assert.Equal(t, 1, h.ClientCount("CORK2025"))
	require.Len(t, h.roomSubs, 1)
}

func TestUnregisterUnknownClient(t *testing.T) {
	h := newTestHub(t)
	h.unregisterClient(clientMeta{sid: "ghost"})
	assert.Zero(t, h.ClientCount(""))
}

func TestRoomTrackerSwapLeavesPriorRoom(t *testing.T) {
	tr := &roomTracker{}

	// first join has nothing to leave
	assert.Empty(t, tr.swap("CORK2025"))
	// switching events must yield the old room so the socket leaves it
	assert.Equal(t, "CORK2025", tr.swap("DUBLIN"))
	// re-joining the same room is not a switch
	assert.Empty(t, tr.swap("DUBLIN"))
	// explicit leave clears the slot and reports the occupied room
	assert.Equal(t, "DUBLIN", tr.swap(""))
	assert.Empty(t, tr.swap(""))
}

func TestParseInboundWebMessage(t *testing.T) {
	t.Run("json string form", func(t *testing.T) {
		msg, ok := parseInboundWebMessage(`{"type":"join","payload":{"event":"cork2025"}}`)
		require.True(t, ok)
		assert.Equal(t, "join", msg.Type)
		assert.Equal(t, "cork2025", strFromAny(msg.Payload["event"]))
	})

	t.Run("decoded map form", func(t *testing.T) {
		msg, ok := parseInboundWebMessage(map[string]interface{}{
			"type":    "leave",
			"payload": map[string]interface{}{"event": "CORK2025"},
		})
		require.True(t, ok)
		assert.Equal(t, "leave", msg.Type)
		assert.Equal(t, "CORK2025", strFromAny(msg.Payload["event"]))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, ok := parseInboundWebMessage("not json")
		assert.False(t, ok)
		_, ok = parseInboundWebMessage(42)
		assert.False(t, ok)
		_, ok = parseInboundWebMessage()
		assert.False(t, ok)
		_, ok = parseInboundWebMessage(`{"payload":{}}`)
		assert.False(t, ok)
	})
}

func TestSnapshotPayloadNeverNil(t *testing.T) {
	p := newSnapshotPayload("CORK2025", nil)

	out, err := json.Marshal(gatewayMessageFormat(eventMarkerSnapshot, p))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"MARKER_SNAPSHOT","data":{"event":"CORK2025","markers":[]}}`, string(out))

	p = newSnapshotPayload("CORK2025", []models.MarkerRecord{{ID: "r1", EventKey: "CORK2025"}})
	assert.Len(t, p.Markers, 1)
}
