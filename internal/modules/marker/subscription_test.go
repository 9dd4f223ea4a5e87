package marker

import (
	"context"
	"errors"
	"testing"

	"github.com/spes-app/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifierFanout(t *testing.T) {
	n := NewNotifier(nil, zap.NewNop())
	listed := 0
	n.lister = func(_ context.Context, eventKey string) ([]models.MarkerRecord, error) {
		listed++
		return []models.MarkerRecord{{ID: "r1", EventKey: eventKey}}, nil
	}

	var gotA, gotB [][]models.MarkerRecord
	subA := n.subscribe("CORK2025", func(_ string, snap []models.MarkerRecord) {
		gotA = append(gotA, snap)
	})
	n.subscribe("CORK2025", func(_ string, snap []models.MarkerRecord) {
		gotB = append(gotB, snap)
	})
	n.subscribe("DUBLIN", func(string, []models.MarkerRecord) {
		t.Fatal("subscriber of another event must not be notified")
	})

	n.fanout("CORK2025")
	assert.Equal(t, 1, listed)
	require.Len(t, gotA, 1)
	require.Len(t, gotB, 1)
	assert.Equal(t, "r1", gotA[0][0].ID)

	// cancelled subscribers drop out; Cancel is idempotent
	subA.Cancel()
	subA.Cancel()
	n.fanout("CORK2025")
	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 2)
}

func TestNotifierFanoutWithoutSubscribersSkipsList(t *testing.T) {
	n := NewNotifier(nil, zap.NewNop())
	n.lister = func(context.Context, string) ([]models.MarkerRecord, error) {
		t.Fatal("lister must not run with no subscribers")
		return nil, nil
	}
	n.fanout("CORK2025")
}

func TestNotifierFanoutListFailureDropsDelivery(t *testing.T) {
	n := NewNotifier(nil, zap.NewNop())
	n.lister = func(context.Context, string) ([]models.MarkerRecord, error) {
		return nil, errors.New("store down")
	}

	delivered := false
	n.subscribe("CORK2025", func(string, []models.MarkerRecord) { delivered = true })

	n.fanout("CORK2025")
	assert.False(t, delivered)
}

func TestSubscriptionEventKey(t *testing.T) {
	n := NewNotifier(nil, zap.NewNop())
	sub := n.subscribe("CORK2025", func(string, []models.MarkerRecord) {})
	assert.Equal(t, "CORK2025", sub.EventKey())
	sub.Cancel()
}
