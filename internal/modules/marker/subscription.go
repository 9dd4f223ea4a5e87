package marker

import (
	"context"
	"sync"
	"time"

	"github.com/spes-app/core/internal/models"
	pkgredis "github.com/spes-app/core/internal/pkg/redis"
	"go.uber.org/zap"
)

// redisChanChanged carries canonical event keys whose marker set
// changed; every instance re-lists and notifies its local subscribers.
const redisChanChanged = "spes:markers:changed"

// SnapshotFunc receives the full current marker set for an event. The
// snapshot slice must be treated as read-only. Deliveries can arrive in
// bursts and may repeat; handlers must be idempotent.
type SnapshotFunc func(eventKey string, snapshot []models.MarkerRecord)

// Subscription is a live-delivery handle. Cancel is idempotent and safe
// to call multiple times.
type Subscription struct {
	eventKey string
	once     sync.Once
	cancel   func()
}

func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// EventKey returns the canonical event key this subscription watches.
func (s *Subscription) EventKey() string { return s.eventKey }

// Notifier fans marker-set changes out to subscribers, riding Redis
// pub/sub so changes made by other server instances are seen too.
type Notifier struct {
	rc     *pkgredis.Client
	logger *zap.Logger
	lister func(ctx context.Context, eventKey string) ([]models.MarkerRecord, error)

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]SnapshotFunc
}

func NewNotifier(rc *pkgredis.Client, logger *zap.Logger) *Notifier {
	return &Notifier{
		rc:     rc,
		logger: logger,
		subs:   make(map[string]map[int]SnapshotFunc),
	}
}

func (n *Notifier) subscribe(eventKey string, onChange SnapshotFunc) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	if n.subs[eventKey] == nil {
		n.subs[eventKey] = make(map[int]SnapshotFunc)
	}
	n.subs[eventKey][id] = onChange

	return &Subscription{
		eventKey: eventKey,
		cancel: func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if m := n.subs[eventKey]; m != nil {
				delete(m, id)
				if len(m) == 0 {
					delete(n.subs, eventKey)
				}
			}
		},
	}
}

// changed publishes a change notice for the event. If Redis is
// unreachable the notice is delivered locally so a single instance
// keeps working.
func (n *Notifier) changed(eventKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := n.rc.Publish(ctx, redisChanChanged, eventKey); err != nil {
		if n.logger != nil {
			n.logger.Warn("marker change publish failed", zap.String("event", eventKey), zap.Error(err))
		}
		n.fanout(eventKey)
	}
}

// run consumes change notices until ctx is cancelled.
func (n *Notifier) run(ctx context.Context) {
	pubsub := n.rc.Subscribe(ctx, redisChanChanged)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			n.fanout(msg.Payload)
		}
	}
}

// fanout re-lists the event's markers and delivers the snapshot to
// every local subscriber of that event.
func (n *Notifier) fanout(eventKey string) {
	n.mu.Lock()
	var fns []SnapshotFunc
	for _, fn := range n.subs[eventKey] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	if len(fns) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snapshot, err := n.lister(ctx, eventKey)
	if err != nil {
		if n.logger != nil {
			n.logger.Warn("snapshot list failed", zap.String("event", eventKey), zap.Error(err))
		}
		return
	}
	for _, fn := range fns {
		fn(eventKey, snapshot)
	}
}
