package marker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spes-app/core/internal/database"
	"github.com/spes-app/core/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a remote id no longer resolves to a
	// stored marker. Concurrent deletes make this an expected outcome;
	// callers tolerate it on delete.
	ErrNotFound = errors.New("marker not found")
	// ErrStoreUnavailable wraps transport-level store failures.
	ErrStoreUnavailable = errors.New("marker store unavailable")
)

// markerDoc is the bson document shape; _id stays an ObjectID here and
// is exposed as its hex form in models.MarkerRecord.
type markerDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Lat       float64            `bson:"lat"`
	Lng       float64            `bson:"lng"`
	Report    string             `bson:"report"`
	Emoji     string             `bson:"reportEmoji"`
	EventKey  string             `bson:"eventPassword"`
	Timestamp time.Time          `bson:"timestamp"`
}

func (d markerDoc) record() models.MarkerRecord {
	return models.MarkerRecord{
		ID:        d.ID.Hex(),
		Lat:       d.Lat,
		Lng:       d.Lng,
		Report:    d.Report,
		Emoji:     d.Emoji,
		EventKey:  d.EventKey,
		Timestamp: d.Timestamp,
	}
}

// Service implements the remote marker store over the markers
// collection, plus the live snapshot subscription primitive.
type Service struct {
	db     *database.DB
	notif  *Notifier
	logger *zap.Logger
}

func NewService(db *database.DB, notif *Notifier, logger *zap.Logger) *Service {
	s := &Service{db: db, notif: notif, logger: logger}
	notif.lister = s.List
	return s
}

// List returns the markers belonging to the given event, filtered at
// the query level, oldest first.
func (s *Service) List(ctx context.Context, eventKey string) ([]models.MarkerRecord, error) {
	key := models.CanonicalEventKey(eventKey)
	cur, err := s.db.Markers().Find(ctx,
		bson.M{"eventPassword": key},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cur.Close(ctx)

	var out []models.MarkerRecord
	for cur.Next(ctx) {
		var doc markerDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		out = append(out, doc.record())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}

// Create inserts a new marker record and returns the assigned remote id.
func (s *Service) Create(ctx context.Context, eventKey string, pos models.Coordinate, text string, category models.Category) (string, error) {
	if err := pos.Validate(); err != nil {
		return "", err
	}
	key := models.CanonicalEventKey(eventKey)
	if key == "" {
		return "", fmt.Errorf("%w: event key required", models.ErrInvalidInput)
	}
	if !category.IsValid() {
		category = models.DefaultCategory
	}

	res, err := s.db.Markers().InsertOne(ctx, markerDoc{
		Lat:       pos.Lat,
		Lng:       pos.Lng,
		Report:    text,
		Emoji:     string(category),
		EventKey:  key,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%w: unexpected inserted id type", ErrStoreUnavailable)
	}
	s.notif.changed(key)
	return oid.Hex(), nil
}

// Update mutates the report text and category of an existing marker.
// Position and event key are immutable after creation.
func (s *Service) Update(ctx context.Context, remoteID, text string, category models.Category) error {
	oid, err := primitive.ObjectIDFromHex(remoteID)
	if err != nil {
		return ErrNotFound
	}
	if !category.IsValid() {
		category = models.DefaultCategory
	}

	after := options.After
	res := s.db.Markers().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"report": text, "reportEmoji": string(category)}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	)
	var doc markerDoc
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.notif.changed(doc.EventKey)
	return nil
}

// Delete removes a marker record. Returns ErrNotFound when the record
// is already gone, which callers treat as success.
func (s *Service) Delete(ctx context.Context, remoteID string) error {
	oid, err := primitive.ObjectIDFromHex(remoteID)
	if err != nil {
		return ErrNotFound
	}

	res := s.db.Markers().FindOneAndDelete(ctx, bson.M{"_id": oid})
	var doc markerDoc
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.notif.changed(doc.EventKey)
	return nil
}

// Subscribe registers a live callback invoked with the full current
// marker set for the event whenever the collection changes.
func (s *Service) Subscribe(eventKey string, onChange SnapshotFunc) *Subscription {
	return s.notif.subscribe(models.CanonicalEventKey(eventKey), onChange)
}

// Run drives snapshot delivery until ctx is cancelled.
func (s *Service) Run(ctx context.Context) { s.notif.run(ctx) }
