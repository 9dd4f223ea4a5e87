package event

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
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned on a lookup miss.
	ErrNotFound = errors.New("event not found")
	// ErrAlreadyExists is returned when the canonical code is taken.
	ErrAlreadyExists = errors.New("event code already exists")
	// ErrStoreUnavailable wraps transport-level store failures.
	ErrStoreUnavailable = errors.New("event store unavailable")
)

type eventDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Code      string             `bson:"eventCode"`
	Latitude  float64            `bson:"latitude"`
	Longitude float64            `bson:"longitude"`
	Timezone  string             `bson:"timeZone"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d eventDoc) record() models.EventRecord {
	return models.EventRecord{
		ID:        d.ID.Hex(),
		Code:      d.Code,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Timezone:  d.Timezone,
		CreatedAt: d.CreatedAt,
	}
}

// Service is the event registry over the events collection. Events are
// created once and never mutated; lookup is by canonical code.
type Service struct {
	db     *database.DB
	logger *zap.Logger
}

func NewService(db *database.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Find looks up an event by code, canonicalized to upper case.
func (s *Service) Find(ctx context.Context, code string) (models.EventRecord, error) {
	key := models.CanonicalEventKey(code)
	if key == "" {
		return models.EventRecord{}, ErrNotFound
	}

	var doc eventDoc
	err := s.db.Events().FindOne(ctx, bson.M{"eventCode": key}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.EventRecord{}, ErrNotFound
	case err != nil:
		return models.EventRecord{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return doc.record(), nil
}

// Create registers a new event. The center defaults to the fallback
// coordinate when nil, the timezone to Europe/London when blank or
// unknown to the IANA database.
func (s *Service) Create(ctx context.Context, code string, center *models.Coordinate, timezone string) (models.EventRecord, error) {
	key := models.CanonicalEventKey(code)
	if key == "" {
		return models.EventRecord{}, fmt.Errorf("%w: event code required", models.ErrInvalidInput)
	}

	pos := models.DefaultCenter
	if center != nil {
		if err := center.Validate(); err != nil {
			return models.EventRecord{}, err
		}
		pos = *center
	}

	tz := normalizeTimezone(timezone)

	doc := eventDoc{
		Code:      key,
		Latitude:  pos.Lat,
		Longitude: pos.Lng,
		Timezone:  tz,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.db.Events().InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.EventRecord{}, ErrAlreadyExists
		}
		return models.EventRecord{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	s.logger.Info("event created",
		zap.String("code", key),
		zap.Float64("lat", pos.Lat),
		zap.Float64("lng", pos.Lng),
		zap.String("tz", tz),
	)
	return doc.record(), nil
}

// normalizeTimezone falls back to the default zone for values the IANA
// database does not know, mirroring the create form's behavior.
func normalizeTimezone(tz string) string {
	if tz == "" {
		return models.DefaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return models.DefaultTimezone
	}
	return tz
}
