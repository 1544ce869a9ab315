package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	courterrors "mybad/internal/courts/errors"
	"mybad/pkg/config"
	"mybad/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Courts"
)

type CourtRepository interface {
	FindAll(ctx context.Context) ([]*model.Court, error)
	FindByID(ctx context.Context, id string) (*model.Court, error)
	SetUnavailable(ctx context.Context, id string, window *model.UnavailabilityWindow) error
}

type mongoCourtRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCourtRepository(cfg *config.Config) CourtRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCourtRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoCourtRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoCourtRepository) FindAll(ctx context.Context) ([]*model.Court, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find courts: %w", err)
	}
	defer cursor.Close(ctx)

	var courts []*model.Court
	if err = cursor.All(ctx, &courts); err != nil {
		return nil, fmt.Errorf("failed to decode courts: %w", err)
	}

	return courts, nil
}

func (r *mongoCourtRepository) FindByID(ctx context.Context, id string) (*model.Court, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", courterrors.ErrInvalidID, id)
	}

	var court model.Court
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&court)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, courterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find court: %w", err)
	}

	return &court, nil
}

// SetUnavailable closes the court for the given window in one conditional
// update gated on availability, so two concurrent admin calls cannot both
// set the window. When nothing matched, a follow-up read tells NotFound
// apart from AlreadyUnavailable.
func (r *mongoCourtRepository) SetUnavailable(ctx context.Context, id string, window *model.UnavailabilityWindow) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", courterrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "availability": true}
	update := bson.M{"$set": bson.M{
		"availability":      false,
		"unavailable_from":  window.From,
		"unavailable_until": window.Until,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set court unavailable: %w", err)
	}
	if result.ModifiedCount > 0 {
		return nil
	}

	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return courterrors.ErrNotFound
		}
		return fmt.Errorf("failed to classify unavailability failure: %w", err)
	}
	return courterrors.ErrAlreadyUnavailable
}
