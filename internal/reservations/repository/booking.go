package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reserrors "mybad/internal/reservations/errors"
	"mybad/pkg/config"
	mongotx "mybad/pkg/db/mongo"
	"mybad/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindConfirmedOverlapping(ctx context.Context, courtID string, start, end time.Time) ([]*model.Booking, error)
	FindByCourt(ctx context.Context, courtID string, status string) ([]*model.Booking, error)
	Cancel(ctx context.Context, bookingID, courtID, userID string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds the call unless it is already inside a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics,
// so it passes through with a no-op cancel.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

// FindConfirmedOverlapping returns the confirmed bookings of the court
// whose [start, end) interval collides with the candidate's. The filter is
// the half-open overlap test: existing.start < end AND existing.end > start.
// Cancelled bookings never conflict.
func (r *mongoBookingRepository) FindConfirmedOverlapping(ctx context.Context, courtID string, start, end time.Time) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"court_id":   courtID,
		"status":     model.StatusConfirmed,
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

// FindByCourt lists a court's bookings in insertion order, optionally
// narrowed by status. An empty result is not an error at this layer.
func (r *mongoBookingRepository) FindByCourt(ctx context.Context, courtID string, status string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"court_id": courtID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

// Cancel flips a confirmed booking to cancelled in one conditional update:
// the filter matches only if the booking exists on this court, belongs to
// this user, and is still confirmed, so two concurrent cancellations can
// never both succeed. When nothing matched, a follow-up read classifies the
// failure without mutating anything.
func (r *mongoBookingRepository) Cancel(ctx context.Context, bookingID, courtID, userID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return fmt.Errorf("%w: %s", reserrors.ErrInvalidID, bookingID)
	}

	filter := bson.M{
		"_id":      objectID,
		"court_id": courtID,
		"user_id":  userID,
		"status":   model.StatusConfirmed,
	}
	update := bson.M{"$set": bson.M{"status": model.StatusCancelled}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if result.ModifiedCount > 0 {
		return nil
	}

	var existing model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID, "court_id": courtID}).Decode(&existing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return reserrors.ErrNotFound
		}
		return fmt.Errorf("failed to classify cancel failure: %w", err)
	}
	if existing.UserID != userID {
		return reserrors.ErrNotOwner
	}
	return reserrors.ErrAlreadyCancelled
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
