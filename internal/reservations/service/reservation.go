package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	reserrors "mybad/internal/reservations/errors"
	"mybad/internal/reservations/repository"
	"mybad/internal/reservations/validator"
	usererrors "mybad/internal/users/errors"
	"mybad/pkg/clock"
	"mybad/pkg/config"
	apperrors "mybad/pkg/errors"
	"mybad/pkg/kafka"
	"mybad/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// UserResolver maps a pseudo to the external user identity.
type UserResolver interface {
	ResolveUser(ctx context.Context, pseudo string) (*model.User, error)
}

// CourtGetter looks up a court and its availability state.
type CourtGetter interface {
	GetByID(ctx context.Context, id string) (*model.Court, error)
}

type ReservationService interface {
	Book(ctx context.Context, courtID string, req *model.ReservationRequest) (*model.Booking, error)
	Cancel(ctx context.Context, courtID string, req *model.CancellationRequest) error
	ListByCourt(ctx context.Context, courtID, pseudo, status string) ([]*model.Booking, error)
}

type reservationService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	users     UserResolver
	courts    CourtGetter
	validator *validator.BookingValidator
	clk       clock.Clock
	producer  *kafka.Producer
	cfg       *config.Config
}

func NewReservationService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	users UserResolver,
	courts CourtGetter,
	bookingValidator *validator.BookingValidator,
	clk clock.Clock,
	producer *kafka.Producer,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		users:     users,
		courts:    courts,
		validator: bookingValidator,
		clk:       clk,
		producer:  producer,
		cfg:       cfg,
	}
}

// Book runs the reservation pipeline: payload validation, user resolution,
// court availability gate, the slot rule chain, then conflict check and
// insert under a per-court advisory lock and a transaction, so two
// concurrent requests for overlapping slots cannot both commit.
func (s *reservationService) Book(ctx context.Context, courtID string, req *model.ReservationRequest) (*model.Booking, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Reservation payload validation failed", "court_id", courtID, "error", err)
		return nil, apperrors.Validation("Please provide your pseudo and the desired slot in Y-m-dTH:i format", map[string]any{"error": err.Error()})
	}

	user, err := s.resolveUser(ctx, req.Pseudo)
	if err != nil {
		return nil, err
	}

	court, err := s.courts.GetByID(ctx, courtID)
	if err != nil {
		return nil, err
	}
	if !court.Availability {
		return nil, apperrors.Conflict("The requested court is not available")
	}

	start, end, err := s.validator.ParseSlot(req.StartTime, req.EndTime)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if err := s.validator.ValidateSlot(start, end); err != nil {
		s.cfg.Log.Warn("Slot rejected",
			"court_id", courtID,
			"start_time", start,
			"end_time", end,
			"reason", err,
		)
		return nil, apperrors.InvalidInput(err.Error())
	}

	booking := &model.Booking{
		UserID:      user.ID,
		CourtID:     courtID,
		StartTime:   start,
		EndTime:     end,
		BookingDate: s.clk.Now().Format("2006-01-02"),
		Status:      model.StatusConfirmed,
	}

	lockID, err := s.acquireCourtLock(ctx, courtID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseCourtLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindConfirmedOverlapping(sessCtx, courtID, start, end)
		if err != nil {
			return apperrors.Internal("Failed to check existing bookings", err)
		}
		if len(existing) > 0 {
			return apperrors.Conflict("We are sorry, this slot is already booked for the requested court")
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "court_id", courtID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"court_id", courtID,
		"user_id", user.ID,
		"start_time", booking.StartTime,
	)
	s.publishEvent(ctx, kafka.EventBookingCreated, booking)

	return booking, nil
}

// Cancel resolves the user and delegates to the ledger's conditional
// update. Ownership and status checks happen inside that single write.
func (s *reservationService) Cancel(ctx context.Context, courtID string, req *model.CancellationRequest) error {
	if err := s.validator.ValidateCancellation(req); err != nil {
		s.cfg.Log.Warn("Cancellation payload validation failed", "court_id", courtID, "error", err)
		return apperrors.Validation("Please provide your pseudo and the booking identifier", map[string]any{"error": err.Error()})
	}

	user, err := s.resolveUser(ctx, req.Pseudo)
	if err != nil {
		return err
	}

	if err := s.repo.Cancel(ctx, req.BookingID, courtID, user.ID); err != nil {
		switch {
		case errors.Is(err, reserrors.ErrNotFound), errors.Is(err, reserrors.ErrInvalidID):
			return apperrors.NotFoundWithID("Booking", req.BookingID)
		case errors.Is(err, reserrors.ErrNotOwner):
			return apperrors.Forbidden("You do not have the rights to access the mentioned booking")
		case errors.Is(err, reserrors.ErrAlreadyCancelled):
			return apperrors.Conflict("This booking is already cancelled")
		default:
			return apperrors.Internal("Failed to cancel booking", err)
		}
	}

	s.cfg.Log.Info("Booking cancelled",
		"id", req.BookingID,
		"court_id", courtID,
		"user_id", user.ID,
	)
	s.publishEvent(ctx, kafka.EventBookingCancelled, &model.Booking{
		ID:      req.BookingID,
		CourtID: courtID,
		UserID:  user.ID,
		Status:  model.StatusCancelled,
	})

	return nil
}

// ListByCourt returns the caller's bookings for a court, optionally
// filtered by status. Reads go straight to the ledger; they are not
// serialized with in-flight writes.
func (s *reservationService) ListByCourt(ctx context.Context, courtID, pseudo, status string) ([]*model.Booking, error) {
	if status != "" && status != model.StatusConfirmed && status != model.StatusCancelled {
		return nil, apperrors.InvalidInput(fmt.Sprintf("status must be %q or %q", model.StatusConfirmed, model.StatusCancelled))
	}

	user, err := s.resolveUser(ctx, pseudo)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindByCourt(ctx, courtID, status)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "court_id", courtID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	if len(bookings) == 0 {
		return nil, apperrors.NotFound("No booking for this court or with this status")
	}

	owned := make([]*model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.UserID == user.ID {
			owned = append(owned, b)
		}
	}
	if len(owned) == 0 {
		return nil, apperrors.Forbidden("You do not have the rights to access the mentioned bookings")
	}

	return owned, nil
}

// --- Helpers ---

func (s *reservationService) resolveUser(ctx context.Context, pseudo string) (*model.User, error) {
	user, err := s.users.ResolveUser(ctx, pseudo)
	if err != nil {
		if errors.Is(err, usererrors.ErrNotFound) {
			return nil, apperrors.Forbidden("Unable to identify you, you cannot manage bookings")
		}
		return nil, apperrors.Internal("Failed to resolve user", err)
	}
	return user, nil
}

// acquireCourtLock inserts an advisory lock keyed by court alone. Slot
// starts are arbitrary minutes, so a per-slot key would let two
// overlapping intervals with different starts race past the conflict
// check on separate locks. One lock per court serializes every booking
// attempt for that court; a duplicate key means another request is
// booking on this court right now.
func (s *reservationService) acquireCourtLock(ctx context.Context, courtID string) (string, error) {
	lockID := fmt.Sprintf("booking_lock_%s", courtID)

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(10 * time.Second),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("Another booking is in progress for this court. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

// releaseCourtLock runs deferred, often after the request context has
// been cancelled or timed out. The delete is detached from the caller so
// an abandoned lock does not block the court until the TTL sweep.
func (s *reservationService) releaseCourtLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(context.WithoutCancel(ctx), lockID)
}

// publishEvent emits a booking lifecycle event. Publishing is best-effort:
// the booking is already durable, so a broker failure only logs.
func (s *reservationService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	if s.producer == nil {
		return
	}

	msg, err := kafka.NewMessage().
		WithKey(booking.CourtID).
		WithEventType(eventType).
		WithSource("reservations").
		WithValue(booking).
		Build()
	if err != nil {
		s.cfg.Log.Warn("Failed to build booking event", "event_type", eventType, "error", err)
		return
	}

	if err := s.producer.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
