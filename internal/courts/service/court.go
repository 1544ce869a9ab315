package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	courterrors "mybad/internal/courts/errors"
	"mybad/internal/courts/repository"
	"mybad/pkg/clock"
	"mybad/pkg/config"
	apperrors "mybad/pkg/errors"
	"mybad/pkg/kafka"
	"mybad/pkg/model"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

type CourtService interface {
	List(ctx context.Context) ([]*model.Court, error)
	GetByID(ctx context.Context, id string) (*model.Court, error)
	SetUnavailable(ctx context.Context, id string, window *model.UnavailabilityWindow) (*model.Court, error)
}

type courtService struct {
	repo     repository.CourtRepository
	validate *validator.Validate
	clk      clock.Clock
	producer *kafka.Producer
	cfg      *config.Config
}

func NewCourtService(
	repo repository.CourtRepository,
	clk clock.Clock,
	producer *kafka.Producer,
	cfg *config.Config,
) CourtService {
	return &courtService{
		repo:     repo,
		validate: validator.New(),
		clk:      clk,
		producer: producer,
		cfg:      cfg,
	}
}

func (s *courtService) List(ctx context.Context) ([]*model.Court, error) {
	courts, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list courts", "error", err)
		return nil, apperrors.Internal("Failed to retrieve courts", err)
	}
	return courts, nil
}

func (s *courtService) GetByID(ctx context.Context, id string) (*model.Court, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Court ID cannot be empty")
	}

	court, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, courterrors.ErrNotFound) || errors.Is(err, courterrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Court", id)
		}
		return nil, apperrors.Internal("Failed to retrieve court", err)
	}

	return court, nil
}

// SetUnavailable takes an available court out of service for exactly the
// configured window (2 calendar days). The availability precondition is
// enforced by the repository's conditional update, not re-checked here.
func (s *courtService) SetUnavailable(ctx context.Context, id string, window *model.UnavailabilityWindow) (*model.Court, error) {
	if err := s.validate.Struct(window); err != nil {
		s.cfg.Log.Warn("Unavailability payload validation failed", "court_id", id, "error", err)
		return nil, apperrors.Validation(
			"Please provide the unavailability dates in Y-m-d format",
			map[string]any{"error": err.Error()},
		)
	}

	if err := s.validateWindow(window); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	if err := s.repo.SetUnavailable(ctx, id, window); err != nil {
		switch {
		case errors.Is(err, courterrors.ErrNotFound), errors.Is(err, courterrors.ErrInvalidID):
			return nil, apperrors.NotFoundWithID("Court", id)
		case errors.Is(err, courterrors.ErrAlreadyUnavailable):
			return nil, apperrors.Conflict("You cannot make this court temporarily unavailable because it is already unavailable")
		default:
			return nil, apperrors.Internal("Failed to set court unavailable", err)
		}
	}

	court, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Failed to reload court", err)
	}

	s.cfg.Log.Info("Court made unavailable",
		"court_id", id,
		"from", window.From,
		"until", window.Until,
	)
	s.publishUnavailable(ctx, court, window)

	return court, nil
}

func (s *courtService) validateWindow(window *model.UnavailabilityWindow) error {
	loc := s.clk.Location()

	from, err := time.ParseInLocation(dateLayout, window.From, loc)
	if err != nil {
		return courterrors.ErrInvalidWindow
	}
	until, err := time.ParseInLocation(dateLayout, window.Until, loc)
	if err != nil {
		return courterrors.ErrInvalidWindow
	}

	today, _ := time.ParseInLocation(dateLayout, s.clk.Now().Format(dateLayout), loc)
	if from.Before(today) {
		return courterrors.ErrPastDate
	}

	if !until.Equal(from.AddDate(0, 0, config.UnavailabilityWindow)) {
		return courterrors.ErrInvalidWindow
	}

	return nil
}

func (s *courtService) publishUnavailable(ctx context.Context, court *model.Court, window *model.UnavailabilityWindow) {
	if s.producer == nil {
		return
	}

	msg, err := kafka.NewMessage().
		WithKey(court.ID).
		WithEventType(kafka.EventCourtUnavailable).
		WithSource("courts").
		WithValue(court).
		Build()
	if err != nil {
		s.cfg.Log.Warn("Failed to build court event", "court_id", court.ID, "error", err)
		return
	}

	if err := s.producer.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish court event",
			"court_id", court.ID,
			"window", fmt.Sprintf("%s/%s", window.From, window.Until),
			"error", err,
		)
	}
}
