package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	reserrors "mybad/internal/reservations/errors"
	"mybad/pkg/clock"
	"mybad/pkg/config"
	"mybad/pkg/logger"
	"mybad/pkg/model"

	"github.com/go-playground/validator/v10"
)

// TimeLayout is the minute-precision wire format for slot boundaries.
const TimeLayout = "2006-01-02T15:04"

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// BookingValidator checks reservation payloads (struct tags) and slot
// candidates (the temporal rule chain). The rule chain reads "now" from the
// injected clock so the same-week and future-dated rules are deterministic
// under test.
type BookingValidator struct {
	validate *validator.Validate
	clk      clock.Clock
	logger   *logger.Logger
}

func NewBookingValidator(clk clock.Clock, log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
		clk:      clk,
		logger:   log,
	}
}

func (v *BookingValidator) ValidateRequest(req *model.ReservationRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateCancellation(req *model.CancellationRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ParseSlot parses the candidate boundaries as business-timezone wall-clock
// times. Syntactic format is already guaranteed by the request tags; this
// re-checks logical validity (a well-formed but impossible date fails here).
func (v *BookingValidator) ParseSlot(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(TimeLayout, startStr, v.clk.Location())
	if err != nil {
		return time.Time{}, time.Time{}, reserrors.ErrUnparsableTime
	}
	end, err := time.ParseInLocation(TimeLayout, endStr, v.clk.Location())
	if err != nil {
		return time.Time{}, time.Time{}, reserrors.ErrUnparsableTime
	}
	return start, end, nil
}

// ValidateSlot runs the booking rule chain in order, stopping at the first
// failure. Rules, in order: current ISO week, Monday-Saturday, opening
// hours (starts 10:00 through 21:15 so a slot never runs past the 22:00
// close), non-degenerate interval, not in the past, end after start,
// exactly 45 minutes.
func (v *BookingValidator) ValidateSlot(start, end time.Time) error {
	now := v.clk.Now().Truncate(time.Minute)

	nowYear, nowWeek := now.ISOWeek()
	startYear, startWeek := start.ISOWeek()
	if startYear != nowYear || startWeek != nowWeek {
		return reserrors.ErrOutsideCurrentWeek
	}

	if start.Weekday() == time.Sunday {
		return reserrors.ErrClosedDay
	}

	hour := start.Hour()
	if hour < config.OpeningHour || hour >= config.ClosingHour {
		return reserrors.ErrOutsideOpeningHours
	}
	last := config.LastBookableStart
	if hour == last.Hour && start.Minute() > last.Minute {
		return reserrors.ErrOutsideOpeningHours
	}

	if start.Equal(end) {
		return reserrors.ErrDegenerateSlot
	}

	if start.Before(now) {
		return reserrors.ErrPastStart
	}

	if !end.After(start) {
		return reserrors.ErrEndBeforeStart
	}

	if end.Sub(start) != config.SlotDuration {
		return reserrors.ErrWrongDuration
	}

	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be in %s format", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid booking ID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
