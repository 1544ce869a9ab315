package errors

import "errors"

// Ledger errors.
var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrNotOwner = errors.New("booking belongs to another user")

	ErrAlreadyCancelled = errors.New("booking is already cancelled")
)

// Slot rule errors, one per validation rule so callers can surface the
// specific reason. Validation stops at the first failure.
var (
	ErrUnparsableTime = errors.New("start and end times must be valid dates in Y-m-dTH:i format")

	ErrOutsideCurrentWeek = errors.New("bookings are only accepted for the current week")

	ErrClosedDay = errors.New("bookings are only accepted Monday through Saturday")

	ErrOutsideOpeningHours = errors.New("bookings start between 10:00 and 21:15 for 45-minute slots")

	ErrDegenerateSlot = errors.New("start and end times cannot be identical")

	ErrPastStart = errors.New("start time must not be in the past")

	ErrEndBeforeStart = errors.New("end time must be after start time")

	ErrWrongDuration = errors.New("slots last exactly 45 minutes")
)
