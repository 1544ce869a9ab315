package errors

import "errors"

var (
	ErrNotFound = errors.New("court not found")

	ErrInvalidID = errors.New("invalid court ID format")

	ErrAlreadyUnavailable = errors.New("court is already unavailable")

	ErrInvalidWindow = errors.New("unavailability must last exactly 2 days")

	ErrPastDate = errors.New("unavailability start date must not precede today")
)
