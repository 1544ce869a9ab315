package model

import (
	"time"
)

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking is a single 45-minute reservation of a court. Status only ever
// moves confirmed -> cancelled; bookings are never deleted.
type Booking struct {
	ID          string    `json:"id_booking,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID      string    `json:"id_user" bson:"user_id" validate:"required,mongodb"`
	CourtID     string    `json:"id_court" bson:"court_id" validate:"required,mongodb"`
	StartTime   time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	BookingDate string    `json:"date_booking" bson:"date_booking" validate:"required,datetime=2006-01-02"`
	Status      string    `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// ReservationRequest is the booking payload. Times are minute-precision
// local wall-clock strings in the business timezone.
type ReservationRequest struct {
	Pseudo    string `json:"pseudo" validate:"required,min=2,max=50"`
	StartTime string `json:"start_time" validate:"required,datetime=2006-01-02T15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=2006-01-02T15:04"`
}

type CancellationRequest struct {
	Pseudo    string `json:"pseudo" validate:"required,min=2,max=50"`
	BookingID string `json:"bookingId" validate:"required,mongodb"`
}

func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// Overlaps reports whether two intervals collide under half-open
// [start, end) semantics. Back-to-back slots do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}
