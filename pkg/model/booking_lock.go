package model

import "time"

// BookingLock is an advisory lock keyed by court. Inserting it into a
// collection with a unique _id serializes concurrent booking attempts
// for the same court; a TTL index on ExpiresAt reaps stale locks.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
