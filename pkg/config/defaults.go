package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "mybad"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultJWTTTL = 2 * time.Minute

	DefaultAdminPseudo = "admybad"

	DefaultBookingEventTopic = "mybad.bookings"
	DefaultCourtEventTopic   = "mybad.courts"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBusinessTimeZone = "Europe/Paris"

	// Booking rules. Slots are exactly 45 minutes; courts open at 10:00 and
	// close at 22:00, so the last bookable start is 21:15.
	SlotDuration         = 45 * time.Minute
	OpeningHour          = 10
	ClosingHour          = 22
	UnavailabilityWindow = 2 // calendar days, exactly
)

var LastBookableStart = struct{ Hour, Minute int }{21, 15}
