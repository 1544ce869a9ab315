package clock

import (
	"fmt"
	"time"
)

// Clock supplies the current wall-clock time in the business timezone.
// Every temporal rule (same-week, future-dated, unavailability start) reads
// time through this interface so tests can pin "now".
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type businessClock struct {
	loc *time.Location
}

// NewBusiness returns a Clock anchored to the named IANA timezone.
func NewBusiness(timezone string) (Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid business timezone %q: %w", timezone, err)
	}
	return &businessClock{loc: loc}, nil
}

func (c *businessClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *businessClock) Location() *time.Location {
	return c.loc
}

// Fixed is a Clock pinned to a single instant, for deterministic tests.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time {
	return f.Instant
}

func (f Fixed) Location() *time.Location {
	return f.Instant.Location()
}
