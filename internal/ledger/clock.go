package ledger

// Clock holds the session's current logical time.
//
// Unlike a sequence clock, this one carries no monotonicity invariant: Set
// accepts any value, including one earlier than the current reading. Moving
// "now" backwards is an explicit capability so that out-of-order histories
// can be replayed and tested. Already-created agreements and enactments keep
// the times they were recorded with, even when those now postdate the clock.
//
// The clock is audit context only. It never participates in validation and
// imposes no ordering on mutations.
type Clock struct {
	current Time
}

// NewClock creates a clock reading 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock reading a specific time.
func NewClockAt(t Time) *Clock {
	return &Clock{current: t}
}

// Set unconditionally overwrites the current time. No validation.
func (c *Clock) Set(t Time) {
	c.current = t
}

// Current returns the current time.
func (c *Clock) Current() Time {
	return c.current
}
