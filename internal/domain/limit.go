package domain

import "time"

// NumberLimit caps how many times a number (or inclusive range of numbers)
// may be sold within one event. Invariant after any committed mutation:
// 0 <= TimesSold <= MaxTimes. A number with no matching limit row is
// unlimited; that is not the same as a zero-capacity limit.
type NumberLimit struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	NumberRange string    `json:"number_range"` // "N" or "A-B", endpoints 0-99
	MaxTimes    int       `json:"max_times"`
	TimesSold   int       `json:"times_sold"`
	CreatedAt   time.Time `json:"created_at"`
}

// Remaining is the capacity still sellable under this limit, floored at 0.
func (l NumberLimit) Remaining() int {
	remaining := l.MaxTimes - l.TimesSold
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Availability is the outcome of a capacity check for one number.
type Availability struct {
	Available bool
	// Remaining is meaningless when Unlimited is set.
	Remaining int
	Unlimited bool
	// LimitID is empty when no configured limit matches the number.
	LimitID string
}

// Unrestricted is the availability of a number no limit covers.
func Unrestricted() Availability {
	return Availability{Available: true, Unlimited: true}
}

// NoCapacity is the fail-closed availability used for invalid input and
// infrastructure failure.
func NoCapacity() Availability {
	return Availability{Available: false, Remaining: 0}
}
