package domain

import "time"

type EventStatus string

const (
	EventActive           EventStatus = "active"
	EventClosedAwarded    EventStatus = "closed_awarded"
	EventClosedNotAwarded EventStatus = "closed_not_awarded"
)

// Event is one time-boxed draw with its own number limits and ticket set.
type Event struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	StartTime   string      `json:"start_time"`
	EndTime     string      `json:"end_time"`
	Active      bool        `json:"active"`
	RepeatDaily bool        `json:"repeat_daily"`
	Status      EventStatus `json:"status"`

	// Sellable number window, both ends inclusive. Defaults to 0-99.
	MinNumber int `json:"min_number"`
	MaxNumber int `json:"max_number"`
	// ExcludedNumbers is a comma-separated list of numbers or A-B ranges
	// that cannot be sold even inside the window.
	ExcludedNumbers string `json:"excluded_numbers"`

	AwardedNumbers *AwardedNumbers `json:"awarded_numbers,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AwardedNumbers records the winning numbers once a draw is closed.
type AwardedNumbers struct {
	FirstPrize  string    `json:"first_prize"`
	SecondPrize string    `json:"second_prize"`
	ThirdPrize  string    `json:"third_prize"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// Closed reports whether the event no longer accepts ticket mutations.
func (e Event) Closed() bool {
	return e.Status == EventClosedAwarded || e.Status == EventClosedNotAwarded
}

func (e Event) Awarded() bool {
	return e.AwardedNumbers != nil && e.AwardedNumbers.FirstPrize != ""
}
