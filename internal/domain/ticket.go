package domain

import (
	"strconv"
	"strings"
	"time"
)

// TicketRow is one line of a ticket: "times" units bought on number "actions".
// Both fields are string-encoded because that is how the selling UI captures
// them; Times and Number give the parsed views.
type TicketRow struct {
	ID      string  `json:"id"`
	Times   string  `json:"times"`
	Actions string  `json:"actions"`
	Value   float64 `json:"value"`
}

// Valid reports whether the row carries a sellable purchase.
func (r TicketRow) Valid() bool {
	return r.Actions != "" && r.TimesCount() > 0
}

// TimesCount parses the row quantity, returning 0 for anything non-numeric.
func (r TicketRow) TimesCount() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Times))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Ticket is one vendor's sale to one client.
type Ticket struct {
	ID          string      `json:"id"`
	EventID     string      `json:"event_id"`
	ClientName  string      `json:"client_name"`
	Amount      float64     `json:"amount"`
	Numbers     string      `json:"numbers"`
	VendorEmail string      `json:"vendor_email"`
	Rows        []TicketRow `json:"rows"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalTimes sums the parsed quantity of every valid row.
func (t Ticket) TotalTimes() int {
	total := 0
	for _, row := range t.Rows {
		if row.Valid() {
			total += row.TimesCount()
		}
	}
	return total
}

// ConsolidatedNumbers folds duplicate numbers across rows into one total per
// number. Limit enforcement always works on this view so a purchase split
// across rows cannot bypass a cap.
func (t Ticket) ConsolidatedNumbers() map[string]int {
	consolidated := make(map[string]int)
	for _, row := range t.Rows {
		if row.Valid() {
			consolidated[row.Actions] += row.TimesCount()
		}
	}
	return consolidated
}

// DisplayNumbers joins the valid rows' numbers into the stored display string.
func (t Ticket) DisplayNumbers() string {
	var numbers []string
	for _, row := range t.Rows {
		if row.Valid() {
			numbers = append(numbers, row.Actions)
		}
	}
	return strings.Join(numbers, ", ")
}

// SamePurchase reports whether the other ticket sells exactly the same
// number/times multiset. Used by the duplicate-submission guard.
func (t Ticket) SamePurchase(other Ticket) bool {
	mine := t.ConsolidatedNumbers()
	theirs := other.ConsolidatedNumbers()
	if len(mine) != len(theirs) {
		return false
	}
	for number, times := range mine {
		if theirs[number] != times {
			return false
		}
	}
	return true
}
