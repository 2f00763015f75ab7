package domain

// RejectionKind discriminates the expected business failures of a ticket
// operation. Infrastructure errors are returned separately as Go errors.
type RejectionKind string

const (
	RejectionValidation RejectionKind = "validation"
	RejectionCapacity   RejectionKind = "capacity"
	RejectionDuplicate  RejectionKind = "duplicate"
	RejectionOwnership  RejectionKind = "ownership"
	RejectionClosed     RejectionKind = "event_closed"
)

// NumberInfo points at the number that made a capacity rejection.
type NumberInfo struct {
	Number    string `json:"number"`
	Remaining int    `json:"remaining"`
	Requested int    `json:"requested"`
}

// Rejection is the structured refusal of a ticket operation. Status follows
// the severity the selling UI renders: "warning" for capacity outcomes the
// vendor can correct, "error" for everything else.
type Rejection struct {
	Kind       RejectionKind `json:"kind"`
	Status     string        `json:"status"`
	Message    string        `json:"message"`
	NumberInfo *NumberInfo   `json:"numberInfo,omitempty"`
}

// TicketResult is the tagged union returned by ticket create/update: exactly
// one of Ticket or Rejection is set.
type TicketResult struct {
	Ticket    *Ticket
	Rejection *Rejection
}

func OkTicket(t Ticket) TicketResult {
	return TicketResult{Ticket: &t}
}

func Rejected(r Rejection) TicketResult {
	return TicketResult{Rejection: &r}
}

func (r TicketResult) OK() bool {
	return r.Ticket != nil
}
