package response

import (
	"strconv"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

// AvailabilityResponse renders a capacity check. Remaining is the stringified
// count, or "unlimited" for numbers no limit covers.
type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Remaining string `json:"remaining"`
	LimitID   string `json:"limitId,omitempty"`
}

func NewAvailabilityResponse(av domain.Availability) AvailabilityResponse {
	remaining := strconv.Itoa(av.Remaining)
	if av.Unlimited {
		remaining = "unlimited"
	}

	return AvailabilityResponse{
		Available: av.Available,
		Remaining: remaining,
		LimitID:   av.LimitID,
	}
}

// RejectionResponse is the body of a refused ticket operation.
type RejectionResponse struct {
	Success    bool               `json:"success"`
	Kind       string             `json:"kind"`
	Status     string             `json:"status"`
	Message    string             `json:"message"`
	NumberInfo *domain.NumberInfo `json:"numberInfo,omitempty"`
}

func NewRejectionResponse(r domain.Rejection) RejectionResponse {
	return RejectionResponse{
		Success:    false,
		Kind:       string(r.Kind),
		Status:     r.Status,
		Message:    r.Message,
		NumberInfo: r.NumberInfo,
	}
}

// ClaimResponse lists the legacy tickets the caller just took ownership of.
type ClaimResponse struct {
	Claimed int             `json:"claimed"`
	Tickets []domain.Ticket `json:"tickets"`
}

func NewClaimResponse(tickets []domain.Ticket) ClaimResponse {
	return ClaimResponse{
		Claimed: len(tickets),
		Tickets: tickets,
	}
}
