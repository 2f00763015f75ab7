package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

type TicketRowPayload struct {
	ID      string  `json:"id"`
	Times   string  `json:"times"`
	Actions string  `json:"actions"`
	Value   float64 `json:"value"`
}

type CreateTicketRequest struct {
	ClientName string             `json:"client_name"`
	Rows       []TicketRowPayload `json:"rows"`
}

func (req *CreateTicketRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ClientName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Rows, validation.Required, validation.Length(1, 0)),
	)
}

func (req *CreateTicketRequest) DomainRows() []domain.TicketRow {
	return toDomainRows(req.Rows)
}

type UpdateTicketRequest struct {
	ClientName string             `json:"client_name"`
	Rows       []TicketRowPayload `json:"rows"`
}

func (req *UpdateTicketRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ClientName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Rows, validation.Required, validation.Length(1, 0)),
	)
}

func (req *UpdateTicketRequest) DomainRows() []domain.TicketRow {
	return toDomainRows(req.Rows)
}

func toDomainRows(rows []TicketRowPayload) []domain.TicketRow {
	result := make([]domain.TicketRow, len(rows))
	for i, r := range rows {
		result[i] = domain.TicketRow{
			ID:      r.ID,
			Times:   r.Times,
			Actions: r.Actions,
			Value:   r.Value,
		}
	}
	return result
}
