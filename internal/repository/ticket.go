package repository

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/repository/dao"
)

var ErrTicketNotFound = dao.ErrTicketNotFound

type TicketDAO interface {
	Insert(ctx context.Context, ticket dao.Ticket) (dao.Ticket, error)
	GetByID(ctx context.Context, id string) (dao.Ticket, error)
	ListByEventAndVendor(ctx context.Context, eventID, vendorEmail string) ([]dao.Ticket, error)
	ListByEvent(ctx context.Context, eventID string) ([]dao.Ticket, error)
	ListByClientAndVendor(ctx context.Context, eventID, clientName, vendorEmail string) ([]dao.Ticket, error)
	ListVendorless(ctx context.Context, eventID string) ([]dao.Ticket, error)
	ClaimVendorless(ctx context.Context, eventID, vendorEmail string) (int64, error)
	Update(ctx context.Context, ticket dao.Ticket) (dao.Ticket, error)
	Delete(ctx context.Context, id string) error
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

func (r *TicketRepository) domainToDao(t domain.Ticket) dao.Ticket {
	rows, err := json.Marshal(t.Rows)
	if err != nil {
		// Rows are plain strings and numbers; marshal cannot realistically
		// fail, but an empty list is the safe stored form if it does.
		zap.L().Warn("failed to encode ticket rows", zap.String("ticket_id", t.ID), zap.Error(err))
		rows = []byte("[]")
	}

	return dao.Ticket{
		ID:          t.ID,
		EventID:     t.EventID,
		ClientName:  t.ClientName,
		Amount:      t.Amount,
		Numbers:     t.Numbers,
		VendorEmail: t.VendorEmail,
		Rows:        string(rows),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r *TicketRepository) daoToDomain(t dao.Ticket) domain.Ticket {
	var rows []domain.TicketRow
	if err := json.Unmarshal([]byte(t.Rows), &rows); err != nil {
		// A ticket with unreadable rows is still listable; limit accounting
		// for it degrades to nothing rather than failing the whole fetch.
		zap.L().Warn("failed to decode ticket rows", zap.String("ticket_id", t.ID), zap.Error(err))
		rows = nil
	}

	return domain.Ticket{
		ID:          t.ID,
		EventID:     t.EventID,
		ClientName:  t.ClientName,
		Amount:      t.Amount,
		Numbers:     t.Numbers,
		VendorEmail: t.VendorEmail,
		Rows:        rows,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r *TicketRepository) Create(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(ticket))
	if err != nil {
		return domain.Ticket{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (domain.Ticket, error) {
	ticket, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}

	return r.daoToDomain(ticket), nil
}

func (r *TicketRepository) ListByEventAndVendor(ctx context.Context, eventID, vendorEmail string) ([]domain.Ticket, error) {
	tickets, err := r.dao.ListByEventAndVendor(ctx, eventID, vendorEmail)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(tickets), nil
}

func (r *TicketRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Ticket, error) {
	tickets, err := r.dao.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(tickets), nil
}

func (r *TicketRepository) ListByClientAndVendor(ctx context.Context, eventID, clientName, vendorEmail string) ([]domain.Ticket, error) {
	tickets, err := r.dao.ListByClientAndVendor(ctx, eventID, clientName, vendorEmail)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(tickets), nil
}

func (r *TicketRepository) ListVendorless(ctx context.Context, eventID string) ([]domain.Ticket, error) {
	tickets, err := r.dao.ListVendorless(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(tickets), nil
}

func (r *TicketRepository) ClaimVendorless(ctx context.Context, eventID, vendorEmail string) (int64, error) {
	return r.dao.ClaimVendorless(ctx, eventID, vendorEmail)
}

func (r *TicketRepository) Update(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(ticket))
	if err != nil {
		return domain.Ticket{}, err
	}

	return r.daoToDomain(updated), nil
}

func (r *TicketRepository) Delete(ctx context.Context, id string) error {
	return r.dao.Delete(ctx, id)
}

func (r *TicketRepository) daosToDomain(tickets []dao.Ticket) []domain.Ticket {
	result := make([]domain.Ticket, len(tickets))
	for i, t := range tickets {
		result[i] = r.daoToDomain(t)
	}

	return result
}
