package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrTicketNotFound = errors.New("ticket not found")

type Ticket struct {
	// ID is client-generated so an offline form can mint it before first save.
	ID string `gorm:"primaryKey;type:uuid"`

	EventID     string  `gorm:"index;not null"`
	ClientName  string  `gorm:"not null"`
	Amount      float64 `gorm:"not null"`
	Numbers     string  `gorm:"not null;default:''"`
	VendorEmail string  `gorm:"index"`
	// Rows is the JSON-encoded row list, stored as the original app stored it.
	Rows string `gorm:"type:jsonb;not null;default:'[]'"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

func (d *TicketDAO) Insert(ctx context.Context, ticket Ticket) (Ticket, error) {
	result := d.db.WithContext(ctx).Create(&ticket)
	if result.Error != nil {
		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) GetByID(ctx context.Context, id string) (Ticket, error) {
	var ticket Ticket
	result := d.db.WithContext(ctx).Where("id = ?", id).First(&ticket)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}
		return Ticket{}, result.Error
	}

	return ticket, nil
}

// ListByEventAndVendor returns the vendor's tickets for one event, newest first.
func (d *TicketDAO) ListByEventAndVendor(ctx context.Context, eventID, vendorEmail string) ([]Ticket, error) {
	var tickets []Ticket
	result := d.db.WithContext(ctx).
		Where("event_id = ? AND vendor_email = ?", eventID, vendorEmail).
		Order("created_at DESC").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

func (d *TicketDAO) ListByEvent(ctx context.Context, eventID string) ([]Ticket, error) {
	var tickets []Ticket
	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

// ListByClientAndVendor fetches candidate duplicates for the submission guard.
func (d *TicketDAO) ListByClientAndVendor(ctx context.Context, eventID, clientName, vendorEmail string) ([]Ticket, error) {
	var tickets []Ticket
	result := d.db.WithContext(ctx).
		Where("event_id = ? AND client_name = ? AND vendor_email = ?", eventID, clientName, vendorEmail).
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

// ListVendorless returns tickets that predate vendor scoping.
func (d *TicketDAO) ListVendorless(ctx context.Context, eventID string) ([]Ticket, error) {
	var tickets []Ticket
	result := d.db.WithContext(ctx).
		Where("event_id = ? AND (vendor_email IS NULL OR vendor_email = '')", eventID).
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

func (d *TicketDAO) ClaimVendorless(ctx context.Context, eventID, vendorEmail string) (int64, error) {
	result := d.db.WithContext(ctx).Model(&Ticket{}).
		Where("event_id = ? AND (vendor_email IS NULL OR vendor_email = '')", eventID).
		Update("vendor_email", vendorEmail)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (d *TicketDAO) Update(ctx context.Context, ticket Ticket) (Ticket, error) {
	result := d.db.WithContext(ctx).Model(&Ticket{}).
		Where("id = ?", ticket.ID).
		Updates(map[string]any{
			"event_id":     ticket.EventID,
			"client_name":  ticket.ClientName,
			"amount":       ticket.Amount,
			"numbers":      ticket.Numbers,
			"vendor_email": ticket.VendorEmail,
			"rows":         ticket.Rows,
		})
	if result.Error != nil {
		return Ticket{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Ticket{}, ErrTicketNotFound
	}

	return d.GetByID(ctx, ticket.ID)
}

func (d *TicketDAO) Delete(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Where("id = ?", id).Delete(&Ticket{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTicketNotFound
	}

	return nil
}
