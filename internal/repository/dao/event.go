package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

type Event struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	Name        string `gorm:"not null"`
	StartDate   string `gorm:"not null"`
	EndDate     string `gorm:"not null"`
	StartTime   string `gorm:"not null"`
	EndTime     string `gorm:"not null"`
	Active      bool   `gorm:"not null;default:true"`
	RepeatDaily bool   `gorm:"not null;default:false"`
	Status      string `gorm:"not null;default:active"`

	MinNumber       int    `gorm:"not null;default:0"`
	MaxNumber       int    `gorm:"not null;default:99"`
	ExcludedNumbers string `gorm:"not null;default:''"`

	FirstPrize  string
	SecondPrize string
	ThirdPrize  string
	AwardedAt   *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) GetByID(ctx context.Context, id string) (Event, error) {
	var event Event
	result := d.db.WithContext(ctx).Where("id = ?", id).First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) List(ctx context.Context) ([]Event, error) {
	var events []Event
	result := d.db.WithContext(ctx).Order("created_at DESC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) Update(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Model(&Event{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"name":             event.Name,
			"start_date":       event.StartDate,
			"end_date":         event.EndDate,
			"start_time":       event.StartTime,
			"end_time":         event.EndTime,
			"active":           event.Active,
			"repeat_daily":     event.RepeatDaily,
			"status":           event.Status,
			"min_number":       event.MinNumber,
			"max_number":       event.MaxNumber,
			"excluded_numbers": event.ExcludedNumbers,
			"first_prize":      event.FirstPrize,
			"second_prize":     event.SecondPrize,
			"third_prize":      event.ThirdPrize,
			"awarded_at":       event.AwardedAt,
		})
	if result.Error != nil {
		return Event{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Event{}, ErrEventNotFound
	}

	return d.GetByID(ctx, event.ID)
}

func (d *EventDAO) Delete(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Where("id = ?", id).Delete(&Event{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}
