package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrLimitNotFound = errors.New("number limit not found")

type NumberLimit struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	EventID     string `gorm:"index;not null"`
	NumberRange string `gorm:"not null"`
	MaxTimes    int    `gorm:"not null"`
	TimesSold   int    `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
}

type LimitDAO struct {
	db *gorm.DB
}

func NewLimitDAO(db *gorm.DB) *LimitDAO {
	return &LimitDAO{
		db: db,
	}
}

// ListByEvent returns an event's limits in stored order. The ordering matters:
// when ranges overlap, the first match in this order wins.
func (d *LimitDAO) ListByEvent(ctx context.Context, eventID string) ([]NumberLimit, error) {
	var limits []NumberLimit
	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("number_range").
		Find(&limits)
	if result.Error != nil {
		return nil, result.Error
	}

	return limits, nil
}

func (d *LimitDAO) GetByID(ctx context.Context, id string) (NumberLimit, error) {
	var limit NumberLimit
	result := d.db.WithContext(ctx).Where("id = ?", id).First(&limit)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return NumberLimit{}, ErrLimitNotFound
		}
		return NumberLimit{}, result.Error
	}

	return limit, nil
}

func (d *LimitDAO) GetByEventAndRange(ctx context.Context, eventID, numberRange string) (NumberLimit, error) {
	var limit NumberLimit
	result := d.db.WithContext(ctx).
		Where("event_id = ? AND number_range = ?", eventID, numberRange).
		First(&limit)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return NumberLimit{}, ErrLimitNotFound
		}
		return NumberLimit{}, result.Error
	}

	return limit, nil
}

func (d *LimitDAO) Insert(ctx context.Context, limit NumberLimit) (NumberLimit, error) {
	result := d.db.WithContext(ctx).Create(&limit)
	if result.Error != nil {
		return NumberLimit{}, result.Error
	}

	return limit, nil
}

// UpdateMaxTimes changes a limit's capacity without touching the sold counter.
func (d *LimitDAO) UpdateMaxTimes(ctx context.Context, id string, maxTimes int) (NumberLimit, error) {
	result := d.db.WithContext(ctx).Model(&NumberLimit{}).
		Where("id = ?", id).
		Update("max_times", maxTimes)
	if result.Error != nil {
		return NumberLimit{}, result.Error
	}
	if result.RowsAffected == 0 {
		return NumberLimit{}, ErrLimitNotFound
	}

	return d.GetByID(ctx, id)
}

func (d *LimitDAO) Delete(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Where("id = ?", id).Delete(&NumberLimit{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLimitNotFound
	}

	return nil
}

// HasAtomicCounters probes for the server-side counter functions installed by
// InitTables. When the probe fails the mutator falls back to the guarded
// read-modify-write path.
func (d *LimitDAO) HasAtomicCounters(ctx context.Context) bool {
	var found bool
	err := d.db.WithContext(ctx).
		Raw("SELECT to_regproc('increment_number_sold_safely') IS NOT NULL").
		Scan(&found).Error

	return err == nil && found
}

// IncrementSoldAtomic runs the server-side conditional increment. It returns
// false without error when the cap would be breached.
func (d *LimitDAO) IncrementSoldAtomic(ctx context.Context, limitID string, amount, maxTimes int) (bool, error) {
	var ok bool
	err := d.db.WithContext(ctx).
		Raw("SELECT increment_number_sold_safely(?, ?, ?)", limitID, amount, maxTimes).
		Scan(&ok).Error
	if err != nil {
		return false, err
	}

	return ok, nil
}

// DecrementSoldAtomic runs the server-side decrement, which clamps at zero.
func (d *LimitDAO) DecrementSoldAtomic(ctx context.Context, limitID string, amount int) (bool, error) {
	var ok bool
	err := d.db.WithContext(ctx).
		Raw("SELECT decrement_number_sold_safely(?, ?)", limitID, amount).
		Scan(&ok).Error
	if err != nil {
		return false, err
	}

	return ok, nil
}

// IncrementSoldGuarded is the legacy path: a plain increment guarded by the
// conditional clause so a racing writer cannot push the counter over the cap.
// Zero rows affected means the cap would have been breached.
func (d *LimitDAO) IncrementSoldGuarded(ctx context.Context, limitID string, newTimesSold, amount int) (int64, error) {
	result := d.db.WithContext(ctx).Model(&NumberLimit{}).
		Where("id = ? AND times_sold < max_times - ? + 1", limitID, amount).
		Update("times_sold", newTimesSold)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// SetSold overwrites the counter. Only the legacy decrement path uses it,
// after clamping the new value at zero.
func (d *LimitDAO) SetSold(ctx context.Context, limitID string, timesSold int) (int64, error) {
	result := d.db.WithContext(ctx).Model(&NumberLimit{}).
		Where("id = ?", limitID).
		Update("times_sold", timesSold)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
