package repository

import (
	"context"

	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/repository/dao"
)

var ErrLimitNotFound = dao.ErrLimitNotFound

type LimitDAO interface {
	ListByEvent(ctx context.Context, eventID string) ([]dao.NumberLimit, error)
	GetByID(ctx context.Context, id string) (dao.NumberLimit, error)
	GetByEventAndRange(ctx context.Context, eventID, numberRange string) (dao.NumberLimit, error)
	Insert(ctx context.Context, limit dao.NumberLimit) (dao.NumberLimit, error)
	UpdateMaxTimes(ctx context.Context, id string, maxTimes int) (dao.NumberLimit, error)
	Delete(ctx context.Context, id string) error
	HasAtomicCounters(ctx context.Context) bool
	IncrementSoldAtomic(ctx context.Context, limitID string, amount, maxTimes int) (bool, error)
	DecrementSoldAtomic(ctx context.Context, limitID string, amount int) (bool, error)
	IncrementSoldGuarded(ctx context.Context, limitID string, newTimesSold, amount int) (int64, error)
	SetSold(ctx context.Context, limitID string, timesSold int) (int64, error)
}

type LimitRepository struct {
	dao LimitDAO
}

func NewLimitRepository(dao LimitDAO) *LimitRepository {
	return &LimitRepository{
		dao: dao,
	}
}

func (r *LimitRepository) domainToDao(l domain.NumberLimit) dao.NumberLimit {
	return dao.NumberLimit{
		ID:          l.ID,
		EventID:     l.EventID,
		NumberRange: l.NumberRange,
		MaxTimes:    l.MaxTimes,
		TimesSold:   l.TimesSold,
		CreatedAt:   l.CreatedAt,
	}
}

func (r *LimitRepository) daoToDomain(l dao.NumberLimit) domain.NumberLimit {
	return domain.NumberLimit{
		ID:          l.ID,
		EventID:     l.EventID,
		NumberRange: l.NumberRange,
		MaxTimes:    l.MaxTimes,
		TimesSold:   l.TimesSold,
		CreatedAt:   l.CreatedAt,
	}
}

func (r *LimitRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.NumberLimit, error) {
	limits, err := r.dao.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.NumberLimit, len(limits))
	for i, l := range limits {
		result[i] = r.daoToDomain(l)
	}

	return result, nil
}

func (r *LimitRepository) GetByID(ctx context.Context, id string) (domain.NumberLimit, error) {
	limit, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.NumberLimit{}, err
	}

	return r.daoToDomain(limit), nil
}

func (r *LimitRepository) GetByEventAndRange(ctx context.Context, eventID, numberRange string) (domain.NumberLimit, error) {
	limit, err := r.dao.GetByEventAndRange(ctx, eventID, numberRange)
	if err != nil {
		return domain.NumberLimit{}, err
	}

	return r.daoToDomain(limit), nil
}

func (r *LimitRepository) Create(ctx context.Context, limit domain.NumberLimit) (domain.NumberLimit, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(limit))
	if err != nil {
		return domain.NumberLimit{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *LimitRepository) UpdateMaxTimes(ctx context.Context, id string, maxTimes int) (domain.NumberLimit, error) {
	updated, err := r.dao.UpdateMaxTimes(ctx, id, maxTimes)
	if err != nil {
		return domain.NumberLimit{}, err
	}

	return r.daoToDomain(updated), nil
}

func (r *LimitRepository) Delete(ctx context.Context, id string) error {
	return r.dao.Delete(ctx, id)
}

func (r *LimitRepository) HasAtomicCounters(ctx context.Context) bool {
	return r.dao.HasAtomicCounters(ctx)
}

func (r *LimitRepository) IncrementSoldAtomic(ctx context.Context, limitID string, amount, maxTimes int) (bool, error) {
	return r.dao.IncrementSoldAtomic(ctx, limitID, amount, maxTimes)
}

func (r *LimitRepository) DecrementSoldAtomic(ctx context.Context, limitID string, amount int) (bool, error) {
	return r.dao.DecrementSoldAtomic(ctx, limitID, amount)
}

func (r *LimitRepository) IncrementSoldGuarded(ctx context.Context, limitID string, newTimesSold, amount int) (int64, error) {
	return r.dao.IncrementSoldGuarded(ctx, limitID, newTimesSold, amount)
}

func (r *LimitRepository) SetSold(ctx context.Context, limitID string, timesSold int) (int64, error) {
	return r.dao.SetSold(ctx, limitID, timesSold)
}
