package repository

import (
	"context"

	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/repository/dao"
)

var ErrEventNotFound = dao.ErrEventNotFound

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	GetByID(ctx context.Context, id string) (dao.Event, error)
	List(ctx context.Context) ([]dao.Event, error)
	Update(ctx context.Context, event dao.Event) (dao.Event, error)
	Delete(ctx context.Context, id string) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) domainToDao(e domain.Event) dao.Event {
	event := dao.Event{
		ID:              e.ID,
		Name:            e.Name,
		StartDate:       e.StartDate,
		EndDate:         e.EndDate,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		Active:          e.Active,
		RepeatDaily:     e.RepeatDaily,
		Status:          string(e.Status),
		MinNumber:       e.MinNumber,
		MaxNumber:       e.MaxNumber,
		ExcludedNumbers: e.ExcludedNumbers,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.AwardedNumbers != nil {
		event.FirstPrize = e.AwardedNumbers.FirstPrize
		event.SecondPrize = e.AwardedNumbers.SecondPrize
		event.ThirdPrize = e.AwardedNumbers.ThirdPrize
		awardedAt := e.AwardedNumbers.AwardedAt
		event.AwardedAt = &awardedAt
	}

	return event
}

func (r *EventRepository) daoToDomain(e dao.Event) domain.Event {
	event := domain.Event{
		ID:              e.ID,
		Name:            e.Name,
		StartDate:       e.StartDate,
		EndDate:         e.EndDate,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		Active:          e.Active,
		RepeatDaily:     e.RepeatDaily,
		Status:          domain.EventStatus(e.Status),
		MinNumber:       e.MinNumber,
		MaxNumber:       e.MaxNumber,
		ExcludedNumbers: e.ExcludedNumbers,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.FirstPrize != "" {
		event.AwardedNumbers = &domain.AwardedNumbers{
			FirstPrize:  e.FirstPrize,
			SecondPrize: e.SecondPrize,
			ThirdPrize:  e.ThirdPrize,
		}
		if e.AwardedAt != nil {
			event.AwardedNumbers.AwardedAt = *e.AwardedAt
		}
	}

	return event
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (domain.Event, error) {
	event, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(event), nil
}

func (r *EventRepository) List(ctx context.Context) ([]domain.Event, error) {
	events, err := r.dao.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Event, len(events))
	for i, e := range events {
		result[i] = r.daoToDomain(e)
	}

	return result, nil
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(updated), nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	return r.dao.Delete(ctx, id)
}
