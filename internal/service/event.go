package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

var ErrEventClosed = errors.New("event is closed")

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	GetByID(ctx context.Context, id string) (domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	Update(ctx context.Context, event domain.Event) (domain.Event, error)
	Delete(ctx context.Context, id string) error
}

type EventService struct {
	repo EventRepository
}

func NewEventService(repo EventRepository) *EventService {
	return &EventService{
		repo: repo,
	}
}

func (s *EventService) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	if event.Status == "" {
		event.Status = domain.EventActive
	}
	if event.MaxNumber <= 0 {
		event.MaxNumber = 99
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return events, nil
}

// UpdateEvent edits an event's settings. Closed events are frozen.
func (s *EventService) UpdateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	current, err := s.repo.GetByID(ctx, event.ID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}
	if current.Closed() {
		return domain.Event{}, ErrEventClosed
	}

	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

// AwardEvent records the winning numbers and closes the draw.
func (s *EventService) AwardEvent(ctx context.Context, id, firstPrize, secondPrize, thirdPrize string) (domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}
	if event.Closed() {
		return domain.Event{}, ErrEventClosed
	}

	event.Status = domain.EventClosedAwarded
	event.Active = false
	event.AwardedNumbers = &domain.AwardedNumbers{
		FirstPrize:  firstPrize,
		SecondPrize: secondPrize,
		ThirdPrize:  thirdPrize,
		AwardedAt:   time.Now(),
	}

	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

// CloseEvent closes the draw without winners.
func (s *EventService) CloseEvent(ctx context.Context, id string) (domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}
	if event.Closed() {
		return event, nil
	}

	event.Status = domain.EventClosedNotAwarded
	event.Active = false

	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}
