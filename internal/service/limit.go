package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/repository"
)

var (
	ErrLimitNotFound   = repository.ErrLimitNotFound
	ErrRangeOverlap    = errors.New("number range overlaps an existing limit")
	ErrInvalidRange    = errors.New("number range must be a number or A-B with A <= B, endpoints 0-99")
	ErrInvalidMaxTimes = errors.New("max times must be a positive integer")
)

const limitCacheTTL = 30 * time.Second

type LimitRepository interface {
	ListByEvent(ctx context.Context, eventID string) ([]domain.NumberLimit, error)
	GetByID(ctx context.Context, id string) (domain.NumberLimit, error)
	GetByEventAndRange(ctx context.Context, eventID, numberRange string) (domain.NumberLimit, error)
	Create(ctx context.Context, limit domain.NumberLimit) (domain.NumberLimit, error)
	UpdateMaxTimes(ctx context.Context, id string, maxTimes int) (domain.NumberLimit, error)
	Delete(ctx context.Context, id string) error
	HasAtomicCounters(ctx context.Context) bool
	IncrementSoldAtomic(ctx context.Context, limitID string, amount, maxTimes int) (bool, error)
	DecrementSoldAtomic(ctx context.Context, limitID string, amount int) (bool, error)
	IncrementSoldGuarded(ctx context.Context, limitID string, newTimesSold, amount int) (int64, error)
	SetSold(ctx context.Context, limitID string, timesSold int) (int64, error)
}

// counterStrategy is how a sold counter gets moved. The atomic strategy runs
// the server-side SQL functions; the legacy strategy is the read-then-guarded-
// update path used against databases where those functions were never
// installed.
type counterStrategy interface {
	increment(ctx context.Context, limit domain.NumberLimit, amount int) (bool, error)
	decrement(ctx context.Context, limit domain.NumberLimit, amount int) (bool, error)
}

// LimitService owns number-limit CRUD, the cached per-event limit view,
// availability checks and the sold-counter mutations.
type LimitService struct {
	repo  LimitRepository
	cache *gocache.Cache

	strategyOnce sync.Once
	strategy     counterStrategy
	legacy       counterStrategy
}

func NewLimitService(repo LimitRepository) *LimitService {
	return &LimitService{
		repo:   repo,
		cache:  gocache.New(limitCacheTTL, time.Minute),
		legacy: &legacyStrategy{repo: repo},
	}
}

// ListLimits returns the event's limits in stored order. Reads are served
// from a short-lived cache unless bypassCache is set; every counter mutation
// invalidates the cached view.
func (s *LimitService) ListLimits(ctx context.Context, eventID string, bypassCache bool) ([]domain.NumberLimit, error) {
	if !bypassCache {
		if cached, ok := s.cache.Get(eventID); ok {
			return cached.([]domain.NumberLimit), nil
		}
	}

	limits, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByEvent -> %w", err)
	}

	s.cache.Set(eventID, limits, gocache.DefaultExpiration)
	return limits, nil
}

// CreateLimit validates and stores a new limit. A range that overlaps an
// existing limit for the event is rejected so first-match resolution stays
// unambiguous for new data.
func (s *LimitService) CreateLimit(ctx context.Context, eventID, numberRange string, maxTimes int) (domain.NumberLimit, error) {
	start, end, ok := parseRangeSpec(numberRange)
	if !ok {
		return domain.NumberLimit{}, ErrInvalidRange
	}
	if maxTimes <= 0 {
		return domain.NumberLimit{}, ErrInvalidMaxTimes
	}

	spec := strings.TrimSpace(numberRange)

	// The indexed lookup settles the common case, resubmitting the exact
	// same range, before the full overlap scan.
	if _, err := s.repo.GetByEventAndRange(ctx, eventID, spec); err == nil {
		return domain.NumberLimit{}, ErrRangeOverlap
	} else if !errors.Is(err, ErrLimitNotFound) {
		return domain.NumberLimit{}, fmt.Errorf("s.repo.GetByEventAndRange -> %w", err)
	}

	existing, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return domain.NumberLimit{}, fmt.Errorf("s.repo.ListByEvent -> %w", err)
	}
	for _, l := range existing {
		es, ee, ok := parseRangeSpec(l.NumberRange)
		if ok && start <= ee && es <= end {
			return domain.NumberLimit{}, ErrRangeOverlap
		}
	}

	created, err := s.repo.Create(ctx, domain.NumberLimit{
		EventID:     eventID,
		NumberRange: spec,
		MaxTimes:    maxTimes,
	})
	if err != nil {
		return domain.NumberLimit{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.cache.Delete(eventID)
	return created, nil
}

// UpdateLimit changes a limit's cap. The cap may be lowered below the current
// sold count; Remaining floors at zero and no further sales match until
// capacity is released.
func (s *LimitService) UpdateLimit(ctx context.Context, id string, maxTimes int) (domain.NumberLimit, error) {
	if maxTimes <= 0 {
		return domain.NumberLimit{}, ErrInvalidMaxTimes
	}

	updated, err := s.repo.UpdateMaxTimes(ctx, id, maxTimes)
	if err != nil {
		return domain.NumberLimit{}, fmt.Errorf("s.repo.UpdateMaxTimes -> %w", err)
	}

	s.cache.Delete(updated.EventID)
	return updated, nil
}

func (s *LimitService) DeleteLimit(ctx context.Context, id string) error {
	limit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	s.cache.Delete(limit.EventID)
	return nil
}

// IncrementSold reserves amount units of the number's capacity. It reports
// true only when the counter was durably increased without breaching the cap;
// a number no limit covers succeeds without touching any counter. Errors on
// the atomic path fall through to the legacy guarded update.
func (s *LimitService) IncrementSold(ctx context.Context, eventID, number string, amount int) bool {
	if amount <= 0 {
		return false
	}

	limit, matched, err := s.matchLimit(ctx, eventID, number)
	if err != nil {
		zap.L().Error("failed to resolve limit for increment",
			zap.String("event_id", eventID), zap.String("number", number), zap.Error(err))
		return false
	}
	if !matched {
		return true
	}
	defer s.cache.Delete(eventID)

	ok, err := s.pickStrategy(ctx).increment(ctx, limit, amount)
	if err != nil {
		zap.L().Warn("atomic increment failed, retrying on legacy path",
			zap.String("limit_id", limit.ID), zap.Error(err))
		ok, err = s.legacy.increment(ctx, limit, amount)
		if err != nil {
			zap.L().Error("legacy increment failed", zap.String("limit_id", limit.ID), zap.Error(err))
			return false
		}
	}
	return ok
}

// DecrementSold releases amount units of the number's capacity, clamping the
// counter at zero. A number no limit covers succeeds without touching any
// counter.
func (s *LimitService) DecrementSold(ctx context.Context, eventID, number string, amount int) bool {
	if amount <= 0 {
		return false
	}

	limit, matched, err := s.matchLimit(ctx, eventID, number)
	if err != nil {
		zap.L().Error("failed to resolve limit for decrement",
			zap.String("event_id", eventID), zap.String("number", number), zap.Error(err))
		return false
	}
	if !matched {
		return true
	}
	defer s.cache.Delete(eventID)

	ok, err := s.pickStrategy(ctx).decrement(ctx, limit, amount)
	if err != nil {
		zap.L().Warn("atomic decrement failed, retrying on legacy path",
			zap.String("limit_id", limit.ID), zap.Error(err))
		ok, err = s.legacy.decrement(ctx, limit, amount)
		if err != nil {
			zap.L().Error("legacy decrement failed", zap.String("limit_id", limit.ID), zap.Error(err))
			return false
		}
	}
	return ok
}

// matchLimit finds the first limit covering number, in stored order. The
// lookup bypasses the cache so counter mutations never act on a stale row id.
func (s *LimitService) matchLimit(ctx context.Context, eventID, number string) (domain.NumberLimit, bool, error) {
	limits, err := s.ListLimits(ctx, eventID, true)
	if err != nil {
		return domain.NumberLimit{}, false, err
	}

	for _, l := range limits {
		if IsNumberInRange(number, l.NumberRange) {
			return l, true, nil
		}
	}
	return domain.NumberLimit{}, false, nil
}

// pickStrategy probes once whether the database has the atomic counter
// functions installed and sticks with the answer for the service's lifetime.
func (s *LimitService) pickStrategy(ctx context.Context) counterStrategy {
	s.strategyOnce.Do(func() {
		if s.repo.HasAtomicCounters(ctx) {
			s.strategy = &atomicStrategy{repo: s.repo}
			zap.L().Info("using atomic counter functions for limit mutations")
			return
		}
		s.strategy = s.legacy
		zap.L().Warn("atomic counter functions not installed, using legacy guarded updates")
	})
	return s.strategy
}

type atomicStrategy struct {
	repo LimitRepository
}

func (a *atomicStrategy) increment(ctx context.Context, limit domain.NumberLimit, amount int) (bool, error) {
	return a.repo.IncrementSoldAtomic(ctx, limit.ID, amount, limit.MaxTimes)
}

func (a *atomicStrategy) decrement(ctx context.Context, limit domain.NumberLimit, amount int) (bool, error) {
	return a.repo.DecrementSoldAtomic(ctx, limit.ID, amount)
}

type legacyStrategy struct {
	repo LimitRepository
}

func (l *legacyStrategy) increment(ctx context.Context, limit domain.NumberLimit, amount int) (bool, error) {
	// Re-read so the local check runs against the freshest counter.
	fresh, err := l.repo.GetByID(ctx, limit.ID)
	if err != nil {
		return false, fmt.Errorf("l.repo.GetByID -> %w", err)
	}
	if fresh.TimesSold+amount > fresh.MaxTimes {
		return false, nil
	}

	// The WHERE clause re-checks the cap server-side. Zero rows affected
	// means a concurrent writer got there first and the reservation lost.
	affected, err := l.repo.IncrementSoldGuarded(ctx, limit.ID, fresh.TimesSold+amount, amount)
	if err != nil {
		return false, fmt.Errorf("l.repo.IncrementSoldGuarded -> %w", err)
	}
	return affected > 0, nil
}

func (l *legacyStrategy) decrement(ctx context.Context, limit domain.NumberLimit, amount int) (bool, error) {
	fresh, err := l.repo.GetByID(ctx, limit.ID)
	if err != nil {
		return false, fmt.Errorf("l.repo.GetByID -> %w", err)
	}

	newSold := fresh.TimesSold - amount
	if newSold < 0 {
		newSold = 0
	}

	if _, err := l.repo.SetSold(ctx, limit.ID, newSold); err != nil {
		return false, fmt.Errorf("l.repo.SetSold -> %w", err)
	}
	return true, nil
}

// parseRangeSpec parses "N" or "A-B" with 0-99 endpoints.
func parseRangeSpec(spec string) (start, end int, ok bool) {
	spec = strings.TrimSpace(spec)

	if parts := strings.Split(spec, "-"); len(parts) == 2 {
		s, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, 0, false
		}
		e, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, false
		}
		if s > e || s < 0 || e > 99 {
			return 0, 0, false
		}
		return s, e, true
	}

	n, err := strconv.Atoi(spec)
	if err != nil || n < 0 || n > 99 {
		return 0, 0, false
	}
	return n, n, true
}
