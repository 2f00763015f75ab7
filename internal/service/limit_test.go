package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

var errMockFailure = errors.New("mock failure")

// mockLimitRepo is an in-memory LimitRepository. All methods take the mutex
// so concurrent callers see the same serialization guarantees the real
// conditional UPDATEs give.
type mockLimitRepo struct {
	mu        sync.Mutex
	limits    []domain.NumberLimit
	hasAtomic bool
	failOps   map[string]bool
	nextID    int
}

func newMockLimitRepo(hasAtomic bool, limits ...domain.NumberLimit) *mockLimitRepo {
	return &mockLimitRepo{
		limits:    limits,
		hasAtomic: hasAtomic,
		failOps:   make(map[string]bool),
	}
}

func (m *mockLimitRepo) find(id string) *domain.NumberLimit {
	for i := range m.limits {
		if m.limits[i].ID == id {
			return &m.limits[i]
		}
	}
	return nil
}

func (m *mockLimitRepo) ListByEvent(_ context.Context, eventID string) ([]domain.NumberLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps["ListByEvent"] {
		return nil, errMockFailure
	}
	var result []domain.NumberLimit
	for _, l := range m.limits {
		if l.EventID == eventID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockLimitRepo) GetByID(_ context.Context, id string) (domain.NumberLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps["GetByID"] {
		return domain.NumberLimit{}, errMockFailure
	}
	if l := m.find(id); l != nil {
		return *l, nil
	}
	return domain.NumberLimit{}, ErrLimitNotFound
}

func (m *mockLimitRepo) GetByEventAndRange(_ context.Context, eventID, numberRange string) (domain.NumberLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps["GetByEventAndRange"] {
		return domain.NumberLimit{}, errMockFailure
	}
	for _, l := range m.limits {
		if l.EventID == eventID && l.NumberRange == numberRange {
			return l, nil
		}
	}
	return domain.NumberLimit{}, ErrLimitNotFound
}

func (m *mockLimitRepo) Create(_ context.Context, limit domain.NumberLimit) (domain.NumberLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps["Create"] {
		return domain.NumberLimit{}, errMockFailure
	}
	m.nextID++
	limit.ID = fmt.Sprintf("limit-%d", m.nextID)
	m.limits = append(m.limits, limit)
	return limit, nil
}

func (m *mockLimitRepo) UpdateMaxTimes(_ context.Context, id string, maxTimes int) (domain.NumberLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.find(id)
	if l == nil {
		return domain.NumberLimit{}, ErrLimitNotFound
	}
	l.MaxTimes = maxTimes
	return *l, nil
}

func (m *mockLimitRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.limits {
		if m.limits[i].ID == id {
			m.limits = append(m.limits[:i], m.limits[i+1:]...)
			return nil
		}
	}
	return ErrLimitNotFound
}

func (m *mockLimitRepo) HasAtomicCounters(_ context.Context) bool {
	return m.hasAtomic
}

func (m *mockLimitRepo) IncrementSoldAtomic(_ context.Context, limitID string, amount, _ int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps["IncrementSoldAtomic"] {
		return false, errMockFailure
	}
	l := m.find(limitID)
	if l == nil {
		return false, ErrLimitNotFound
	}
	if l.TimesSold+amount > l.MaxTimes {
		return false, nil
	}
	l.TimesSold += amount
	return true, nil
}

func (m *mockLimitRepo) DecrementSoldAtomic(_ context.Context, limitID string, amount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.find(limitID)
	if l == nil {
		return false, ErrLimitNotFound
	}
	l.TimesSold -= amount
	if l.TimesSold < 0 {
		l.TimesSold = 0
	}
	return true, nil
}

func (m *mockLimitRepo) IncrementSoldGuarded(_ context.Context, limitID string, newTimesSold, amount int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps["IncrementSoldGuarded"] {
		return 0, errMockFailure
	}
	l := m.find(limitID)
	if l == nil {
		return 0, nil
	}
	// Same guard the SQL carries: times_sold < max_times - amount + 1.
	if l.TimesSold >= l.MaxTimes-amount+1 {
		return 0, nil
	}
	l.TimesSold = newTimesSold
	return 1, nil
}

func (m *mockLimitRepo) SetSold(_ context.Context, limitID string, timesSold int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.find(limitID)
	if l == nil {
		return 0, nil
	}
	l.TimesSold = timesSold
	return 1, nil
}

func (m *mockLimitRepo) sold(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l := m.find(id); l != nil {
		return l.TimesSold
	}
	return -1
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("no limits configured is unrestricted", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true))
		got := svc.CheckAvailability(ctx, "event-1", "42", 3)
		assert.True(t, got.Available)
		assert.True(t, got.Unlimited)
		assert.Empty(t, got.LimitID)
	})

	t.Run("uncovered number is unrestricted", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5,
		}))
		got := svc.CheckAvailability(ctx, "event-1", "42", 3)
		assert.True(t, got.Available)
		assert.True(t, got.Unlimited)
	})

	t.Run("covered number with capacity", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5, TimesSold: 2,
		}))
		got := svc.CheckAvailability(ctx, "event-1", "15", 3)
		assert.True(t, got.Available)
		assert.False(t, got.Unlimited)
		assert.Equal(t, 3, got.Remaining)
		assert.Equal(t, "l1", got.LimitID)
	})

	t.Run("covered number without enough capacity", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5, TimesSold: 4,
		}))
		got := svc.CheckAvailability(ctx, "event-1", "15", 2)
		assert.False(t, got.Available)
		assert.Equal(t, 1, got.Remaining)
	})

	t.Run("oversold limit reports zero remaining", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "7", MaxTimes: 5, TimesSold: 9,
		}))
		got := svc.CheckAvailability(ctx, "event-1", "7", 1)
		assert.False(t, got.Available)
		assert.Equal(t, 0, got.Remaining)
	})

	t.Run("first match wins in stored order", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true,
			domain.NumberLimit{ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5},
			domain.NumberLimit{ID: "l2", EventID: "event-1", NumberRange: "15", MaxTimes: 1, TimesSold: 1},
		))
		got := svc.CheckAvailability(ctx, "event-1", "15", 1)
		assert.True(t, got.Available)
		assert.Equal(t, "l1", got.LimitID)
	})

	t.Run("non-positive requested times fails closed", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true))
		assert.False(t, svc.CheckAvailability(ctx, "event-1", "15", 0).Available)
		assert.False(t, svc.CheckAvailability(ctx, "event-1", "15", -2).Available)
	})

	t.Run("non-numeric number fails closed", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true))
		assert.False(t, svc.CheckAvailability(ctx, "event-1", "abc", 1).Available)
	})

	t.Run("store failure fails closed", func(t *testing.T) {
		repo := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5,
		})
		repo.failOps["ListByEvent"] = true
		svc := NewLimitService(repo)
		got := svc.CheckAvailability(ctx, "event-1", "15", 1)
		assert.False(t, got.Available)
		assert.Equal(t, 0, got.Remaining)
	})

	t.Run("fresh re-read failure fails closed", func(t *testing.T) {
		repo := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5,
		})
		svc := NewLimitService(repo)
		repo.failOps["GetByID"] = true
		got := svc.CheckAvailability(ctx, "event-1", "15", 1)
		assert.False(t, got.Available)
	})
}

func TestIncrementSold(t *testing.T) {
	ctx := context.Background()

	t.Run("atomic path reserves capacity", func(t *testing.T) {
		repo := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5, TimesSold: 2,
		})
		svc := NewLimitService(repo)
		assert.True(t, svc.IncrementSold(ctx, "event-1", "15", 3))
		assert.Equal(t, 5, repo.sold("l1"))
	})

	t.Run("atomic path refuses to breach cap", func(t *testing.T) {
		repo := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5, TimesSold: 3,
		})
		svc := NewLimitService(repo)
		assert.False(t, svc.IncrementSold(ctx, "event-1", "15", 3))
		assert.Equal(t, 3, repo.sold("l1"))
	})

	t.Run("legacy path reserves capacity", func(t *testing.T) {
		repo := newMockLimitRepo(false, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5, TimesSold: 2,
		})
		svc := NewLimitService(repo)
		assert.True(t, svc.IncrementSold(ctx, "event-1", "15", 3))
		assert.Equal(t, 5, repo.sold("l1"))
	})

	t.Run("legacy path refuses to breach cap", func(t *testing.T) {
		repo := newMockLimitRepo(false, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5, TimesSold: 3,
		})
		svc := NewLimitService(repo)
		assert.False(t, svc.IncrementSold(ctx, "event-1", "15", 3))
		assert.Equal(t, 3, repo.sold("l1"))
	})

	t.Run("atomic failure falls back to legacy", func(t *testing.T) {
		repo := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5, TimesSold: 0,
		})
		repo.failOps["IncrementSoldAtomic"] = true
		svc := NewLimitService(repo)
		assert.True(t, svc.IncrementSold(ctx, "event-1", "15", 2))
		assert.Equal(t, 2, repo.sold("l1"))
	})

	t.Run("uncovered number succeeds without touching counters", func(t *testing.T) {
		repo := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5,
		})
		svc := NewLimitService(repo)
		assert.True(t, svc.IncrementSold(ctx, "event-1", "42", 3))
		assert.Equal(t, 0, repo.sold("l1"))
	})

	t.Run("non-positive amount is refused", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true))
		assert.False(t, svc.IncrementSold(ctx, "event-1", "15", 0))
	})
}

func TestDecrementSold(t *testing.T) {
	ctx := context.Background()

	t.Run("releases capacity", func(t *testing.T) {
		repo := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5, TimesSold: 4,
		})
		svc := NewLimitService(repo)
		assert.True(t, svc.DecrementSold(ctx, "event-1", "15", 3))
		assert.Equal(t, 1, repo.sold("l1"))
	})

	t.Run("clamps at zero", func(t *testing.T) {
		repo := newMockLimitRepo(false, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5, TimesSold: 2,
		})
		svc := NewLimitService(repo)
		assert.True(t, svc.DecrementSold(ctx, "event-1", "15", 10))
		assert.Equal(t, 0, repo.sold("l1"))
	})

	t.Run("uncovered number succeeds without touching counters", func(t *testing.T) {
		repo := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5, TimesSold: 2,
		})
		svc := NewLimitService(repo)
		assert.True(t, svc.DecrementSold(ctx, "event-1", "42", 3))
		assert.Equal(t, 2, repo.sold("l1"))
	})
}

// Concurrent reservations must never push a counter past its cap, on either
// strategy. The atomic strategy additionally accounts exactly.
func TestIncrementSold_Concurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("atomic strategy accounts exactly under contention", func(t *testing.T) {
		const workers, limitCap = 50, 10
		repo := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: limitCap,
		})
		svc := NewLimitService(repo)

		var wg sync.WaitGroup
		results := make([]bool, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = svc.IncrementSold(ctx, "event-1", "15", 1)
			}(i)
		}
		wg.Wait()

		successes := 0
		for _, ok := range results {
			if ok {
				successes++
			}
		}
		assert.Equal(t, limitCap, successes)
		assert.Equal(t, limitCap, repo.sold("l1"))
	})

	t.Run("legacy strategy never breaches the cap under contention", func(t *testing.T) {
		const workers, limitCap = 50, 10
		repo := newMockLimitRepo(false, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: limitCap,
		})
		svc := NewLimitService(repo)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				svc.IncrementSold(ctx, "event-1", "15", 1)
			}()
		}
		wg.Wait()

		assert.LessOrEqual(t, repo.sold("l1"), limitCap)
	})
}

func TestCreateLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a valid limit", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true))
		created, err := svc.CreateLimit(ctx, "event-1", "10-19", 5)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "10-19", created.NumberRange)
	})

	t.Run("rejects exact duplicate range without scanning", func(t *testing.T) {
		repo := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5,
		})
		// The scan is unreachable when the indexed lookup already found the
		// duplicate.
		repo.failOps["ListByEvent"] = true
		svc := NewLimitService(repo)
		_, err := svc.CreateLimit(ctx, "event-1", " 10-19 ", 5)
		assert.ErrorIs(t, err, ErrRangeOverlap)
	})

	t.Run("rejects overlapping range", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5,
		}))
		_, err := svc.CreateLimit(ctx, "event-1", "15-25", 5)
		assert.ErrorIs(t, err, ErrRangeOverlap)

		_, err = svc.CreateLimit(ctx, "event-1", "12", 5)
		assert.ErrorIs(t, err, ErrRangeOverlap)
	})

	t.Run("same range on another event is fine", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5,
		}))
		_, err := svc.CreateLimit(ctx, "event-2", "10-19", 5)
		assert.NoError(t, err)
	})

	t.Run("rejects malformed range", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true))
		_, err := svc.CreateLimit(ctx, "event-1", "19-10", 5)
		assert.ErrorIs(t, err, ErrInvalidRange)

		_, err = svc.CreateLimit(ctx, "event-1", "abc", 5)
		assert.ErrorIs(t, err, ErrInvalidRange)

		_, err = svc.CreateLimit(ctx, "event-1", "0-150", 5)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("rejects non-positive max times", func(t *testing.T) {
		svc := NewLimitService(newMockLimitRepo(true))
		_, err := svc.CreateLimit(ctx, "event-1", "10-19", 0)
		assert.ErrorIs(t, err, ErrInvalidMaxTimes)
	})
}

func TestListLimits_Cache(t *testing.T) {
	ctx := context.Background()

	repo := newMockLimitRepo(true, domain.NumberLimit{
		ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5, TimesSold: 0,
	})
	svc := NewLimitService(repo)

	first, err := svc.ListLimits(ctx, "event-1", false)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Mutate behind the cache's back; a cached read must not see it, a
	// bypass read must.
	repo.SetSold(ctx, "l1", 3)

	cached, err := svc.ListLimits(ctx, "event-1", false)
	require.NoError(t, err)
	assert.Equal(t, 0, cached[0].TimesSold)

	fresh, err := svc.ListLimits(ctx, "event-1", true)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh[0].TimesSold)

	// A counter mutation invalidates the cached view.
	svc.IncrementSold(ctx, "event-1", "15", 1)
	after, err := svc.ListLimits(ctx, "event-1", false)
	require.NoError(t, err)
	assert.Equal(t, 4, after[0].TimesSold)
}
