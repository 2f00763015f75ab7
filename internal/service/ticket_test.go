package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

type mockTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
	failOps map[string]bool
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{
		tickets: make(map[string]domain.Ticket),
		failOps: make(map[string]bool),
	}
}

func (m *mockTicketRepo) Create(_ context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps["Create"] {
		return domain.Ticket{}, errMockFailure
	}
	m.tickets[ticket.ID] = ticket
	return ticket, nil
}

func (m *mockTicketRepo) GetByID(_ context.Context, id string) (domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tickets[id]; ok {
		return t, nil
	}
	return domain.Ticket{}, ErrTicketNotFound
}

func (m *mockTicketRepo) ListByEvent(_ context.Context, eventID string) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Ticket
	for _, t := range m.tickets {
		if t.EventID == eventID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTicketRepo) ListByEventAndVendor(_ context.Context, eventID, vendorEmail string) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Ticket
	for _, t := range m.tickets {
		if t.EventID == eventID && t.VendorEmail == vendorEmail {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTicketRepo) ListByClientAndVendor(_ context.Context, eventID, clientName, vendorEmail string) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Ticket
	for _, t := range m.tickets {
		if t.EventID == eventID && t.ClientName == clientName && t.VendorEmail == vendorEmail {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTicketRepo) ListVendorless(_ context.Context, eventID string) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Ticket
	for _, t := range m.tickets {
		if t.EventID == eventID && t.VendorEmail == "" {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTicketRepo) ClaimVendorless(_ context.Context, eventID, vendorEmail string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var claimed int64
	for id, t := range m.tickets {
		if t.EventID == eventID && t.VendorEmail == "" {
			t.VendorEmail = vendorEmail
			m.tickets[id] = t
			claimed++
		}
	}
	return claimed, nil
}

func (m *mockTicketRepo) Update(_ context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps["Update"] {
		return domain.Ticket{}, errMockFailure
	}
	if _, ok := m.tickets[ticket.ID]; !ok {
		return domain.Ticket{}, ErrTicketNotFound
	}
	m.tickets[ticket.ID] = ticket
	return ticket, nil
}

func (m *mockTicketRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps["Delete"] {
		return errMockFailure
	}
	if _, ok := m.tickets[id]; !ok {
		return ErrTicketNotFound
	}
	delete(m.tickets, id)
	return nil
}

func (m *mockTicketRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

type mockEventRepo struct {
	events map[string]domain.Event
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (domain.Event, error) {
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return domain.Event{}, ErrEventNotFound
}

func activeEventRepo() *mockEventRepo {
	return &mockEventRepo{events: map[string]domain.Event{
		"event-1": {ID: "event-1", Name: "Gran Sorteo", Active: true, Status: domain.EventActive, MinNumber: 0, MaxNumber: 99},
	}}
}

// fakeCapacity records every counter call and can be told to refuse the
// increment of one specific number, for asserting compensation order.
type fakeCapacity struct {
	remaining  map[string]int
	failNumber string
	calls      []string
}

func newFakeCapacity(remaining map[string]int) *fakeCapacity {
	return &fakeCapacity{remaining: remaining}
}

func (f *fakeCapacity) CheckAvailability(_ context.Context, _, number string, requestedTimes int) domain.Availability {
	r, ok := f.remaining[number]
	if !ok {
		return domain.Unrestricted()
	}
	return domain.Availability{Available: r >= requestedTimes, Remaining: r, LimitID: "limit-" + number}
}

func (f *fakeCapacity) IncrementSold(_ context.Context, _, number string, amount int) bool {
	if number == f.failNumber {
		f.calls = append(f.calls, fmt.Sprintf("inc-fail %s %d", number, amount))
		return false
	}
	f.calls = append(f.calls, fmt.Sprintf("inc %s %d", number, amount))
	if _, ok := f.remaining[number]; ok {
		f.remaining[number] -= amount
	}
	return true
}

func (f *fakeCapacity) DecrementSold(_ context.Context, _, number string, amount int) bool {
	f.calls = append(f.calls, fmt.Sprintf("dec %s %d", number, amount))
	if _, ok := f.remaining[number]; ok {
		f.remaining[number] += amount
	}
	return true
}

func row(id, number, times string) domain.TicketRow {
	return domain.TicketRow{ID: id, Actions: number, Times: times}
}

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	newSvc := func(limits *mockLimitRepo) (*TicketService, *mockTicketRepo) {
		repo := newMockTicketRepo()
		svc := NewTicketService(repo, activeEventRepo(), NewLimitService(limits), 0.25)
		return svc, repo
	}

	t.Run("persists a valid ticket with derived fields", func(t *testing.T) {
		svc, repo := newSvc(newMockLimitRepo(true))
		res, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "15", "3"), row("r2", "20", "2")},
		})
		require.NoError(t, err)
		require.True(t, res.OK())
		assert.NotEmpty(t, res.Ticket.ID)
		assert.Equal(t, 1.25, res.Ticket.Amount)
		assert.Equal(t, "15, 20", res.Ticket.Numbers)
		assert.Equal(t, "ana@sorteo.app", res.Ticket.VendorEmail)
		assert.Equal(t, 1, repo.count())
	})

	t.Run("consolidates split rows before checking limits", func(t *testing.T) {
		limits := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5,
		})
		svc, repo := newSvc(limits)
		// Two rows of 3 on the same number must count as 6 against a cap of 5.
		res, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "15", "3"), row("r2", "15", "3")},
		})
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionCapacity, res.Rejection.Kind)
		assert.Equal(t, "warning", res.Rejection.Status)
		require.NotNil(t, res.Rejection.NumberInfo)
		assert.Equal(t, "15", res.Rejection.NumberInfo.Number)
		assert.Equal(t, 5, res.Rejection.NumberInfo.Remaining)
		assert.Equal(t, 6, res.Rejection.NumberInfo.Requested)
		assert.Equal(t, 0, repo.count())
		assert.Equal(t, 0, limits.sold("l1"))
	})

	t.Run("rejects duplicate submission", func(t *testing.T) {
		svc, repo := newSvc(newMockLimitRepo(true))
		draft := TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "15", "3")},
		}
		first, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", draft)
		require.NoError(t, err)
		require.True(t, first.OK())

		second, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", draft)
		require.NoError(t, err)
		require.False(t, second.OK())
		assert.Equal(t, domain.RejectionDuplicate, second.Rejection.Kind)
		assert.Equal(t, 1, repo.count())
	})

	t.Run("same purchase by another vendor is not a duplicate", func(t *testing.T) {
		svc, repo := newSvc(newMockLimitRepo(true))
		draft := TicketDraft{ClientName: "Carlos", Rows: []domain.TicketRow{row("r1", "15", "3")}}

		first, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", draft)
		require.NoError(t, err)
		require.True(t, first.OK())

		second, err := svc.CreateTicket(ctx, "event-1", "luis@sorteo.app", draft)
		require.NoError(t, err)
		assert.True(t, second.OK())
		assert.Equal(t, 2, repo.count())
	})

	t.Run("rolls back earlier reservations when a later one fails", func(t *testing.T) {
		keeper := newFakeCapacity(map[string]int{"10": 5, "20": 5})
		keeper.failNumber = "20"
		repo := newMockTicketRepo()
		svc := NewTicketService(repo, activeEventRepo(), keeper, 0.25)

		res, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "10", "2"), row("r2", "20", "2")},
		})
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionCapacity, res.Rejection.Kind)
		assert.Equal(t, 0, repo.count())
		assert.Equal(t, 5, keeper.remaining["10"])
		assert.Equal(t, []string{"inc 10 2", "inc-fail 20 2", "dec 10 2"}, keeper.calls)
	})

	t.Run("rolls back all reservations when persistence fails", func(t *testing.T) {
		limits := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5,
		})
		repo := newMockTicketRepo()
		repo.failOps["Create"] = true
		svc := NewTicketService(repo, activeEventRepo(), NewLimitService(limits), 0.25)

		_, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "15", "3")},
		})
		require.Error(t, err)
		assert.Equal(t, 0, limits.sold("l1"))
	})

	t.Run("rejects empty client name", func(t *testing.T) {
		svc, _ := newSvc(newMockLimitRepo(true))
		res, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			Rows: []domain.TicketRow{row("r1", "15", "3")},
		})
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionValidation, res.Rejection.Kind)
	})

	t.Run("rejects draft with no valid row", func(t *testing.T) {
		svc, _ := newSvc(newMockLimitRepo(true))
		res, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "", "3"), row("r2", "15", "0"), row("r3", "15", "abc")},
		})
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionValidation, res.Rejection.Kind)
	})

	t.Run("rejects missing vendor identity", func(t *testing.T) {
		svc, _ := newSvc(newMockLimitRepo(true))
		res, err := svc.CreateTicket(ctx, "event-1", "", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "15", "3")},
		})
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionValidation, res.Rejection.Kind)
	})

	t.Run("rejects closed event", func(t *testing.T) {
		events := &mockEventRepo{events: map[string]domain.Event{
			"event-1": {ID: "event-1", Status: domain.EventClosedAwarded},
		}}
		svc := NewTicketService(newMockTicketRepo(), events, NewLimitService(newMockLimitRepo(true)), 0.25)
		res, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "15", "3")},
		})
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionClosed, res.Rejection.Kind)
	})

	t.Run("rejects excluded number", func(t *testing.T) {
		events := &mockEventRepo{events: map[string]domain.Event{
			"event-1": {ID: "event-1", Status: domain.EventActive, MaxNumber: 99, ExcludedNumbers: "13, 40-49"},
		}}
		svc := NewTicketService(newMockTicketRepo(), events, NewLimitService(newMockLimitRepo(true)), 0.25)
		res, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "45", "1")},
		})
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionValidation, res.Rejection.Kind)
	})

	t.Run("rejects number outside event window", func(t *testing.T) {
		events := &mockEventRepo{events: map[string]domain.Event{
			"event-1": {ID: "event-1", Status: domain.EventActive, MinNumber: 10, MaxNumber: 50},
		}}
		svc := NewTicketService(newMockTicketRepo(), events, NewLimitService(newMockLimitRepo(true)), 0.25)
		res, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "5", "1")},
		})
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionValidation, res.Rejection.Kind)
	})
}

func TestUpdateTicket(t *testing.T) {
	ctx := context.Background()

	seed := func(limits *mockLimitRepo) (*TicketService, *mockTicketRepo, domain.Ticket) {
		repo := newMockTicketRepo()
		svc := NewTicketService(repo, activeEventRepo(), NewLimitService(limits), 0.25)
		res, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "15", "3"), row("r2", "20", "2")},
		})
		require.NoError(t, err)
		require.True(t, res.OK())
		return svc, repo, *res.Ticket
	}

	t.Run("releases before reserving so moved capacity fits", func(t *testing.T) {
		// Cap of 5 on 10-19, fully held by this ticket's 5 on number 15.
		// Moving 2 of them to number 16 only fits if the release runs first.
		limits := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "10-19", MaxTimes: 5,
		})
		repo := newMockTicketRepo()
		svc := NewTicketService(repo, activeEventRepo(), NewLimitService(limits), 0.25)

		created, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "15", "5")},
		})
		require.NoError(t, err)
		require.True(t, created.OK())
		require.Equal(t, 5, limits.sold("l1"))

		updated := *created.Ticket
		updated.Rows = []domain.TicketRow{row("r1", "15", "3"), row("r2", "16", "2")}
		res, err := svc.UpdateTicket(ctx, "event-1", "ana@sorteo.app", updated)
		require.NoError(t, err)
		require.True(t, res.OK())
		assert.Equal(t, 5, limits.sold("l1"))
		assert.Equal(t, 1.25, res.Ticket.Amount)
	})

	t.Run("rejects growth beyond remaining capacity", func(t *testing.T) {
		limits := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5,
		})
		svc, _, ticket := seed(limits)

		ticket.Rows = []domain.TicketRow{row("r1", "15", "9"), row("r2", "20", "2")}
		res, err := svc.UpdateTicket(ctx, "event-1", "ana@sorteo.app", ticket)
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionCapacity, res.Rejection.Kind)
		// The original 3 stay reserved, nothing more.
		assert.Equal(t, 3, limits.sold("l1"))
	})

	t.Run("keeps applied decrements when a later increment fails", func(t *testing.T) {
		keeper := newFakeCapacity(map[string]int{"15": 0, "20": 5, "30": 0})
		keeper.failNumber = "30"
		repo := newMockTicketRepo()
		svc := NewTicketService(repo, activeEventRepo(), keeper, 0.25)

		seeded := domain.Ticket{
			ID: "t1", EventID: "event-1", ClientName: "Carlos", VendorEmail: "ana@sorteo.app",
			Rows: []domain.TicketRow{row("r1", "15", "3"), row("r2", "20", "2")},
		}
		repo.tickets["t1"] = seeded

		edited := seeded
		edited.Rows = []domain.TicketRow{row("r1", "15", "1"), row("r2", "20", "4"), row("r3", "30", "1")}
		res, err := svc.UpdateTicket(ctx, "event-1", "ana@sorteo.app", edited)
		require.NoError(t, err)
		require.False(t, res.OK())
		// 15 was decremented by 2 and stays decremented; the reserved growth
		// on 20 is compensated; 30 never took effect.
		assert.Equal(t, []string{"dec 15 2", "inc 20 2", "inc-fail 30 1", "dec 20 2"}, keeper.calls)
	})

	t.Run("restores decrements when persistence fails", func(t *testing.T) {
		keeper := newFakeCapacity(map[string]int{"15": 0, "20": 3})
		repo := newMockTicketRepo()
		svc := NewTicketService(repo, activeEventRepo(), keeper, 0.25)

		seeded := domain.Ticket{
			ID: "t1", EventID: "event-1", ClientName: "Carlos", VendorEmail: "ana@sorteo.app",
			Rows: []domain.TicketRow{row("r1", "15", "3"), row("r2", "20", "2")},
		}
		repo.tickets["t1"] = seeded
		repo.failOps["Update"] = true

		edited := seeded
		edited.Rows = []domain.TicketRow{row("r1", "15", "1"), row("r2", "20", "4")}
		_, err := svc.UpdateTicket(ctx, "event-1", "ana@sorteo.app", edited)
		require.Error(t, err)
		assert.Equal(t, []string{"dec 15 2", "inc 20 2", "dec 20 2", "inc 15 2"}, keeper.calls)
	})

	t.Run("rejects another vendor's ticket", func(t *testing.T) {
		svc, _, ticket := seed(newMockLimitRepo(true))
		res, err := svc.UpdateTicket(ctx, "event-1", "luis@sorteo.app", ticket)
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionOwnership, res.Rejection.Kind)
	})

	t.Run("claims a vendorless legacy ticket on update", func(t *testing.T) {
		repo := newMockTicketRepo()
		svc := NewTicketService(repo, activeEventRepo(), NewLimitService(newMockLimitRepo(true)), 0.25)
		repo.tickets["t1"] = domain.Ticket{
			ID: "t1", EventID: "event-1", ClientName: "Carlos",
			Rows: []domain.TicketRow{row("r1", "15", "3")},
		}

		edited := repo.tickets["t1"]
		res, err := svc.UpdateTicket(ctx, "event-1", "ana@sorteo.app", edited)
		require.NoError(t, err)
		require.True(t, res.OK())
		assert.Equal(t, "ana@sorteo.app", res.Ticket.VendorEmail)
	})
}

func TestDeleteTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("releases capacity then deletes", func(t *testing.T) {
		limits := newMockLimitRepo(true, domain.NumberLimit{
			ID: "l1", EventID: "event-1", NumberRange: "15", MaxTimes: 5,
		})
		repo := newMockTicketRepo()
		svc := NewTicketService(repo, activeEventRepo(), NewLimitService(limits), 0.25)

		created, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
			ClientName: "Carlos",
			Rows:       []domain.TicketRow{row("r1", "15", "3"), row("r2", "15", "1")},
		})
		require.NoError(t, err)
		require.True(t, created.OK())
		require.Equal(t, 4, limits.sold("l1"))

		res, err := svc.DeleteTicket(ctx, "event-1", "ana@sorteo.app", created.Ticket.ID)
		require.NoError(t, err)
		require.True(t, res.OK())
		assert.Equal(t, 0, limits.sold("l1"))
		assert.Equal(t, 0, repo.count())
	})

	t.Run("rejects another vendor's ticket", func(t *testing.T) {
		repo := newMockTicketRepo()
		repo.tickets["t1"] = domain.Ticket{ID: "t1", EventID: "event-1", VendorEmail: "ana@sorteo.app"}
		svc := NewTicketService(repo, activeEventRepo(), newFakeCapacity(nil), 0.25)

		res, err := svc.DeleteTicket(ctx, "event-1", "luis@sorteo.app", "t1")
		require.NoError(t, err)
		require.False(t, res.OK())
		assert.Equal(t, domain.RejectionOwnership, res.Rejection.Kind)
		assert.Equal(t, 1, repo.count())
	})

	t.Run("delete proceeds even when a release fails", func(t *testing.T) {
		keeper := newFakeCapacity(map[string]int{"15": 0})
		keeper.failNumber = "15"
		repo := newMockTicketRepo()
		repo.tickets["t1"] = domain.Ticket{
			ID: "t1", EventID: "event-1", VendorEmail: "ana@sorteo.app",
			Rows: []domain.TicketRow{row("r1", "15", "3")},
		}
		svc := NewTicketService(repo, activeEventRepo(), keeper, 0.25)

		res, err := svc.DeleteTicket(ctx, "event-1", "ana@sorteo.app", "t1")
		require.NoError(t, err)
		require.True(t, res.OK())
		assert.Equal(t, 0, repo.count())
	})
}

// A sold-out limit must free up after delete and be sellable again, with the
// counter landing exactly on the cap at every full-capacity point.
func TestTicketLifecycle_CapacityRoundTrip(t *testing.T) {
	ctx := context.Background()
	limits := newMockLimitRepo(true, domain.NumberLimit{
		ID: "l1", EventID: "event-1", NumberRange: "7", MaxTimes: 3,
	})
	repo := newMockTicketRepo()
	svc := NewTicketService(repo, activeEventRepo(), NewLimitService(limits), 0.25)

	first, err := svc.CreateTicket(ctx, "event-1", "ana@sorteo.app", TicketDraft{
		ClientName: "Carlos",
		Rows:       []domain.TicketRow{row("r1", "7", "3")},
	})
	require.NoError(t, err)
	require.True(t, first.OK())
	require.Equal(t, 3, limits.sold("l1"))

	blocked, err := svc.CreateTicket(ctx, "event-1", "luis@sorteo.app", TicketDraft{
		ClientName: "Maria",
		Rows:       []domain.TicketRow{row("r1", "7", "1")},
	})
	require.NoError(t, err)
	require.False(t, blocked.OK())
	assert.Equal(t, domain.RejectionCapacity, blocked.Rejection.Kind)

	deleted, err := svc.DeleteTicket(ctx, "event-1", "ana@sorteo.app", first.Ticket.ID)
	require.NoError(t, err)
	require.True(t, deleted.OK())
	require.Equal(t, 0, limits.sold("l1"))

	again, err := svc.CreateTicket(ctx, "event-1", "luis@sorteo.app", TicketDraft{
		ClientName: "Maria",
		Rows:       []domain.TicketRow{row("r1", "7", "1")},
	})
	require.NoError(t, err)
	assert.True(t, again.OK())
	assert.Equal(t, 1, limits.sold("l1"))
}

func TestClaimVendorless(t *testing.T) {
	ctx := context.Background()
	repo := newMockTicketRepo()
	repo.tickets["t1"] = domain.Ticket{ID: "t1", EventID: "event-1"}
	repo.tickets["t2"] = domain.Ticket{ID: "t2", EventID: "event-1", VendorEmail: "luis@sorteo.app"}
	svc := NewTicketService(repo, activeEventRepo(), newFakeCapacity(nil), 0.25)

	claimed, err := svc.ClaimVendorless(ctx, "event-1", "ana@sorteo.app")
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, "t1", claimed[0].ID)
	assert.Equal(t, "ana@sorteo.app", claimed[0].VendorEmail)

	got, err := svc.GetTicket(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "ana@sorteo.app", got.VendorEmail)

	t.Run("nothing to claim returns empty without the update", func(t *testing.T) {
		again, err := svc.ClaimVendorless(ctx, "event-1", "ana@sorteo.app")
		require.NoError(t, err)
		assert.Empty(t, again)
	})
}
