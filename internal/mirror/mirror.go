// Package mirror keeps a last-known-good snapshot of events and tickets for
// read fallback when the backing store is unreachable. It is never consulted
// for limit enforcement: capacity decisions fail closed instead of trusting
// a possibly-stale copy.
package mirror

import (
	"sync"
	"time"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

// Mirror is safe for concurrent use. It must keep working when every network
// dependency is down, which is why it holds plain process memory behind a
// lock instead of an external cache.
type Mirror struct {
	mu      sync.RWMutex
	events  map[string]entry[domain.Event]
	tickets map[string]entry[[]domain.Ticket]
}

type entry[T any] struct {
	value    T
	storedAt time.Time
}

func New() *Mirror {
	return &Mirror{
		events:  make(map[string]entry[domain.Event]),
		tickets: make(map[string]entry[[]domain.Ticket]),
	}
}

// StoreEvent records the latest good read of an event.
func (m *Mirror) StoreEvent(event domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = entry[domain.Event]{value: event, storedAt: time.Now()}
}

// StoreTickets records the latest good ticket list for an event. The slice
// is copied so later mutation by the caller cannot corrupt the snapshot.
func (m *Mirror) StoreTickets(eventID string, tickets []domain.Ticket) {
	copied := make([]domain.Ticket, len(tickets))
	copy(copied, tickets)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[eventID] = entry[[]domain.Ticket]{value: copied, storedAt: time.Now()}
}

// Event returns the mirrored event and when it was stored.
func (m *Mirror) Event(id string) (domain.Event, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	return e.value, e.storedAt, ok
}

// Tickets returns a copy of the mirrored ticket list and when it was stored.
func (m *Mirror) Tickets(eventID string) ([]domain.Ticket, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.tickets[eventID]
	if !ok {
		return nil, time.Time{}, false
	}

	copied := make([]domain.Ticket, len(e.value))
	copy(copied, e.value)
	return copied, e.storedAt, true
}

// Forget drops everything mirrored for an event.
func (m *Mirror) Forget(eventID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, eventID)
	delete(m.tickets, eventID)
}
