package mirror

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

func TestMirror_RoundTrip(t *testing.T) {
	m := New()

	_, _, ok := m.Event("event-1")
	assert.False(t, ok)

	m.StoreEvent(domain.Event{ID: "event-1", Name: "Gran Sorteo"})
	event, storedAt, ok := m.Event("event-1")
	require.True(t, ok)
	assert.Equal(t, "Gran Sorteo", event.Name)
	assert.False(t, storedAt.IsZero())

	m.StoreTickets("event-1", []domain.Ticket{{ID: "t1"}, {ID: "t2"}})
	tickets, _, ok := m.Tickets("event-1")
	require.True(t, ok)
	assert.Len(t, tickets, 2)

	m.Forget("event-1")
	_, _, ok = m.Event("event-1")
	assert.False(t, ok)
	_, _, ok = m.Tickets("event-1")
	assert.False(t, ok)
}

func TestMirror_SnapshotsAreIsolatedFromCallers(t *testing.T) {
	m := New()
	original := []domain.Ticket{{ID: "t1", ClientName: "Carlos"}}
	m.StoreTickets("event-1", original)

	original[0].ClientName = "mutated"
	stored, _, ok := m.Tickets("event-1")
	require.True(t, ok)
	assert.Equal(t, "Carlos", stored[0].ClientName)

	stored[0].ClientName = "also mutated"
	again, _, _ := m.Tickets("event-1")
	assert.Equal(t, "Carlos", again[0].ClientName)
}

func TestMirror_ConcurrentAccess(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			eventID := fmt.Sprintf("event-%d", i%4)
			m.StoreEvent(domain.Event{ID: eventID})
			m.StoreTickets(eventID, []domain.Ticket{{ID: fmt.Sprintf("t-%d", i)}})
			m.Event(eventID)
			m.Tickets(eventID)
		}(i)
	}
	wg.Wait()
}
