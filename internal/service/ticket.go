package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/repository"
)

var (
	ErrTicketNotFound = repository.ErrTicketNotFound
	ErrEventNotFound  = repository.ErrEventNotFound
)

type TicketRepository interface {
	Create(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)
	GetByID(ctx context.Context, id string) (domain.Ticket, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Ticket, error)
	ListByEventAndVendor(ctx context.Context, eventID, vendorEmail string) ([]domain.Ticket, error)
	ListByClientAndVendor(ctx context.Context, eventID, clientName, vendorEmail string) ([]domain.Ticket, error)
	ListVendorless(ctx context.Context, eventID string) ([]domain.Ticket, error)
	ClaimVendorless(ctx context.Context, eventID, vendorEmail string) (int64, error)
	Update(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

type TicketEventRepository interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
}

// CapacityKeeper is the slice of the limit service a ticket operation needs:
// one availability question and the two counter moves.
type CapacityKeeper interface {
	CheckAvailability(ctx context.Context, eventID, number string, requestedTimes int) domain.Availability
	IncrementSold(ctx context.Context, eventID, number string, amount int) bool
	DecrementSold(ctx context.Context, eventID, number string, amount int) bool
}

// TicketDraft is the vendor's submitted purchase before it becomes a ticket.
type TicketDraft struct {
	ClientName string
	Rows       []domain.TicketRow
}

// TicketService drives the ticket lifecycle: validate, check availability,
// reserve capacity, persist, and compensate reservations when a later step
// fails. A mutex serializes one service instance's submissions so a vendor
// cannot race their own double-click; races between vendors are settled by
// the conditional counter updates underneath.
type TicketService struct {
	repo         TicketRepository
	events       TicketEventRepository
	limits       CapacityKeeper
	pricePerTime float64

	mu sync.Mutex
}

func NewTicketService(repo TicketRepository, events TicketEventRepository, limits CapacityKeeper, pricePerTime float64) *TicketService {
	return &TicketService{
		repo:         repo,
		events:       events,
		limits:       limits,
		pricePerTime: pricePerTime,
	}
}

func (s *TicketService) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}
	return ticket, nil
}

// ListTickets returns the vendor's tickets for the event, or every ticket
// when vendorEmail is empty (admin view).
func (s *TicketService) ListTickets(ctx context.Context, eventID, vendorEmail string) ([]domain.Ticket, error) {
	var (
		tickets []domain.Ticket
		err     error
	)
	if vendorEmail == "" {
		tickets, err = s.repo.ListByEvent(ctx, eventID)
	} else {
		tickets, err = s.repo.ListByEventAndVendor(ctx, eventID, vendorEmail)
	}
	if err != nil {
		return nil, fmt.Errorf("list tickets -> %w", err)
	}
	return tickets, nil
}

// ClaimVendorless assigns every legacy ticket without a vendor to the caller
// and returns them. Rows written before vendor scoping existed have an empty
// vendor_email and would otherwise be orphaned.
func (s *TicketService) ClaimVendorless(ctx context.Context, eventID, vendorEmail string) ([]domain.Ticket, error) {
	claimable, err := s.repo.ListVendorless(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListVendorless -> %w", err)
	}
	if len(claimable) == 0 {
		return nil, nil
	}

	// The UPDATE carries its own vendorless filter, so a concurrent claim
	// cannot steal a ticket twice; the listed set may just come back smaller.
	claimed, err := s.repo.ClaimVendorless(ctx, eventID, vendorEmail)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ClaimVendorless -> %w", err)
	}
	if claimed > 0 {
		zap.L().Info("claimed vendorless tickets",
			zap.String("event_id", eventID), zap.String("vendor_email", vendorEmail), zap.Int64("count", claimed))
	}

	for i := range claimable {
		claimable[i].VendorEmail = vendorEmail
	}
	return claimable, nil
}

// CreateTicket runs the full sale: validate the draft, check availability for
// every consolidated number, guard against a duplicate submission, reserve
// capacity, then persist. Any failure after a reservation compensates the
// reservations already applied so no capacity leaks.
func (s *TicketService) CreateTicket(ctx context.Context, eventID, vendorEmail string, draft TicketDraft) (domain.TicketResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vendorEmail == "" {
		return rejectValidation("vendor identity is required"), nil
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return domain.TicketResult{}, fmt.Errorf("s.events.GetByID -> %w", err)
	}
	if event.Closed() {
		return domain.Rejected(domain.Rejection{
			Kind:    domain.RejectionClosed,
			Status:  "error",
			Message: "the event is closed and no longer accepts tickets",
		}), nil
	}

	ticket := domain.Ticket{
		EventID:     eventID,
		ClientName:  strings.TrimSpace(draft.ClientName),
		VendorEmail: vendorEmail,
		Rows:        draft.Rows,
	}
	if rej := s.validateRows(event, ticket); rej != nil {
		return domain.Rejected(*rej), nil
	}

	pairs := consolidatedPairs(ticket)
	for _, p := range pairs {
		av := s.limits.CheckAvailability(ctx, eventID, p.number, p.times)
		if !av.Available {
			return rejectCapacity(p.number, av.Remaining, p.times), nil
		}
	}

	dup, err := s.isDuplicateSubmission(ctx, ticket)
	if err != nil {
		return domain.TicketResult{}, err
	}
	if dup {
		return domain.Rejected(domain.Rejection{
			Kind:    domain.RejectionDuplicate,
			Status:  "warning",
			Message: "an identical ticket for this client was already registered",
		}), nil
	}

	reserved, failed := s.reserve(ctx, eventID, pairs)
	if failed != nil {
		s.release(ctx, eventID, reserved)
		av := s.limits.CheckAvailability(ctx, eventID, failed.number, failed.times)
		return rejectCapacity(failed.number, av.Remaining, failed.times), nil
	}

	ticket.ID = uuid.NewString()
	ticket.Amount = float64(ticket.TotalTimes()) * s.pricePerTime
	ticket.Numbers = ticket.DisplayNumbers()

	created, err := s.repo.Create(ctx, ticket)
	if err != nil {
		s.release(ctx, eventID, reserved)
		return domain.TicketResult{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return domain.OkTicket(created), nil
}

// UpdateTicket re-balances capacity for an edited ticket: released numbers
// are decremented first so a vendor moving times between numbers in one edit
// is not falsely rejected, then grown numbers reserve only their delta.
// Increments applied before a mid-loop failure are compensated; the earlier
// decrements are deliberately left in place (capacity freed stays freed).
// A persistence failure restores both directions.
func (s *TicketService) UpdateTicket(ctx context.Context, eventID, vendorEmail string, ticket domain.Ticket) (domain.TicketResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vendorEmail == "" {
		return rejectValidation("vendor identity is required"), nil
	}

	previous, err := s.repo.GetByID(ctx, ticket.ID)
	if err != nil {
		return domain.TicketResult{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}
	// Vendorless legacy tickets are editable by anyone and get claimed by
	// whoever edits them.
	if previous.VendorEmail != "" && previous.VendorEmail != vendorEmail {
		return domain.Rejected(domain.Rejection{
			Kind:    domain.RejectionOwnership,
			Status:  "error",
			Message: "the ticket belongs to another vendor",
		}), nil
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return domain.TicketResult{}, fmt.Errorf("s.events.GetByID -> %w", err)
	}
	if event.Closed() {
		return domain.Rejected(domain.Rejection{
			Kind:    domain.RejectionClosed,
			Status:  "error",
			Message: "the event is closed and no longer accepts tickets",
		}), nil
	}

	ticket.EventID = eventID
	ticket.ClientName = strings.TrimSpace(ticket.ClientName)
	if rej := s.validateRows(event, ticket); rej != nil {
		return domain.Rejected(*rej), nil
	}

	oldTimes := previous.ConsolidatedNumbers()
	newTimes := ticket.ConsolidatedNumbers()

	released := s.releaseShrunk(ctx, eventID, oldTimes, newTimes)

	var reserved []pair
	for _, p := range growthPairs(oldTimes, newTimes) {
		av := s.limits.CheckAvailability(ctx, eventID, p.number, p.times)
		if !av.Available {
			s.release(ctx, eventID, reserved)
			return rejectCapacity(p.number, av.Remaining, p.times), nil
		}
		if !s.limits.IncrementSold(ctx, eventID, p.number, p.times) {
			s.release(ctx, eventID, reserved)
			av := s.limits.CheckAvailability(ctx, eventID, p.number, p.times)
			return rejectCapacity(p.number, av.Remaining, p.times), nil
		}
		reserved = append(reserved, p)
	}

	ticket.VendorEmail = vendorEmail
	ticket.Amount = float64(ticket.TotalTimes()) * s.pricePerTime
	ticket.Numbers = ticket.DisplayNumbers()
	ticket.CreatedAt = previous.CreatedAt

	updated, err := s.repo.Update(ctx, ticket)
	if err != nil {
		s.release(ctx, eventID, reserved)
		s.reReserve(ctx, eventID, released)
		return domain.TicketResult{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return domain.OkTicket(updated), nil
}

// DeleteTicket releases the ticket's consolidated capacity, then removes the
// row. A failed release is logged and does not block the delete: an orphaned
// sold count beats an undeletable ticket.
func (s *TicketService) DeleteTicket(ctx context.Context, eventID, vendorEmail, ticketID string) (domain.TicketResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return domain.TicketResult{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}
	if ticket.VendorEmail != "" && ticket.VendorEmail != vendorEmail {
		return domain.Rejected(domain.Rejection{
			Kind:    domain.RejectionOwnership,
			Status:  "error",
			Message: "the ticket belongs to another vendor",
		}), nil
	}

	for _, p := range consolidatedPairs(ticket) {
		if !s.limits.DecrementSold(ctx, eventID, p.number, p.times) {
			zap.L().Warn("failed to release capacity on ticket delete",
				zap.String("ticket_id", ticketID), zap.String("number", p.number), zap.Int("times", p.times))
		}
	}

	if err := s.repo.Delete(ctx, ticketID); err != nil {
		return domain.TicketResult{}, fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return domain.OkTicket(ticket), nil
}

// validateRows rejects drafts with no sellable row, an empty client name, or
// a number outside the event's sellable window.
func (s *TicketService) validateRows(event domain.Event, ticket domain.Ticket) *domain.Rejection {
	if ticket.ClientName == "" {
		return &domain.Rejection{
			Kind:    domain.RejectionValidation,
			Status:  "error",
			Message: "client name is required",
		}
	}

	hasValid := false
	for _, row := range ticket.Rows {
		if !row.Valid() {
			continue
		}
		hasValid = true
		if rej := validateNumber(event, row.Actions); rej != nil {
			return rej
		}
	}
	if !hasValid {
		return &domain.Rejection{
			Kind:    domain.RejectionValidation,
			Status:  "error",
			Message: "at least one row with a number and a positive quantity is required",
		}
	}
	return nil
}

func validateNumber(event domain.Event, number string) *domain.Rejection {
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return &domain.Rejection{
			Kind:    domain.RejectionValidation,
			Status:  "error",
			Message: fmt.Sprintf("number %q is not numeric", number),
		}
	}

	minNumber, maxNumber := event.MinNumber, event.MaxNumber
	if maxNumber <= 0 {
		maxNumber = 99
	}
	if n < minNumber || n > maxNumber {
		return &domain.Rejection{
			Kind:    domain.RejectionValidation,
			Status:  "error",
			Message: fmt.Sprintf("number %d is outside the sellable window %d-%d", n, minNumber, maxNumber),
		}
	}

	for _, spec := range strings.Split(event.ExcludedNumbers, ",") {
		if spec = strings.TrimSpace(spec); spec == "" {
			continue
		}
		if IsNumberInRange(number, spec) {
			return &domain.Rejection{
				Kind:    domain.RejectionValidation,
				Status:  "error",
				Message: fmt.Sprintf("number %d is excluded from this event", n),
			}
		}
	}
	return nil
}

// isDuplicateSubmission guards against double-click/retry: same vendor, same
// client, exact same number/times multiset.
func (s *TicketService) isDuplicateSubmission(ctx context.Context, ticket domain.Ticket) (bool, error) {
	existing, err := s.repo.ListByClientAndVendor(ctx, ticket.EventID, ticket.ClientName, ticket.VendorEmail)
	if err != nil {
		return false, fmt.Errorf("s.repo.ListByClientAndVendor -> %w", err)
	}
	for _, other := range existing {
		if ticket.SamePurchase(other) {
			return true, nil
		}
	}
	return false, nil
}

// reserve increments each pair in order. On the first failure it stops and
// returns the pairs already reserved plus the pair that failed.
func (s *TicketService) reserve(ctx context.Context, eventID string, pairs []pair) (reserved []pair, failed *pair) {
	for _, p := range pairs {
		if !s.limits.IncrementSold(ctx, eventID, p.number, p.times) {
			p := p
			return reserved, &p
		}
		reserved = append(reserved, p)
	}
	return reserved, nil
}

// release compensates previously applied increments.
func (s *TicketService) release(ctx context.Context, eventID string, reserved []pair) {
	for _, p := range reserved {
		if !s.limits.DecrementSold(ctx, eventID, p.number, p.times) {
			zap.L().Error("failed to roll back reservation",
				zap.String("event_id", eventID), zap.String("number", p.number), zap.Int("times", p.times))
		}
	}
}

// releaseShrunk decrements every number whose new total is below its old
// total and returns the decrements it applied.
func (s *TicketService) releaseShrunk(ctx context.Context, eventID string, oldTimes, newTimes map[string]int) []pair {
	var released []pair
	for _, number := range sortedNumbers(oldTimes) {
		delta := oldTimes[number] - newTimes[number]
		if delta <= 0 {
			continue
		}
		if !s.limits.DecrementSold(ctx, eventID, number, delta) {
			zap.L().Warn("failed to release shrunk capacity",
				zap.String("event_id", eventID), zap.String("number", number), zap.Int("times", delta))
			continue
		}
		released = append(released, pair{number: number, times: delta})
	}
	return released
}

// reReserve restores decrements after a persistence failure.
func (s *TicketService) reReserve(ctx context.Context, eventID string, released []pair) {
	for _, p := range released {
		if !s.limits.IncrementSold(ctx, eventID, p.number, p.times) {
			zap.L().Error("failed to restore released capacity",
				zap.String("event_id", eventID), zap.String("number", p.number), zap.Int("times", p.times))
		}
	}
}

type pair struct {
	number string
	times  int
}

// consolidatedPairs returns the ticket's consolidated numbers in numeric
// order so reservation and rollback walk a deterministic sequence.
func consolidatedPairs(t domain.Ticket) []pair {
	consolidated := t.ConsolidatedNumbers()
	pairs := make([]pair, 0, len(consolidated))
	for _, number := range sortedNumbers(consolidated) {
		pairs = append(pairs, pair{number: number, times: consolidated[number]})
	}
	return pairs
}

func growthPairs(oldTimes, newTimes map[string]int) []pair {
	var pairs []pair
	for _, number := range sortedNumbers(newTimes) {
		if delta := newTimes[number] - oldTimes[number]; delta > 0 {
			pairs = append(pairs, pair{number: number, times: delta})
		}
	}
	return pairs
}

func sortedNumbers(m map[string]int) []string {
	numbers := make([]string, 0, len(m))
	for number := range m {
		numbers = append(numbers, number)
	}
	sort.Slice(numbers, func(i, j int) bool {
		a, _ := strconv.Atoi(numbers[i])
		b, _ := strconv.Atoi(numbers[j])
		if a != b {
			return a < b
		}
		return numbers[i] < numbers[j]
	})
	return numbers
}

func rejectValidation(message string) domain.TicketResult {
	return domain.Rejected(domain.Rejection{
		Kind:    domain.RejectionValidation,
		Status:  "error",
		Message: message,
	})
}

func rejectCapacity(number string, remaining, requested int) domain.TicketResult {
	return domain.Rejected(domain.Rejection{
		Kind:    domain.RejectionCapacity,
		Status:  "warning",
		Message: fmt.Sprintf("number %s has %d remaining, %d requested", number, remaining, requested),
		NumberInfo: &domain.NumberInfo{
			Number:    number,
			Remaining: remaining,
			Requested: requested,
		},
	})
}
