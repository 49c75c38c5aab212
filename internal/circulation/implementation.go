// internal/circulation/implementation.go
package circulation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"libraryledger/internal/catalog"
	"libraryledger/internal/clock"
	"libraryledger/internal/membership"
)

// service implements the Service interface. mu guards the catalog, the
// members, the ledger and version as one unit.
type service struct {
	mu      sync.RWMutex
	catalog catalog.Store
	members membership.Store
	ledger  *Ledger
	version int64

	clock  clock.Clock
	loc    *time.Location
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.MeterProvider

	borrows    metric.Int64Counter
	returns    metric.Int64Counter
	rejections metric.Int64Counter
}

// Option configures the lending service.
type Option func(*service)

// WithLocation sets the time zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMeterProvider records the lending counters on mp instead of the
// global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *service) {
		if mp != nil {
			s.meter = mp
		}
	}
}

// NewService creates a lending service over a copy of snap.
func NewService(snap Snapshot, clk clock.Clock, opts ...Option) (Service, error) {
	s := &service{
		clock:   clk,
		loc:     time.UTC,
		logger:  slog.Default(),
		tracer:  otel.Tracer("libraryledger/circulation"),
		meter:   otel.GetMeterProvider(),
		version: snap.Version,
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.catalog, err = catalog.NewStore(snap.Items); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if s.members, err = membership.NewStore(snap.Members); err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	if s.ledger, err = NewLedger(snap.Transactions); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if err := s.checkReferences(); err != nil {
		return nil, err
	}

	meter := s.meter.Meter("libraryledger/circulation")
	if s.borrows, err = meter.Int64Counter("library.borrows", metric.WithDescription("Successful borrows")); err != nil {
		return nil, err
	}
	if s.returns, err = meter.Int64Counter("library.returns", metric.WithDescription("Successful returns")); err != nil {
		return nil, err
	}
	if s.rejections, err = meter.Int64Counter("library.rejections", metric.WithDescription("Borrows and returns refused by a precondition")); err != nil {
		return nil, err
	}
	return s, nil
}

// checkReferences verifies that every borrowed id a member holds points at an
// item lent to that member. Items pointing at a member who is unknown or does
// not list them are only logged; they do not count toward that member's limit
// and ReturnItem still accepts them.
func (s *service) checkReferences() error {
	for _, m := range s.members.All() {
		for _, itemID := range m.BorrowedItemIDs {
			it, ok := s.catalog.FindItem(itemID)
			if !ok {
				return fmt.Errorf("%w: member %d holds unknown item %d", ErrInconsistentSnapshot, m.ID, itemID)
			}
			if it.IsAvailable || it.BorrowedBy != m.ID {
				return fmt.Errorf("%w: member %d holds item %d which is not lent to them", ErrInconsistentSnapshot, m.ID, itemID)
			}
		}
	}
	for _, it := range s.catalog.List(catalog.Filter{Availability: catalog.AvailabilityBorrowed}) {
		m, ok := s.members.FindMember(it.BorrowedBy)
		if !ok || !m.HasBorrowed(it.ID) {
			s.logger.Warn("borrowed item has no matching member", "item", it.ID, "borrowedBy", it.BorrowedBy)
		}
	}
	return nil
}

// Borrow lends an item to a member until the given due date.
func (s *service) Borrow(ctx context.Context, in BorrowInput) (Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.borrow",
		trace.WithAttributes(
			attribute.Int("item.id", in.ItemID),
			attribute.Int("member.id", in.MemberID),
		),
	)
	defer span.End()

	s.mu.Lock()
	tx, err := s.borrowLocked(in)
	s.mu.Unlock()

	if err != nil {
		s.reject(ctx, span, ActionBorrow, err)
		return Transaction{}, err
	}

	span.SetAttributes(attribute.Int("transaction.id", tx.ID))
	s.borrows.Add(ctx, 1)
	s.logger.InfoContext(ctx, "item borrowed", "item", tx.ItemID, "member", tx.MemberID,
		"due", catalog.FormatDate(tx.DueDate), "tx", tx.ID)
	return tx, nil
}

func (s *service) borrowLocked(in BorrowInput) (Transaction, error) {
	item, ok := s.catalog.FindItem(in.ItemID)
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %d", ErrItemNotFound, in.ItemID)
	}
	member, ok := s.members.FindMember(in.MemberID)
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %d", ErrMemberNotFound, in.MemberID)
	}
	if !item.IsAvailable {
		return Transaction{}, fmt.Errorf("%w: item %d", ErrItemNotAvailable, item.ID)
	}
	if limit := membership.MaxBorrowLimit(member); len(member.BorrowedItemIDs) >= limit {
		return Transaction{}, fmt.Errorf("%w: member %d already holds %d of %d", ErrBorrowLimitExceeded, member.ID, len(member.BorrowedItemIDs), limit)
	}
	due, err := catalog.ParseDate(in.DueDate)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: %q is not a date", ErrInvalidDueDate, in.DueDate)
	}
	if today := clock.Today(s.clock, s.loc); !due.After(today) {
		return Transaction{}, fmt.Errorf("%w: %s is not after %s", ErrInvalidDueDate, catalog.FormatDate(due), catalog.FormatDate(today))
	}

	if err := s.catalog.SetAvailability(item.ID, false, member.ID, due); err != nil {
		return Transaction{}, err
	}
	if err := s.members.AddBorrowedID(member.ID, item.ID); err != nil {
		// Put the item back so the failed borrow leaves no trace.
		_ = s.catalog.SetAvailability(item.ID, true, 0, time.Time{})
		return Transaction{}, err
	}

	tx := s.ledger.Append(Transaction{
		MemberID:  member.ID,
		ItemID:    item.ID,
		Action:    ActionBorrow,
		Timestamp: s.clock.Now(),
		DueDate:   due,
	})
	s.version++
	return tx, nil
}

// ReturnItem takes a borrowed item back.
func (s *service) ReturnItem(ctx context.Context, itemID int) (Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return",
		trace.WithAttributes(attribute.Int("item.id", itemID)),
	)
	defer span.End()

	s.mu.Lock()
	tx, err := s.returnLocked(ctx, itemID)
	s.mu.Unlock()

	if err != nil {
		s.reject(ctx, span, ActionReturn, err)
		return Transaction{}, err
	}

	span.SetAttributes(
		attribute.Int("member.id", tx.MemberID),
		attribute.Int("transaction.id", tx.ID),
	)
	s.returns.Add(ctx, 1)
	s.logger.InfoContext(ctx, "item returned", "item", tx.ItemID, "member", tx.MemberID, "tx", tx.ID)
	return tx, nil
}

func (s *service) returnLocked(ctx context.Context, itemID int) (Transaction, error) {
	item, ok := s.catalog.FindItem(itemID)
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %d", ErrItemNotFound, itemID)
	}
	if item.IsAvailable {
		return Transaction{}, fmt.Errorf("%w: item %d", ErrItemAlreadyAvailable, itemID)
	}

	member, found := s.members.FindMember(item.BorrowedBy)
	prevDue := item.DueDate

	if err := s.catalog.SetAvailability(item.ID, true, 0, time.Time{}); err != nil {
		return Transaction{}, err
	}
	memberID := 0
	if found {
		s.members.RemoveBorrowedID(member.ID, item.ID)
		memberID = member.ID
	} else {
		s.logger.WarnContext(ctx, "returning item whose borrower is unknown", "item", item.ID, "borrowedBy", item.BorrowedBy)
	}

	tx := s.ledger.Append(Transaction{
		MemberID:  memberID,
		ItemID:    item.ID,
		Action:    ActionReturn,
		Timestamp: s.clock.Now(),
		DueDate:   prevDue,
	})
	s.version++
	return tx, nil
}

func (s *service) reject(ctx context.Context, span trace.Span, action Action, err error) {
	code := ErrorCode(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, code)
	s.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.String("reason", code),
	))
	s.logger.DebugContext(ctx, "lending request refused", "action", action, "err", err)
}

// IsOverdue reports whether the item is borrowed past its due date. Unknown
// items are never overdue.
func (s *service) IsOverdue(itemID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.catalog.FindItem(itemID)
	return ok && catalog.IsOverdue(it, clock.Today(s.clock, s.loc))
}

func (s *service) GetItem(id int) (catalog.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.FindItem(id)
}

func (s *service) ListItems(f catalog.Filter) []catalog.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.List(f)
}

func (s *service) ListAvailable() []catalog.Item {
	return s.ListItems(catalog.Filter{Availability: catalog.AvailabilityAvailable})
}

// ListBorrowedBy returns the member's items in the order they were borrowed.
func (s *service) ListBorrowedBy(memberID int) []catalog.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []catalog.Item{}
	m, ok := s.members.FindMember(memberID)
	if !ok {
		return out
	}
	for _, id := range m.BorrowedItemIDs {
		if it, ok := s.catalog.FindItem(id); ok {
			out = append(out, it)
		}
	}
	return out
}

func (s *service) ListOverdue() []catalog.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	today := clock.Today(s.clock, s.loc)
	out := []catalog.Item{}
	for _, it := range s.catalog.All() {
		if catalog.IsOverdue(it, today) {
			out = append(out, it)
		}
	}
	return out
}

func (s *service) GetMember(id int) (membership.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members.FindMember(id)
}

func (s *service) ListMembers() []membership.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members.All()
}

func (s *service) RecentTransactions(limit int) []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Recent(limit)
}

func (s *service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	today := clock.Today(s.clock, s.loc)
	st := Stats{
		Members:      s.members.Len(),
		Transactions: s.ledger.Len(),
	}
	for _, it := range s.catalog.All() {
		st.TotalItems++
		if it.IsAvailable {
			st.Available++
			continue
		}
		st.Borrowed++
		if catalog.IsOverdue(it, today) {
			st.Overdue++
		}
	}
	return st
}

// Snapshot returns a deep copy of the current state.
func (s *service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Version:      s.version,
		Items:        s.catalog.All(),
		Members:      s.members.All(),
		Transactions: s.ledger.All(),
	}
}
