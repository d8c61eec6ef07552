// README: Order service tests (state machine, creation rules, transitions) against in-memory fakes.
package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"benne/internal/events"
	"benne/internal/modules/pricing"
	"benne/internal/modules/quote"
	"benne/internal/types"
)

// TestCanTransition verifies the state machine transition table.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy path
		{StatusPendingPayment, StatusPaid, true},
		{StatusPaid, StatusDelivered, true},
		{StatusDelivered, StatusPickedUp, true},
		{StatusPickedUp, StatusCompleted, true},
		// cancels before delivery
		{StatusPendingPayment, StatusCancelled, true},
		{StatusPaid, StatusCancelled, true},
		// no cancel once on site
		{StatusDelivered, StatusCancelled, false},
		{StatusPickedUp, StatusCancelled, false},
		// terminal states
		{StatusCompleted, StatusPaid, false},
		{StatusCancelled, StatusPendingPayment, false},
		// skipping states
		{StatusPendingPayment, StatusDelivered, false},
		{StatusPaid, StatusCompleted, false},
		{StatusNone, StatusPaid, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if st, ok := ParseStatus("picked_up"); !ok || st != StatusPickedUp {
		t.Fatalf("ParseStatus(picked_up) = %s, %v", st, ok)
	}
	for _, bad := range []string{"", "none", "PAID", "shipped"} {
		if _, ok := ParseStatus(bad); ok {
			t.Errorf("ParseStatus(%q) should fail", bad)
		}
	}
}

type memStore struct {
	mu     sync.Mutex
	orders map[types.ID]Order
	events []Event
}

func newMemStore() *memStore {
	return &memStore{orders: map[types.ID]Order{}}
}

func (m *memStore) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.QuoteID == o.QuoteID {
			return ErrQuoteUsed
		}
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from || o.StatusVersion != version {
		return false, nil
	}
	o.Status = to
	o.StatusVersion++
	now := time.Now()
	switch to {
	case StatusPaid:
		o.PaidAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
		o.CancelReason = reason
	}
	m.orders[id] = o
	return true, nil
}

func (m *memStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, *e)
	return nil
}

func (m *memStore) Events(_ context.Context, id types.ID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.OrderID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type memQuotes map[types.ID]*quote.Quote

func (m memQuotes) Get(_ context.Context, id types.ID) (*quote.Quote, error) {
	q, ok := m[id]
	if !ok {
		return nil, quote.ErrQuoteNotFound
	}
	return q, nil
}

var today = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

func testQuote() *quote.Quote {
	return &quote.Quote{
		ID: "q_5days",
		Request: pricing.QuoteRequest{
			ServiceID:    "benne-10m3",
			WasteType:    "gravats",
			Address:      "12 rue de Rivoli, 75001 Paris",
			DurationDays: 5,
		},
		Result: pricing.QuoteResult{
			Totals:  pricing.Totals{TotalHT: 70880, Tax: 14176, TotalTTC: 85056, Currency: "EUR"},
			Details: pricing.Details{ServiceID: "benne-10m3", WasteType: "gravats", DurationDays: 5},
		},
	}
}

func newTestService(t *testing.T) (*Service, *memStore, *events.MemoryPublisher) {
	t.Helper()
	store := newMemStore()
	pub := &events.MemoryPublisher{}
	q := testQuote()
	svc := NewService(store, memQuotes{q.ID: q}, pub, nil, zap.NewNop())
	svc.now = func() time.Time { return today }
	return svc, store, pub
}

func validCommand() CreateCommand {
	return CreateCommand{
		QuoteID:  "q_5days",
		Customer: Customer{Name: "Camille Martin", Email: "camille@example.com"},
		Delivery: Window{Date: today.AddDate(0, 0, 2), Slot: SlotMorning},
		Pickup:   Window{Date: today.AddDate(0, 0, 7), Slot: SlotAfternoon},
	}
}

// mustCreateOrder books a fresh copy of testQuote, since a quote backs a single order.
func mustCreateOrder(t *testing.T, svc *Service) *Order {
	t.Helper()
	q := testQuote()
	q.ID = "q_" + types.NewID()
	svc.quotes.(memQuotes)[q.ID] = q
	cmd := validCommand()
	cmd.QuoteID = q.ID
	o, err := svc.Create(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func assertStatus(t *testing.T, svc *Service, orderID types.ID, want Status) {
	t.Helper()
	o, err := svc.Get(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.Status != want {
		t.Fatalf("expected status %s, got %s", want, o.Status)
	}
}

func TestCreateFromQuote(t *testing.T) {
	svc, store, pub := newTestService(t)

	o := mustCreateOrder(t, svc)
	if o.Status != StatusPendingPayment || o.StatusVersion != 0 {
		t.Fatalf("unexpected initial state %s/%d", o.Status, o.StatusVersion)
	}
	if o.TotalTTC != 85056 || o.ServiceID != "benne-10m3" || o.DurationDays != 5 {
		t.Fatalf("quote not copied: %+v", o)
	}
	if o.Address != "12 rue de Rivoli, 75001 Paris" {
		t.Fatalf("address = %q", o.Address)
	}
	if len(store.events) != 1 || store.events[0].FromStatus != StatusNone || store.events[0].ToStatus != StatusPendingPayment {
		t.Fatalf("unexpected audit trail %+v", store.events)
	}
	evs := pub.Events()
	if len(evs) != 1 || evs[0].Type != events.OrderCreated || evs[0].Key != o.ID.String() {
		t.Fatalf("unexpected events %+v", evs)
	}
}

func TestCreateInvalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateCommand)
		wantErr error
	}{
		{"missing quote", func(c *CreateCommand) { c.QuoteID = "" }, ErrBadRequest},
		{"unknown quote", func(c *CreateCommand) { c.QuoteID = "q_missing" }, quote.ErrQuoteNotFound},
		{"missing name", func(c *CreateCommand) { c.Customer.Name = " " }, ErrBadRequest},
		{"bad email", func(c *CreateCommand) { c.Customer.Email = "camille" }, ErrBadRequest},
		{"bad slot", func(c *CreateCommand) { c.Delivery.Slot = "evening" }, ErrBadRequest},
		{"missing date", func(c *CreateCommand) { c.Pickup.Date = time.Time{} }, ErrBadRequest},
		{"delivery in the past", func(c *CreateCommand) {
			c.Delivery.Date = today.AddDate(0, 0, -1)
			c.Pickup.Date = today.AddDate(0, 0, 4)
		}, ErrBadRequest},
		{"pickup before delivery", func(c *CreateCommand) { c.Pickup.Date = today.AddDate(0, 0, 1) }, ErrBadRequest},
		{"span does not match quote", func(c *CreateCommand) { c.Pickup.Date = today.AddDate(0, 0, 8) }, ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			cmd := validCommand()
			tt.mutate(&cmd)
			if _, err := svc.Create(context.Background(), cmd); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(store.orders) != 0 {
				t.Fatalf("no order should be stored")
			}
		})
	}
}

func TestOrderFlowHappyPath(t *testing.T) {
	svc, store, pub := newTestService(t)
	ctx := context.Background()
	o := mustCreateOrder(t, svc)

	for _, to := range []Status{StatusPaid, StatusDelivered, StatusPickedUp, StatusCompleted} {
		if _, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, To: to}); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
		assertStatus(t, svc, o.ID, to)
	}

	got, _ := svc.Get(ctx, o.ID)
	if got.StatusVersion != 4 {
		t.Fatalf("status_version = %d, want 4", got.StatusVersion)
	}
	history, err := svc.History(ctx, o.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 5 || history[4].ToStatus != StatusCompleted || history[1].ActorType != ActorOperator {
		t.Fatalf("unexpected history %+v", history)
	}
	if len(store.events) != 5 {
		t.Fatalf("expected 5 audit events, got %d", len(store.events))
	}
	if n := len(pub.Events()); n != 5 {
		t.Fatalf("expected 5 published events, got %d", n)
	}
}

func TestOrderInvalidTransitions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := mustCreateOrder(t, svc)

	if _, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, To: StatusDelivered}); err != ErrInvalidState {
		t.Fatalf("deliver before payment: expected ErrInvalidState, got %v", err)
	}
	if _, err := svc.Transition(ctx, TransitionCommand{OrderID: "missing", To: StatusPaid}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.History(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("history: expected ErrNotFound, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	t.Run("pending order", func(t *testing.T) {
		o := mustCreateOrder(t, svc)
		got, err := svc.Cancel(ctx, CancelCommand{OrderID: o.ID, Reason: "changed plans"})
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if got.Status != StatusCancelled || got.CancelReason == nil || *got.CancelReason != "changed plans" {
			t.Fatalf("unexpected order %+v", got)
		}
		if _, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, To: StatusPaid}); err != ErrInvalidState {
			t.Fatalf("pay after cancel: expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("default reason", func(t *testing.T) {
		o := mustCreateOrder(t, svc)
		got, err := svc.Cancel(ctx, CancelCommand{OrderID: o.ID})
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if got.CancelReason == nil || *got.CancelReason != "customer_request" {
			t.Fatalf("unexpected reason %v", got.CancelReason)
		}
	})

	t.Run("delivered order", func(t *testing.T) {
		o := mustCreateOrder(t, svc)
		for _, to := range []Status{StatusPaid, StatusDelivered} {
			if _, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, To: to}); err != nil {
				t.Fatalf("transition to %s: %v", to, err)
			}
		}
		if _, err := svc.Cancel(ctx, CancelCommand{OrderID: o.ID}); err != ErrInvalidState {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	var changed int
	for _, e := range pub.Events() {
		if e.Type == events.OrderStatusChanged {
			changed++
		}
	}
	if changed != 4 {
		t.Fatalf("expected 4 status_changed events, got %d", changed)
	}
}

func TestCreateQuoteIsSingleUse(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validCommand())
	if err != nil {
		t.Fatalf("first order: %v", err)
	}
	if _, err := svc.Create(ctx, validCommand()); !errors.Is(err, ErrQuoteUsed) {
		t.Fatalf("second order: expected ErrQuoteUsed, got %v", err)
	}
	if len(store.orders) != 1 {
		t.Fatalf("expected 1 stored order, got %d", len(store.orders))
	}
	if _, err := svc.Cancel(ctx, CancelCommand{OrderID: first.ID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Create(ctx, validCommand()); !errors.Is(err, ErrQuoteUsed) {
		t.Fatalf("after cancel: expected ErrQuoteUsed, got %v", err)
	}
}

func TestCreateRejectsNegativeQuote(t *testing.T) {
	svc, store, _ := newTestService(t)
	q := testQuote()
	q.ID = "q_negative"
	q.Result.Totals = pricing.Totals{TotalHT: -100, Tax: -20, TotalTTC: -120, Currency: "EUR"}
	svc.quotes.(memQuotes)[q.ID] = q

	cmd := validCommand()
	cmd.QuoteID = q.ID
	if _, err := svc.Create(context.Background(), cmd); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Fatalf("no order should be stored")
	}
}

func TestNewServiceNilLogger(t *testing.T) {
	q := testQuote()
	svc := NewService(newMemStore(), memQuotes{q.ID: q}, failingPublisher{}, nil, nil)
	svc.now = func() time.Time { return today }

	// the failing publisher makes Create log a warning
	if _, err := svc.Create(context.Background(), validCommand()); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestConcurrentTransitionsSingleWinner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := mustCreateOrder(t, svc)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, To: StatusPaid})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict && err != ErrInvalidState {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}
	assertStatus(t, svc, o.ID, StatusPaid)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.EventType, string, any) error {
	return errors.New("broker down")
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	q := testQuote()
	svc := NewService(newMemStore(), memQuotes{q.ID: q}, failingPublisher{}, nil, zap.NewNop())
	svc.now = func() time.Time { return today }

	o := mustCreateOrder(t, svc)
	if _, err := svc.Transition(context.Background(), TransitionCommand{OrderID: o.ID, To: StatusPaid}); err != nil {
		t.Fatalf("transition: %v", err)
	}
}
