// README: Order service implements creation from a quote, state transitions and persistence.
package order

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"benne/internal/events"
	"benne/internal/modules/quote"
	"benne/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("order not found")
	ErrConflict     = errors.New("order state conflict")
	ErrBadRequest   = errors.New("bad request")
	// ErrQuoteUsed is returned by Repository.Create when the quote already backs an order.
	ErrQuoteUsed = errors.New("quote already used by an order")
)

const (
	ActorCustomer = "customer"
	ActorOperator = "operator"
	ActorSystem   = "system"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id types.ID) (*Order, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	Events(ctx context.Context, id types.ID) ([]Event, error)
}

type QuoteReader interface {
	Get(ctx context.Context, id types.ID) (*quote.Quote, error)
}

type Recorder interface {
	ObserveTransition(status string)
}

type Service struct {
	store     Repository
	quotes    QuoteReader
	publisher events.Publisher
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Repository, quotes QuoteReader, publisher events.Publisher, recorder Recorder, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		quotes:    quotes,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

type CreateCommand struct {
	QuoteID  types.ID
	Customer Customer
	Delivery Window
	Pickup   Window
}

type TransitionCommand struct {
	OrderID   types.ID
	To        Status
	ActorType string
	Reason    string
}

type CancelCommand struct {
	OrderID   types.ID
	ActorType string
	Reason    string
}

type statusChange struct {
	Order          *Order `json:"order"`
	PreviousStatus Status `json:"previous_status"`
	NewStatus      Status `json:"new_status"`
	Reason         string `json:"reason,omitempty"`
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	cmd.Customer.Name = strings.TrimSpace(cmd.Customer.Name)
	cmd.Customer.Email = strings.TrimSpace(cmd.Customer.Email)
	if cmd.QuoteID == "" || cmd.Customer.Name == "" {
		return nil, fmt.Errorf("%w: quote_id and customer name are required", ErrBadRequest)
	}
	if _, err := mail.ParseAddress(cmd.Customer.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid customer email", ErrBadRequest)
	}
	now := s.now()
	if err := validateWindows(cmd.Delivery, cmd.Pickup, now); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	q, err := s.quotes.Get(ctx, cmd.QuoteID)
	if err != nil {
		return nil, err
	}
	if q.Result.Totals.TotalHT < 0 || q.Result.Totals.TotalTTC < 0 {
		return nil, fmt.Errorf("%w: quote %s has a negative total", ErrBadRequest, q.ID)
	}
	if days := RentalDays(cmd.Delivery.Date, cmd.Pickup.Date); days != q.Request.DurationDays {
		return nil, fmt.Errorf("%w: rental spans %d days but the quote covers %d", ErrBadRequest, days, q.Request.DurationDays)
	}

	cmd.Delivery.Date = truncateDay(cmd.Delivery.Date)
	cmd.Pickup.Date = truncateDay(cmd.Pickup.Date)
	o := &Order{
		ID:            types.NewID(),
		QuoteID:       q.ID,
		Status:        StatusPendingPayment,
		StatusVersion: 0,
		Customer:      cmd.Customer,
		Address:       q.Request.Address,
		ServiceID:     q.Result.Details.ServiceID,
		WasteType:     q.Result.Details.WasteType,
		DurationDays:  q.Request.DurationDays,
		Delivery:      cmd.Delivery,
		Pickup:        cmd.Pickup,
		TotalHT:       q.Result.Totals.TotalHT,
		Tax:           q.Result.Totals.Tax,
		TotalTTC:      q.Result.Totals.TotalTTC,
		Currency:      q.Result.Totals.Currency,
		CreatedAt:     now.UTC(),
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPendingPayment,
		ActorType:  ActorCustomer,
		CreatedAt:  o.CreatedAt,
	})
	if s.recorder != nil {
		s.recorder.ObserveTransition(string(o.Status))
	}
	s.publish(ctx, events.OrderCreated, o.ID, o)
	return o, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

// History returns the status changes of an order, oldest first.
func (s *Service) History(ctx context.Context, id types.ID) ([]Event, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Events(ctx, id)
}

// Transition moves an order to cmd.To. Concurrent transitions of the same
// order race on status_version; the loser gets ErrConflict.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, cmd.To) {
		return nil, ErrInvalidState
	}

	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, cmd.To, o.StatusVersion, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	actor := cmd.ActorType
	if actor == "" {
		actor = ActorOperator
	}
	s.appendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   cmd.To,
		ActorType:  actor,
		Reason:     reason,
		CreatedAt:  s.now().UTC(),
	})
	if s.recorder != nil {
		s.recorder.ObserveTransition(string(cmd.To))
	}

	updated, err := s.store.Get(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderStatusChanged, o.ID, statusChange{
		Order:          updated,
		PreviousStatus: o.Status,
		NewStatus:      cmd.To,
		Reason:         cmd.Reason,
	})
	return updated, nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Order, error) {
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "customer_request"
	}
	actor := cmd.ActorType
	if actor == "" {
		actor = ActorCustomer
	}
	return s.Transition(ctx, TransitionCommand{
		OrderID:   cmd.OrderID,
		To:        StatusCancelled,
		ActorType: actor,
		Reason:    reason,
	})
}

// appendEvent records the audit trail entry; a failure is logged and does not
// undo the status change.
func (s *Service) appendEvent(ctx context.Context, e *Event) {
	if err := s.store.AppendEvent(ctx, e); err != nil {
		s.logger.Warn("order event not recorded",
			zap.String("order_id", e.OrderID.String()),
			zap.String("to_status", string(e.ToStatus)),
			zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType events.EventType, id types.ID, payload any) {
	if err := s.publisher.Publish(ctx, eventType, id.String(), payload); err != nil {
		s.logger.Warn("order event not published",
			zap.String("order_id", id.String()),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}
