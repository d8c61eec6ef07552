// README: Order aggregate and status definitions.
package order

import (
	"time"

	"benne/internal/types"
)

type Status string

const (
	StatusNone           Status = "none"
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusDelivered      Status = "delivered"
	StatusPickedUp       Status = "picked_up"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type Order struct {
	ID            types.ID    `json:"id"`
	QuoteID       types.ID    `json:"quote_id"`
	Status        Status      `json:"status"`
	StatusVersion int         `json:"status_version"`
	Customer      Customer    `json:"customer"`
	Address       string      `json:"address"`
	ServiceID     string      `json:"service_id"`
	WasteType     string      `json:"waste_type"`
	DurationDays  int         `json:"duration_days"`
	Delivery      Window      `json:"delivery"`
	Pickup        Window      `json:"pickup"`
	TotalHT       types.Cents `json:"total_ht"`
	Tax           types.Cents `json:"tax"`
	TotalTTC      types.Cents `json:"total_ttc"`
	Currency      string      `json:"currency"`
	CreatedAt     time.Time   `json:"created_at"`
	PaidAt        *time.Time  `json:"paid_at,omitempty"`
	DeliveredAt   *time.Time  `json:"delivered_at,omitempty"`
	PickedUpAt    *time.Time  `json:"picked_up_at,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`
	CancelReason  *string     `json:"cancel_reason,omitempty"`
}

type Event struct {
	ID         int64     `json:"id"`
	OrderID    types.ID  `json:"order_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ActorType  string    `json:"actor_type"`
	Reason     *string   `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AllowedTransitions represents the order state flow as code.
// Once the skip is on site the order can no longer be cancelled.
var AllowedTransitions = map[Status][]Status{
	StatusPendingPayment: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusDelivered, StatusCancelled},
	StatusDelivered:      {StatusPickedUp},
	StatusPickedUp:       {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPendingPayment, StatusPaid, StatusDelivered, StatusPickedUp, StatusCompleted, StatusCancelled:
		return st, true
	}
	return "", false
}
