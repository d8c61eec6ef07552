// README: Order store backed by PostgreSQL.
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"benne/internal/types"
)

const uniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, o *Order) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			id, quote_id, status, status_version,
			customer_name, customer_email, customer_phone,
			address, service_id, waste_type, duration_days,
			delivery_date, delivery_slot, pickup_date, pickup_slot,
			total_ht_cents, tax_cents, total_ttc_cents, currency, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $18, $19, $20
		)`,
		string(o.ID), string(o.QuoteID), string(o.Status), o.StatusVersion,
		o.Customer.Name, o.Customer.Email, o.Customer.Phone,
		o.Address, o.ServiceID, o.WasteType, o.DurationDays,
		o.Delivery.Date, string(o.Delivery.Slot), o.Pickup.Date, string(o.Pickup.Slot),
		int64(o.TotalHT), int64(o.Tax), int64(o.TotalTTC), o.Currency, o.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "uq_orders_quote_id" {
		return fmt.Errorf("%w: %s", ErrQuoteUsed, o.QuoteID)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, quote_id, status, status_version,
		       customer_name, customer_email, customer_phone,
		       address, service_id, waste_type, duration_days,
		       delivery_date, delivery_slot, pickup_date, pickup_slot,
		       total_ht_cents, tax_cents, total_ttc_cents, currency,
		       created_at, paid_at, delivered_at, picked_up_at, completed_at, cancelled_at, cancellation_reason
		FROM orders
		WHERE id = $1`, string(id),
	)

	var o Order
	var orderID, quoteID, status, deliverySlot, pickupSlot string
	var ht, tax, ttc int64
	err := row.Scan(
		&orderID, &quoteID, &status, &o.StatusVersion,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.Address, &o.ServiceID, &o.WasteType, &o.DurationDays,
		&o.Delivery.Date, &deliverySlot, &o.Pickup.Date, &pickupSlot,
		&ht, &tax, &ttc, &o.Currency,
		&o.CreatedAt, &o.PaidAt, &o.DeliveredAt, &o.PickedUpAt, &o.CompletedAt, &o.CancelledAt, &o.CancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	o.ID = types.ID(orderID)
	o.QuoteID = types.ID(quoteID)
	o.Status = Status(status)
	o.Delivery.Slot = Slot(deliverySlot)
	o.Pickup.Slot = Slot(pickupSlot)
	o.TotalHT = types.Cents(ht)
	o.Tax = types.Cents(tax)
	o.TotalTTC = types.Cents(ttc)
	return &o, nil
}

// UpdateStatus applies the transition only if the row is still at (from, version).
// It reports false when another writer got there first.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1::text,
		    status_version = status_version + 1,
		    paid_at = CASE WHEN $1::text = 'paid' THEN NOW() ELSE paid_at END,
		    delivered_at = CASE WHEN $1::text = 'delivered' THEN NOW() ELSE delivered_at END,
		    picked_up_at = CASE WHEN $1::text = 'picked_up' THEN NOW() ELSE picked_up_at END,
		    completed_at = CASE WHEN $1::text = 'completed' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1::text = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    cancellation_reason = CASE WHEN $1::text = 'cancelled' THEN $2::text ELSE cancellation_reason END
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, fmt.Errorf("update order %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_state_events (
			order_id, from_status, to_status, actor_type, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.OrderID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		e.Reason,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append order event: %w", err)
	}
	return nil
}

// Events lists the audit trail of an order, oldest first.
func (s *Store) Events(ctx context.Context, id types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, from_status, to_status, actor_type, reason, created_at
		FROM order_state_events
		WHERE order_id = $1
		ORDER BY id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("query order events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var orderID, from, to string
		if err := rows.Scan(&e.ID, &orderID, &from, &to, &e.ActorType, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order event: %w", err)
		}
		e.OrderID = types.ID(orderID)
		e.FromStatus = Status(from)
		e.ToStatus = Status(to)
		out = append(out, e)
	}
	return out, rows.Err()
}
