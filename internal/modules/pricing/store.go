// README: Pricing store backed by PostgreSQL (catalog and waste tariffs, read once at start-up).
package pricing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"benne/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) LoadServices(ctx context.Context) ([]ServiceEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, volume_m3, base_price_cents, price_per_day_cents
		FROM container_services
		WHERE active
		ORDER BY volume_m3, id`)
	if err != nil {
		return nil, fmt.Errorf("query container_services: %w", err)
	}
	defer rows.Close()

	var out []ServiceEntry
	for rows.Next() {
		var e ServiceEntry
		var base, perDay int64
		if err := rows.Scan(&e.ID, &e.Name, &e.VolumeM3, &base, &perDay); err != nil {
			return nil, fmt.Errorf("scan container_services: %w", err)
		}
		e.BasePrice = types.Cents(base)
		e.PricePerDay = types.Cents(perDay)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) LoadWasteRates(ctx context.Context) ([]WasteRate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT key, label, price_per_m3_cents
		FROM waste_rates
		ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query waste_rates: %w", err)
	}
	defer rows.Close()

	var out []WasteRate
	for rows.Next() {
		var r WasteRate
		var price int64
		if err := rows.Scan(&r.Key, &r.Label, &price); err != nil {
			return nil, fmt.Errorf("scan waste_rates: %w", err)
		}
		r.PricePerM3 = types.Cents(price)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadTables reads both tables and assembles them with cfg defaults.
func (s *Store) LoadTables(ctx context.Context, cfg Config, defaultWaste string) (*Tables, error) {
	services, err := s.LoadServices(ctx)
	if err != nil {
		return nil, err
	}
	rates, err := s.LoadWasteRates(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTables(cfg, services, rates, defaultWaste)
}
