package pricing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"benne/internal/migrate"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("BENNE_TEST_DSN")
	if dsn == "" {
		t.Skip("BENNE_TEST_DSN not set; skipping DB-backed pricing tests")
	}
	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	root, err := migrate.RepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	if err := migrate.Apply(ctx, db, filepath.Join(root, "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewStore(db)
}

func TestStore_LoadTablesMatchesDefaults(t *testing.T) {
	store := setupTestStore(t)

	tables, err := store.LoadTables(context.Background(), DefaultConfig(), DefaultWasteType)
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}
	s := NewService(DefaultConfig(), tables, NewDefaultResolver())
	got, err := s.ComputeQuote(QuoteRequest{
		ServiceID:    "benne-10m3",
		WasteType:    "gravats",
		Address:      "12 rue de Rivoli, 75001 Paris",
		DurationDays: 5,
	})
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}
	if got.Totals.TotalTTC != 85056 {
		t.Fatalf("TotalTTC = %s, want 850.56", got.Totals.TotalTTC)
	}
	if len(tables.Services()) < len(DefaultServices()) {
		t.Fatalf("expected seeded catalog, got %d services", len(tables.Services()))
	}
}
