package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"benne/internal/modules/pricing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Env != EnvDevelopment || cfg.IsProduction() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Quote.TTL != 30*time.Minute {
		t.Fatalf("quote ttl = %v", cfg.Quote.TTL)
	}
	if cfg.Kafka.Topic != "benne.events" || cfg.Kafka.Enabled {
		t.Fatalf("unexpected kafka config: %+v", cfg.Kafka)
	}
	if got := cfg.Pricing.Rates(); got != pricing.DefaultConfig() {
		t.Fatalf("rates = %+v, want %+v", got, pricing.DefaultConfig())
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
env: production
http:
  addr: ":9090"
quote:
  ttl: 10m
pricing:
  transport_per_km: 1.5
  vat_rate: 0.055
  fallback_distance_km: 80
  services:
    - id: mini
      name: Mini benne
      volume_m3: 2
      base_price: 99.90
      price_per_day: 10
  waste_types:
    - key: gravats
      label: Gravats
      price_per_m3: 40
`)
	t.Setenv("BENNE_HTTP_ADDR", ":7070")
	t.Setenv("BENNE_KAFKA_ENABLED", "true")
	t.Setenv("BENNE_PRICING_MAX_DISTANCE_KM", "900")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("env override not applied: %s", cfg.HTTP.Addr)
	}
	if !cfg.Kafka.Enabled {
		t.Fatalf("expected kafka enabled from env")
	}
	if cfg.Quote.TTL != 10*time.Minute {
		t.Fatalf("quote ttl = %v", cfg.Quote.TTL)
	}

	rates := cfg.Pricing.Rates()
	if rates.TransportPerKm != 150 || rates.VATBps != 550 || rates.MaxDistanceKm != 900 || rates.MaxDurationDays != pricing.DefaultMaxDurationDays {
		t.Fatalf("unexpected rates %+v", rates)
	}

	tables, err := cfg.Pricing.Tables()
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	svc, ok := tables.Service("mini")
	if !ok || svc.BasePrice != 9990 || svc.PricePerDay != 1000 {
		t.Fatalf("unexpected service %+v (ok=%v)", svc, ok)
	}
	if _, ok := tables.Service("benne-10m3"); ok {
		t.Fatalf("configured catalog should replace the built-in one")
	}
	// tout_venant is added at the treatment rate when the file omits it.
	if rate, ok := tables.WasteRate(pricing.DefaultWasteType); !ok || rate.PricePerM3 != 6500 {
		t.Fatalf("unexpected default waste %+v (ok=%v)", rate, ok)
	}
	if got := cfg.Pricing.DistanceTable().FallbackKm; got != 80 {
		t.Fatalf("fallback = %d", got)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown pricing source", "pricing:\n  source: mongo\n"},
		{"vat out of range", "pricing:\n  vat_rate: 1.2\n"},
		{"zero fallback", "pricing:\n  fallback_distance_km: 0\n"},
		{"zero ttl", "quote:\n  ttl: 0s\n"},
		{"max distance below fallback", "pricing:\n  max_distance_km: 10\n"},
		{"zero max duration", "pricing:\n  max_duration_days: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
}
