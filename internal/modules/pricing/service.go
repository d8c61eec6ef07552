// README: Pricing service computes quote breakdowns from the lookup tables.
package pricing

import (
	"errors"
	"fmt"

	"benne/internal/types"
)

var (
	ErrUnknownService = errors.New("service not found")
	// ErrOutOfRange rejects durations and distances outside the configured bounds,
	// and amounts too large for int64 cents.
	ErrOutOfRange = errors.New("request out of range")
)

// Service is stateless after construction and safe for concurrent use.
type Service struct {
	cfg      Config
	tables   *Tables
	resolver DistanceResolver
}

func NewService(cfg Config, tables *Tables, resolver DistanceResolver) *Service {
	if cfg.IncludedDays <= 0 {
		cfg.IncludedDays = IncludedDays
	}
	if cfg.MaxDistanceKm <= 0 {
		cfg.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if cfg.MaxDurationDays <= 0 {
		cfg.MaxDurationDays = DefaultMaxDurationDays
	}
	return &Service{cfg: cfg, tables: tables, resolver: resolver}
}

// ComputeQuote prices req. It fails with ErrUnknownService for a service missing
// from the catalog and with ErrOutOfRange when the duration or distance is outside
// [1, MaxDurationDays] / [1, MaxDistanceKm]. An unknown waste type uses the default
// tariff and an unmatched address the fallback distance.
func (s *Service) ComputeQuote(req QuoteRequest) (QuoteResult, error) {
	svc, ok := s.tables.Service(req.ServiceID)
	if !ok {
		return QuoteResult{}, fmt.Errorf("%w: %q", ErrUnknownService, req.ServiceID)
	}
	if req.DurationDays < 1 || req.DurationDays > s.cfg.MaxDurationDays {
		return QuoteResult{}, fmt.Errorf("%w: duration_days must be between 1 and %d", ErrOutOfRange, s.cfg.MaxDurationDays)
	}
	rate, known := s.tables.WasteRate(req.WasteType)
	dist := s.distance(req)
	if dist.Km > s.cfg.MaxDistanceKm {
		return QuoteResult{}, fmt.Errorf("%w: distance %d km exceeds %d km", ErrOutOfRange, dist.Km, s.cfg.MaxDistanceKm)
	}

	extraDays := req.DurationDays - s.cfg.IncludedDays
	if extraDays < 0 {
		extraDays = 0
	}

	b, totalHT, tax, err := s.amounts(svc, rate, dist, extraDays, req.DocumentFee)
	if err != nil {
		return QuoteResult{}, fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}

	return QuoteResult{
		Breakdown: b,
		Totals: Totals{
			TotalHT:  totalHT,
			Tax:      tax,
			TotalTTC: totalHT + tax,
			Currency: types.Currency,
		},
		Details: Details{
			ServiceID:          svc.ID,
			ServiceName:        svc.Name,
			DistanceKm:         dist.Km,
			DistanceSource:     dist.Source,
			DurationDays:       req.DurationDays,
			ExtraDays:          extraDays,
			WasteType:          rate.Key,
			WasteTypeDefaulted: !known,
			VolumeM3:           svc.VolumeM3,
		},
	}, nil
}

// amounts computes every money figure with checked arithmetic.
func (s *Service) amounts(svc ServiceEntry, rate WasteRate, dist Distance, extraDays int, docFee bool) (Breakdown, types.Cents, types.Cents, error) {
	var (
		b   = Breakdown{BasePrice: svc.BasePrice}
		err error
	)
	if b.ExtraDaysPrice, err = svc.PricePerDay.Mul(int64(extraDays)); err != nil {
		return Breakdown{}, 0, 0, err
	}
	if b.TransportCost, err = s.cfg.TransportPerKm.Mul(int64(dist.Km) * 2); err != nil {
		return Breakdown{}, 0, 0, err
	}
	if b.TreatmentCost, err = rate.PricePerM3.CheckedMulFloat(svc.VolumeM3); err != nil {
		return Breakdown{}, 0, 0, err
	}
	if docFee {
		b.DocumentFee = s.cfg.DocumentFee
	}
	totalHT, err := types.Sum(b.BasePrice, b.ExtraDaysPrice, b.TransportCost, b.TreatmentCost, b.DocumentFee)
	if err != nil {
		return Breakdown{}, 0, 0, err
	}
	tax, err := totalHT.CheckedMulBps(s.cfg.VATBps)
	if err != nil {
		return Breakdown{}, 0, 0, err
	}
	if _, err := types.Sum(totalHT, tax); err != nil {
		return Breakdown{}, 0, 0, err
	}
	return b, totalHT, tax, nil
}

func (s *Service) distance(req QuoteRequest) Distance {
	if req.DistanceKm != nil && *req.DistanceKm > 0 {
		return Distance{Km: *req.DistanceKm, Source: SourceOverride}
	}
	return s.resolver.Resolve(req.Address)
}

// Services lists the catalog.
func (s *Service) Services() []ServiceEntry {
	return s.tables.Services()
}

// WasteRates lists the waste tariffs.
func (s *Service) WasteRates() []WasteRate {
	return s.tables.WasteRates()
}

// Config returns the rates in use.
func (s *Service) Config() Config {
	return s.cfg
}
