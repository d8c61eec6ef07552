// README: Quote service computes a price, snapshots it in Redis and announces it.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"benne/internal/events"
	"benne/internal/modules/pricing"
	"benne/internal/types"
)

const DefaultTTL = 30 * time.Minute

var (
	ErrQuoteNotFound = errors.New("quote not found")
	ErrBadRequest    = errors.New("bad request")
)

type Calculator interface {
	ComputeQuote(req pricing.QuoteRequest) (pricing.QuoteResult, error)
}

type Repository interface {
	Save(ctx context.Context, q *Quote, ttl time.Duration) error
	Get(ctx context.Context, id types.ID) (*Quote, error)
}

type Recorder interface {
	ObserveQuote(res pricing.QuoteResult)
}

type Service struct {
	calc      Calculator
	repo      Repository
	publisher events.Publisher
	recorder  Recorder
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(calc Calculator, repo Repository, publisher events.Publisher, recorder Recorder, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		calc:      calc,
		repo:      repo,
		publisher: publisher,
		recorder:  recorder,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req pricing.QuoteRequest) (*Quote, error) {
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.WasteType = strings.TrimSpace(req.WasteType)
	if req.ServiceID == "" {
		return nil, fmt.Errorf("%w: service_id is required", ErrBadRequest)
	}
	if req.DurationDays < 1 {
		return nil, fmt.Errorf("%w: duration_days must be at least 1", ErrBadRequest)
	}
	if req.DistanceKm != nil && *req.DistanceKm < 0 {
		return nil, fmt.Errorf("%w: distance_km must not be negative", ErrBadRequest)
	}

	res, err := s.calc.ComputeQuote(req)
	if errors.Is(err, pricing.ErrOutOfRange) {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err != nil {
		return nil, err
	}
	if res.Details.WasteTypeDefaulted {
		s.logger.Debug("unknown waste type, default tariff applied",
			zap.String("waste_type", req.WasteType),
			zap.String("applied", res.Details.WasteType))
	}

	now := s.now().UTC()
	q := &Quote{
		ID:        types.NewID(),
		Request:   req,
		Result:    res,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Save(ctx, q, s.ttl); err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.ObserveQuote(res)
	}
	if err := s.publisher.Publish(ctx, events.QuoteComputed, q.ID.String(), q); err != nil {
		s.logger.Warn("quote event not published", zap.String("quote_id", q.ID.String()), zap.Error(err))
	}
	return q, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Quote, error) {
	if id == "" {
		return nil, ErrQuoteNotFound
	}
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Expired(s.now()) {
		return nil, ErrQuoteNotFound
	}
	return q, nil
}
