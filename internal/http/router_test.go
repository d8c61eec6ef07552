package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"benne/internal/config"
	"benne/internal/http/handlers"
	"benne/internal/metrics"
	"benne/internal/modules/pricing"
	"benne/internal/modules/quote"
	"benne/internal/types"
)

type memQuotes struct {
	quotes map[types.ID]*quote.Quote
}

func (m *memQuotes) Save(_ context.Context, q *quote.Quote, _ time.Duration) error {
	m.quotes[q.ID] = q
	return nil
}

func (m *memQuotes) Get(_ context.Context, id types.ID) (*quote.Quote, error) {
	q, ok := m.quotes[id]
	if !ok {
		return nil, quote.ErrQuoteNotFound
	}
	return q, nil
}

func buildTestRouter(t *testing.T, checks map[string]handlers.Check, rl config.RateLimitConfig) (*gin.Engine, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	calc := pricing.NewService(pricing.DefaultConfig(), pricing.MustDefaultTables(), pricing.NewDefaultResolver())
	m := metrics.New()
	quotes := quote.NewService(calc, &memQuotes{quotes: map[types.ID]*quote.Quote{}}, nil, m, 0, zap.NewNop())
	r := NewRouter(RouterDeps{
		Catalog:        calc,
		Quotes:         quotes,
		Metrics:        m,
		MetricsHandler: m.Handler(),
		Checks:         checks,
		RateLimit:      rl,
		CORS:           config.CORSConfig{AllowedOrigins: []string{"*"}},
		Logger:         zap.NewNop(),
	})
	return r, m
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:4242"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	r, _ := buildTestRouter(t, map[string]handlers.Check{"postgres": ok}, config.RateLimitConfig{})
	if w := doRequest(r, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/ready", ""); w.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", w.Code)
	}

	r, _ = buildTestRouter(t, map[string]handlers.Check{"postgres": ok, "redis": down}, config.RateLimitConfig{})
	w := doRequest(r, http.MethodGet, "/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready: expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("ready body should name the failing check: %s", w.Body.String())
	}
}

func TestQuoteRouteRecordsMetrics(t *testing.T) {
	r, _ := buildTestRouter(t, nil, config.RateLimitConfig{})

	body := `{"service_id":"benne-10m3","waste_type":"gravats","address":"75001 Paris","duration_days":5}`
	if w := doRequest(r, http.MethodPost, "/api/quotes", body); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w := doRequest(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}
	out := w.Body.String()
	for _, want := range []string{
		`benne_quotes_total{service="benne-10m3"} 1`,
		`benne_http_requests_total{code="201",method="POST",route="/api/quotes"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestQuoteRateLimit(t *testing.T) {
	r, _ := buildTestRouter(t, nil, config.RateLimitConfig{RequestsPerMinute: 1, Burst: 2})

	body := `{"service_id":"benne-3m3","duration_days":1}`
	for i := 0; i < 2; i++ {
		if w := doRequest(r, http.MethodPost, "/api/quotes", body); w.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, w.Code)
		}
	}
	if w := doRequest(r, http.MethodPost, "/api/quotes", body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/catalog/services", ""); w.Code != http.StatusOK {
		t.Fatalf("catalog should not be rate limited, got %d", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := buildTestRouter(t, nil, config.RateLimitConfig{})
	if w := doRequest(r, http.MethodGet, "/api/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
