// README: Bench cases: environment, migrations, quote pricing, order lifecycle, concurrency and throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"benne/internal/migrate"
	"benne/internal/modules/pricing"
)

const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	// filled by earlier cases and read by later ones
	quoteID string
	orderID string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func referenceQuote() map[string]any {
	return map[string]any{
		"service_id":    "benne-10m3",
		"waste_type":    "gravats",
		"address":       "12 rue de Rivoli, 75001 Paris",
		"duration_days": 5,
	}
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: StatusFail, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: StatusFail, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: StatusSkip, Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: StatusFail, Note: "db not configured"}
				}
				if err := migrate.Apply(ctx, r.db, r.cfg.MigrationsDir); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: StatusFail, Note: "db not configured"}
				}
				tables, err := extractTables(filepath.Join(r.cfg.MigrationsDir, "0001_init.sql"))
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: StatusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: StatusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: StatusPass, Note: fmt.Sprintf("tables=%d", len(tables))}
			},
		},
		httpCase("API: liveness", http.MethodGet, base+"/health", nil, []int{200}),
		httpCase("API: readiness", http.MethodGet, base+"/ready", nil, []int{200}),
		httpCase("Catalog: services", http.MethodGet, base+"/api/catalog/services", nil, []int{200}),

		// Quotes
		{
			Name: "Quote: reference scenario totals",
			Run: func(ctx context.Context, r *Runner) Result {
				var q struct {
					ID     string `json:"id"`
					Result struct {
						Totals struct {
							TotalTTC float64 `json:"total_ttc"`
						} `json:"totals"`
					} `json:"result"`
				}
				start := time.Now()
				code, err := r.doJSON(ctx, http.MethodPost, base+"/api/quotes", referenceQuote(), &q)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				lat := time.Since(start)
				if code != http.StatusCreated {
					return Result{Status: StatusFail, Latency: lat, Note: fmt.Sprintf("status=%d", code)}
				}
				r.quoteID = q.ID
				if q.Result.Totals.TotalTTC != 850.56 {
					return Result{Status: StatusFail, Latency: lat, Note: fmt.Sprintf("total_ttc=%.2f want 850.56", q.Result.Totals.TotalTTC)}
				}
				return Result{Status: StatusPass, Latency: lat}
			},
		},
		httpCase("Quote: zero duration -> 400", http.MethodPost, base+"/api/quotes", map[string]any{
			"service_id":    "benne-10m3",
			"duration_days": 0,
		}, []int{400}),
		httpCase("Quote: unknown service -> 404", http.MethodPost, base+"/api/quotes", map[string]any{
			"service_id":    "benne-99m3",
			"duration_days": 3,
		}, []int{404}),
		{
			Name: "Quote: stored in redis",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.quoteID == "" {
					return Result{Status: StatusSkip, Note: "no quote created"}
				}
				if r.redis == nil {
					return Result{Status: StatusSkip, Note: "redis not configured"}
				}
				ttl, err := r.redis.TTL(ctx, "quote:"+r.quoteID).Result()
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				if ttl <= 0 {
					return Result{Status: StatusFail, Note: fmt.Sprintf("ttl=%s", ttl)}
				}
				return Result{Status: StatusPass, Note: fmt.Sprintf("ttl=%s", ttl.Round(time.Second))}
			},
		},

		// Order flow
		{
			Name: "Order: create from quote",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.quoteID == "" {
					return Result{Status: StatusSkip, Note: "no quote created"}
				}
				id, code, err := r.createOrder(ctx, r.quoteID)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				if code != http.StatusCreated {
					return Result{Status: StatusFail, Note: fmt.Sprintf("status=%d", code)}
				}
				r.orderID = id
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Order: reuse quote -> 409",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.orderID == "" {
					return Result{Status: StatusSkip, Note: "no order created"}
				}
				_, code, err := r.createOrder(ctx, r.quoteID)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				if code != http.StatusConflict {
					return Result{Status: StatusFail, Note: fmt.Sprintf("status=%d", code)}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Order: paid -> delivered",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.orderID == "" {
					return Result{Status: StatusSkip, Note: "no order created"}
				}
				for _, st := range []string{"paid", "delivered"} {
					code, err := r.doJSON(ctx, http.MethodPost, base+"/api/orders/"+r.orderID+"/status", map[string]any{"status": st}, nil)
					if err != nil {
						return Result{Status: StatusFail, Note: err.Error()}
					}
					if code != http.StatusOK {
						return Result{Status: StatusFail, Note: fmt.Sprintf("%s: status=%d", st, code)}
					}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Order: cancel after delivery -> 409",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.orderID == "" {
					return Result{Status: StatusSkip, Note: "no order created"}
				}
				code, err := r.doJSON(ctx, http.MethodPost, base+"/api/orders/"+r.orderID+"/cancel", map[string]any{}, nil)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				if code != http.StatusConflict {
					return Result{Status: StatusFail, Note: fmt.Sprintf("status=%d", code)}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Order: event history",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.orderID == "" {
					return Result{Status: StatusSkip, Note: "no order created"}
				}
				var out struct {
					Events []json.RawMessage `json:"events"`
				}
				code, err := r.doJSON(ctx, http.MethodGet, base+"/api/orders/"+r.orderID+"/events", nil, &out)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				if code != http.StatusOK || len(out.Events) != 3 {
					return Result{Status: StatusFail, Note: fmt.Sprintf("status=%d events=%d", code, len(out.Events))}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Concurrency: single winner on paid",
			Run: func(ctx context.Context, r *Runner) Result {
				quoteID, err := r.createQuote(ctx)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				id, code, err := r.createOrder(ctx, quoteID)
				if err != nil || code != http.StatusCreated {
					return Result{Status: StatusFail, Note: fmt.Sprintf("create: status=%d err=%v", code, err)}
				}
				return concurrentAccept(ctx, r, base+"/api/orders/"+id+"/status", map[string]any{"status": "paid"})
			},
		},

		// Performance
		{
			Name: "Perf: quote throughput (HTTP)",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/quotes", referenceQuote())
			},
		},
		{
			Name: "Perf: pricing engine (in-process)",
			Run: func(ctx context.Context, r *Runner) Result {
				return enginePerf(ctx, r.cfg.Concurrency, r.cfg.Duration)
			},
		},
	}
}

func httpCase(name, method, url string, body any, okStatuses []int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			start := time.Now()
			code, err := r.doJSON(ctx, method, url, body, nil)
			lat := time.Since(start)
			if err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			if contains(okStatuses, code) {
				return Result{Status: StatusPass, Latency: lat, Note: fmt.Sprintf("status=%d", code)}
			}
			return Result{Status: StatusFail, Latency: lat, Note: fmt.Sprintf("status=%d", code)}
		},
	}
}

// doJSON sends body as JSON and decodes the response into out when out is non-nil.
func (r *Runner) doJSON(ctx context.Context, method, url string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// createQuote prices the reference scenario and returns the new quote id.
func (r *Runner) createQuote(ctx context.Context) (string, error) {
	var q struct {
		ID string `json:"id"`
	}
	code, err := r.doJSON(ctx, http.MethodPost, r.cfg.BaseURL+"/api/quotes", referenceQuote(), &q)
	if err != nil {
		return "", err
	}
	if code != http.StatusCreated || q.ID == "" {
		return "", fmt.Errorf("create quote: status=%d", code)
	}
	return q.ID, nil
}

// createOrder books the reference quote (5 days) starting the day after tomorrow.
func (r *Runner) createOrder(ctx context.Context, quoteID string) (string, int, error) {
	delivery := time.Now().UTC().AddDate(0, 0, 2)
	pickup := delivery.AddDate(0, 0, 5)
	var o struct {
		ID string `json:"id"`
	}
	code, err := r.doJSON(ctx, http.MethodPost, r.cfg.BaseURL+"/api/orders", map[string]any{
		"quote_id": quoteID,
		"customer": map[string]any{"name": "Bench Client", "email": "bench@example.com"},
		"delivery": map[string]any{"date": delivery.Format("2006-01-02"), "slot": "morning"},
		"pickup":   map[string]any{"date": pickup.Format("2006-01-02"), "slot": "afternoon"},
	}, &o)
	return o.ID, code, err
}

func concurrentAccept(ctx context.Context, r *Runner, url string, payload any) Result {
	var succ, conflict int64
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := r.doJSON(ctx, http.MethodPost, url, payload, nil)
			if err != nil {
				return
			}
			switch code {
			case http.StatusOK:
				atomic.AddInt64(&succ, 1)
			case http.StatusConflict:
				atomic.AddInt64(&conflict, 1)
			}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("success=%d conflict=%d", succ, conflict)
	if succ == 1 {
		return Result{Status: StatusPass, Note: note}
	}
	return Result{Status: StatusFail, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				code, err := r.doJSON(ctx, http.MethodPost, url, payload, nil)
				if err != nil || code >= 500 {
					atomic.AddInt64(&errCount, 1)
					continue
				}
				atomic.AddInt64(&count, 1)
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: StatusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: StatusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

// enginePerf hammers one shared pricing service and checks every result is identical.
func enginePerf(ctx context.Context, workers int, d time.Duration) Result {
	svc := pricing.NewService(pricing.DefaultConfig(), pricing.MustDefaultTables(), pricing.NewDefaultResolver())
	req := pricing.QuoteRequest{ServiceID: "benne-10m3", WasteType: "gravats", Address: "75001 Paris", DurationDays: 5}
	want, err := svc.ComputeQuote(req)
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}

	end := time.Now().Add(d)
	var count, mismatches int64
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				got, err := svc.ComputeQuote(req)
				if err != nil || got != want {
					atomic.AddInt64(&mismatches, 1)
				}
				atomic.AddInt64(&count, 1)
			}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("quotes/s=%.0f mismatches=%d", float64(count)/d.Seconds(), mismatches)
	if mismatches > 0 {
		return Result{Status: StatusFail, Note: note}
	}
	return Result{Status: StatusPass, Note: note}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

var createTableRe = regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	matches := createTableRe.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}
