// README: Smoke and load runner against a running API; checks Postgres, Redis, quotes and the order flow.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"benne/internal/config"
)

// Config drives one bench run. DSN and RedisAddr default to the API's own
// config so the runner inspects the stores the server writes to.
type Config struct {
	BaseURL        string
	DSN            string
	RedisAddr      string
	MigrationsDir  string
	ApplyMigration bool
	Strict         bool
	Timeout        time.Duration
	Concurrency    int
	Duration       time.Duration
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("bench config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	results := NewRunner(cfg).RunAll(ctx)
	pass, fail, skipped := tally(results)
	fmt.Printf("\n== Summary ==\nPASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 || (cfg.Strict && skipped > 0) {
		os.Exit(1)
	}
}

// loadConfig reads BENNE_BENCH_* for runner settings, then lets flags override.
func loadConfig() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BENNE_BENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("base-url", "http://localhost:8080")
	v.SetDefault("migrations", "migrations")
	v.SetDefault("timeout", 60*time.Second)
	v.SetDefault("concurrency", 20)
	v.SetDefault("duration", 10*time.Second)

	var cfg Config
	apiConfig := flag.String("config", "", "API config file; supplies the DSN and Redis address")
	flag.StringVar(&cfg.BaseURL, "base-url", v.GetString("base-url"), "API base URL")
	flag.StringVar(&cfg.DSN, "dsn", "", "Postgres DSN (default from API config)")
	flag.StringVar(&cfg.RedisAddr, "redis", "", "Redis address (default from API config)")
	flag.StringVar(&cfg.MigrationsDir, "migrations", v.GetString("migrations"), "Migrations directory")
	flag.BoolVar(&cfg.ApplyMigration, "apply-migration", v.GetBool("apply-migration"), "Apply migrations before tests")
	flag.BoolVar(&cfg.Strict, "strict", v.GetBool("strict"), "Fail on skipped tests")
	flag.DurationVar(&cfg.Timeout, "timeout", v.GetDuration("timeout"), "Total timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", v.GetInt("concurrency"), "Concurrency for perf tests")
	flag.DurationVar(&cfg.Duration, "duration", v.GetDuration("duration"), "Duration for perf tests")
	flag.Parse()

	if cfg.DSN == "" || cfg.RedisAddr == "" {
		api, err := config.Load(*apiConfig)
		if err != nil {
			return Config{}, err
		}
		if cfg.DSN == "" {
			cfg.DSN = api.DB.DSN
		}
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = api.Redis.Addr
		}
	}
	if cfg.Concurrency <= 0 {
		return Config{}, fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

func tally(results []Result) (pass, fail, skipped int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			pass++
		case StatusFail:
			fail++
		case StatusSkip:
			skipped++
		}
	}
	return pass, fail, skipped
}
