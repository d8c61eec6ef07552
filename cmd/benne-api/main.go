// README: Entry point; loads config, wires pricing/quote/order services, starts HTTP server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"benne/internal/config"
	"benne/internal/events"
	httptransport "benne/internal/http"
	"benne/internal/http/handlers"
	"benne/internal/infra"
	"benne/internal/metrics"
	"benne/internal/migrate"
	"benne/internal/modules/order"
	"benne/internal/modules/pricing"
	"benne/internal/modules/quote"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	migrations := flag.String("migrate", "", "apply the SQL files in this directory before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("postgres init", zap.Error(err))
	}
	defer dbPool.Close()

	if *migrations != "" {
		dir, _ := filepath.Abs(*migrations)
		if err := migrate.Apply(ctx, dbPool, dir); err != nil {
			logger.Fatal("apply migrations", zap.String("dir", dir), zap.Error(err))
		}
		logger.Info("migrations applied", zap.String("dir", dir))
	}

	redisClient, err := infra.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("redis init", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kp := events.NewKafkaPublisher(infra.NewKafkaWriter(cfg.Kafka), logger)
		defer func() { _ = kp.Close() }()
		publisher = kp
	}

	tables, err := loadTables(ctx, cfg.Pricing, pricing.NewStore(dbPool))
	if err != nil {
		logger.Fatal("pricing tables", zap.String("source", cfg.Pricing.Source), zap.Error(err))
	}
	resolver, err := pricing.NewTableResolver(cfg.Pricing.DistanceTable())
	if err != nil {
		logger.Fatal("distance table", zap.Error(err))
	}
	pricingSvc := pricing.NewService(cfg.Pricing.Rates(), tables, resolver)

	m := metrics.New()

	quoteSvc := quote.NewService(pricingSvc, quote.NewStore(redisClient), publisher, m, cfg.Quote.TTL, logger)
	orderSvc := order.NewService(order.NewStore(dbPool), quoteSvc, publisher, m, logger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Catalog:        pricingSvc,
		Quotes:         quoteSvc,
		Orders:         orderSvc,
		Metrics:        m,
		MetricsHandler: m.Handler(),
		Checks: map[string]handlers.Check{
			"postgres": dbPool.Ping,
			"redis":    redisCheck(redisClient),
		},
		RateLimit: cfg.RateLimit,
		CORS:      cfg.CORS,
		Logger:    logger,
	})

	logger.Info("pricing ready",
		zap.String("source", cfg.Pricing.Source),
		zap.Int("services", len(tables.Services())),
		zap.Int("waste_types", len(tables.WasteRates())),
		zap.Bool("kafka", cfg.Kafka.Enabled),
	)

	server := httptransport.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, logger)
	if err := server.Run(ctx); err != nil {
		logger.Fatal("http server", zap.Error(err))
	}
}

func loadTables(ctx context.Context, cfg config.PricingConfig, store *pricing.Store) (*pricing.Tables, error) {
	if cfg.Source == config.PricingSourceDB {
		return store.LoadTables(ctx, cfg.Rates(), cfg.DefaultWasteType)
	}
	return cfg.Tables()
}

func redisCheck(c *redis.Client) handlers.Check {
	return func(ctx context.Context) error {
		return c.Ping(ctx).Err()
	}
}
