package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-ops-api/internal/config"
	"github.com/clinicore/clinic-ops-api/internal/repository/postgres"
	"github.com/clinicore/clinic-ops-api/pkg/logger"
	"github.com/clinicore/clinic-ops-api/pkg/messaging/redis"
	"github.com/clinicore/clinic-ops-api/pkg/metrics"
	"github.com/clinicore/clinic-ops-api/pkg/worker"
)

// workerConfig is read from the environment; the worker runs headless so
// it does not share the API's config file.
type workerConfig struct {
	HealthPort      int           `envconfig:"HEALTH_PORT" default:"8081"`
	BatchSize       int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval    time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	RetryAttempts   int           `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	RetryDelay      time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"1s"`
	CleanupInterval time.Duration `envconfig:"AUDIT_CLEANUP_INTERVAL" default:"24h"`
}

func main() {
	logger.Setup(&logger.Config{Level: zerolog.InfoLevel})

	var wcfg workerConfig
	if err := envconfig.Process("WORKER", &wcfg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse worker environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewBroker(redis.Config{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	auditRepo := postgres.NewAuditRepository(base)

	m := metrics.NewMetrics("clinicops", "worker")

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     wcfg.BatchSize,
		PollInterval:  wcfg.PollInterval,
		RetryAttempts: wcfg.RetryAttempts,
		RetryDelay:    wcfg.RetryDelay,
	}, log.Logger, m)

	cleanup := worker.NewAuditCleanupWorker(
		auditRepo, cfg.Audit.RetentionDays, wcfg.CleanupInterval, log.Logger, m)

	startHealthServer(wcfg.HealthPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()
	wg.Wait()

	log.Info().Msg("worker stopped")
}

func startHealthServer(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := ":" + strconv.Itoa(port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("health server failed")
		}
	}()
}
