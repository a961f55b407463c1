package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/evalboard/internal/adapters/http/api"
	"github.com/okian/evalboard/internal/adapters/http/swagger"
	"github.com/okian/evalboard/internal/adapters/repository"
	app "github.com/okian/evalboard/internal/app"
	"github.com/okian/evalboard/internal/config"
	"github.com/okian/evalboard/internal/domain/analytics"
	"github.com/okian/evalboard/internal/scheduler"
	"github.com/okian/evalboard/internal/seed"
	"github.com/okian/evalboard/pkg/clients/analyst"
	"github.com/okian/evalboard/pkg/logger"
	"github.com/okian/evalboard/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "evalboard exited", logger.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
}

// run wires the process from configuration and blocks until ctx is done.
func run(ctx context.Context) error {
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	if cfg.SeedDemo {
		if err := seedIfEmpty(ctx, store, time.Now().In(loc)); err != nil {
			return err
		}
	}

	svc, err := buildService(cfg, store, loc, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	if cfg.DigestCron != "" {
		digest := scheduler.New(svc,
			scheduler.WithSpec(cfg.DigestCron),
			scheduler.WithLocation(loc),
			scheduler.WithLogger(log),
		)
		if err := digest.Start(); err != nil {
			return fmt.Errorf("start digest: %w", err)
		}
		defer digest.Stop(context.Background())
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.Store),
			logger.Bool("analyst", svc.AnalystEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openStore returns the configured store and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Store != config.StoreMongo {
		return repository.NewMemStore(), func() {}, nil
	}
	ms, err := repository.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open mongo store: %w", err)
	}
	return ms, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = ms.Close(closeCtx)
	}, nil
}

// seedIfEmpty loads the demo dataset into a store without records.
func seedIfEmpty(ctx context.Context, store repository.Store, now time.Time) error {
	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	if n > 0 {
		return nil
	}
	d := seed.Generate(now)
	if err := seed.Load(ctx, store, d); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	logger.Get().Info(ctx, "demo data loaded",
		logger.Int("inspectors", len(d.Inspectors)),
		logger.Int("records", len(d.Records)),
	)
	return nil
}

// buildEngine translates the analytics tunables into engine options.
func buildEngine(cfg *config.Config) (*analytics.Engine, error) {
	weekend, err := cfg.Weekend()
	if err != nil {
		return nil, err
	}
	return analytics.NewEngine(
		analytics.WithForecastFallbackTarget(cfg.ForecastFallbackTarget),
		analytics.WithBulkEntryThreshold(cfg.BulkEntryThreshold),
		analytics.WithRiskMinRecords(cfg.RiskMinRecords),
		analytics.WithTargetMatching(analytics.TargetMatch(cfg.TargetMatching)),
		analytics.WithNonWorkingDays(cfg.NonWorkingDays...),
		analytics.WithWeekend(weekend...),
		analytics.WithParallelism(cfg.MatrixParallelism),
	), nil
}

func buildService(cfg *config.Config, store repository.Store, loc *time.Location, log logger.Logger) (*app.Service, error) {
	engine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}
	opts := []app.Option{
		app.WithStore(store),
		app.WithEngine(engine),
		app.WithLocation(loc),
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxListLimit(cfg.MaxListLimit),
	}
	if cfg.AnalystEnabled() {
		opts = append(opts, app.WithAnalyst(analyst.New(cfg.AnalystAPIKey,
			analyst.WithBaseURL(cfg.AnalystBaseURL),
			analyst.WithModel(cfg.AnalystModel),
		)))
	}
	return app.New(opts...), nil
}

func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater refreshes process gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes pipeline gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats updates the queue, worker and store gauges.
			_ = svc.GetStats(ctx)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
