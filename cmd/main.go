package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/talentgrid/placer/internal/adapters/http/api"
	"github.com/talentgrid/placer/internal/adapters/http/swagger"
	"github.com/talentgrid/placer/internal/adapters/lock"
	"github.com/talentgrid/placer/internal/adapters/repository"
	service "github.com/talentgrid/placer/internal/app"
	"github.com/talentgrid/placer/internal/config"
	"github.com/talentgrid/placer/internal/domain/embedding"
	"github.com/talentgrid/placer/internal/seedgen"
	"github.com/talentgrid/placer/pkg/logger"
	"github.com/talentgrid/placer/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 120 * time.Second // allocation runs can take a while
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics;
	// the custom system metrics updater covers these.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, cleanup, err := buildStore(ctx, cfg, loggerInstance)
	if err != nil {
		os.Stderr.WriteString("failed to initialize storage: " + err.Error() + "\n")
		return
	}
	defer cleanup()

	if cfg.Dataset != "" {
		dataset, err := seedgen.LoadDataset(cfg.Dataset)
		if err != nil {
			os.Stderr.WriteString("failed to load dataset: " + err.Error() + "\n")
			return
		}
		if err := dataset.Apply(ctx, store); err != nil {
			os.Stderr.WriteString("failed to apply dataset: " + err.Error() + "\n")
			return
		}
		loggerInstance.Info(ctx, "dataset loaded",
			logger.String("path", cfg.Dataset),
			logger.Int("candidates", len(dataset.Candidates)),
			logger.Int("positions", len(dataset.Positions)),
		)
	}

	svc := service.New(
		service.WithLogger(loggerInstance),
		service.WithConfig(cfg),
		service.WithStore(store),
		service.WithLock(buildRunLock(ctx, cfg, loggerInstance)),
		service.WithEmbeddingCache(embedding.NewCache(cfg.EmbeddingsPath)),
	)

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register API docs under /api-docs
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// buildStore selects the configured storage driver. The returned
// cleanup closes whatever the driver holds open.
func buildStore(ctx context.Context, cfg *config.Config, l logger.Logger) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.StoragePostgres {
		db, err := repository.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresStore(db, l.Named("postgres"))
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		l.Info(ctx, "using postgres store")
		return store, func() { _ = db.Close() }, nil
	}
	l.Info(ctx, "using in-memory store")
	return repository.NewMemStore(), func() {}, nil
}

// buildRunLock selects the run lock implementation: Redis advisory
// lock when an address is configured, in-process mutex otherwise.
func buildRunLock(ctx context.Context, cfg *config.Config, l logger.Logger) lock.RunLock {
	if cfg.RedisAddr == "" {
		return lock.NewMutex()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	l.Info(ctx, "using redis run lock", logger.String("addr", cfg.RedisAddr))
	return lock.NewRedisLock(client)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
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

// startServiceMetricsUpdater starts a background goroutine that
// refreshes the service-level gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the runs-stored gauge as a side effect.
			_ = svc.GetStats()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
