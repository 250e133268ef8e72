package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qm/backend/internal/infrastructure/auth"
	"github.com/qm/backend/internal/infrastructure/cache"
	"github.com/qm/backend/internal/infrastructure/config"
	"github.com/qm/backend/internal/infrastructure/event"
	"github.com/qm/backend/internal/infrastructure/logger"
	"github.com/qm/backend/internal/infrastructure/migration"
	"github.com/qm/backend/internal/infrastructure/persistence"
	"github.com/qm/backend/internal/infrastructure/printing"
	"github.com/qm/backend/internal/infrastructure/scheduler"
	"github.com/qm/backend/internal/infrastructure/telemetry"
	"github.com/qm/backend/internal/interfaces/http/handler"
	"github.com/qm/backend/internal/interfaces/http/middleware"
	"github.com/qm/backend/internal/interfaces/http/router"
	"github.com/qm/backend/migrations"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	base, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	logs, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, cfg.App.Env)
	if err != nil {
		base.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log := logs.Bridge(base, zapcore.InfoLevel)
	defer func() { _ = log.Sync() }()

	log.Info("Starting qm backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", telemetry.ServiceVersion),
	)

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, cfg.App.Env, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meters, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, cfg.App.Env, 0, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, cfg.App.Env, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.Enabled() {
		tracer.EnableSpanProfiles()
	}
	business, err := telemetry.NewBusinessMetrics(meters)
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	httpMetrics, err := middleware.NewHTTPMetrics(meters)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	dbMetrics, err := telemetry.InstrumentDB(db.DB, telemetry.DBConfig{
		Tracing:       cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:    cfg.Telemetry.DBLogFullSQL,
		SlowQuery:     cfg.Database.SlowThreshold,
		MeterProvider: meters,
	}, log)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	defer func() { _ = dbMetrics.Close() }()

	if cfg.Database.AutoMigrate {
		if err := migrate(cfg, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	stores, err := cache.NewStores(ctx, cfg.Redis, cache.WithLogger(log), cache.WithInMemoryFallback(!cfg.IsProduction()))
	if err != nil {
		log.Fatal("Failed to initialize cache stores", zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	var (
		blacklist auth.TokenBlacklist
		limiter   middleware.Limiter
	)
	if client := stores.Client(); client != nil {
		blacklist = auth.NewRedisTokenBlacklist(client)
		limiter = middleware.NewRedisLimiter(client, cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		limiter = middleware.NewInMemoryLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
	}

	repos := newRepositories(db.DB)
	svcs := newServices(repos, db, log)
	var renderer printing.PDFRenderer
	svcs.print, renderer, err = newPrintService(ctx, cfg, repos, log)
	if renderer != nil {
		defer func() { _ = renderer.Close() }()
	}
	if err != nil {
		log.Fatal("Failed to configure printing", zap.Error(err))
	}

	// Event bus
	bus := event.NewInMemoryEventBus(log, event.WithDispatchObserver(business.ObserveDispatch))
	journal := event.NewJournal(db.DB)
	wireEvents(bus, journal, svcs, stores.Idempotency, cfg.Event, log)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	var locker scheduler.TenantLocker
	if stores.Locker != nil {
		locker = stores.Locker
	}
	syncSvc, sched, err := legacySync(cfg, repos, locker, business, log)
	if err != nil {
		log.Fatal("Failed to configure legacy sync", zap.Error(err))
	}
	if sched != nil {
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
	}

	ensureCompanySetups(ctx, svcs.companySetup, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	health := handler.NewHealthHandler(telemetry.ServiceVersion, 0).
		AddCheck("database", db.Ping)
	if client := stores.Client(); client != nil {
		health.AddCheck("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
	}

	engine, err := router.NewEngine(router.EngineOptions{
		Logger:      log,
		ServiceName: cfg.Telemetry.ServiceName,
		HTTP:        cfg.HTTP,
		Tracing:     tracer.Enabled(),
		Profiling:   profiler.Enabled(),
		Metrics:     httpMetrics,
		JWT:         auth.NewJWTService(cfg.JWT),
		Blacklist:   blacklist,
		Limiter:     limiter,
		Health:      health,
		Handlers:    newHandlers(cfg, svcs, journal, blacklist, syncSvc, sched),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Warn("Sync scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}
	if err := meters.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush metrics", zap.Error(err))
	}
	if err := logs.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited")
}

// migrate applies the embedded migrations over a connection of its own
func migrate(cfg *config.Config, log *zap.Logger) error {
	m, err := migration.NewFromURL(cfg.Database.DSN(), migrations.FS, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
