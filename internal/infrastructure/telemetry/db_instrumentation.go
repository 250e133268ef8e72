package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig configures database instrumentation
type DBConfig struct {
	Tracing        bool
	LogFullSQL     bool
	SlowQuery      time.Duration
	MeterProvider  *MeterProvider
	DBSystemName   string
	CallbackPrefix string
}

// DefaultDBConfig returns tracing off and a 200ms slow query threshold
func DefaultDBConfig() DBConfig {
	return DBConfig{
		SlowQuery:      200 * time.Millisecond,
		DBSystemName:   "postgresql",
		CallbackPrefix: "qm_telemetry",
	}
}

// DBInstrumentation records query spans, query metrics, pool gauges and
// slow query warnings for a gorm handle.
type DBInstrumentation struct {
	cfg           DBConfig
	logger        *zap.Logger
	queryDuration *Histogram
	slowQueries   *Counter
	queryErrors   *Counter
	registration  metric.Registration
}

type queryStartKey struct{}

// InstrumentDB installs otelgorm (when tracing is on) and the timing callbacks on db
func InstrumentDB(db *gorm.DB, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if cfg.SlowQuery <= 0 {
		cfg.SlowQuery = DefaultDBConfig().SlowQuery
	}
	if cfg.DBSystemName == "" {
		cfg.DBSystemName = DefaultDBConfig().DBSystemName
	}
	if cfg.CallbackPrefix == "" {
		cfg.CallbackPrefix = DefaultDBConfig().CallbackPrefix
	}
	d := &DBInstrumentation{cfg: cfg, logger: logger}

	if cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystemName), otelgorm.WithoutMetrics()}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, fmt.Errorf("register otelgorm: %w", err)
		}
	}

	meter := cfg.MeterProvider.Meter(instrumentationName)
	var err error
	if d.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "qm.db.query.duration",
		Description: "Database query duration",
		Unit:        "s",
		Buckets:     DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if d.slowQueries, err = NewCounter(meter, "qm.db.query.slow", "Queries slower than the threshold", "{query}"); err != nil {
		return nil, err
	}
	if d.queryErrors, err = NewCounter(meter, "qm.db.query.errors", "Queries that failed", "{query}"); err != nil {
		return nil, err
	}
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		if err := d.observePool(meter, sqlDB); err != nil {
			return nil, err
		}
	}
	if err := d.registerCallbacks(db); err != nil {
		return nil, err
	}

	logger.Info("database instrumentation installed",
		zap.Bool("tracing", cfg.Tracing),
		zap.Duration("slow_query", cfg.SlowQuery),
	)
	return d, nil
}

// Close unregisters the pool gauge callback
func (d *DBInstrumentation) Close() error {
	if d.registration == nil {
		return nil
	}
	return d.registration.Unregister()
}

func (d *DBInstrumentation) observePool(meter metric.Meter, sqlDB *sql.DB) error {
	conns, err := meter.Int64ObservableGauge("qm.db.pool.connections",
		metric.WithDescription("Connections in the pool by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("create pool gauge: %w", err)
	}
	maxConns, err := meter.Int64ObservableGauge("qm.db.pool.connections.max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("create pool max gauge: %w", err)
	}
	d.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, conns, maxConns)
	if err != nil {
		return fmt.Errorf("register pool callback: %w", err)
	}
	return nil
}

type hookRegistrar func(name string, fn func(*gorm.DB)) error

func (d *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	ops := []struct {
		op     string
		before hookRegistrar
		after  hookRegistrar
	}{
		{"INSERT",
			func(n string, f func(*gorm.DB)) error { return cb.Create().Before("gorm:create").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Create().After("gorm:create").Register(n, f) }},
		{"SELECT",
			func(n string, f func(*gorm.DB)) error { return cb.Query().Before("gorm:query").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Query().After("gorm:query").Register(n, f) }},
		{"UPDATE",
			func(n string, f func(*gorm.DB)) error { return cb.Update().Before("gorm:update").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Update().After("gorm:update").Register(n, f) }},
		{"DELETE",
			func(n string, f func(*gorm.DB)) error { return cb.Delete().Before("gorm:delete").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Delete().After("gorm:delete").Register(n, f) }},
		{"ROW",
			func(n string, f func(*gorm.DB)) error { return cb.Row().Before("gorm:row").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Row().After("gorm:row").Register(n, f) }},
		{"RAW",
			func(n string, f func(*gorm.DB)) error { return cb.Raw().Before("gorm:raw").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Raw().After("gorm:raw").Register(n, f) }},
	}

	for _, o := range ops {
		op := o.op
		if err := o.before(d.cfg.CallbackPrefix+":before_"+op, markQueryStart); err != nil {
			return fmt.Errorf("register %s before callback: %w", op, err)
		}
		if err := o.after(d.cfg.CallbackPrefix+":after_"+op, func(tx *gorm.DB) { d.afterQuery(tx, op) }); err != nil {
			return fmt.Errorf("register %s after callback: %w", op, err)
		}
	}
	return nil
}

func markQueryStart(tx *gorm.DB) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tx.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (d *DBInstrumentation) afterQuery(tx *gorm.DB, op string) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	table := tx.Statement.Table
	if table == "" {
		table = "unknown"
	}

	d.queryDuration.RecordDuration(ctx, elapsed, AttrDBOperation.String(op))
	failed := tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound)
	if failed {
		d.queryErrors.Inc(ctx, AttrDBOperation.String(op), AttrDBTable.String(table))
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
		if failed {
			RecordError(span, tx.Error)
		}
	}

	if elapsed < d.cfg.SlowQuery {
		return
	}
	d.slowQueries.Inc(ctx, AttrDBTable.String(table))
	if span.IsRecording() {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
	}
	d.logger.Warn("slow query",
		zap.String("operation", op),
		zap.String("table", table),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", tx.Statement.RowsAffected),
	)
}
