package telemetry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSlowQuery = 200 * time.Millisecond
	defaultDBSystem  = "postgresql"
)

// DBTracingConfig controls the otelgorm plugin and the span enrichment
// installed next to it.
type DBTracingConfig struct {
	LogFullSQL    bool // record query variables, development only
	SlowThreshold time.Duration
	System        string
}

type queryStartKey struct{}

// dbSpans stamps each statement with its start time and annotates the
// otelgorm span once the statement finishes.
type dbSpans struct {
	slow time.Duration
}

// InstrumentDB installs otelgorm on db. Spans additionally carry row counts,
// the table name, error status and a slow query marker.
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = defaultSlowQuery
	}
	cfg.System = cmp.Or(cfg.System, defaultDBSystem)

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.System)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("register otelgorm: %w", err)
	}

	spans := dbSpans{slow: cfg.SlowThreshold}
	if err := spans.register(db); err != nil {
		return fmt.Errorf("register span callbacks: %w", err)
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowThreshold),
		zap.String("db_system", cfg.System),
	)
	return nil
}

func (d dbSpans) register(db *gorm.DB) error {
	cb := db.Callback()
	name := func(stage, op string) string { return "invoicer:span_" + stage + "_" + op }

	return errors.Join(
		cb.Create().Before("gorm:create").Register(name("start", "create"), d.start),
		cb.Query().Before("gorm:query").Register(name("start", "query"), d.start),
		cb.Update().Before("gorm:update").Register(name("start", "update"), d.start),
		cb.Delete().Before("gorm:delete").Register(name("start", "delete"), d.start),
		cb.Row().Before("gorm:row").Register(name("start", "row"), d.start),
		cb.Raw().Before("gorm:raw").Register(name("start", "raw"), d.start),

		cb.Create().After("gorm:create").Register(name("finish", "create"), d.finish),
		cb.Query().After("gorm:query").Register(name("finish", "query"), d.finish),
		cb.Update().After("gorm:update").Register(name("finish", "update"), d.finish),
		cb.Delete().After("gorm:delete").Register(name("finish", "delete"), d.finish),
		cb.Row().After("gorm:row").Register(name("finish", "row"), d.finish),
		cb.Raw().After("gorm:raw").Register(name("finish", "raw"), d.finish),
	)
}

func (d dbSpans) start(db *gorm.DB) {
	if ctx := db.Statement.Context; ctx != nil {
		db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
	}
}

func (d dbSpans) finish(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{attribute.Int64("db.rows_affected", db.Statement.RowsAffected)}
	if db.Statement.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", db.Statement.Table))
	}

	// a lookup that finds nothing is an answer, not a failure
	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	started, ok := ctx.Value(queryStartKey{}).(time.Time)
	if elapsed := time.Since(started); ok && elapsed > d.slow {
		attrs = append(attrs,
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("threshold_ms", d.slow.Milliseconds()),
		))
	}
	span.SetAttributes(attrs...)
}
