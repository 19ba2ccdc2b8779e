package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedInvoice struct {
	ID     uint   `gorm:"primaryKey"`
	Number string `gorm:"size:32"`
}

func setupTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedInvoice{}))
	return db
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestInstrumentDB(t *testing.T) {
	tests := []struct {
		name     string
		cfg      DBTracingConfig
		wantSlow time.Duration
		wantSys  string
	}{
		{"defaults", DBTracingConfig{}, 200 * time.Millisecond, "postgresql"},
		{"explicit", DBTracingConfig{SlowThreshold: time.Second, System: "sqlite"}, time.Second, "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.InfoLevel)
			db := setupTracedDB(t)

			require.NoError(t, InstrumentDB(db, tt.cfg, zap.New(core)))

			assert.NotNil(t, db.Callback().Query().Get("invoicer:span_finish_query"))
			assert.NotNil(t, db.Callback().Create().Get("invoicer:span_start_create"))

			entries := recorded.FilterMessage("Database tracing enabled").All()
			require.Len(t, entries, 1)
			fields := entries[0].ContextMap()
			assert.Equal(t, tt.wantSlow, fields["slow_query_threshold"])
			assert.Equal(t, tt.wantSys, fields["db_system"])
		})
	}
}

func TestDBSpans_Finish(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	spans := dbSpans{slow: time.Millisecond}
	db := setupTracedDB(t)

	tests := []struct {
		name      string
		dbErr     error
		start     time.Time
		wantError bool
		wantSlow  bool
	}{
		{"fast query", nil, time.Now(), false, false},
		{"slow query", nil, time.Now().Add(-time.Second), false, true},
		{"failed query", errors.New("relation does not exist"), time.Now(), true, false},
		{"record not found is not an error", gorm.ErrRecordNotFound, time.Now(), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, span := tp.Tracer("test").Start(context.Background(), tt.name)
			ctx = context.WithValue(ctx, queryStartKey{}, tt.start)

			stmt := db.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
			stmt.Statement.Table = "invoices"
			stmt.Statement.RowsAffected = 2
			stmt.Error = tt.dbErr
			spans.finish(stmt)
			span.End()

			ended := recorder.Ended()
			got := ended[len(ended)-1]

			table, ok := spanAttr(got, "db.sql.table")
			require.True(t, ok)
			assert.Equal(t, "invoices", table.AsString())

			rows, _ := spanAttr(got, "db.rows_affected")
			assert.Equal(t, int64(2), rows.AsInt64())

			_, slow := spanAttr(got, "db.slow_query")
			assert.Equal(t, tt.wantSlow, slow)

			if tt.wantError {
				assert.Equal(t, codes.Error, got.Status().Code)
			} else {
				assert.NotEqual(t, codes.Error, got.Status().Code)
			}
		})
	}
}

func TestDBSpans_StartStampsContext(t *testing.T) {
	db := setupTracedDB(t).WithContext(context.Background())

	dbSpans{}.start(db)

	_, ok := db.Statement.Context.Value(queryStartKey{}).(time.Time)
	assert.True(t, ok)
}
