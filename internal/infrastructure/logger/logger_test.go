package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero config", Config{}},
		{"console stdout", Config{Level: "info", Format: "console", Output: "stdout", TimeFormat: "15:04:05"}},
		{"json stderr", Config{Level: "debug", Format: "json", Output: "stderr"}},
		{"file output", Config{Level: "warn", Format: "json", Output: filepath.Join(t.TempDir(), "app.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_TeesExtraCores(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	l, err := New(Config{Level: "info", Format: "json", Output: "stderr"}, core)
	require.NoError(t, err)
	l.Info("invoice created")

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "invoice created", recorded.All()[0].Message)
}

func TestTee(t *testing.T) {
	baseCore, baseLogs := observer.New(zapcore.InfoLevel)
	extraCore, extraLogs := observer.New(zapcore.WarnLevel)

	l := Tee(zap.New(baseCore), extraCore)
	l.Info("info entry")
	l.Warn("warn entry")

	assert.Len(t, baseLogs.All(), 2)
	assert.Len(t, extraLogs.All(), 1)

	same := zap.New(baseCore)
	assert.Same(t, same, Tee(same))
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Debug("dropped")
	l.Info("invoice sent", zap.String("invoice_number", "INV-000001"))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"invoice_number":"INV-000001"`)
	assert.NotContains(t, string(data), "dropped")

	_, err = New(Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		" Warn ":  zapcore.WarnLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), input)
	}
}

func TestFromContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	t.Run("empty context yields a nop logger", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		l.Info("ignored")
		assert.Empty(t, recorded.TakeAll())
	})

	t.Run("stored logger is returned", func(t *testing.T) {
		ctx := WithContext(context.Background(), zap.New(core).With(zap.String("request_id", "req-42")))
		FromContext(ctx).Info("hello")

		logs := recorded.TakeAll()
		require.Len(t, logs, 1)
		assert.Equal(t, "req-42", logs[0].ContextMap()["request_id"])
		assert.NotContains(t, logs[0].ContextMap(), "trace_id")
	})

	t.Run("active span ids are attached", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		}))
		ctx = WithContext(ctx, zap.New(core))

		FromContext(ctx).Info("traced")

		logs := recorded.TakeAll()
		require.Len(t, logs, 1)
		assert.Equal(t, traceID.String(), logs[0].ContextMap()["trace_id"])
		assert.Equal(t, spanID.String(), logs[0].ContextMap()["span_id"])
	})
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "test-req-123")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/invoices/:id", func(c *gin.Context) {
		FromContext(c.Request.Context()).Info("loading invoice")
		c.Status(http.StatusOK)
	})
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices/1?x=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	logs := recorded.TakeAll()
	require.Len(t, logs, 2)
	assert.Equal(t, "test-req-123", logs[0].ContextMap()["request_id"])
	assert.Equal(t, "HTTP Request", logs[1].Message)
	assert.Equal(t, zapcore.InfoLevel, logs[1].Level)
	fields := logs[1].ContextMap()
	assert.Equal(t, "test-req-123", fields["request_id"])
	assert.Equal(t, "/invoices/:id", fields["route"])
	assert.Equal(t, "x=1", fields["query"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	logs = recorded.TakeAll()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "Panic recovered", recorded.All()[0].Message)
}

func TestFromGin(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, FromGin(c))

	l := zap.NewExample()
	c.Set(ginKey, l)
	assert.Same(t, l, FromGin(c))
}

func TestGormLogger(t *testing.T) {
	query := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("log mode returns a copy", func(t *testing.T) {
		gl := NewGormLogger(zap.NewNop(), gormlogger.Info, 0)
		other, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)

		require.True(t, ok)
		assert.Equal(t, gormlogger.Info, gl.logLevel)
		assert.Equal(t, gormlogger.Warn, other.logLevel)
	})

	t.Run("logs errors", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, 0)

		gl.Trace(context.Background(), time.Now(), query, errors.New("connection refused"))

		require.Len(t, recorded.All(), 1)
		assert.Equal(t, "SQL Error", recorded.All()[0].Message)
	})

	t.Run("uses the request logger from context", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.NewNop(), gormlogger.Info, 0)
		ctx := WithContext(context.Background(), zap.New(core).With(zap.String("request_id", "req-7")))

		gl.Trace(ctx, time.Now(), query, nil)
		gl.Info(ctx, "migrated %d tables", 4)

		logs := recorded.All()
		require.Len(t, logs, 2)
		assert.Equal(t, "SQL Query", logs[0].Message)
		assert.Equal(t, "req-7", logs[0].ContextMap()["request_id"])
		assert.Equal(t, "gorm", logs[0].LoggerName)
		assert.Equal(t, "migrated 4 tables", logs[1].Message)
	})

	t.Run("ignores record not found", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, 0)

		gl.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("warns on slow queries", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, time.Millisecond)

		gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)

		require.Len(t, recorded.All(), 1)
		assert.Equal(t, "Slow SQL", recorded.All()[0].Message)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Silent, 0)

		gl.Trace(context.Background(), time.Now(), query, errors.New("boom"))
		gl.Info(context.Background(), "info %s", "x")

		assert.Empty(t, recorded.All())
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("INFO"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
