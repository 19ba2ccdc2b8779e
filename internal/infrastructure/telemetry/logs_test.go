package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	lp, err := NewLoggerProvider(ctx, LogsConfig{Exporter: Exporter{ServiceName: "invoicer-test"}}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.Nil(t, lp.sdk)
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestNewZapOTELCore_Disabled(t *testing.T) {
	tests := []struct {
		name     string
		provider *LoggerProvider
	}{
		{"nil provider", nil},
		{"disabled provider", &LoggerProvider{logger: zap.NewNop()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "invoicer", LoggerProvider: tt.provider})
			assert.False(t, core.Enabled(zapcore.ErrorLevel))
		})
	}
}

func TestNewZapOTELCore_LevelFloor(t *testing.T) {
	lp := &LoggerProvider{
		sdk:    sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(nopExporter{}))),
		logger: zap.NewNop(),
	}
	t.Cleanup(func() { _ = lp.sdk.Shutdown(context.Background()) })

	core := NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    "invoicer",
		LoggerProvider: lp,
		Level:          zapcore.WarnLevel,
	})

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}

type nopExporter struct{}

func (nopExporter) Export(context.Context, []sdklog.Record) error { return nil }
func (nopExporter) Shutdown(context.Context) error              { return nil }
func (nopExporter) ForceFlush(context.Context) error            { return nil }
