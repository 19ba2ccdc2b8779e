package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{Exporter: testExporter()}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestInstruments_NoopMeter(t *testing.T) {
	ctx := context.Background()
	in := telemetry.NewInstruments(noop.NewMeterProvider().Meter("test"))

	in.Counter("test_counter", "desc", "{n}").Add(ctx, 5)
	in.FloatCounter("test_float", "desc", "{n}").Add(ctx, 1.5)
	in.UpDownCounter("test_updown", "desc", "{n}").Add(ctx, -1)
	in.Histogram("test_hist", "desc", "s", telemetry.HTTPDurationBuckets...).Record(ctx, 0.15)

	assert.NoError(t, in.Err())
}

// failingMeter rejects integer counters
type failingMeter struct {
	noop.Meter
}

func (failingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("duplicate instrument")
}

func TestInstruments_KeepsFirstError(t *testing.T) {
	ctx := context.Background()
	in := telemetry.NewInstruments(failingMeter{})

	counter := in.Counter("broken_total", "desc", "{n}")
	hist := in.Histogram("after_error", "desc", "s")

	require.Error(t, in.Err())
	assert.Contains(t, in.Err().Error(), "broken_total")
	assert.NotPanics(t, func() {
		counter.Add(ctx, 1)
		hist.Record(ctx, 1)
	})

	in.UpDownCounter("later", "desc", "{n}")
	assert.Contains(t, in.Err().Error(), "broken_total")
}

func newInvoiceMetrics(t *testing.T) (*telemetry.InvoiceMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	im, err := telemetry.NewInvoiceMetrics(telemetry.InvoiceMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)
	return im, reader
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]float64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]float64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += float64(dp.Value)
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += float64(dp.Count)
				}
			}
		}
	}
	return sums
}

func TestNewInvoiceMetrics_NilMeter(t *testing.T) {
	im, err := telemetry.NewInvoiceMetrics(telemetry.InvoiceMetricsConfig{})
	assert.Nil(t, im)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestInvoiceMetrics_Record(t *testing.T) {
	ctx := context.Background()
	im, reader := newInvoiceMetrics(t)

	im.RecordInvoiceCreated(ctx, "USD", decimal.RequireFromString("120.00"))
	im.RecordInvoiceCreated(ctx, "EUR", decimal.RequireFromString("60.00"))
	im.RecordInvoiceDeleted(ctx)
	im.RecordStatusChange(ctx, "draft", "sent")
	im.RecordPayment(ctx, "bank_transfer", "USD", decimal.RequireFromString("40.50"))
	im.RecordRefund(ctx, "USD", decimal.RequireFromString("10.25"))
	im.RecordOverdueMarked(ctx, 3)
	im.RecordOverdueMarked(ctx, 0)
	im.RecordStatsCacheLookup(ctx, "memory", true)
	im.RecordStatsCacheLookup(ctx, "memory", false)

	sums := collectSums(t, reader)
	assert.Equal(t, 2.0, sums["invoicer_invoice_created_total"])
	assert.Equal(t, 2.0, sums["invoicer_invoice_total_amount"])
	assert.Equal(t, 1.0, sums["invoicer_invoice_deleted_total"])
	assert.Equal(t, 1.0, sums["invoicer_invoice_status_change_total"])
	assert.Equal(t, 1.0, sums["invoicer_payment_total"])
	assert.InDelta(t, 40.5, sums["invoicer_payment_amount_total"], 0.0001)
	assert.Equal(t, 1.0, sums["invoicer_refund_total"])
	assert.InDelta(t, 10.25, sums["invoicer_refund_amount_total"], 0.0001)
	assert.Equal(t, 3.0, sums["invoicer_invoice_overdue_marked_total"])
	assert.Equal(t, 2.0, sums["invoicer_stats_cache_lookups_total"])
}
