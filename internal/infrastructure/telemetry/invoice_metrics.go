package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// InvoiceMetrics tracks invoice lifecycle activity, payments and the stats cache.
type InvoiceMetrics struct {
	logger *zap.Logger

	created       metric.Int64Counter
	deleted       metric.Int64Counter
	amount        metric.Float64Histogram
	statusChanges metric.Int64Counter
	payments      metric.Int64Counter
	paidAmount    metric.Float64Counter
	refunds       metric.Int64Counter
	refundAmount  metric.Float64Counter
	overdueMarked metric.Int64Counter
	cacheLookups  metric.Int64Counter
}

// InvoiceMetricsConfig holds configuration for invoice metrics.
type InvoiceMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewInvoiceMetrics declares the invoice instruments on cfg.Meter.
func NewInvoiceMetrics(cfg InvoiceMetricsConfig) (*InvoiceMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	in := NewInstruments(cfg.Meter)
	im := &InvoiceMetrics{
		logger:        logger,
		created:       in.Counter("invoicer_invoice_created_total", "Invoices created", "{invoices}"),
		deleted:       in.Counter("invoicer_invoice_deleted_total", "Draft or cancelled invoices deleted", "{invoices}"),
		amount:        in.Histogram("invoicer_invoice_total_amount", "Invoice totals at creation", "{currency_unit}", InvoiceAmountBuckets...),
		statusChanges: in.Counter("invoicer_invoice_status_change_total", "Invoice status transitions", "{transitions}"),
		payments:      in.Counter("invoicer_payment_total", "Recorded payments", "{payments}"),
		paidAmount:    in.FloatCounter("invoicer_payment_amount_total", "Sum of recorded payment amounts", "{currency_unit}"),
		refunds:       in.Counter("invoicer_refund_total", "Refunded payments", "{refunds}"),
		refundAmount:  in.FloatCounter("invoicer_refund_amount_total", "Sum of refunded amounts", "{currency_unit}"),
		overdueMarked: in.Counter("invoicer_invoice_overdue_marked_total", "Invoices moved to overdue by the sweep", "{invoices}"),
		cacheLookups:  in.Counter("invoicer_stats_cache_lookups_total", "Stats cache lookups by result", "{lookups}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return im, nil
}

// RecordInvoiceCreated records an invoice creation and its total.
func (im *InvoiceMetrics) RecordInvoiceCreated(ctx context.Context, currency string, total decimal.Decimal) {
	attrs := metric.WithAttributes(AttrCurrency.String(currency))
	im.created.Add(ctx, 1, attrs)
	im.amount.Record(ctx, total.InexactFloat64(), attrs)
}

// RecordInvoiceDeleted records an invoice deletion.
func (im *InvoiceMetrics) RecordInvoiceDeleted(ctx context.Context) {
	im.deleted.Add(ctx, 1)
}

// RecordStatusChange records a lifecycle transition.
func (im *InvoiceMetrics) RecordStatusChange(ctx context.Context, from, to string) {
	im.statusChanges.Add(ctx, 1, metric.WithAttributes(
		AttrFromStatus.String(from),
		AttrInvoiceStatus.String(to),
	))
}

// RecordPayment records a payment against an invoice.
func (im *InvoiceMetrics) RecordPayment(ctx context.Context, method, currency string, amount decimal.Decimal) {
	attrs := metric.WithAttributeSet(attribute.NewSet(
		AttrPaymentMethod.String(method),
		AttrCurrency.String(currency),
	))
	im.payments.Add(ctx, 1, attrs)
	im.paidAmount.Add(ctx, amount.InexactFloat64(), attrs)
}

// RecordRefund records a refund of a payment.
func (im *InvoiceMetrics) RecordRefund(ctx context.Context, currency string, amount decimal.Decimal) {
	attrs := metric.WithAttributes(AttrCurrency.String(currency))
	im.refunds.Add(ctx, 1, attrs)
	im.refundAmount.Add(ctx, amount.InexactFloat64(), attrs)
}

// RecordOverdueMarked records the outcome of one overdue sweep.
func (im *InvoiceMetrics) RecordOverdueMarked(ctx context.Context, count int) {
	if count > 0 {
		im.overdueMarked.Add(ctx, int64(count))
	}
}

// RecordStatsCacheLookup records a stats cache hit or miss for a backend.
func (im *InvoiceMetrics) RecordStatsCacheLookup(ctx context.Context, backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	im.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		AttrCacheBackend.String(backend),
		AttrCacheResult.String(result),
	))
}
