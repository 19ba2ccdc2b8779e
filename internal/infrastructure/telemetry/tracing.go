package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName scopes the spans opened by the application services
const TracerName = "invoicer"

// Span attribute keys for invoice operations
const (
	SpanInvoiceID     = attribute.Key("invoice.id")
	SpanInvoiceNumber = attribute.Key("invoice.number")
	SpanInvoiceStatus = attribute.Key("invoice.status")
	SpanCustomerID    = attribute.Key("customer.id")
	SpanUserID        = attribute.Key("user.id")
	SpanItemCount     = attribute.Key("invoice.item_count")
	SpanTotal         = attribute.Key("invoice.total")
	SpanCurrency      = attribute.Key("invoice.currency")
	SpanMarked        = attribute.Key("invoice.overdue_marked")
)

// StartServiceSpan opens an internal span named "{service}.{operation}",
// e.g. "invoice.create", on the global tracer provider. The caller ends it.
func StartServiceSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.Tracer(TracerName).Start(ctx, service+"."+operation, opts...)
}

// Fail records err on span, marks it as errored and hands err back so it
// can be returned in one statement. A nil err leaves the span untouched.
func Fail(span trace.Span, err error) error {
	if span == nil || err == nil {
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Succeed attaches the final attributes and marks span as OK.
func Succeed(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	span.SetStatus(codes.Ok, "")
}
