// Package telemetry provides OpenTelemetry tracing, metrics, logs and
// continuous profiling for the invoicing service.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// ServiceVersion is reported on every exported span, metric and log record
const ServiceVersion = "1.0.0"

// shutdownTimeout bounds the final flush of each signal pipeline
const shutdownTimeout = 10 * time.Second

// Exporter locates the OTLP collector shared by traces, metrics and logs
type Exporter struct {
	Endpoint    string // host:port of the OTLP gRPC receiver
	Insecure    bool
	ServiceName string
}

func (e Exporter) resource() (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(e.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}
	return res, nil
}

// stopPipeline flushes and stops one signal pipeline
func stopPipeline(ctx context.Context, logger *zap.Logger, signal string, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		logger.Error("OTLP pipeline shutdown failed", zap.String("signal", signal), zap.Error(err))
		return fmt.Errorf("shutdown %s pipeline: %w", signal, err)
	}
	logger.Info("OTLP pipeline stopped", zap.String("signal", signal))
	return nil
}
