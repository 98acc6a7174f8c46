// internal/common/observability/observability.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         oteltrace.Tracer
	sagaCounter    otelmetric.Int64Counter
	sagaDuration   otelmetric.Float64Histogram
}

// New wires the OpenTelemetry providers: a Prometheus reader for metrics and,
// when jaegerEndpoint is non-empty, a Jaeger exporter for traces.
func New(serviceName, jaegerEndpoint string) *Observability {
	o := &Observability{}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	sagaCounter, _ := meter.Int64Counter(
		"applications.processed",
		otelmetric.WithDescription("Number of loan applications processed"),
	)

	sagaDuration, _ := meter.Float64Histogram(
		"applications.duration",
		otelmetric.WithDescription("Loan application processing duration"),
		otelmetric.WithUnit("ms"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.sagaCounter = sagaCounter
	o.sagaDuration = sagaDuration

	if jaegerEndpoint != "" {
		traceExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
			return o
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(sdkresource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName(serviceName),
			)),
		)
		otel.SetTracerProvider(tp)
		o.tracerProvider = tp
		o.tracer = tp.Tracer(serviceName)
	}

	return o
}

// StartStage opens a span for one workflow stage. The returned end function
// is safe to call even when tracing is disabled.
func (o *Observability) StartStage(ctx context.Context, stage, correlationID string) (context.Context, func()) {
	if o.tracer == nil {
		return ctx, func() {}
	}

	ctx, span := o.tracer.Start(ctx, stage, oteltrace.WithAttributes(
		attribute.String("correlation_id", correlationID),
	))
	return ctx, func() { span.End() }
}

func (o *Observability) RecordApplicationProcessed(ctx context.Context, status string) {
	if o.sagaCounter != nil {
		o.sagaCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordApplicationDuration(ctx context.Context, duration time.Duration, status string) {
	if o.sagaDuration != nil {
		o.sagaDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.tracerProvider != nil {
		o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
}
