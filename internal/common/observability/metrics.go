package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"export-friction/internal/common/logger"
)

const instrumentationName = "export-friction"

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	calcCounter    otelmetric.Int64Counter
	calcDuration   otelmetric.Float64Histogram
}

// New wires the otel meter to the Prometheus registry and, when
// jaegerEndpoint is set, exports spans to Jaeger. Exporter failures are
// logged and leave that signal disabled.
func New(serviceName, jaegerEndpoint string, log logger.Logger) *Observability {
	o := &Observability{}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err})
	} else {
		o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
		otel.SetMeterProvider(o.meterProvider)
		o.meter = o.meterProvider.Meter(instrumentationName)

		o.calcCounter, _ = o.meter.Int64Counter(
			"friction.calculations",
			otelmetric.WithDescription("Number of friction calculations"),
		)
		o.calcDuration, _ = o.meter.Float64Histogram(
			"friction.calculation.duration",
			otelmetric.WithDescription("Friction calculation duration"),
			otelmetric.WithUnit("ms"),
		)
	}

	if jaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Warn("failed to create jaeger exporter", map[string]interface{}{"error": err})
		} else {
			o.tracerProvider = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exp),
				sdktrace.WithResource(res),
			)
			otel.SetTracerProvider(o.tracerProvider)
			log.Info("tracing enabled", map[string]interface{}{"endpoint": jaegerEndpoint})
		}
	}

	o.tracer = otel.Tracer(instrumentationName)
	return o
}

// NewNoop returns an Observability that records nothing.
func NewNoop() *Observability {
	return &Observability{tracer: noop.NewTracerProvider().Tracer(instrumentationName)}
}

// StartSpan starts a span as a child of any span in ctx.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordCalculation records one calculation. outcome is a color on success
// or an error code otherwise; origin is "api" or "worker".
func (o *Observability) RecordCalculation(ctx context.Context, origin, outcome string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("origin", origin),
		attribute.String("outcome", outcome),
	)
	if o.calcCounter != nil {
		o.calcCounter.Add(ctx, 1, attrs)
	}
	if o.calcDuration != nil {
		o.calcDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
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
