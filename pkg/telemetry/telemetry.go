// Package telemetry wires OpenTelemetry tracing for classkit.
//
// Tracing is configured from the standard OTEL_* environment variables and
// stays a no-op unless OTEL_ENABLED=true:
//
//	OTEL_ENABLED                    - enable tracing (default: false)
//	OTEL_SERVICE_NAME               - service name (default: classkit)
//	OTEL_SERVICE_VERSION            - service version (default: unknown)
//	OTEL_EXPORTER_OTLP_ENDPOINT     - OTLP collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL     - grpc or http/protobuf (default: grpc)
//	OTEL_EXPORTER_OTLP_HEADERS      - exporter headers, key=value pairs
//	OTEL_EXPORTER_OTLP_INSECURE     - disable TLS (default: false)
//	OTEL_TRACES_SAMPLER             - sampler name (default: always_on)
//	OTEL_TRACES_SAMPLER_ARG         - sampler argument, e.g. a ratio
//	OTEL_RESOURCE_ATTRIBUTES        - extra resource attributes
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used by classkit packages.
const InstrumentationName = "github.com/classkit"

// Span attribute keys.
const (
	AttrClass   = attribute.Key("classkit.class")
	AttrSource  = attribute.Key("classkit.source")
	AttrDialect = attribute.Key("classkit.mapping.dialect")
	AttrCount   = attribute.Key("classkit.count")
)

var (
	globalConfig *Config
	configOnce   sync.Once
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs the global tracer provider when tracing is enabled. When it
// is disabled the global no-op provider is left in place.
func Init(ctx context.Context) (ShutdownFunc, error) {
	cfg := loadConfig()
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}
	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(createSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// Enabled reports whether tracing is enabled.
func Enabled() bool {
	return loadConfig().Enabled
}

// GetConfig returns the environment configuration read at first use.
func GetConfig() *Config {
	return loadConfig()
}

func loadConfig() *Config {
	configOnce.Do(func() {
		globalConfig = LoadFromEnv()
	})
	return globalConfig
}

// Tracer returns the classkit tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a span named name with attrs.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
