package tracing

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials/insecure"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Provider manages the OpenTelemetry tracer provider lifecycle.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	opts           *Options
}

// NewProvider creates and initializes a new tracer provider. When tracing is
// disabled the returned provider records nothing and the globals are left alone.
func NewProvider(ctx context.Context, opts *Options) (*Provider, error) {
	if opts == nil {
		opts = NewOptions()
	}
	opts.Complete("")

	if err := utilerrors.NewAggregate(opts.Validate()); err != nil {
		return nil, fmt.Errorf("invalid tracing options: %w", err)
	}

	if !opts.Enabled {
		return &Provider{
			tracerProvider: sdktrace.NewTracerProvider(),
			opts:           opts,
		}, nil
	}

	res, err := newResource(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(
		exporter,
		sdktrace.WithBatchTimeout(opts.BatchTimeout),
		sdktrace.WithMaxExportBatchSize(opts.BatchMaxSize),
		sdktrace.WithExportTimeout(opts.ExportTimeout),
		sdktrace.WithMaxQueueSize(opts.MaxQueueSize),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(opts)),
		sdktrace.WithSpanProcessor(bsp),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{
		tracerProvider: tp,
		opts:           opts,
	}, nil
}

// Tracer returns a tracer with the given name.
func (p *Provider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.tracerProvider == nil {
		return otel.Tracer(name, opts...)
	}
	return p.tracerProvider.Tracer(name, opts...)
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.opts != nil && p.opts.Enabled
}

// Shutdown flushes pending spans and releases the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	return p.tracerProvider.Shutdown(ctx)
}

// ForceFlush flushes any pending spans.
func (p *Provider) ForceFlush(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	return p.tracerProvider.ForceFlush(ctx)
}

func newResource(ctx context.Context, opts *Options) (*resource.Resource, error) {
	attributes := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		),
	}

	if opts.Environment != "" {
		attributes = append(attributes, resource.WithAttributes(
			semconv.DeploymentEnvironment(opts.Environment),
		))
	}

	for k, v := range opts.ResourceAttributes {
		attributes = append(attributes, resource.WithAttributes(
			attribute.String(k, v),
		))
	}

	attributes = append(attributes,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithProcess(),
	)

	return resource.New(ctx, attributes...)
}

func newExporter(ctx context.Context, opts *Options) (sdktrace.SpanExporter, error) {
	switch opts.ExporterType {
	case ExporterOTLPGRPC:
		return newOTLPGRPCExporter(ctx, opts)
	case ExporterOTLPHTTP:
		return newOTLPHTTPExporter(ctx, opts)
	case ExporterStdout:
		return newStdoutExporter()
	case ExporterNoop:
		return noopExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", opts.ExporterType)
	}
}

func newOTLPGRPCExporter(ctx context.Context, opts *Options) (sdktrace.SpanExporter, error) {
	grpcOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
	}

	if opts.Insecure {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}

	if len(opts.Headers) > 0 {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	return otlptrace.New(ctx, otlptracegrpc.NewClient(grpcOpts...))
}

func newOTLPHTTPExporter(ctx context.Context, opts *Options) (sdktrace.SpanExporter, error) {
	httpOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(opts.Endpoint),
	}

	if opts.Insecure {
		httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
	}

	if len(opts.Headers) > 0 {
		httpOpts = append(httpOpts, otlptracehttp.WithHeaders(opts.Headers))
	}

	return otlptrace.New(ctx, otlptracehttp.NewClient(httpOpts...))
}

func newStdoutExporter() (sdktrace.SpanExporter, error) {
	return stdouttrace.New(
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithWriter(os.Stdout),
	)
}

type noopExporter struct{}

func (noopExporter) ExportSpans(_ context.Context, _ []sdktrace.ReadOnlySpan) error {
	return nil
}

func (noopExporter) Shutdown(_ context.Context) error {
	return nil
}

func newSampler(opts *Options) sdktrace.Sampler {
	switch opts.SamplerType {
	case SamplerAlwaysOn:
		return sdktrace.AlwaysSample()
	case SamplerAlwaysOff:
		return sdktrace.NeverSample()
	case SamplerRatio:
		return sdktrace.TraceIDRatioBased(opts.SamplerRatio)
	case SamplerParentBased:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SamplerRatio))
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}
