package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type K string
type V string

type KV struct {
	Key   K
	Value V
}

func NewKV(key string, value string) KV {
	return KV{Key: K(key), Value: V(value)}
}

func (k K) V(val string) KV {
	return KV{
		Key:   k,
		Value: V(val),
	}
}

type Reporter interface {
	StartSpan(ctx context.Context, name string, attributes ...KV) (context.Context, trace.Span)
	ForceFlush(ctx context.Context)

	InstrumentHttpClient(handler http.RoundTripper, attributes ...KV) http.RoundTripper
	InstrumentRedis(rdb redis.UniversalClient)
	InstrumentMongoDb(opts *options.ClientOptions)
	InstrumentAws(opts *aws.Config)

	Shutdown()
}

const (
	traceName = "github.com/edgeadmin/edgeadmin"
)

type reporter struct {
	traceHandler *traceHandler
	tracer       trace.Tracer
	log          log.Logger
}

func NewReporter(conf *config.TraceConfig, version string, log log.Logger) Reporter {
	logger := log.WithPrefix("telemetry")

	var th *traceHandler
	var tracer trace.Tracer
	if conf.Otlp.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		th = newTraceHandler(ctx, buildResource(version), conf, logger)
		if th != nil {
			tracer = th.provider.Tracer(traceName)
		}
	}
	return &reporter{
		traceHandler: th,
		tracer:       tracer,
		log:          logger,
	}
}

func NewEmptyReporter() Reporter {
	return &reporter{log: log.NewNullLogger()}
}

func (r *reporter) ForceFlush(ctx context.Context) {
	if r.traceHandler != nil {
		err := r.traceHandler.provider.ForceFlush(ctx)
		if err != nil {
			r.log.Errorf("failed to force flush traces: %v", err)
		}
	}
}

func (r *reporter) StartSpan(ctx context.Context, name string, attributes ...KV) (context.Context, trace.Span) {
	if r.tracer == nil {
		return noop.NewTracerProvider().Tracer("noop").Start(ctx, "noop", trace.WithAttributes(toAttributeArray(attributes...)...))
	}
	return r.tracer.Start(ctx, name, trace.WithAttributes(toAttributeArray(attributes...)...), trace.WithSpanKind(trace.SpanKindInternal))
}

func (r *reporter) InstrumentHttpClient(handler http.RoundTripper, attributes ...KV) http.RoundTripper {
	if r.traceHandler == nil {
		return handler
	}
	opts := []otelhttp.Option{otelhttp.WithTracerProvider(r.traceHandler.provider)}
	if len(attributes) > 0 {
		arr := toAttributeArray(attributes...)
		opts = append(opts, otelhttp.WithSpanOptions(trace.WithAttributes(arr...)))
	}
	return otelhttp.NewTransport(handler, opts...)
}

func (r *reporter) InstrumentRedis(rdb redis.UniversalClient) {
	if r.traceHandler != nil {
		err := redisotel.InstrumentTracing(rdb, redisotel.WithTracerProvider(r.traceHandler.provider))
		if err != nil {
			r.log.Errorf("failed to instrument redis: %v", err)
		}
	}
}

func (r *reporter) InstrumentMongoDb(opts *options.ClientOptions) {
	if r.traceHandler != nil {
		opts.Monitor = otelmongo.NewMonitor(otelmongo.WithTracerProvider(r.traceHandler.provider))
	}
}

func (r *reporter) InstrumentAws(opts *aws.Config) {
	if r.traceHandler != nil {
		otelaws.AppendMiddlewares(&opts.APIOptions, otelaws.WithTracerProvider(r.traceHandler.provider))
	}
}

func (r *reporter) Shutdown() {
	if r.traceHandler != nil {
		r.traceHandler.Shutdown()
	}
}

func buildResource(version string) *resource.Resource {
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("edgeadmin"),
			semconv.ServiceVersion(version),
		))
	return res
}

func toAttributeArray(attributes ...KV) []attribute.KeyValue {
	var result []attribute.KeyValue
	for _, attr := range attributes {
		result = append(result, attribute.String(string(attr.Key), string(attr.Value)))
	}
	return result
}
