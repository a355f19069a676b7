package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	paymentEvents      metric.Int64Counter
	generationAttempts metric.Int64Counter
	generationRepairs  metric.Int64Counter
	documentsRendered  metric.Int64Counter
	pipelineFailures   metric.Int64Counter
	storeSweeps        metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "papermint"
	}
	meter := provider.Meter(name)

	paymentEvents, err := meter.Int64Counter("papermint_payment_events_total")
	if err != nil {
		return nil, err
	}
	generationAttempts, err := meter.Int64Counter("papermint_generation_attempts_total")
	if err != nil {
		return nil, err
	}
	generationRepairs, err := meter.Int64Counter("papermint_generation_repairs_total")
	if err != nil {
		return nil, err
	}
	documentsRendered, err := meter.Int64Counter("papermint_documents_rendered_total")
	if err != nil {
		return nil, err
	}
	pipelineFailures, err := meter.Int64Counter("papermint_pipeline_failures_total")
	if err != nil {
		return nil, err
	}
	storeSweeps, err := meter.Int64Counter("papermint_store_sweep_evictions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		paymentEvents:      paymentEvents,
		generationAttempts: generationAttempts,
		generationRepairs:  generationRepairs,
		documentsRendered:  documentsRendered,
		pipelineFailures:   pipelineFailures,
		storeSweeps:        storeSweeps,
	}, nil
}

// RecordPaymentEvent increments payment event counts.
func (m *Metrics) RecordPaymentEvent(ctx context.Context, provider, serviceSlug string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("service", strings.TrimSpace(serviceSlug)),
	)
	m.paymentEvents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordGenerationAttempt increments generation attempt counts per outcome.
func (m *Metrics) RecordGenerationAttempt(ctx context.Context, serviceSlug, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("service", strings.TrimSpace(serviceSlug)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.generationAttempts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordGenerationRepair increments counts of responses fixed by the repair battery.
func (m *Metrics) RecordGenerationRepair(ctx context.Context, serviceSlug string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("service", strings.TrimSpace(serviceSlug)))
	m.generationRepairs.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDocumentRendered increments rendered document counts.
func (m *Metrics) RecordDocumentRendered(ctx context.Context, serviceSlug string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("service", strings.TrimSpace(serviceSlug)))
	m.documentsRendered.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPipelineFailure increments terminal pipeline failure counts per stage.
func (m *Metrics) RecordPipelineFailure(ctx context.Context, serviceSlug, stage string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("service", strings.TrimSpace(serviceSlug)),
		attribute.String("stage", strings.TrimSpace(stage)),
	)
	m.pipelineFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSweepEvictions adds evicted entry counts for a store sweep pass.
func (m *Metrics) RecordSweepEvictions(ctx context.Context, store string, evicted int) {
	if m == nil || evicted <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("store", strings.TrimSpace(store)))
	m.storeSweeps.Add(ctx, int64(evicted), metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"service":     {},
	"provider":    {},
	"outcome":     {},
	"stage":       {},
	"store":       {},
	"status_code": {},
	"endpoint":    {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
