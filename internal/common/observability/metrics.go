// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Observability records pipeline-level instruments through an OpenTelemetry
// meter exported on the default Prometheus registry.
type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	analysisCounter  otelmetric.Int64Counter
	analysisDuration otelmetric.Float64Histogram
	analyzerDuration otelmetric.Float64Histogram
}

// New builds the meter. On exporter failure it returns a recorder that drops everything.
func New(serviceName string, log *zap.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter, pipeline metrics disabled", zap.Error(err))
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	analysisCounter, _ := meter.Int64Counter(
		"leads.analysis.processed",
		otelmetric.WithDescription("Number of lead analyses processed"),
	)

	analysisDuration, _ := meter.Float64Histogram(
		"leads.analysis.duration",
		otelmetric.WithDescription("End-to-end lead analysis duration"),
		otelmetric.WithUnit("ms"),
	)

	analyzerDuration, _ := meter.Float64Histogram(
		"leads.analyzer.duration",
		otelmetric.WithDescription("Duration of a single HTML or review analyzer"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		analysisCounter:  analysisCounter,
		analysisDuration: analysisDuration,
		analyzerDuration: analyzerDuration,
	}
}

// NewNoop returns a recorder with no instruments, for tests and disabled setups.
func NewNoop() *Observability {
	return &Observability{}
}

func (o *Observability) RecordAnalysis(ctx context.Context, duration time.Duration, status string) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	if o.analysisCounter != nil {
		o.analysisCounter.Add(ctx, 1, attrs)
	}
	if o.analysisDuration != nil {
		o.analysisDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordAnalyzer(ctx context.Context, analyzer string, duration time.Duration) {
	if o == nil || o.analyzerDuration == nil {
		return
	}
	o.analyzerDuration.Record(ctx, float64(duration.Microseconds())/1000, otelmetric.WithAttributes(
		attribute.String("analyzer", analyzer),
	))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
