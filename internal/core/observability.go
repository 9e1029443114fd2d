package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// MetricsRecorder receives the outcome of every service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan ends a traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

type noopSpan struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

func (noopSpan) End(error) {}

// PrometheusRecorder exports operation counts and latencies.
type PrometheusRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
}

// NewPrometheusRecorder registers the hopon operation metrics with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	rec := &PrometheusRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hopon",
			Name:      "operation_duration_seconds",
			Help:      "Duration of query service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hopon",
			Name:      "operations_total",
			Help:      "Query service operations by outcome.",
		}, []string{"operation", "status"}),
	}
	for _, c := range []prometheus.Collector{rec.durations, rec.results} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

// LogTracer writes one debug entry per finished span. The CLI --trace flag
// points it at a JSON logger on stderr.
type LogTracer struct {
	logger *zap.Logger
}

// NewLogTracer returns a tracer logging spans to logger.
func NewLogTracer(logger *zap.Logger) *LogTracer {
	return &LogTracer{logger: logger.Named("trace")}
}

// Start implements Tracer.
func (t *LogTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &logSpan{logger: t.logger, operation: operation, started: time.Now()}
}

type logSpan struct {
	logger    *zap.Logger
	operation string
	started   time.Time
}

func (s *logSpan) End(err error) {
	fields := []zap.Field{
		zap.String("operation", s.operation),
		zap.Duration("duration", time.Since(s.started)),
		zap.Bool("success", err == nil),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Debug("span", fields...)
}
