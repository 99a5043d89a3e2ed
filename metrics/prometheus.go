package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	modelCallsTotal   *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
	toolCallsTotal    *prometheus.CounterVec
	toolCallDuration  *prometheus.HistogramVec
	cacheOpsTotal     *prometheus.CounterVec
	retriesTotal      *prometheus.CounterVec
	runsTotal         *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	runTurns          *prometheus.HistogramVec
	runToolCalls      *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a Prometheus-based metrics recorder registered
// on the default registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	return NewPrometheusRecorderWith(prometheus.DefaultRegisterer)
}

// NewPrometheusRecorderWith creates a Prometheus-based metrics recorder
// registered on the given registerer.
func NewPrometheusRecorderWith(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		modelCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docent_model_requests_total",
				Help: "Total number of model requests by model, status and error type",
			},
			[]string{"model", "status", "error_type"},
		),
		modelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docent_model_request_duration_seconds",
				Help:    "Duration of model requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		toolCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docent_tool_calls_total",
				Help: "Total number of tool dispatches by tool and status",
			},
			[]string{"tool", "status"},
		),
		toolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docent_tool_call_duration_seconds",
				Help:    "Duration of tool dispatches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		cacheOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docent_cache_requests_total",
				Help: "Total number of cache lookups by operation kind and result",
			},
			[]string{"operation", "result"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docent_retries_total",
				Help: "Total number of retry attempts by operation kind",
			},
			[]string{"operation"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docent_runs_total",
				Help: "Total number of finished runs by exit reason",
			},
			[]string{"exit_reason"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docent_run_duration_seconds",
				Help:    "Duration of runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"exit_reason"},
		),
		runTurns: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docent_run_turns",
				Help:    "Model invocation cycles per run",
				Buckets: prometheus.LinearBuckets(1, 1, 8),
			},
			[]string{"exit_reason"},
		),
		runToolCalls: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docent_run_tool_calls",
				Help:    "Tool dispatches per run",
				Buckets: prometheus.LinearBuckets(0, 1, 6),
			},
			[]string{"exit_reason"},
		),
	}
}

// ObserveModelCall records a completed model invocation.
func (p *PrometheusRecorder) ObserveModelCall(model string, success bool, errorType string, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	p.modelCallsTotal.WithLabelValues(model, status, errorType).Inc()
	p.modelCallDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// ObserveToolCall records a completed tool dispatch.
func (p *PrometheusRecorder) ObserveToolCall(tool string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	p.toolCallsTotal.WithLabelValues(tool, status).Inc()
	p.toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// IncCacheHit increments the cache hit counter for an operation kind.
func (p *PrometheusRecorder) IncCacheHit(operation string) {
	p.cacheOpsTotal.WithLabelValues(operation, "hit").Inc()
}

// IncCacheMiss increments the cache miss counter for an operation kind.
func (p *PrometheusRecorder) IncCacheMiss(operation string) {
	p.cacheOpsTotal.WithLabelValues(operation, "miss").Inc()
}

// IncRetry increments the retry counter for an operation kind.
func (p *PrometheusRecorder) IncRetry(operation string) {
	p.retriesTotal.WithLabelValues(operation).Inc()
}

// ObserveRun records a finished run.
func (p *PrometheusRecorder) ObserveRun(exitReason string, turns, toolCalls int, duration time.Duration) {
	p.runsTotal.WithLabelValues(exitReason).Inc()
	p.runDuration.WithLabelValues(exitReason).Observe(duration.Seconds())
	p.runTurns.WithLabelValues(exitReason).Observe(float64(turns))
	p.runToolCalls.WithLabelValues(exitReason).Observe(float64(toolCalls))
}
