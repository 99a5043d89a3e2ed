package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWith(reg)

	rec.ObserveModelCall("gemini-2.5-flash-lite", true, "", 120*time.Millisecond)
	rec.ObserveModelCall("gemini-2.5-flash-lite", false, "rate_limit", time.Second)
	rec.ObserveToolCall("search_documentation", true, 10*time.Millisecond)
	rec.IncCacheHit("llm")
	rec.IncCacheMiss("retriever")
	rec.IncRetry("tool")
	rec.ObserveRun("COMPLETED", 2, 1, time.Second)

	if got := testutil.ToFloat64(rec.modelCallsTotal.WithLabelValues("gemini-2.5-flash-lite", "success", "")); got != 1 {
		t.Errorf("model success counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.modelCallsTotal.WithLabelValues("gemini-2.5-flash-lite", "error", "rate_limit")); got != 1 {
		t.Errorf("model error counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.toolCallsTotal.WithLabelValues("search_documentation", "success")); got != 1 {
		t.Errorf("tool counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.cacheOpsTotal.WithLabelValues("llm", "hit")); got != 1 {
		t.Errorf("cache hit counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.cacheOpsTotal.WithLabelValues("retriever", "miss")); got != 1 {
		t.Errorf("cache miss counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.retriesTotal.WithLabelValues("tool")); got != 1 {
		t.Errorf("retry counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.runsTotal.WithLabelValues("COMPLETED")); got != 1 {
		t.Errorf("runs counter = %v, want 1", got)
	}
}

func TestNopRecorder(t *testing.T) {
	rec := Nop()
	rec.ObserveModelCall("m", true, "", time.Millisecond)
	rec.ObserveToolCall("t", false, time.Millisecond)
	rec.IncCacheHit("llm")
	rec.IncCacheMiss("llm")
	rec.IncRetry("model")
	rec.ObserveRun("COMPLETED", 1, 0, time.Millisecond)
}
