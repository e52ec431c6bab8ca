package infra

import (
	"context"
	"strings"
	"testing"
	"time"

	"crpt-gateway/crpt/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusStats_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusStats(reg)
	ctx := context.Background()

	_ = p.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeSubmitted, Waited: 2 * time.Second})
	_ = p.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeSubmitted})
	_ = p.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeFailed})
	_ = p.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeRejected})

	if got := testutil.ToFloat64(p.Submissions.WithLabelValues("submitted")); got != 2 {
		t.Fatalf("expected 2 submitted, got %v", got)
	}
	if got := testutil.ToFloat64(p.Submissions.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected 1 failed, got %v", got)
	}
	if got := testutil.CollectAndCount(p.WaitSeconds); got != 1 {
		t.Fatalf("expected a single histogram series, got %d", got)
	}

	expected := `
# HELP crpt_limiter_wait_seconds Time spent waiting for a rate limiter slot
# TYPE crpt_limiter_wait_seconds histogram
crpt_limiter_wait_seconds_bucket{le="0.001"} 2
crpt_limiter_wait_seconds_bucket{le="0.01"} 2
crpt_limiter_wait_seconds_bucket{le="0.1"} 2
crpt_limiter_wait_seconds_bucket{le="0.5"} 2
crpt_limiter_wait_seconds_bucket{le="1"} 2
crpt_limiter_wait_seconds_bucket{le="5"} 3
crpt_limiter_wait_seconds_bucket{le="15"} 3
crpt_limiter_wait_seconds_bucket{le="30"} 3
crpt_limiter_wait_seconds_bucket{le="60"} 3
crpt_limiter_wait_seconds_bucket{le="120"} 3
crpt_limiter_wait_seconds_bucket{le="+Inf"} 3
crpt_limiter_wait_seconds_sum 2
crpt_limiter_wait_seconds_count 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "crpt_limiter_wait_seconds"); err != nil {
		t.Fatalf("unexpected histogram: %v", err)
	}
}

func TestRegisterLimiterGauges_ReflectLimiterState(t *testing.T) {
	ticks := make(chan time.Time)
	l, err := NewWindowLimiter(time.Minute, 3, WithTicks(ticks))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Stop()

	reg := prometheus.NewRegistry()
	RegisterLimiterGauges(reg, l)
	l.TryAcquire()

	expected := `
# HELP crpt_limiter_available_slots Slots left in the current window
# TYPE crpt_limiter_available_slots gauge
crpt_limiter_available_slots 2
# HELP crpt_limiter_limit Configured admissions per window
# TYPE crpt_limiter_limit gauge
crpt_limiter_limit 3
# HELP crpt_limiter_waiting_callers Callers blocked waiting for a slot
# TYPE crpt_limiter_waiting_callers gauge
crpt_limiter_waiting_callers 0
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected gauges: %v", err)
	}
}
