package infra

import (
	"context"

	"crpt-gateway/crpt/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusStats exporta as tentativas de submissão como métricas Prometheus.
// Implementa domain.StatsStore para entrar no mesmo fluxo dos outros stores.
type PrometheusStats struct {
	Submissions *prometheus.CounterVec
	WaitSeconds prometheus.Histogram
}

var _ domain.StatsStore = (*PrometheusStats)(nil)

func NewPrometheusStats(reg prometheus.Registerer) *PrometheusStats {
	factory := promauto.With(reg)
	return &PrometheusStats{
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crpt_submissions_total",
				Help: "Document submission attempts by outcome",
			},
			[]string{"outcome"},
		),
		WaitSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crpt_limiter_wait_seconds",
				Help:    "Time spent waiting for a rate limiter slot",
				Buckets: []float64{.001, .01, .1, .5, 1, 5, 15, 30, 60, 120},
			},
		),
	}
}

func (p *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	p.Submissions.WithLabelValues(string(ev.Outcome)).Inc()
	// rejeições no modo sem espera nunca chegaram a esperar
	if ev.Outcome != domain.OutcomeRejected {
		p.WaitSeconds.Observe(ev.Waited.Seconds())
	}
	return nil
}

// RegisterLimiterGauges expõe o estado do limitador (vagas livres, chamadores
// bloqueados e o limite configurado) como gauges lidos sob demanda.
func RegisterLimiterGauges(reg prometheus.Registerer, l *WindowLimiter) {
	factory := promauto.With(reg)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "crpt_limiter_available_slots",
		Help: "Slots left in the current window",
	}, func() float64 { return float64(l.Available()) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "crpt_limiter_waiting_callers",
		Help: "Callers blocked waiting for a slot",
	}, func() float64 { return float64(l.Waiting()) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "crpt_limiter_limit",
		Help: "Configured admissions per window",
	}, func() float64 { return float64(l.Limit()) })
}
