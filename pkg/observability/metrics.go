package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/skillflow/pkg/domain"
)

const namespace = "skillflow"

// Metrics holds the loop collectors.
type Metrics struct {
	registry *prometheus.Registry

	steps         *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	reviews       *prometheus.CounterVec
	loops         *prometheus.CounterVec
	loopIteration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a private registry,
// together with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "steps_total",
			Help:      "Generate and review steps executed, by outcome.",
		}, []string{"loop", "step", "status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "step_duration_seconds",
			Help:      "Duration of generate and review steps.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"loop", "step"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "reviews_total",
			Help:      "Review verdicts, by decision.",
		}, []string{"loop", "decision"}),
		loops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "runs_total",
			Help:      "Loop runs that halted normally, by approval.",
		}, []string{"loop", "approved"}),
		loopIteration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "iterations",
			Help:      "Generator invocations per halted loop run.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		}, []string{"loop"}),
	}
	m.registry.MustRegister(
		m.steps, m.stepDuration, m.reviews, m.loops, m.loopIteration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks records step and loop outcomes.
func (m *Metrics) Hooks() domain.LoopHooks {
	return domain.LoopHooks{
		OnStepEnd: func(_ context.Context, e *domain.StepEvent) {
			loop, step := string(e.Loop), e.Step.String()
			status := "ok"
			if e.Err != nil {
				status = "error"
			}
			m.steps.WithLabelValues(loop, step, status).Inc()
			m.stepDuration.WithLabelValues(loop, step).Observe(e.Duration.Seconds())
			if e.Step == domain.StepReview && e.Err == nil {
				decision := "rejected"
				if e.Approved {
					decision = "approved"
				}
				m.reviews.WithLabelValues(loop, decision).Inc()
			}
		},
		OnLoopEnd: func(_ context.Context, e *domain.LoopEvent) {
			approved := "false"
			if e.Approved {
				approved = "true"
			}
			m.loops.WithLabelValues(string(e.Loop), approved).Inc()
			m.loopIteration.WithLabelValues(string(e.Loop)).Observe(float64(e.Iterations))
		},
	}
}
