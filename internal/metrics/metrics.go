// Package metrics instruments solves with Prometheus metrics. opsplan runs
// as a batch job, so metrics are pushed to a Pushgateway at the end of a run
// instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/bartolsthoorn/opsplan/mathprog"
)

const namespace = "opsplan"

// Metrics holds the solve metrics and the registry they live in.
type Metrics struct {
	Registry *prometheus.Registry

	solves    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	modelSize *prometheus.GaugeVec
}

// New registers the solve metrics in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Solves by model and termination status.",
		}, []string{"model", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock duration of solves.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"model"}),
		modelSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_size",
			Help:      "Number of variables and constraints of the last solved model.",
		}, []string{"model", "kind"}),
	}
	m.Registry.MustRegister(m.solves, m.duration, m.modelSize)
	return m
}

// InstrumentSolver wraps s so that every solve is counted and timed. Solves
// that fail with an error are counted with status "error".
func (m *Metrics) InstrumentSolver(s mathprog.Solver) mathprog.Solver {
	return mathprog.SolverFunc(func(ctx context.Context, model *mathprog.Model, opts ...mathprog.SolveOption) (*mathprog.Solution, error) {
		m.modelSize.WithLabelValues(model.Name, "variables").Set(float64(model.NumVars()))
		m.modelSize.WithLabelValues(model.Name, "constraints").Set(float64(model.NumConstraints()))

		start := time.Now()
		sol, err := s.Optimize(ctx, model, opts...)
		m.duration.WithLabelValues(model.Name).Observe(time.Since(start).Seconds())

		status := "error"
		if err == nil && sol != nil {
			status = sol.Status.String()
		}
		m.solves.WithLabelValues(model.Name, status).Inc()
		return sol, err
	})
}

// Push sends the registry to the Pushgateway at url under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("metrics: push to %s: %w", url, err)
	}
	return nil
}
