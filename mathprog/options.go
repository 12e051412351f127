package mathprog

import (
	"context"
	"time"
)

// Solver optimizes models.
type Solver interface {
	// Optimize solves m and returns the solution. Infeasible or unbounded
	// models are reported through Solution.Status with a nil error; the
	// error is reserved for models the solver could not process.
	Optimize(ctx context.Context, m *Model, opts ...SolveOption) (*Solution, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, m *Model, opts ...SolveOption) (*Solution, error)

// Optimize calls f.
func (f SolverFunc) Optimize(ctx context.Context, m *Model, opts ...SolveOption) (*Solution, error) {
	return f(ctx, m, opts...)
}

// SolveOption configures the solver behavior.
type SolveOption func(*SolveConfig)

// SolveConfig holds the settings assembled from SolveOptions. Solver
// implementations read it with NewSolveConfig; unset fields keep the
// backend's defaults.
type SolveConfig struct {
	Output                *bool
	TimeLimit             *time.Duration
	MIPRelGap             *float64
	Threads               *int
	NonconvexGlobalSearch bool
}

// NewSolveConfig applies opts in order.
func NewSolveConfig(opts ...SolveOption) *SolveConfig {
	cfg := &SolveConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// EffectiveTimeLimit returns the configured time limit, tightened by the
// context deadline if that is sooner. ok is false when neither is set.
func (c *SolveConfig) EffectiveTimeLimit(ctx context.Context) (limit time.Duration, ok bool) {
	if c.TimeLimit != nil {
		limit, ok = *c.TimeLimit, true
	}
	if deadline, has := ctx.Deadline(); has {
		if remaining := time.Until(deadline); !ok || remaining < limit {
			limit, ok = remaining, true
		}
	}
	return limit, ok
}

// WithOutput enables or disables solver output.
func WithOutput(enabled bool) SolveOption {
	return func(c *SolveConfig) {
		c.Output = &enabled
	}
}

// WithTimeLimit sets the wall-clock limit passed to the solver.
func WithTimeLimit(d time.Duration) SolveOption {
	return func(c *SolveConfig) {
		c.TimeLimit = &d
	}
}

// WithMIPRelGap sets the relative MIP gap tolerance.
func WithMIPRelGap(gap float64) SolveOption {
	return func(c *SolveConfig) {
		c.MIPRelGap = &gap
	}
}

// WithThreads sets the number of threads to use.
func WithThreads(n int) SolveOption {
	return func(c *SolveConfig) {
		c.Threads = &n
	}
}

// WithNonconvexGlobalSearch requests a proven global optimum for nonconvex
// models. With it enabled a solver either proves global optimality or fails
// with ErrNonconvex; without it a solver may return a local optimum and mark
// the solution as not global.
func WithNonconvexGlobalSearch(enabled bool) SolveOption {
	return func(c *SolveConfig) {
		c.NonconvexGlobalSearch = enabled
	}
}
