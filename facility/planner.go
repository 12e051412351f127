package facility

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/bartolsthoorn/opsplan/mathprog"
)

// Options configure a Planner.
type Options struct {
	// BinaryThreshold overrides DefaultBinaryThreshold when positive.
	BinaryThreshold float64

	// TimeLimit is passed to the solver when positive.
	TimeLimit time.Duration

	// SolveOptions are appended to the options derived from the fields above.
	SolveOptions []mathprog.SolveOption
}

// Params size one facility-location run.
type Params struct {
	Clusters      int
	Seed          uint64
	Threshold     float64
	MaxFacilities int
}

// Result is a solved facility-location model.
type Result struct {
	// Selected lists the open facility IDs.
	Selected []int
	// Assignments holds one entry per cluster at a feasible optimum.
	Assignments []Assignment

	Clusters []Cluster
	Pairs    int

	Cost   float64
	Status mathprog.Status
	Global bool

	// Violations lists requirements missed beyond mathprog.DefaultFeasibilityTol
	// at the returned point.
	Violations []mathprog.Violation
}

// Planner builds and solves facility-location models.
type Planner struct {
	solver mathprog.Solver
	oracle Partitioner
	log    *zap.Logger
	opts   Options
}

// NewPlanner returns a planner that aggregates customers with oracle and
// solves with s. A nil logger disables logging.
func NewPlanner(s mathprog.Solver, oracle Partitioner, log *zap.Logger, opts Options) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	if !(opts.BinaryThreshold > 0) {
		opts.BinaryThreshold = DefaultBinaryThreshold
	}
	return &Planner{solver: s, oracle: oracle, log: log.Named(ModelName), opts: opts}
}

// PlanCustomers aggregates customers into p.Clusters clusters, pairs them
// with facilities under p.Threshold and solves the model.
func (pl *Planner) PlanCustomers(ctx context.Context, customers []orb.Point, facilities []Facility, p Params) (*Result, error) {
	start := time.Now()
	clusters, err := Aggregate(customers, p.Clusters, p.Seed, pl.oracle)
	if err != nil {
		return nil, err
	}
	pl.log.Debug("aggregated customers",
		zap.Int("customers", len(customers)),
		zap.Int("clusters", len(clusters)),
		zap.Duration("elapsed", time.Since(start)))

	pairs, err := GeneratePairings(facilities, clusters, p.Threshold)
	if err != nil {
		return nil, err
	}
	pl.log.Debug("generated pairings",
		zap.Int("pairs", pairs.Len()),
		zap.Int("dense", len(facilities)*len(clusters)),
		zap.Float64("threshold", p.Threshold))

	return pl.Plan(ctx, facilities, clusters, pairs, p.MaxFacilities)
}

// Plan builds the model for the given pairings and solves it. A solver
// infeasibility is returned as *mathprog.StatusError unchanged.
func (pl *Planner) Plan(ctx context.Context, facilities []Facility, clusters []Cluster, pairs *Pairings, maxFacilities int) (*Result, error) {
	f, err := Build(facilities, clusters, pairs, maxFacilities)
	if err != nil {
		return nil, err
	}
	m := f.Model
	pl.log.Debug("built facility model",
		zap.Int("variables", m.NumVars()),
		zap.Int("constraints", m.NumConstraints()),
		zap.Int("maxFacilities", maxFacilities))

	var opts []mathprog.SolveOption
	if pl.opts.TimeLimit > 0 {
		opts = append(opts, mathprog.WithTimeLimit(pl.opts.TimeLimit))
	}
	opts = append(opts, pl.opts.SolveOptions...)

	sol, err := pl.solver.Optimize(ctx, m, opts...)
	if err != nil {
		return nil, fmt.Errorf("facility: solve: %w", err)
	}
	if err := mathprog.CheckStatus(m.Name, sol); err != nil {
		return nil, err
	}

	res := &Result{
		Clusters:   clusters,
		Pairs:      pairs.Len(),
		Cost:       sol.Objective,
		Status:     sol.Status,
		Global:     sol.Global,
		Violations: m.Violations(sol.Values, mathprog.DefaultFeasibilityTol),
	}
	res.Selected, res.Assignments = f.Extract(sol, pl.opts.BinaryThreshold)

	for _, v := range res.Violations {
		pl.log.Warn("constraint residual above tolerance",
			zap.String("constraint", v.Name),
			zap.Float64("residual", v.Residual))
	}
	if len(res.Assignments) != len(clusters) {
		pl.log.Warn("assignment count differs from cluster count",
			zap.Int("assignments", len(res.Assignments)),
			zap.Int("clusters", len(clusters)))
	}

	pl.log.Info("facility model solved",
		zap.Stringer("status", sol.Status),
		zap.Float64("cost", res.Cost),
		zap.Ints("selected", res.Selected),
		zap.Int("assignments", len(res.Assignments)))
	return res, nil
}
