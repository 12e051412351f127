package pricing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bartolsthoorn/opsplan/mathprog"
)

// Options configure a Planner.
type Options struct {
	// RequireGlobal asks the solver for a proven global optimum. When false,
	// a solver may return a local optimum, which is reported through
	// Result.Warning instead of an error.
	RequireGlobal bool

	// TimeLimit is passed to the solver when positive.
	TimeLimit time.Duration

	// SolveOptions are appended to the options derived from the fields above.
	SolveOptions []mathprog.SolveOption
}

// DefaultOptions returns the recommended options: a proven global optimum
// and no time limit.
func DefaultOptions() Options {
	return Options{RequireGlobal: true}
}

// NonconvexWarning reports that the pricing optimum is local: the solver was
// not asked for, or could not prove, a global optimum.
type NonconvexWarning struct {
	Model string
}

func (w *NonconvexWarning) Error() string {
	return fmt.Sprintf("pricing: optimum of model %q is not proven global", w.Model)
}

// Is reports whether target is mathprog.ErrNonconvex.
func (w *NonconvexWarning) Is(target error) bool {
	return target == mathprog.ErrNonconvex
}

// ProductResult is the solved price and demand of one product.
type ProductResult struct {
	Product        string
	Price          float64
	Demand         float64
	BaselinePrice  float64
	BaselineDemand float64
}

// Result is a solved pricing model.
type Result struct {
	// Products follows Data.Products.
	Products []ProductResult

	Revenue         float64
	BaselineRevenue float64

	Status mathprog.Status
	Global bool

	// Warning is set when the optimum is not proven global.
	Warning *NonconvexWarning

	// Violations lists constraints missed beyond mathprog.DefaultFeasibilityTol
	// at the returned point.
	Violations []mathprog.Violation
}

// Planner builds and solves pricing models.
type Planner struct {
	solver mathprog.Solver
	log    *zap.Logger
	opts   Options
}

// NewPlanner returns a planner solving with s. A nil logger disables logging.
func NewPlanner(s mathprog.Solver, log *zap.Logger, opts Options) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{solver: s, log: log.Named(ModelName), opts: opts}
}

// Plan builds the pricing model for d and p and solves it. Infeasible and
// unbounded models are returned as *mathprog.StatusError unchanged; the
// planner never relaxes constraints or retries.
func (pl *Planner) Plan(ctx context.Context, d *Data, p Params) (*Result, error) {
	f, err := Build(d, p)
	if err != nil {
		return nil, err
	}
	m := f.Model
	pl.log.Debug("built pricing model",
		zap.Int("products", len(d.Products)),
		zap.Int("components", len(d.Components)),
		zap.Int("substitutions", len(p.Substitutions)),
		zap.Int("variables", m.NumVars()),
		zap.Int("constraints", m.NumConstraints()))

	opts := []mathprog.SolveOption{mathprog.WithNonconvexGlobalSearch(pl.opts.RequireGlobal)}
	if pl.opts.TimeLimit > 0 {
		opts = append(opts, mathprog.WithTimeLimit(pl.opts.TimeLimit))
	}
	opts = append(opts, pl.opts.SolveOptions...)

	sol, err := pl.solver.Optimize(ctx, m, opts...)
	if err != nil {
		return nil, fmt.Errorf("pricing: solve: %w", err)
	}
	if err := mathprog.CheckStatus(m.Name, sol); err != nil {
		return nil, err
	}

	res := &Result{
		Products:        make([]ProductResult, 0, len(d.Products)),
		Revenue:         sol.Objective,
		BaselineRevenue: d.BaselineRevenue(),
		Status:          sol.Status,
		Global:          sol.Global,
		Violations:      m.Violations(sol.Values, mathprog.DefaultFeasibilityTol),
	}
	for _, prod := range d.Products {
		res.Products = append(res.Products, ProductResult{
			Product:        prod,
			Price:          sol.Value(f.Price[prod]),
			Demand:         sol.Value(f.Demand[prod]),
			BaselinePrice:  d.Price[prod],
			BaselineDemand: d.Consumption[prod],
		})
	}

	for _, v := range res.Violations {
		pl.log.Warn("constraint residual above tolerance",
			zap.String("constraint", v.Name),
			zap.Float64("residual", v.Residual))
	}

	if !sol.Global {
		w := &NonconvexWarning{Model: m.Name}
		if pl.opts.RequireGlobal {
			return nil, w
		}
		res.Warning = w
		pl.log.Warn("returning local optimum", zap.Error(w))
	}

	pl.log.Info("pricing model solved",
		zap.Stringer("status", sol.Status),
		zap.Float64("revenue", res.Revenue),
		zap.Float64("baselineRevenue", res.BaselineRevenue),
		zap.Bool("global", res.Global))
	return res, nil
}
