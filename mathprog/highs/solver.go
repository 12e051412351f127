// Package highs implements mathprog.Solver on top of the HiGHS optimizer.
//
// Linear and mixed-integer linear models are passed to HiGHS as they are.
// Models with a quadratic objective are first re-expressed over the null
// space of their equality rows (see mathprog.EliminateEqualities). When the
// reduced objective is convex in the direction of optimization, HiGHS' QP
// solver returns its global optimum; otherwise the model is rejected with
// mathprog.ErrNonconvex, because HiGHS has no global search for nonconvex
// quadratic programs.
//
// HiGHS must be installed where cgo can find it (see github.com/lanl/highs).
package highs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	highslib "github.com/lanl/highs"
	"go.uber.org/zap"

	"github.com/bartolsthoorn/opsplan/mathprog"
)

// DefaultConvexityTol is the relative eigenvalue tolerance used to accept a
// reduced Hessian as semidefinite.
const DefaultConvexityTol = 1e-9

// Solver solves mathprog models with HiGHS. The zero value is not usable;
// construct with New.
type Solver struct {
	log          *zap.Logger
	convexityTol float64
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) {
		if l == nil {
			l = zap.NewNop()
		}
		s.log = l
	}
}

// WithConvexityTol overrides DefaultConvexityTol.
func WithConvexityTol(tol float64) Option {
	return func(s *Solver) {
		s.convexityTol = tol
	}
}

// New returns a HiGHS-backed solver.
func New(opts ...Option) *Solver {
	s := &Solver{
		log:          zap.NewNop(),
		convexityTol: DefaultConvexityTol,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ mathprog.Solver = (*Solver)(nil)

// Optimize implements mathprog.Solver.
func (s *Solver) Optimize(ctx context.Context, m *mathprog.Model, opts ...mathprog.SolveOption) (*mathprog.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Err(); err != nil {
		return nil, mathprog.NewError("Optimize", m.Name, err)
	}
	cfg := mathprog.NewSolveConfig(opts...)

	log := s.log.With(zap.String("model", m.Name))
	log.Debug("solving model",
		zap.Int("variables", m.NumVars()),
		zap.Int("constraints", m.NumConstraints()),
		zap.Bool("linear", m.IsLinear()),
		zap.Bool("integer", m.HasIntegers()))

	if m.NumVars() == 0 {
		return &mathprog.Solution{Status: mathprog.StatusOptimal, Global: true}, nil
	}

	start := time.Now()
	var (
		sol *mathprog.Solution
		err error
	)
	if m.IsLinear() {
		sol, err = s.solveLinear(ctx, m, cfg)
	} else {
		sol, err = s.solveQuadratic(ctx, m, cfg, log)
	}
	if err != nil {
		log.Warn("solve failed", zap.Error(err))
		return nil, err
	}

	log.Info("solve finished",
		zap.Stringer("status", sol.Status),
		zap.Float64("objective", sol.Objective),
		zap.Bool("global", sol.Global),
		zap.Duration("elapsed", time.Since(start)))
	return sol, nil
}

func (s *Solver) solveLinear(ctx context.Context, m *mathprog.Model, cfg *mathprog.SolveConfig) (*mathprog.Solution, error) {
	n := m.NumVars()
	obj, sense := m.Objective()

	lp := highslib.Model{
		Maximize: sense == mathprog.Maximize,
		Offset:   obj.Constant,
		ColCosts: obj.Dense(n),
		ColLower: make([]float64, n),
		ColUpper: make([]float64, n),
	}
	if m.HasIntegers() {
		lp.VarTypes = make([]highslib.VariableType, n)
	}
	for j, v := range m.Variables() {
		lp.ColLower[j] = v.Lower
		lp.ColUpper[j] = v.Upper
		if lp.VarTypes != nil {
			lp.VarTypes[j] = highslib.ContinuousType
			if v.IsInteger() {
				lp.VarTypes[j] = highslib.IntegerType
			}
		}
	}
	for i, c := range m.Constraints() {
		lower, upper := c.Bounds()
		lp.RowLower = append(lp.RowLower, lower)
		lp.RowUpper = append(lp.RowUpper, upper)
		for _, t := range c.Expr.Linear {
			lp.ConstMatrix = append(lp.ConstMatrix, highslib.Nonzero{Row: i, Col: int(t.Var), Val: t.Coef})
		}
	}

	res, err := run(ctx, &lp, cfg)
	if err != nil {
		return nil, err
	}

	sol := &mathprog.Solution{Status: modelStatus(res.Status)}
	if sol.Status.HasSolution() && len(res.ColumnPrimal) >= n {
		sol.Values = append([]float64(nil), res.ColumnPrimal[:n]...)
	}
	finish(m, sol)
	return sol, nil
}

func (s *Solver) solveQuadratic(ctx context.Context, m *mathprog.Model, cfg *mathprog.SolveConfig, log *zap.Logger) (*mathprog.Solution, error) {
	if m.HasIntegers() {
		return nil, &mathprog.Error{Op: "Optimize", Msg: "mixed-integer quadratic model", Err: mathprog.ErrUnsupported}
	}

	red, err := mathprog.EliminateEqualities(m)
	if err != nil {
		var serr *mathprog.StatusError
		if errors.As(err, &serr) {
			return &mathprog.Solution{Status: serr.Status, Constraint: serr.Constraint}, nil
		}
		return nil, err
	}

	convex, err := red.Convex(s.convexityTol)
	if err != nil {
		return nil, err
	}
	if !convex {
		log.Warn("reduced objective is not convex",
			zap.Bool("globalSearchRequested", cfg.NonconvexGlobalSearch))
		return nil, &mathprog.Error{Op: "Optimize", Msg: fmt.Sprintf("model %q has an indefinite reduced Hessian", m.Name), Err: mathprog.ErrNonconvex}
	}
	log.Debug("eliminated equality rows",
		zap.Int("reducedVariables", red.Dim()),
		zap.Int("reducedRows", len(red.Rows)))

	sol := &mathprog.Solution{Status: mathprog.StatusOptimal}
	if red.Dim() == 0 {
		sol.Values = red.Origin
		finish(m, sol)
		return sol, nil
	}

	// HiGHS minimizes 0.5 z'Qz + c·z; a concave maximization is negated.
	sign := 1.0
	if red.Sense == mathprog.Maximize {
		sign = -1
	}
	k := red.Dim()
	qp := highslib.Model{
		Offset:   sign * red.Offset,
		ColCosts: make([]float64, k),
		ColLower: make([]float64, k),
		ColUpper: make([]float64, k),
	}
	for j := 0; j < k; j++ {
		qp.ColCosts[j] = sign * red.Linear[j]
		qp.ColLower[j] = math.Inf(-1)
		qp.ColUpper[j] = math.Inf(1)
		for i := 0; i <= j; i++ {
			if v := red.Hessian.At(i, j); v != 0 {
				qp.HessianMatrix = append(qp.HessianMatrix, highslib.Nonzero{Row: i, Col: j, Val: sign * v})
			}
		}
	}
	for i, row := range red.Rows {
		qp.RowLower = append(qp.RowLower, row.Lower)
		qp.RowUpper = append(qp.RowUpper, row.Upper)
		for j, v := range row.Coeffs {
			if v != 0 {
				qp.ConstMatrix = append(qp.ConstMatrix, highslib.Nonzero{Row: i, Col: j, Val: v})
			}
		}
	}

	res, err := run(ctx, &qp, cfg)
	if err != nil {
		return nil, err
	}
	sol.Status = modelStatus(res.Status)
	if sol.Status.HasSolution() && len(res.ColumnPrimal) >= k {
		sol.Values = red.Lift(res.ColumnPrimal[:k])
	}
	finish(m, sol)
	return sol, nil
}

// run applies cfg to a raw HiGHS model and solves it.
func run(ctx context.Context, model *highslib.Model, cfg *mathprog.SolveConfig) (highslib.Solution, error) {
	raw, err := model.ToRawModel()
	if err != nil {
		return highslib.Solution{}, mathprog.NewError("Optimize", "building HiGHS model", err)
	}

	output := false
	if cfg.Output != nil {
		output = *cfg.Output
	}
	if err := raw.SetBoolOption("output_flag", output); err != nil {
		return highslib.Solution{}, mathprog.NewError("Optimize", "output_flag", err)
	}
	if limit, ok := cfg.EffectiveTimeLimit(ctx); ok {
		if limit <= 0 {
			return highslib.Solution{}, context.DeadlineExceeded
		}
		if err := raw.SetFloatOption("time_limit", limit.Seconds()); err != nil {
			return highslib.Solution{}, mathprog.NewError("Optimize", "time_limit", err)
		}
	}
	if cfg.MIPRelGap != nil {
		if err := raw.SetFloatOption("mip_rel_gap", *cfg.MIPRelGap); err != nil {
			return highslib.Solution{}, mathprog.NewError("Optimize", "mip_rel_gap", err)
		}
	}
	if cfg.Threads != nil {
		if err := raw.SetIntOption("threads", *cfg.Threads); err != nil {
			return highslib.Solution{}, mathprog.NewError("Optimize", "threads", err)
		}
	}

	res, err := raw.Solve()
	if err != nil {
		return highslib.Solution{}, mathprog.NewError("Optimize", "HiGHS run", err)
	}
	return res, nil
}

// finish evaluates the objective on the original model and drops limit-status
// points that are not feasible (no incumbent).
func finish(m *mathprog.Model, sol *mathprog.Solution) {
	if len(sol.Values) == 0 {
		return
	}
	if sol.Status != mathprog.StatusOptimal && len(m.Violations(sol.Values, mathprog.DefaultFeasibilityTol)) > 0 {
		sol.Values = nil
		return
	}
	obj, _ := m.Objective()
	sol.Objective = obj.Eval(sol.Values)
	sol.Global = sol.Status == mathprog.StatusOptimal
}

func modelStatus(s highslib.ModelStatus) mathprog.Status {
	switch s {
	case highslib.Optimal:
		return mathprog.StatusOptimal
	case highslib.Infeasible:
		return mathprog.StatusInfeasible
	case highslib.UnboundedOrInfeasible:
		return mathprog.StatusInfeasibleOrUnbounded
	case highslib.Unbounded:
		return mathprog.StatusUnbounded
	case highslib.TimeLimit:
		return mathprog.StatusTimeLimit
	case highslib.IterationLimit:
		return mathprog.StatusIterationLimit
	default:
		return mathprog.StatusFailed
	}
}
