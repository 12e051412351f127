package mathprog

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// rankTol is the relative singular-value cutoff used to decide the rank of
// the equality system.
const rankTol = 1e-10

// ReducedRow is a row lower <= Coeffs·z <= upper of a Reduction.
type ReducedRow struct {
	Name   string
	Coeffs []float64
	Lower  float64
	Upper  float64
}

// Reduction is a model with linear constraints re-expressed over the null
// space of its equality rows. Every point x = Origin + Basis·z satisfies the
// equalities; the remaining rows and the variable bounds become Rows over z,
// and the objective becomes
//
//	Offset + Linear·z + 0.5 * z' * Hessian * z
//
// in the model's original sense.
type Reduction struct {
	Origin  []float64
	Basis   *mat.Dense // n×k; nil when k == 0
	Rows    []ReducedRow
	Linear  []float64
	Hessian *mat.SymDense // k×k; nil when k == 0
	Offset  float64
	Sense   Sense
}

// Dim returns the number of reduced variables k.
func (r *Reduction) Dim() int {
	return len(r.Linear)
}

// Lift maps a reduced point z back to model variables.
func (r *Reduction) Lift(z []float64) []float64 {
	x := make([]float64, len(r.Origin))
	copy(x, r.Origin)
	if r.Basis == nil {
		return x
	}
	var nz mat.VecDense
	nz.MulVec(r.Basis, mat.NewVecDense(len(z), z))
	floats.Add(x, nz.RawVector().Data)
	return x
}

// Convex reports whether the reduced objective is convex in the direction of
// optimization: positive semidefinite when minimizing, negative semidefinite
// when maximizing, up to tol relative to the largest eigenvalue magnitude.
func (r *Reduction) Convex(tol float64) (bool, error) {
	if r.Hessian == nil {
		return true, nil
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(r.Hessian, false); !ok {
		return false, newErrorMsg("Convex", "eigen-decomposition did not converge")
	}
	vals := eig.Values(nil)
	if len(vals) == 0 {
		return true, nil
	}
	lo, hi := vals[0], vals[len(vals)-1]
	scale := math.Max(1, math.Max(math.Abs(lo), math.Abs(hi)))
	if r.Sense == Maximize {
		return hi <= tol*scale, nil
	}
	return lo >= -tol*scale, nil
}

// EliminateEqualities builds the null-space Reduction of m. All constraints
// must be linear. An inconsistent equality system or a reduced row that
// cannot hold is reported as a *StatusError matching ErrInfeasible.
func EliminateEqualities(m *Model) (*Reduction, error) {
	if err := m.Err(); err != nil {
		return nil, err
	}
	n := m.NumVars()

	var eqs, others []Constraint
	for _, c := range m.constraints {
		if !c.Expr.IsLinear() {
			return nil, &Error{Op: "EliminateEqualities", Msg: fmt.Sprintf("quadratic constraint %q", c.Name), Err: ErrUnsupported}
		}
		if c.Rel == Equal {
			eqs = append(eqs, c)
		} else {
			others = append(others, c)
		}
	}

	origin, basis, err := nullSpace(m.Name, eqs, n)
	if err != nil {
		return nil, err
	}
	k := 0
	if basis != nil {
		_, k = basis.Dims()
	}

	red := &Reduction{
		Origin: origin,
		Basis:  basis,
		Linear: make([]float64, k),
		Sense:  m.sense,
	}

	project := func(a []float64) []float64 {
		if basis == nil {
			return nil
		}
		var p mat.VecDense
		p.MulVec(basis.T(), mat.NewVecDense(n, a))
		return p.RawVector().Data
	}

	addRow := func(name string, a []float64, lower, upper float64) error {
		shift := floats.Dot(a, origin)
		coeffs := project(a)
		lower, upper = lower-shift, upper-shift
		if coeffs == nil || floats.Norm(coeffs, math.Inf(1)) <= rankTol {
			tol := DefaultFeasibilityTol * (1 + math.Abs(shift))
			if lower > tol || upper < -tol {
				return &StatusError{Model: m.Name, Status: StatusInfeasible, Constraint: name}
			}
			return nil
		}
		red.Rows = append(red.Rows, ReducedRow{Name: name, Coeffs: coeffs, Lower: lower, Upper: upper})
		return nil
	}

	for _, c := range others {
		lower, upper := c.Bounds()
		if err := addRow(c.Name, c.Expr.Dense(n), lower, upper); err != nil {
			return nil, err
		}
	}
	for j, v := range m.vars {
		if math.IsInf(v.Lower, -1) && math.IsInf(v.Upper, 1) {
			continue
		}
		unit := make([]float64, n)
		unit[j] = 1
		if err := addRow(v.Name, unit, v.Lower, v.Upper); err != nil {
			return nil, err
		}
	}

	// Objective: c·x + 0.5 x'Hx with H symmetric.
	c := m.objective.Dense(n)
	h := mat.NewSymDense(n, nil)
	for _, q := range m.objective.Quad {
		i, j := int(q.I), int(q.J)
		if i == j {
			h.SetSym(i, i, h.At(i, i)+2*q.Coef)
		} else {
			h.SetSym(i, j, h.At(i, j)+q.Coef)
		}
	}

	x0 := mat.NewVecDense(n, origin)
	var hx0 mat.VecDense
	hx0.MulVec(h, x0)
	red.Offset = m.objective.Constant + floats.Dot(c, origin) + 0.5*mat.Dot(x0, &hx0)

	if k > 0 {
		grad := make([]float64, n)
		floats.AddTo(grad, c, hx0.RawVector().Data)
		red.Linear = project(grad)

		var hn, nhn mat.Dense
		hn.Mul(h, basis)
		nhn.Mul(basis.T(), &hn)
		red.Hessian = mat.NewSymDense(k, nil)
		for i := 0; i < k; i++ {
			for j := i; j < k; j++ {
				red.Hessian.SetSym(i, j, 0.5*(nhn.At(i, j)+nhn.At(j, i)))
			}
		}
	}

	return red, nil
}

// nullSpace returns a particular solution of the equality rows and an
// orthonormal basis of their null space (nil when the rows fix every variable).
func nullSpace(model string, eqs []Constraint, n int) ([]float64, *mat.Dense, error) {
	origin := make([]float64, n)
	if len(eqs) == 0 {
		basis := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			basis.Set(i, i, 1)
		}
		return origin, basis, nil
	}

	a := mat.NewDense(len(eqs), n, nil)
	b := make([]float64, len(eqs))
	for i, c := range eqs {
		a.SetRow(i, c.Expr.Dense(n))
		b[i], _ = c.Bounds()
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, nil, newErrorMsg("EliminateEqualities", "SVD did not converge")
	}
	rank := svd.Rank(rankTol)

	var x mat.VecDense
	svd.SolveVecTo(&x, mat.NewVecDense(len(b), b), rank)
	copy(origin, x.RawVector().Data)

	var residual mat.VecDense
	residual.MulVec(a, &x)
	for i := range b {
		if math.Abs(residual.AtVec(i)-b[i]) > DefaultFeasibilityTol*(1+math.Abs(b[i])) {
			return nil, nil, &StatusError{Model: model, Status: StatusInfeasible, Constraint: eqs[i].Name}
		}
	}

	if rank == n {
		return origin, nil, nil
	}
	var v mat.Dense
	svd.VTo(&v)
	return origin, mat.DenseCopyOf(v.Slice(0, n, rank, n)), nil
}
