package mathprog

import (
	"sort"
)

// Term is a linear term Coef * Var.
type Term struct {
	Var  Var
	Coef float64
}

// QuadTerm is a quadratic term Coef * I * J. I may equal J.
type QuadTerm struct {
	I    Var
	J    Var
	Coef float64
}

// Expr is an affine or quadratic expression over model variables:
//
//	Constant + Σ Linear[k].Coef*x[Linear[k].Var] + Σ Quad[k].Coef*x[Quad[k].I]*x[Quad[k].J]
//
// The zero value is the constant 0.
type Expr struct {
	Constant float64
	Linear   []Term
	Quad     []QuadTerm
}

// Add appends coef*v to the expression and returns it for chaining.
func (e *Expr) Add(coef float64, v Var) *Expr {
	e.Linear = append(e.Linear, Term{Var: v, Coef: coef})
	return e
}

// AddQuad appends coef*i*j to the expression.
func (e *Expr) AddQuad(coef float64, i, j Var) *Expr {
	e.Quad = append(e.Quad, QuadTerm{I: i, J: j, Coef: coef})
	return e
}

// AddConstant adds c to the constant part.
func (e *Expr) AddConstant(c float64) *Expr {
	e.Constant += c
	return e
}

// IsLinear reports whether the expression has no quadratic terms.
func (e Expr) IsLinear() bool {
	return len(e.Quad) == 0
}

// Eval evaluates the expression at the given column values.
// Variables outside values contribute 0.
func (e Expr) Eval(values []float64) float64 {
	at := func(v Var) float64 {
		if int(v) < 0 || int(v) >= len(values) {
			return 0
		}
		return values[v]
	}

	sum := e.Constant
	for _, t := range e.Linear {
		sum += t.Coef * at(t.Var)
	}
	for _, q := range e.Quad {
		sum += q.Coef * at(q.I) * at(q.J)
	}
	return sum
}

// Normalized returns a copy with duplicate terms merged, zero coefficients
// dropped and terms sorted by variable. Quadratic terms are stored with I <= J.
func (e Expr) Normalized() Expr {
	out := Expr{Constant: e.Constant}

	if len(e.Linear) > 0 {
		lin := make([]Term, len(e.Linear))
		copy(lin, e.Linear)
		sort.SliceStable(lin, func(a, b int) bool { return lin[a].Var < lin[b].Var })
		for _, t := range lin {
			if n := len(out.Linear); n > 0 && out.Linear[n-1].Var == t.Var {
				out.Linear[n-1].Coef += t.Coef
				continue
			}
			out.Linear = append(out.Linear, t)
		}
		out.Linear = dropZeroTerms(out.Linear)
	}

	if len(e.Quad) > 0 {
		quad := make([]QuadTerm, len(e.Quad))
		for k, q := range e.Quad {
			if q.I > q.J {
				q.I, q.J = q.J, q.I
			}
			quad[k] = q
		}
		sort.SliceStable(quad, func(a, b int) bool {
			if quad[a].I != quad[b].I {
				return quad[a].I < quad[b].I
			}
			return quad[a].J < quad[b].J
		})
		for _, q := range quad {
			if n := len(out.Quad); n > 0 && out.Quad[n-1].I == q.I && out.Quad[n-1].J == q.J {
				out.Quad[n-1].Coef += q.Coef
				continue
			}
			out.Quad = append(out.Quad, q)
		}
		kept := out.Quad[:0]
		for _, q := range out.Quad {
			if q.Coef != 0 {
				kept = append(kept, q)
			}
		}
		out.Quad = kept
	}

	return out
}

// Dense returns the linear coefficients as a dense vector of length n.
func (e Expr) Dense(n int) []float64 {
	row := make([]float64, n)
	for _, t := range e.Linear {
		if int(t.Var) < n {
			row[t.Var] += t.Coef
		}
	}
	return row
}

func dropZeroTerms(terms []Term) []Term {
	kept := terms[:0]
	for _, t := range terms {
		if t.Coef != 0 {
			kept = append(kept, t)
		}
	}
	return kept
}

// Sum returns the expression Σ coef*v over the given terms.
func Sum(terms ...Term) Expr {
	e := Expr{Linear: make([]Term, len(terms))}
	copy(e.Linear, terms)
	return e
}

// maxVar returns the largest variable index referenced by e, or -1.
func (e Expr) maxVar() Var {
	hi := Var(-1)
	for _, t := range e.Linear {
		hi = max(hi, t.Var)
	}
	for _, q := range e.Quad {
		hi = max(hi, q.I, q.J)
	}
	return hi
}
