package mathprog

import (
	"fmt"
	"math"
)

// DefaultFeasibilityTol is the absolute tolerance used by Violations callers
// that have no solver-specific tolerance.
const DefaultFeasibilityTol = 1e-6

// Violation is a constraint, bound or integrality requirement not met by a point.
type Violation struct {
	// Name is the constraint name, or the variable name for bound and
	// integrality violations.
	Name string
	// Residual is the amount by which the requirement is missed.
	Residual float64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s (residual %.3g)", v.Name, v.Residual)
}

// Violations returns every requirement of m that values misses by more than tol.
// values must hold one entry per variable.
func (m *Model) Violations(values []float64, tol float64) []Violation {
	var out []Violation

	for i, v := range m.vars {
		x := 0.0
		if i < len(values) {
			x = values[i]
		}
		if r := v.Lower - x; r > tol {
			out = append(out, Violation{Name: v.Name, Residual: r})
		}
		if r := x - v.Upper; r > tol {
			out = append(out, Violation{Name: v.Name, Residual: r})
		}
		if v.IsInteger() {
			if r := math.Abs(x - math.Round(x)); r > tol {
				out = append(out, Violation{Name: v.Name, Residual: r})
			}
		}
	}

	for _, c := range m.constraints {
		lhs := c.Expr.Eval(values)
		var r float64
		switch c.Rel {
		case LessEqual:
			r = lhs - c.RHS
		case GreaterEqual:
			r = c.RHS - lhs
		default:
			r = math.Abs(lhs - c.RHS)
		}
		if r > tol {
			out = append(out, Violation{Name: c.Name, Residual: r})
		}
	}

	return out
}
