// Package mathprog provides a solver-neutral algebraic model for linear,
// mixed-integer and quadratic programs.
//
// Models are built with named variables and constraints and handed to a
// Solver, which returns a Solution:
//
//	m := mathprog.NewModel("example")
//	x := m.AddVariable("x", mathprog.Continuous)
//	y := m.AddVariable("y", mathprog.Continuous)
//
//	var row mathprog.Expr
//	row.Add(1, x).Add(1, y)
//	m.AddConstraint(row, mathprog.GreaterEqual, 1, "cover")
//	m.SetObjective(mathprog.Sum(mathprog.Term{Var: x, Coef: 1}, mathprog.Term{Var: y, Coef: 1}), mathprog.Minimize)
//
//	sol, err := solver.Optimize(ctx, m, mathprog.WithTimeLimit(60*time.Second))
package mathprog

import (
	"fmt"
	"math"
)

// Domain is the value domain of a variable.
type Domain int

const (
	// Continuous is a non-negative real variable, x >= 0.
	Continuous Domain = iota
	// Binary is a variable restricted to {0, 1}.
	Binary
)

// String returns a human-readable representation of the domain.
func (d Domain) String() string {
	switch d {
	case Continuous:
		return "Continuous"
	case Binary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// Relation is the comparison operator of a constraint.
type Relation int

const (
	// LessEqual is expr <= rhs.
	LessEqual Relation = iota
	// GreaterEqual is expr >= rhs.
	GreaterEqual
	// Equal is expr = rhs.
	Equal
)

// String returns the operator symbol.
func (r Relation) String() string {
	switch r {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Sense is the optimization direction.
type Sense int

const (
	// Minimize the objective.
	Minimize Sense = iota
	// Maximize the objective.
	Maximize
)

// String returns a human-readable representation of the sense.
func (s Sense) String() string {
	if s == Maximize {
		return "Maximize"
	}
	return "Minimize"
}

// Var is a handle to a model variable. It is the variable's column index.
type Var int

// Variable describes one model column.
type Variable struct {
	Name   string
	Domain Domain
	Lower  float64
	Upper  float64
}

// IsInteger reports whether the variable must take integral values.
func (v Variable) IsInteger() bool {
	return v.Domain == Binary
}

// Constraint is a named row Expr Rel RHS. The constant of Expr is folded into
// the right-hand side when the model is handed to a solver.
type Constraint struct {
	Name string
	Expr Expr
	Rel  Relation
	RHS  float64
}

// Bounds returns the row bounds lower <= linear part <= upper.
func (c Constraint) Bounds() (lower, upper float64) {
	rhs := c.RHS - c.Expr.Constant
	switch c.Rel {
	case LessEqual:
		return math.Inf(-1), rhs
	case GreaterEqual:
		return rhs, math.Inf(1)
	default:
		return rhs, rhs
	}
}

// Model is a mathematical program under construction.
//
// Model records the first construction error (duplicate or empty names,
// references to unknown variables) and reports it from Err. Solvers refuse
// models with a construction error.
type Model struct {
	// Name identifies the model in logs, metrics and errors.
	Name string

	vars        []Variable
	varIndex    map[string]Var
	constraints []Constraint
	rowIndex    map[string]int
	objective   Expr
	sense       Sense
	err         error
}

// NewModel returns an empty model.
func NewModel(name string) *Model {
	return &Model{
		Name:     name,
		varIndex: make(map[string]Var),
		rowIndex: make(map[string]int),
	}
}

// AddVariable adds a variable with the given name and domain and returns its
// handle. Continuous variables are bounded below by 0; binary variables lie in
// [0, 1].
func (m *Model) AddVariable(name string, d Domain) Var {
	v := Var(len(m.vars))
	if name == "" {
		m.setErr(newErrorMsg("AddVariable", "empty variable name"))
	} else if _, dup := m.varIndex[name]; dup {
		m.setErr(newErrorMsg("AddVariable", fmt.Sprintf("duplicate variable %q", name)))
	}

	upper := math.Inf(1)
	if d == Binary {
		upper = 1
	}
	m.vars = append(m.vars, Variable{Name: name, Domain: d, Lower: 0, Upper: upper})
	m.varIndex[name] = v
	return v
}

// AddConstraint adds the named row expr rel rhs.
func (m *Model) AddConstraint(expr Expr, rel Relation, rhs float64, name string) {
	if name == "" {
		m.setErr(newErrorMsg("AddConstraint", "empty constraint name"))
	} else if _, dup := m.rowIndex[name]; dup {
		m.setErr(newErrorMsg("AddConstraint", fmt.Sprintf("duplicate constraint %q", name)))
	}
	if hi := expr.maxVar(); int(hi) >= len(m.vars) {
		m.setErr(newErrorMsg("AddConstraint", fmt.Sprintf("constraint %q references unknown variable %d", name, hi)))
	}

	m.rowIndex[name] = len(m.constraints)
	m.constraints = append(m.constraints, Constraint{
		Name: name,
		Expr: expr.Normalized(),
		Rel:  rel,
		RHS:  rhs,
	})
}

// SetObjective replaces the objective function.
func (m *Model) SetObjective(expr Expr, sense Sense) {
	if hi := expr.maxVar(); int(hi) >= len(m.vars) {
		m.setErr(newErrorMsg("SetObjective", fmt.Sprintf("objective references unknown variable %d", hi)))
	}
	m.objective = expr.Normalized()
	m.sense = sense
}

// Err returns the first construction error, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) setErr(err error) {
	if m.err == nil {
		m.err = err
	}
}

// NumVars returns the number of variables in the model.
func (m *Model) NumVars() int {
	return len(m.vars)
}

// NumConstraints returns the number of constraints in the model.
func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

// Variable returns the description of v.
func (m *Model) Variable(v Var) Variable {
	return m.vars[v]
}

// Variables returns all variables in column order. The slice must not be modified.
func (m *Model) Variables() []Variable {
	return m.vars
}

// Constraints returns all constraints in row order. The slice must not be modified.
func (m *Model) Constraints() []Constraint {
	return m.constraints
}

// LookupVar returns the variable with the given name.
func (m *Model) LookupVar(name string) (Var, bool) {
	v, ok := m.varIndex[name]
	return v, ok
}

// LookupConstraint returns the constraint with the given name.
func (m *Model) LookupConstraint(name string) (Constraint, bool) {
	i, ok := m.rowIndex[name]
	if !ok {
		return Constraint{}, false
	}
	return m.constraints[i], true
}

// Objective returns the objective expression and its sense.
func (m *Model) Objective() (Expr, Sense) {
	return m.objective, m.sense
}

// IsLinear reports whether the objective and all constraints are linear.
func (m *Model) IsLinear() bool {
	if !m.objective.IsLinear() {
		return false
	}
	for _, c := range m.constraints {
		if !c.Expr.IsLinear() {
			return false
		}
	}
	return true
}

// HasIntegers reports whether any variable is integral.
func (m *Model) HasIntegers() bool {
	for _, v := range m.vars {
		if v.IsInteger() {
			return true
		}
	}
	return false
}
