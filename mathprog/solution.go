package mathprog

// Status is the termination status of a solve.
type Status int

const (
	// StatusNotSolved indicates the model has not been solved.
	StatusNotSolved Status = iota
	// StatusOptimal indicates an optimal solution was found.
	StatusOptimal
	// StatusInfeasible indicates the model has no feasible point.
	StatusInfeasible
	// StatusUnbounded indicates the objective is unbounded.
	StatusUnbounded
	// StatusInfeasibleOrUnbounded indicates the solver could not tell which.
	StatusInfeasibleOrUnbounded
	// StatusTimeLimit indicates the time limit was reached.
	StatusTimeLimit
	// StatusIterationLimit indicates the iteration limit was reached.
	StatusIterationLimit
	// StatusFailed indicates the solver failed.
	StatusFailed
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	names := []string{
		"NotSolved", "Optimal", "Infeasible", "Unbounded",
		"InfeasibleOrUnbounded", "TimeLimit", "IterationLimit", "Failed",
	}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// HasSolution reports whether a solve with this status may carry primal values.
// Limit statuses only carry values when the solver found an incumbent; see
// Solution.HasSolution.
func (s Status) HasSolution() bool {
	return s == StatusOptimal ||
		s == StatusTimeLimit ||
		s == StatusIterationLimit
}

// Solution contains the results from solving a model.
type Solution struct {
	// Status indicates the outcome of the solve.
	Status Status

	// Values contains the primal value of every model variable in column order.
	Values []float64

	// Objective is the value of the model's objective at Values.
	Objective float64

	// Global reports whether the solver proved the optimum to be global.
	// Solvers leave it false when they returned a local optimum of a
	// nonconvex model.
	Global bool

	// Constraint names the constraint proven unsatisfiable when the solver
	// could identify it; empty otherwise.
	Constraint string
}

// IsOptimal returns true if the solution is optimal.
func (s *Solution) IsOptimal() bool {
	return s.Status == StatusOptimal
}

// IsInfeasible returns true if the model is infeasible.
func (s *Solution) IsInfeasible() bool {
	return s.Status == StatusInfeasible ||
		s.Status == StatusInfeasibleOrUnbounded
}

// IsUnbounded returns true if the model is unbounded.
func (s *Solution) IsUnbounded() bool {
	return s.Status == StatusUnbounded ||
		s.Status == StatusInfeasibleOrUnbounded
}

// HasSolution returns true if the solution contains valid values.
func (s *Solution) HasSolution() bool {
	return s.Status.HasSolution() && len(s.Values) > 0
}

// Value returns the solution value of v.
// Returns 0 if v is out of range.
func (s *Solution) Value(v Var) float64 {
	if int(v) < 0 || int(v) >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}
