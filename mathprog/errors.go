package mathprog

import (
	"errors"
	"fmt"
)

var (
	// ErrInfeasible is matched by errors reporting a model without a feasible point.
	ErrInfeasible = errors.New("mathprog: model is infeasible")

	// ErrUnbounded is matched by errors reporting an unbounded objective.
	ErrUnbounded = errors.New("mathprog: model is unbounded")

	// ErrNonconvex is matched by errors reporting that the optimum of a
	// nonconvex model cannot be proven global.
	ErrNonconvex = errors.New("mathprog: nonconvex model, global optimum not proven")

	// ErrUnsupported is matched by errors reporting a model the backend cannot represent.
	ErrUnsupported = errors.New("mathprog: model not supported by solver")

	// ErrNoSolution is matched by errors reporting a terminated solve without a
	// usable primal point (time limit without incumbent, solver error).
	ErrNoSolution = errors.New("mathprog: no solution available")
)

// Error describes a failed mathprog operation.
type Error struct {
	Op  string // Operation that failed (e.g., "Optimize", "AddVariable")
	Msg string // Additional context
	Err error  // Underlying cause, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("mathprog: %s failed: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("mathprog: %s failed: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("mathprog: %s failed: %s", e.Op, e.Msg)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newErrorMsg(op, msg string) error {
	return &Error{Op: op, Msg: msg}
}

// NewError returns an *Error for op wrapping err with optional context.
func NewError(op, msg string, err error) error {
	return &Error{Op: op, Msg: msg, Err: err}
}

// StatusError reports a solve that terminated without a usable point.
// It always matches ErrNoSolution, and ErrInfeasible or ErrUnbounded according
// to Status.
type StatusError struct {
	Model  string
	Status Status
	// Constraint names the offending constraint when the caller or the
	// backend could identify one.
	Constraint string
}

func (e *StatusError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("mathprog: model %q terminated with status %s (constraint %q)", e.Model, e.Status, e.Constraint)
	}
	return fmt.Sprintf("mathprog: model %q terminated with status %s", e.Model, e.Status)
}

// Is reports whether the status matches target.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrInfeasible:
		return e.Status == StatusInfeasible || e.Status == StatusInfeasibleOrUnbounded
	case ErrUnbounded:
		return e.Status == StatusUnbounded || e.Status == StatusInfeasibleOrUnbounded
	case ErrNoSolution:
		return true
	}
	return false
}

// CheckStatus returns nil when sol carries a usable point and a *StatusError
// otherwise. The status is surfaced unmodified.
func CheckStatus(model string, sol *Solution) error {
	if sol == nil {
		return &StatusError{Model: model, Status: StatusFailed}
	}
	if sol.HasSolution() {
		return nil
	}
	return &StatusError{Model: model, Status: sol.Status, Constraint: sol.Constraint}
}
