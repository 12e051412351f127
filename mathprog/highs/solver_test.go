package highs

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	highslib "github.com/lanl/highs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolsthoorn/opsplan/mathprog"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func term(v mathprog.Var, coef float64) mathprog.Term {
	return mathprog.Term{Var: v, Coef: coef}
}

// lpModel builds
//
//	Opt    f  =  x_0 +  x_1 + 3
//	s.t.                x_1 <= 7
//	       5 <=  x_0 + 2x_1 <= 15
//	       6 <= 3x_0 + 2x_1
//	0 <= x_0 <= 4; 1 <= x_1
func lpModel(sense mathprog.Sense) *mathprog.Model {
	m := mathprog.NewModel("lp")
	x0 := m.AddVariable("x0", mathprog.Continuous)
	x1 := m.AddVariable("x1", mathprog.Continuous)

	m.AddConstraint(mathprog.Sum(term(x1, 1)), mathprog.LessEqual, 7, "r0")
	m.AddConstraint(mathprog.Sum(term(x0, 1), term(x1, 2)), mathprog.GreaterEqual, 5, "r1_lo")
	m.AddConstraint(mathprog.Sum(term(x0, 1), term(x1, 2)), mathprog.LessEqual, 15, "r1_hi")
	m.AddConstraint(mathprog.Sum(term(x0, 3), term(x1, 2)), mathprog.GreaterEqual, 6, "r2")
	m.AddConstraint(mathprog.Sum(term(x0, 1)), mathprog.LessEqual, 4, "x0_ub")
	m.AddConstraint(mathprog.Sum(term(x1, 1)), mathprog.GreaterEqual, 1, "x1_lb")

	obj := mathprog.Sum(term(x0, 1), term(x1, 1))
	obj.AddConstant(3)
	m.SetObjective(obj, sense)
	return m
}

func TestLP(t *testing.T) {
	sol, err := New().Optimize(context.Background(), lpModel(mathprog.Minimize))
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if !sol.IsOptimal() {
		t.Fatalf("Expected optimal, got %s", sol.Status)
	}

	if !almostEqual(sol.Values[0], 0.5, 0.01) {
		t.Errorf("x0 = %f, expected 0.5", sol.Values[0])
	}
	if !almostEqual(sol.Values[1], 2.25, 0.01) {
		t.Errorf("x1 = %f, expected 2.25", sol.Values[1])
	}
	if !almostEqual(sol.Objective, 5.75, 0.01) {
		t.Errorf("Objective = %f, expected 5.75", sol.Objective)
	}
	if !sol.Global {
		t.Error("LP optimum should be global")
	}
}

func TestLPMaximize(t *testing.T) {
	sol, err := New().Optimize(context.Background(), lpModel(mathprog.Maximize), mathprog.WithTimeLimit(time.Minute))
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if !sol.IsOptimal() {
		t.Fatalf("Expected optimal, got %s", sol.Status)
	}

	if !almostEqual(sol.Values[0], 4.0, 0.01) {
		t.Errorf("x0 = %f, expected 4.0", sol.Values[0])
	}
	if !almostEqual(sol.Values[1], 5.5, 0.01) {
		t.Errorf("x1 = %f, expected 5.5", sol.Values[1])
	}
	if !almostEqual(sol.Objective, 12.5, 0.01) {
		t.Errorf("Objective = %f, expected 12.5", sol.Objective)
	}
}

// TestMIP solves the knapsack
//
//	Max  5a + 4b + 3c
//	s.t. 2a + 3b +  c <= 5
//	     a, b, c binary
func TestMIP(t *testing.T) {
	m := mathprog.NewModel("knapsack")
	a := m.AddVariable("a", mathprog.Binary)
	b := m.AddVariable("b", mathprog.Binary)
	c := m.AddVariable("c", mathprog.Binary)
	m.AddConstraint(mathprog.Sum(term(a, 2), term(b, 3), term(c, 1)), mathprog.LessEqual, 5, "weight")
	m.SetObjective(mathprog.Sum(term(a, 5), term(b, 4), term(c, 3)), mathprog.Maximize)

	sol, err := New().Optimize(context.Background(), m, mathprog.WithMIPRelGap(0), mathprog.WithThreads(1))
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if !sol.IsOptimal() {
		t.Fatalf("Expected optimal, got %s", sol.Status)
	}

	want := []float64{1, 1, 0}
	for i, w := range want {
		if !almostEqual(sol.Values[i], w, 1e-6) {
			t.Errorf("x%d = %f, expected %f", i, sol.Values[i], w)
		}
	}
	if !almostEqual(sol.Objective, 9, 1e-6) {
		t.Errorf("Objective = %f, expected 9", sol.Objective)
	}
}

// TestQP solves
//
//	minimize -x_2 - 3x_3 + (1/2)(2x_1^2 - 2x_1x_3 + 0.2x_2^2 + 2x_3^2)
//	subject to x_1 + x_3 <= 2
func TestQP(t *testing.T) {
	m := mathprog.NewModel("qp")
	x1 := m.AddVariable("x1", mathprog.Continuous)
	x2 := m.AddVariable("x2", mathprog.Continuous)
	x3 := m.AddVariable("x3", mathprog.Continuous)
	m.AddConstraint(mathprog.Sum(term(x1, 1), term(x3, 1)), mathprog.LessEqual, 2, "r0")

	obj := mathprog.Sum(term(x2, -1), term(x3, -3))
	obj.AddQuad(1, x1, x1).AddQuad(-1, x1, x3).AddQuad(0.1, x2, x2).AddQuad(1, x3, x3)
	m.SetObjective(obj, mathprog.Minimize)

	sol, err := New().Optimize(context.Background(), m)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if !sol.IsOptimal() {
		t.Fatalf("Expected optimal, got %s", sol.Status)
	}

	if !almostEqual(sol.Values[0], 0.5, 0.01) {
		t.Errorf("x1 = %f, expected 0.5", sol.Values[0])
	}
	if !almostEqual(sol.Values[1], 5.0, 0.01) {
		t.Errorf("x2 = %f, expected 5.0", sol.Values[1])
	}
	if !almostEqual(sol.Values[2], 1.5, 0.01) {
		t.Errorf("x3 = %f, expected 1.5", sol.Values[2])
	}
	if !almostEqual(sol.Objective, -5.25, 0.01) {
		t.Errorf("Objective = %f, expected -5.25", sol.Objective)
	}
	if !sol.Global {
		t.Error("convex QP optimum should be global")
	}
}

// TestQPMaximizeConcaveOnLine solves
//
//	Max  x*y
//	s.t. x + y = 2
//
// which is concave on the line and peaks at x = y = 1.
func TestQPMaximizeConcaveOnLine(t *testing.T) {
	m := mathprog.NewModel("bilinear")
	x := m.AddVariable("x", mathprog.Continuous)
	y := m.AddVariable("y", mathprog.Continuous)
	m.AddConstraint(mathprog.Sum(term(x, 1), term(y, 1)), mathprog.Equal, 2, "sum")
	var obj mathprog.Expr
	obj.AddQuad(1, x, y)
	m.SetObjective(obj, mathprog.Maximize)

	sol, err := New().Optimize(context.Background(), m, mathprog.WithNonconvexGlobalSearch(true))
	require.NoError(t, err)
	require.True(t, sol.IsOptimal(), "status %s", sol.Status)
	assert.InDelta(t, 1.0, sol.Values[0], 1e-4)
	assert.InDelta(t, 1.0, sol.Values[1], 1e-4)
	assert.InDelta(t, 1.0, sol.Objective, 1e-6)
	assert.True(t, sol.Global)
}

func TestNonconvexRejected(t *testing.T) {
	m := mathprog.NewModel("saddle")
	x := m.AddVariable("x", mathprog.Continuous)
	y := m.AddVariable("y", mathprog.Continuous)
	m.AddConstraint(mathprog.Sum(term(x, 1), term(y, 1)), mathprog.LessEqual, 2, "cap")
	var obj mathprog.Expr
	obj.AddQuad(1, x, y)
	m.SetObjective(obj, mathprog.Maximize)

	_, err := New().Optimize(context.Background(), m, mathprog.WithNonconvexGlobalSearch(true))
	assert.ErrorIs(t, err, mathprog.ErrNonconvex)
}

func TestUnsupported(t *testing.T) {
	m := mathprog.NewModel("miqp")
	x := m.AddVariable("x", mathprog.Binary)
	var obj mathprog.Expr
	obj.AddQuad(1, x, x)
	m.SetObjective(obj, mathprog.Minimize)

	_, err := New().Optimize(context.Background(), m)
	assert.ErrorIs(t, err, mathprog.ErrUnsupported)

	qc := mathprog.NewModel("qc")
	y := qc.AddVariable("y", mathprog.Continuous)
	var row mathprog.Expr
	row.AddQuad(1, y, y)
	qc.AddConstraint(row, mathprog.LessEqual, 1, "disc")
	qc.SetObjective(mathprog.Sum(term(y, 1)), mathprog.Maximize)

	_, err = New().Optimize(context.Background(), qc)
	assert.ErrorIs(t, err, mathprog.ErrUnsupported)
}

// TestInfeasible tests that infeasible problems are detected.
//
//	x >= 5 and x <= 3
func TestInfeasible(t *testing.T) {
	m := mathprog.NewModel("infeasible")
	x := m.AddVariable("x", mathprog.Continuous)
	m.AddConstraint(mathprog.Sum(term(x, 1)), mathprog.GreaterEqual, 5, "lo")
	m.AddConstraint(mathprog.Sum(term(x, 1)), mathprog.LessEqual, 3, "hi")
	m.SetObjective(mathprog.Sum(term(x, 1)), mathprog.Minimize)

	sol, err := New().Optimize(context.Background(), m)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if !sol.IsInfeasible() {
		t.Errorf("Expected infeasible, got %s", sol.Status)
	}
	if err := mathprog.CheckStatus(m.Name, sol); !errors.Is(err, mathprog.ErrInfeasible) {
		t.Errorf("CheckStatus = %v, expected ErrInfeasible", err)
	}
}

func TestInfeasibleEqualitiesNamed(t *testing.T) {
	m := mathprog.NewModel("qp-infeasible")
	x := m.AddVariable("x", mathprog.Continuous)
	m.AddConstraint(mathprog.Sum(term(x, 1)), mathprog.Equal, 1, "one")
	m.AddConstraint(mathprog.Sum(term(x, 1)), mathprog.Equal, 2, "two")
	var obj mathprog.Expr
	obj.AddQuad(1, x, x)
	m.SetObjective(obj, mathprog.Minimize)

	sol, err := New().Optimize(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, mathprog.StatusInfeasible, sol.Status)
	assert.Equal(t, "one", sol.Constraint)
}

func TestOptimizeRejectsBrokenModel(t *testing.T) {
	m := mathprog.NewModel("broken")
	m.AddVariable("x", mathprog.Continuous)
	m.AddVariable("x", mathprog.Continuous)

	_, err := New().Optimize(context.Background(), m)
	var merr *mathprog.Error
	assert.ErrorAs(t, err, &merr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Optimize(ctx, lpModel(mathprog.Minimize))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModelStatus(t *testing.T) {
	tests := []struct {
		in   highslib.ModelStatus
		want mathprog.Status
	}{
		{highslib.Optimal, mathprog.StatusOptimal},
		{highslib.Infeasible, mathprog.StatusInfeasible},
		{highslib.UnboundedOrInfeasible, mathprog.StatusInfeasibleOrUnbounded},
		{highslib.Unbounded, mathprog.StatusUnbounded},
		{highslib.TimeLimit, mathprog.StatusTimeLimit},
		{highslib.IterationLimit, mathprog.StatusIterationLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, modelStatus(tt.in))
	}
}
