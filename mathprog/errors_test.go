package mathprog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusErrorIs(t *testing.T) {
	tests := []struct {
		status     Status
		infeasible bool
		unbounded  bool
	}{
		{StatusInfeasible, true, false},
		{StatusUnbounded, false, true},
		{StatusInfeasibleOrUnbounded, true, true},
		{StatusTimeLimit, false, false},
		{StatusFailed, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			err := fmt.Errorf("solve: %w", &StatusError{Model: "m", Status: tt.status})
			assert.Equal(t, tt.infeasible, errors.Is(err, ErrInfeasible))
			assert.Equal(t, tt.unbounded, errors.Is(err, ErrUnbounded))
			assert.True(t, errors.Is(err, ErrNoSolution))
			assert.False(t, errors.Is(err, ErrNonconvex))
		})
	}
}

func TestCheckStatus(t *testing.T) {
	assert.NoError(t, CheckStatus("m", &Solution{Status: StatusOptimal, Values: []float64{1}}))
	assert.NoError(t, CheckStatus("m", &Solution{Status: StatusTimeLimit, Values: []float64{1}}))

	err := CheckStatus("m", &Solution{Status: StatusTimeLimit})
	assert.ErrorIs(t, err, ErrNoSolution)

	err = CheckStatus("m", &Solution{Status: StatusInfeasible, Constraint: "cover[3]"})
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "cover[3]", serr.Constraint)
	assert.Contains(t, err.Error(), `"cover[3]"`)

	assert.ErrorIs(t, CheckStatus("m", nil), ErrNoSolution)
}

func TestErrorUnwrap(t *testing.T) {
	err := NewError("Optimize", "model", ErrUnsupported)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, "mathprog: Optimize failed: model: mathprog: model not supported by solver", err.Error())
	assert.Equal(t, "mathprog: Convex failed: no convergence", newErrorMsg("Convex", "no convergence").Error())
}

func TestEffectiveTimeLimit(t *testing.T) {
	cfg := NewSolveConfig()
	_, ok := cfg.EffectiveTimeLimit(context.Background())
	assert.False(t, ok)

	cfg = NewSolveConfig(WithTimeLimit(time.Minute), WithThreads(2), WithMIPRelGap(0.01), WithOutput(true), WithNonconvexGlobalSearch(true))
	limit, ok := cfg.EffectiveTimeLimit(context.Background())
	assert.True(t, ok)
	assert.Equal(t, time.Minute, limit)
	assert.Equal(t, 2, *cfg.Threads)
	assert.Equal(t, 0.01, *cfg.MIPRelGap)
	assert.True(t, *cfg.Output)
	assert.True(t, cfg.NonconvexGlobalSearch)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	limit, ok = cfg.EffectiveTimeLimit(ctx)
	assert.True(t, ok)
	assert.LessOrEqual(t, limit, time.Second)

	// A later deadline does not loosen the configured limit.
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Hour)
	defer cancel2()
	limit, _ = cfg.EffectiveTimeLimit(ctx2)
	assert.Equal(t, time.Minute, limit)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Optimal", StatusOptimal.String())
	assert.Equal(t, "InfeasibleOrUnbounded", StatusInfeasibleOrUnbounded.String())
	assert.Equal(t, "Unknown", Status(99).String())
	assert.True(t, StatusIterationLimit.HasSolution())
	assert.False(t, (&Solution{Status: StatusOptimal}).HasSolution())
}
