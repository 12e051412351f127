// Package mathprogtest provides a scripted mathprog.Solver for tests of code
// that builds and solves models without a real backend.
package mathprogtest

import (
	"context"
	"sync"

	"github.com/bartolsthoorn/opsplan/mathprog"
)

// Solver returns a scripted solution for every model it receives and records
// the models and options it was called with.
type Solver struct {
	// Status is reported for every solve. The zero value reports StatusOptimal.
	Status mathprog.Status

	// Values computes the primal point for a model. When nil, every variable
	// is 0. It is not called for statuses without a solution.
	Values func(m *mathprog.Model) []float64

	// Local marks solutions as not proven global.
	Local bool

	// Err, when non-nil, is returned instead of a solution.
	Err error

	mu      sync.Mutex
	models  []*mathprog.Model
	configs []*mathprog.SolveConfig
}

// Optimize implements mathprog.Solver.
func (s *Solver) Optimize(ctx context.Context, m *mathprog.Model, opts ...mathprog.SolveOption) (*mathprog.Solution, error) {
	s.mu.Lock()
	s.models = append(s.models, m)
	s.configs = append(s.configs, mathprog.NewSolveConfig(opts...))
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if err := m.Err(); err != nil {
		return nil, err
	}

	status := s.Status
	if status == mathprog.StatusNotSolved {
		status = mathprog.StatusOptimal
	}
	sol := &mathprog.Solution{Status: status}
	if !status.HasSolution() {
		return sol, nil
	}

	if s.Values != nil {
		sol.Values = s.Values(m)
	} else {
		sol.Values = make([]float64, m.NumVars())
	}
	obj, _ := m.Objective()
	sol.Objective = obj.Eval(sol.Values)
	sol.Global = !s.Local
	return sol, nil
}

// Models returns the models passed to Optimize, in call order.
func (s *Solver) Models() []*mathprog.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*mathprog.Model(nil), s.models...)
}

// LastConfig returns the options of the most recent call, or nil.
func (s *Solver) LastConfig() *mathprog.SolveConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.configs) == 0 {
		return nil
	}
	return s.configs[len(s.configs)-1]
}

// ByName builds a Values function from variable names; unnamed variables are 0.
func ByName(values map[string]float64) func(m *mathprog.Model) []float64 {
	return func(m *mathprog.Model) []float64 {
		out := make([]float64, m.NumVars())
		for name, val := range values {
			if v, ok := m.LookupVar(name); ok {
				out[v] = val
			}
		}
		return out
	}
}
