package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolsthoorn/opsplan/mathprog"
)

func TestBuildStructure(t *testing.T) {
	f, err := Build(scenarioData(t), scenarioParams())
	require.NoError(t, err)
	m := f.Model

	assert.Equal(t, 8, m.NumVars())
	assert.Equal(t, 2+1+4, m.NumConstraints())
	assert.False(t, m.IsLinear())
	assert.False(t, m.HasIntegers())

	for _, name := range []string{
		"capacity[fat]", "capacity[dryMatter]", "price_index",
		"elasticity[milk]", "elasticity[butter]", "elasticity[cheese1]", "elasticity[cheese2]",
	} {
		_, ok := m.LookupConstraint(name)
		assert.True(t, ok, name)
	}

	fat, _ := m.LookupConstraint("capacity[fat]")
	assert.Equal(t, mathprog.LessEqual, fat.Rel)
	assert.Equal(t, 600.0, fat.RHS)
	assert.Len(t, fat.Expr.Linear, 4)

	// Products without a substitute depend on their own variables only.
	milk, _ := m.LookupConstraint("elasticity[milk]")
	assert.Equal(t, mathprog.Equal, milk.Rel)
	assert.Len(t, milk.Expr.Linear, 2)
	assert.InDelta(t, 1.4, milk.RHS, 1e-12)

	cheese1, _ := m.LookupConstraint("elasticity[cheese1]")
	assert.Len(t, cheese1.Expr.Linear, 3)
	assert.InDelta(t, 1+1.1-0.1, cheese1.RHS, 1e-12)

	obj, sense := m.Objective()
	assert.Equal(t, mathprog.Maximize, sense)
	assert.Len(t, obj.Quad, 4)
}

func TestBuildBaselineSatisfiesElasticity(t *testing.T) {
	d := scenarioData(t)
	f, err := Build(d, scenarioParams())
	require.NoError(t, err)

	values := make([]float64, f.Model.NumVars())
	for _, p := range d.Products {
		values[f.Demand[p]] = d.Consumption[p]
		values[f.Price[p]] = d.Price[p]
	}

	for _, p := range d.Products {
		assert.InDelta(t, 0, f.ElasticityResidual(p, values), 1e-12, p)
		row, _ := f.Model.LookupConstraint("elasticity[" + p + "]")
		assert.InDelta(t, row.RHS, row.Expr.Eval(values), 1e-12, p)
	}
	assert.InDelta(t, d.BaselineRevenue(), func() float64 {
		obj, _ := f.Model.Objective()
		return obj.Eval(values)
	}(), 1e-12)
}

func TestBuildSubstitutionErrors(t *testing.T) {
	d := scenarioData(t)
	tests := []struct {
		name string
		subs []Substitution
	}{
		{"unknown product", []Substitution{{Product: "yogurt", Substitute: "milk"}}},
		{"unknown substitute", []Substitution{{Product: "milk", Substitute: "yogurt"}}},
		{"self edge", []Substitution{{Product: "milk", Substitute: "milk"}}},
		{"two substitutes", []Substitution{
			{Product: "cheese1", Substitute: "cheese2", Elasticity: 0.1},
			{Product: "cheese1", Substitute: "butter", Elasticity: 0.2},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(d, Params{PriceIndexBudget: 2, Substitutions: tt.subs})
			assert.ErrorIs(t, err, ErrInvalidSubstitution)
		})
	}

	// Asymmetric edges across several pairs are accepted.
	_, err := Build(d, Params{PriceIndexBudget: 2, Substitutions: []Substitution{
		{Product: "cheese1", Substitute: "cheese2", Elasticity: 0.1},
		{Product: "cheese2", Substitute: "cheese1", Elasticity: 0.4},
		{Product: "butter", Substitute: "milk", Elasticity: 0.05},
	}})
	assert.NoError(t, err)
}
