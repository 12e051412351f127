package highs_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolsthoorn/opsplan/facility"
	"github.com/bartolsthoorn/opsplan/kmeans"
	"github.com/bartolsthoorn/opsplan/mathprog"
	"github.com/bartolsthoorn/opsplan/mathprog/highs"
	"github.com/bartolsthoorn/opsplan/pricing"
)

const tol = 1e-6

func dairyScenario(t *testing.T) (*pricing.Data, pricing.Params) {
	t.Helper()
	d, err := pricing.NewData(
		[]string{"milk", "butter", "cheese1", "cheese2"},
		[]string{"fat", "dryMatter"},
		[]float64{0.04, 0.8, 0.35, 0.25, 0.09, 0.02, 0.3, 0.4},
		[]float64{600, 750},
		[]float64{4.82, 0.32, 0.21, 0.07},
		[]float64{0.297, 0.72, 1.05, 0.815},
		[]float64{0.4, 2.7, 1.1, 0.4},
	)
	require.NoError(t, err)
	return d, pricing.Params{
		PriceIndexBudget: 1.939,
		Substitutions: []pricing.Substitution{
			{Product: "cheese1", Substitute: "cheese2", Elasticity: 0.1},
			{Product: "cheese2", Substitute: "cheese1", Elasticity: 0.4},
		},
	}
}

func TestPricingScenario(t *testing.T) {
	d, p := dairyScenario(t)

	res, err := pricing.NewPlanner(highs.New(), nil, pricing.DefaultOptions()).Plan(context.Background(), d, p)
	require.NoError(t, err)
	require.Equal(t, mathprog.StatusOptimal, res.Status)
	assert.True(t, res.Global)
	assert.Nil(t, res.Warning)
	assert.Empty(t, res.Violations)

	assert.Greater(t, res.Revenue, res.BaselineRevenue)
	assert.InDelta(t, 2.0664, res.Revenue, 1e-3)

	values := make(map[string]pricing.ProductResult)
	var index float64
	for _, pr := range res.Products {
		values[pr.Product] = pr
		index += d.Consumption[pr.Product] * pr.Price
		assert.GreaterOrEqual(t, pr.Price, -tol)
		assert.GreaterOrEqual(t, pr.Demand, -tol)
	}
	assert.LessOrEqual(t, index, p.PriceIndexBudget+tol)

	for _, c := range d.Components {
		var used float64
		for _, prod := range d.Products {
			used += d.Usage[pricing.UsageKey{Component: c, Product: prod}] * values[prod].Demand
		}
		assert.LessOrEqual(t, used, d.Capacity[c]+tol, c)
	}

	// Own-price elasticity rows for products without a substitute.
	for _, prod := range []string{"milk", "butter"} {
		v := values[prod]
		r := (v.Demand-d.Consumption[prod])/d.Consumption[prod] + d.Elasticity[prod]*(v.Price-d.Price[prod])/d.Price[prod]
		assert.InDelta(t, 0, r, tol, prod)
	}
	// Cross-price rows.
	c1, c2 := values["cheese1"], values["cheese2"]
	r1 := (c1.Demand-0.21)/0.21 + 1.1*(c1.Price-1.05)/1.05 - 0.1*(c2.Price-0.815)/0.815
	r2 := (c2.Demand-0.07)/0.07 + 0.4*(c2.Price-0.815)/0.815 - 0.4*(c1.Price-1.05)/1.05
	assert.InDelta(t, 0, r1, tol)
	assert.InDelta(t, 0, r2, tol)
}

func TestPricingScenarioBudgetInfeasible(t *testing.T) {
	d, p := dairyScenario(t)
	p.PriceIndexBudget = -1

	_, err := pricing.NewPlanner(highs.New(), nil, pricing.DefaultOptions()).Plan(context.Background(), d, p)
	assert.ErrorIs(t, err, mathprog.ErrInfeasible)
}

func TestFacilityScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("large MILP")
	}

	const (
		seed          = 10101
		maxFacilities = 8
		clusters      = 1000
	)
	inst, err := facility.GenerateInstance(rand.New(rand.NewPCG(seed, seed)), facility.InstanceConfig{
		Customers:  50000,
		Facilities: 50,
		Gaussians:  10,
	})
	require.NoError(t, err)

	pl := facility.NewPlanner(highs.New(), kmeans.MiniBatch{}, nil, facility.Options{})
	res, err := pl.PlanCustomers(context.Background(), inst.Customers, inst.Facilities, facility.Params{
		Clusters:      clusters,
		Seed:          seed,
		Threshold:     0.99,
		MaxFacilities: maxFacilities,
	})
	require.NoError(t, err)
	require.Equal(t, mathprog.StatusOptimal, res.Status)

	assert.Len(t, res.Assignments, clusters)
	assert.LessOrEqual(t, len(res.Selected), maxFacilities)

	open := make(map[int]bool)
	for _, f := range res.Selected {
		open[f] = true
	}
	covered := make(map[int]int)
	used := make(map[int]bool)
	for _, a := range res.Assignments {
		assert.True(t, open[a.Facility], "cluster %d assigned to closed facility %d", a.Cluster, a.Facility)
		assert.Less(t, a.Distance, 0.99)
		covered[a.Cluster]++
		used[a.Facility] = true
	}
	assert.LessOrEqual(t, len(used), maxFacilities)
	for _, c := range res.Clusters {
		assert.Equal(t, 1, covered[c.ID], "cluster %d", c.ID)
	}
}

func TestFacilityNoBudgetInfeasible(t *testing.T) {
	inst, err := facility.GenerateInstance(rand.New(rand.NewPCG(1, 1)), facility.InstanceConfig{
		Customers:  200,
		Facilities: 5,
		Gaussians:  2,
	})
	require.NoError(t, err)

	pl := facility.NewPlanner(highs.New(), kmeans.MiniBatch{}, nil, facility.Options{})
	_, err = pl.PlanCustomers(context.Background(), inst.Customers, inst.Facilities, facility.Params{
		Clusters:      10,
		Seed:          1,
		Threshold:     10,
		MaxFacilities: 0,
	})
	assert.ErrorIs(t, err, mathprog.ErrInfeasible)
}
