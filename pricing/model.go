package pricing

import (
	"fmt"

	"github.com/bartolsthoorn/opsplan/mathprog"
)

// ModelName is the name of the pricing model in logs, metrics and errors.
const ModelName = "pricing"

// Params are the scenario parameters that are not per-product data.
type Params struct {
	// PriceIndexBudget bounds Σ consumption*price.
	PriceIndexBudget float64

	// Substitutions is the substitution graph.
	Substitutions []Substitution
}

// Formulation is a built pricing model with its variable handles.
type Formulation struct {
	Model  *mathprog.Model
	Data   *Data
	Params Params

	Demand map[string]mathprog.Var
	Price  map[string]mathprog.Var
}

// Build formulates the pricing model:
//
//	max  Σ_d demand[d]*price[d]
//	s.t. capacity[c]:   Σ_d usage[c,d]*demand[d] <= capacity[c]
//	     price_index:   Σ_d consumption[d]*price[d] <= PriceIndexBudget
//	     elasticity[d]: (demand[d]-c_d)/c_d = -e_d*(price[d]-P_d)/P_d + x*(price[s]-P_s)/P_s
//	     demand, price >= 0
//
// where s is the designated substitute of d with cross-price elasticity x
// (x = 0 when d has none). The elasticity rows are stored in the equivalent
// linear form
//
//	demand[d]/c_d + e_d*price[d]/P_d - x*price[s]/P_s = 1 + e_d - x
//
// The revenue objective is bilinear and nonconvex over (demand, price).
func Build(d *Data, p Params) (*Formulation, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if !finite(p.PriceIndexBudget) {
		return nil, fmt.Errorf("%w: price index budget is not finite", ErrInvalidData)
	}
	subs, err := substitutes(d, p.Substitutions)
	if err != nil {
		return nil, err
	}

	m := mathprog.NewModel(ModelName)
	f := &Formulation{
		Model:  m,
		Data:   d,
		Params: p,
		Demand: make(map[string]mathprog.Var, len(d.Products)),
		Price:  make(map[string]mathprog.Var, len(d.Products)),
	}
	for _, prod := range d.Products {
		f.Demand[prod] = m.AddVariable("demand["+prod+"]", mathprog.Continuous)
	}
	for _, prod := range d.Products {
		f.Price[prod] = m.AddVariable("price["+prod+"]", mathprog.Continuous)
	}

	for _, c := range d.Components {
		var row mathprog.Expr
		for _, prod := range d.Products {
			row.Add(d.Usage[UsageKey{Component: c, Product: prod}], f.Demand[prod])
		}
		m.AddConstraint(row, mathprog.LessEqual, d.Capacity[c], "capacity["+c+"]")
	}

	var index mathprog.Expr
	for _, prod := range d.Products {
		index.Add(d.Consumption[prod], f.Price[prod])
	}
	m.AddConstraint(index, mathprog.LessEqual, p.PriceIndexBudget, "price_index")

	for _, prod := range d.Products {
		e := d.Elasticity[prod]
		var row mathprog.Expr
		row.Add(1/d.Consumption[prod], f.Demand[prod])
		row.Add(e/d.Price[prod], f.Price[prod])
		rhs := 1 + e
		if s, ok := subs[prod]; ok {
			row.Add(-s.Elasticity/d.Price[s.Substitute], f.Price[s.Substitute])
			rhs -= s.Elasticity
		}
		m.AddConstraint(row, mathprog.Equal, rhs, "elasticity["+prod+"]")
	}

	var revenue mathprog.Expr
	for _, prod := range d.Products {
		revenue.AddQuad(1, f.Demand[prod], f.Price[prod])
	}
	m.SetObjective(revenue, mathprog.Maximize)

	if err := m.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// ElasticityResidual returns the residual of the elasticity row of product
// in its original form, (q-c)/c + e*(p-P)/P - x*(p_s-P_s)/P_s, at values.
func (f *Formulation) ElasticityResidual(product string, values []float64) float64 {
	d := f.Data
	c, base, e := d.Consumption[product], d.Price[product], d.Elasticity[product]
	q := values[f.Demand[product]]
	p := values[f.Price[product]]

	r := (q-c)/c + e*(p-base)/base
	for _, s := range f.Params.Substitutions {
		if s.Product == product {
			ps, bs := values[f.Price[s.Substitute]], d.Price[s.Substitute]
			r -= s.Elasticity * (ps - bs) / bs
		}
	}
	return r
}
