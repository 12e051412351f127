// Package pricing builds and solves the product pricing model: prices and
// demand levels for a family of related products under component-capacity,
// price-index and own/cross price-elasticity constraints, maximizing revenue.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is matched by errors reporting an input sequence
	// whose length disagrees with its index sets.
	ErrDimensionMismatch = errors.New("pricing: dimension mismatch")

	// ErrInvalidData is matched by errors reporting names or values that
	// cannot form a model.
	ErrInvalidData = errors.New("pricing: invalid data")
)

// DimensionMismatchError reports a flat input of the wrong length.
type DimensionMismatchError struct {
	Field string
	Got   int
	Want  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("pricing: %s has %d values, want %d", e.Field, e.Got, e.Want)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// UsageKey indexes a usage coefficient.
type UsageKey struct {
	Component string
	Product   string
}

// Data holds the pricing parameters keyed by product and component.
type Data struct {
	Products   []string
	Components []string

	// Usage is the quantity of a component consumed per unit of product. It is
	// defined for every (component, product) pair.
	Usage map[UsageKey]float64

	Capacity    map[string]float64 // per component
	Consumption map[string]float64 // baseline demand per product
	Price       map[string]float64 // baseline price per product
	Elasticity  map[string]float64 // own-price elasticity per product
}

// NewData builds Data from flat parallel sequences.
//
// usage is ordered component-major, product-minor:
//
//	usage[i*len(products)+j] is the usage of components[i] by products[j]
//
// capacity follows components; consumption, price and elasticity follow
// products. A length that disagrees with the index sets is reported as a
// *DimensionMismatchError before anything else is checked.
func NewData(products, components []string, usage, capacity, consumption, price, elasticity []float64) (*Data, error) {
	checks := []struct {
		field string
		got   int
		want  int
	}{
		{"usage", len(usage), len(components) * len(products)},
		{"capacity", len(capacity), len(components)},
		{"consumption", len(consumption), len(products)},
		{"price", len(price), len(products)},
		{"elasticity", len(elasticity), len(products)},
	}
	for _, c := range checks {
		if c.got != c.want {
			return nil, &DimensionMismatchError{Field: c.field, Got: c.got, Want: c.want}
		}
	}

	d := newData(products, components)
	k := 0
	for i, c := range components {
		d.Capacity[c] = capacity[i]
		for _, p := range products {
			d.Usage[UsageKey{Component: c, Product: p}] = usage[k]
			k++
		}
	}
	for j, p := range products {
		d.Consumption[p] = consumption[j]
		d.Price[p] = price[j]
		d.Elasticity[p] = elasticity[j]
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Tables is the named-index form of the pricing data. Usage is keyed by
// component, then product.
type Tables struct {
	Products    []string
	Components  []string
	Usage       map[string]map[string]float64
	Capacity    map[string]float64
	Consumption map[string]float64
	Price       map[string]float64
	Elasticity  map[string]float64
}

// NewDataFromTables builds Data from named tables. Every product and
// component listed must have an entry in every table it indexes; extra
// entries are rejected so that misspelled names do not go unnoticed.
func NewDataFromTables(t Tables) (*Data, error) {
	d := newData(t.Products, t.Components)

	lookup := func(table string, m map[string]float64, key string) (float64, error) {
		v, ok := m[key]
		if !ok {
			return 0, fmt.Errorf("%w: %s has no entry for %q", ErrInvalidData, table, key)
		}
		return v, nil
	}
	extra := func(table string, keys []string, n int) error {
		if n > len(keys) {
			return fmt.Errorf("%w: %s has %d entries for %d names", ErrInvalidData, table, n, len(keys))
		}
		return nil
	}

	for _, c := range t.Components {
		v, err := lookup("capacity", t.Capacity, c)
		if err != nil {
			return nil, err
		}
		d.Capacity[c] = v

		row, ok := t.Usage[c]
		if !ok {
			return nil, fmt.Errorf("%w: usage has no row for component %q", ErrInvalidData, c)
		}
		for _, p := range t.Products {
			v, err := lookup("usage["+c+"]", row, p)
			if err != nil {
				return nil, err
			}
			d.Usage[UsageKey{Component: c, Product: p}] = v
		}
		if err := extra("usage["+c+"]", t.Products, len(row)); err != nil {
			return nil, err
		}
	}
	if err := extra("usage", t.Components, len(t.Usage)); err != nil {
		return nil, err
	}
	if err := extra("capacity", t.Components, len(t.Capacity)); err != nil {
		return nil, err
	}

	for _, p := range t.Products {
		var err error
		if d.Consumption[p], err = lookup("consumption", t.Consumption, p); err != nil {
			return nil, err
		}
		if d.Price[p], err = lookup("price", t.Price, p); err != nil {
			return nil, err
		}
		if d.Elasticity[p], err = lookup("elasticity", t.Elasticity, p); err != nil {
			return nil, err
		}
	}
	for table, m := range map[string]map[string]float64{
		"consumption": t.Consumption,
		"price":       t.Price,
		"elasticity":  t.Elasticity,
	} {
		if err := extra(table, t.Products, len(m)); err != nil {
			return nil, err
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func newData(products, components []string) *Data {
	return &Data{
		Products:    append([]string(nil), products...),
		Components:  append([]string(nil), components...),
		Usage:       make(map[UsageKey]float64, len(products)*len(components)),
		Capacity:    make(map[string]float64, len(components)),
		Consumption: make(map[string]float64, len(products)),
		Price:       make(map[string]float64, len(products)),
		Elasticity:  make(map[string]float64, len(products)),
	}
}

// Flatten returns the data as flat sequences in the order accepted by NewData.
func (d *Data) Flatten() (usage, capacity, consumption, price, elasticity []float64) {
	usage = make([]float64, 0, len(d.Components)*len(d.Products))
	capacity = make([]float64, 0, len(d.Components))
	for _, c := range d.Components {
		capacity = append(capacity, d.Capacity[c])
		for _, p := range d.Products {
			usage = append(usage, d.Usage[UsageKey{Component: c, Product: p}])
		}
	}

	consumption = make([]float64, 0, len(d.Products))
	price = make([]float64, 0, len(d.Products))
	elasticity = make([]float64, 0, len(d.Products))
	for _, p := range d.Products {
		consumption = append(consumption, d.Consumption[p])
		price = append(price, d.Price[p])
		elasticity = append(elasticity, d.Elasticity[p])
	}
	return usage, capacity, consumption, price, elasticity
}

// Validate checks names and values. Baseline consumption and price divide
// the elasticity rows and must be strictly positive.
func (d *Data) Validate() error {
	if len(d.Products) == 0 {
		return fmt.Errorf("%w: no products", ErrInvalidData)
	}
	if err := uniqueNames("product", d.Products); err != nil {
		return err
	}
	if err := uniqueNames("component", d.Components); err != nil {
		return err
	}

	for _, c := range d.Components {
		if !finite(d.Capacity[c]) {
			return fmt.Errorf("%w: capacity of %q is not finite", ErrInvalidData, c)
		}
		for _, p := range d.Products {
			if u, ok := d.Usage[UsageKey{Component: c, Product: p}]; !ok || !finite(u) {
				return fmt.Errorf("%w: usage of %q by %q is undefined", ErrInvalidData, c, p)
			}
		}
	}
	for _, p := range d.Products {
		if v := d.Consumption[p]; !(v > 0) || !finite(v) {
			return fmt.Errorf("%w: consumption of %q must be positive, got %v", ErrInvalidData, p, v)
		}
		if v := d.Price[p]; !(v > 0) || !finite(v) {
			return fmt.Errorf("%w: price of %q must be positive, got %v", ErrInvalidData, p, v)
		}
		if !finite(d.Elasticity[p]) {
			return fmt.Errorf("%w: elasticity of %q is not finite", ErrInvalidData, p)
		}
	}
	return nil
}

// BaselineRevenue returns Σ consumption*price, the revenue at the baseline
// operating point.
func (d *Data) BaselineRevenue() float64 {
	var sum float64
	for _, p := range d.Products {
		sum += d.Consumption[p] * d.Price[p]
	}
	return sum
}

func uniqueNames(kind string, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return fmt.Errorf("%w: empty %s name", ErrInvalidData, kind)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: duplicate %s %q", ErrInvalidData, kind, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
