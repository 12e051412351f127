package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidSubstitution is matched by errors reporting a malformed
// substitution graph.
var ErrInvalidSubstitution = errors.New("pricing: invalid substitution")

// Substitution is a directed edge of the substitution graph: the demand for
// Product responds to the price of Substitute with cross-price Elasticity.
// The reverse edge, if any, carries its own coefficient.
type Substitution struct {
	Product    string
	Substitute string
	Elasticity float64
}

// substitutes indexes the substitution graph by product. Each product has at
// most one designated substitute.
func substitutes(d *Data, subs []Substitution) (map[string]Substitution, error) {
	known := make(map[string]bool, len(d.Products))
	for _, p := range d.Products {
		known[p] = true
	}

	out := make(map[string]Substitution, len(subs))
	for _, s := range subs {
		switch {
		case !known[s.Product]:
			return nil, fmt.Errorf("%w: unknown product %q", ErrInvalidSubstitution, s.Product)
		case !known[s.Substitute]:
			return nil, fmt.Errorf("%w: unknown substitute %q for %q", ErrInvalidSubstitution, s.Substitute, s.Product)
		case s.Product == s.Substitute:
			return nil, fmt.Errorf("%w: %q substitutes itself", ErrInvalidSubstitution, s.Product)
		case !finite(s.Elasticity):
			return nil, fmt.Errorf("%w: elasticity of %q on %q is not finite", ErrInvalidSubstitution, s.Product, s.Substitute)
		}
		if prev, dup := out[s.Product]; dup {
			return nil, fmt.Errorf("%w: %q already substitutes %q", ErrInvalidSubstitution, s.Product, prev.Substitute)
		}
		out[s.Product] = s
	}
	return out, nil
}
