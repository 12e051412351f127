// Package facility builds and solves the facility-location model: open at
// most a given number of candidate facilities and assign every aggregated
// customer cluster to exactly one open facility, minimizing weighted distance.
//
// The pipeline is GenerateInstance (or caller data) -> Aggregate ->
// GeneratePairings -> Build -> solve, each stage a pure transformation of the
// previous stage's output.
package facility

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/paulmach/orb"
)

// ErrInvalidParameter is matched by errors reporting an out-of-range
// parameter.
var ErrInvalidParameter = errors.New("facility: invalid parameter")

// DefaultSpread is the standard deviation of a customer blob.
const DefaultSpread = 0.1

// Facility is a candidate facility location.
type Facility struct {
	ID       int
	Location orb.Point
}

// InstanceConfig sizes a synthetic instance.
type InstanceConfig struct {
	Customers  int
	Facilities int
	Gaussians  int
	// Spread is the blob standard deviation; 0 means DefaultSpread.
	Spread float64
}

// Instance is a set of customer locations and candidate facilities.
type Instance struct {
	Customers  []orb.Point
	Facilities []Facility
}

// GenerateInstance draws a synthetic instance from rng. Customers come from
// Gaussians blobs whose centers are uniform in [-0.5, 0.5]²; each customer
// picks its blob uniformly. Facilities are uniform in [-0.5, 0.5]² with IDs
// 0..Facilities-1.
func GenerateInstance(rng *rand.Rand, cfg InstanceConfig) (*Instance, error) {
	if cfg.Customers <= 0 || cfg.Facilities <= 0 || cfg.Gaussians <= 0 {
		return nil, fmt.Errorf("%w: customers=%d facilities=%d gaussians=%d",
			ErrInvalidParameter, cfg.Customers, cfg.Facilities, cfg.Gaussians)
	}
	spread := cfg.Spread
	if spread == 0 {
		spread = DefaultSpread
	}

	perBlob := make([]int, cfg.Gaussians)
	for i := 0; i < cfg.Customers; i++ {
		perBlob[rng.IntN(cfg.Gaussians)]++
	}

	inst := &Instance{
		Customers:  make([]orb.Point, 0, cfg.Customers),
		Facilities: make([]Facility, cfg.Facilities),
	}
	for _, n := range perBlob {
		center := orb.Point{rng.Float64() - 0.5, rng.Float64() - 0.5}
		for i := 0; i < n; i++ {
			inst.Customers = append(inst.Customers, orb.Point{
				center[0] + spread*rng.NormFloat64(),
				center[1] + spread*rng.NormFloat64(),
			})
		}
	}
	for i := range inst.Facilities {
		inst.Facilities[i] = Facility{ID: i, Location: orb.Point{rng.Float64() - 0.5, rng.Float64() - 0.5}}
	}
	return inst, nil
}
