package facility

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb/planar"
)

// ErrInvalidThreshold is returned for a non-positive pairing threshold.
var ErrInvalidThreshold = errors.New("facility: threshold must be positive")

// Pair is a facility that may serve a cluster, at the given distance.
type Pair struct {
	Facility int
	Cluster  int
	Distance float64
}

type pairKey struct {
	facility, cluster int
}

// Pairings is the sparse facility/cluster relation. A pair that is absent
// is disallowed; it never means zero cost.
type Pairings struct {
	pairs      []Pair
	index      map[pairKey]int
	byFacility map[int][]int
	byCluster  map[int][]int
}

// GeneratePairings keeps every (facility, cluster) pair whose Euclidean
// distance is strictly below threshold. Pairs are ordered by facility, then
// cluster, following the input order.
func GeneratePairings(facilities []Facility, clusters []Cluster, threshold float64) (*Pairings, error) {
	if !(threshold > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	if err := uniqueIDs(facilities, clusters); err != nil {
		return nil, err
	}

	p := &Pairings{
		index:      make(map[pairKey]int),
		byFacility: make(map[int][]int, len(facilities)),
		byCluster:  make(map[int][]int, len(clusters)),
	}
	for _, f := range facilities {
		for _, c := range clusters {
			d := planar.Distance(f.Location, c.Centroid)
			if d >= threshold {
				continue
			}
			i := len(p.pairs)
			p.pairs = append(p.pairs, Pair{Facility: f.ID, Cluster: c.ID, Distance: d})
			p.index[pairKey{f.ID, c.ID}] = i
			p.byFacility[f.ID] = append(p.byFacility[f.ID], i)
			p.byCluster[c.ID] = append(p.byCluster[c.ID], i)
		}
	}
	return p, nil
}

// Len returns the number of pairs.
func (p *Pairings) Len() int {
	return len(p.pairs)
}

// Pairs returns all pairs. The slice must not be modified.
func (p *Pairings) Pairs() []Pair {
	return p.pairs
}

// Distance returns the distance of a pair and whether the pair exists.
func (p *Pairings) Distance(facility, cluster int) (float64, bool) {
	i, ok := p.index[pairKey{facility, cluster}]
	if !ok {
		return 0, false
	}
	return p.pairs[i].Distance, true
}

// ForFacility returns the pairs of the clusters a facility can reach.
func (p *Pairings) ForFacility(id int) []Pair {
	return p.collect(p.byFacility[id])
}

// ForCluster returns the pairs of the facilities that can serve a cluster.
func (p *Pairings) ForCluster(id int) []Pair {
	return p.collect(p.byCluster[id])
}

func (p *Pairings) collect(idx []int) []Pair {
	out := make([]Pair, len(idx))
	for k, i := range idx {
		out[k] = p.pairs[i]
	}
	return out
}

// Uncovered returns the IDs of clusters that no facility can serve, in
// ascending order.
func (p *Pairings) Uncovered(clusters []Cluster) []int {
	var out []int
	for _, c := range clusters {
		if len(p.byCluster[c.ID]) == 0 {
			out = append(out, c.ID)
		}
	}
	slices.Sort(out)
	return out
}

func uniqueIDs(facilities []Facility, clusters []Cluster) error {
	seen := make(map[int]bool, len(facilities))
	for _, f := range facilities {
		if seen[f.ID] {
			return fmt.Errorf("%w: duplicate facility id %d", ErrInvalidParameter, f.ID)
		}
		seen[f.ID] = true
	}
	clear(seen)
	for _, c := range clusters {
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate cluster id %d", ErrInvalidParameter, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
