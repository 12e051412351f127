package facility

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bartolsthoorn/opsplan/mathprog"
)

// ModelName is the name of the facility-location model in logs, metrics and
// errors.
const ModelName = "facility"

// DefaultBinaryThreshold is the value above which a solved binary variable
// is read as 1.
const DefaultBinaryThreshold = 0.5

// ErrThresholdTooTight is matched by *ThresholdTooTightError.
var ErrThresholdTooTight = errors.New("facility: pairing threshold leaves clusters without a facility")

// ThresholdTooTightError lists the clusters that no facility can serve under
// the pairing threshold. Their coverage rows could never hold.
type ThresholdTooTightError struct {
	Clusters []int
}

func (e *ThresholdTooTightError) Error() string {
	const show = 10
	if len(e.Clusters) > show {
		return fmt.Sprintf("facility: %d clusters have no facility within the threshold (first: %v)", len(e.Clusters), e.Clusters[:show])
	}
	return fmt.Sprintf("facility: clusters %v have no facility within the threshold", e.Clusters)
}

// Is reports whether target is ErrThresholdTooTight.
func (e *ThresholdTooTightError) Is(target error) bool {
	return target == ErrThresholdTooTight
}

// Formulation is a built facility-location model with its variable handles.
type Formulation struct {
	Model      *mathprog.Model
	Facilities []Facility
	Clusters   []Cluster
	Pairings   *Pairings

	// Select holds select[f] by facility ID.
	Select map[int]mathprog.Var
	// Assign holds assign[f,c] for the pairs of Pairings only, in pair order.
	Assign []mathprog.Var
}

// Build formulates the facility-location model:
//
//	min  Σ_(f,c) weight[c]*distance[f,c]*assign[f,c]
//	s.t. facility_limit: Σ_f select[f] <= maxFacilities
//	     link[f,c]:      assign[f,c] - select[f] <= 0    for every pair
//	     cover[c]:       Σ_f assign[f,c] = 1             for every cluster
//	     select, assign binary
//
// assign[f,c] exists only for pairs in pairs. Clusters without any pair are
// reported as a *ThresholdTooTightError before a model is built.
// maxFacilities = 0 is accepted and leaves the model infeasible.
func Build(facilities []Facility, clusters []Cluster, pairs *Pairings, maxFacilities int) (*Formulation, error) {
	if maxFacilities < 0 {
		return nil, fmt.Errorf("%w: maxFacilities=%d", ErrInvalidParameter, maxFacilities)
	}
	if len(clusters) == 0 {
		return nil, fmt.Errorf("%w: no clusters", ErrInvalidParameter)
	}
	if uncovered := pairs.Uncovered(clusters); len(uncovered) > 0 {
		return nil, &ThresholdTooTightError{Clusters: uncovered}
	}

	weight := make(map[int]int, len(clusters))
	for _, c := range clusters {
		weight[c.ID] = c.Weight
	}

	m := mathprog.NewModel(ModelName)
	f := &Formulation{
		Model:      m,
		Facilities: facilities,
		Clusters:   clusters,
		Pairings:   pairs,
		Select:     make(map[int]mathprog.Var, len(facilities)),
		Assign:     make([]mathprog.Var, pairs.Len()),
	}

	var limit mathprog.Expr
	for _, fac := range facilities {
		v := m.AddVariable("select["+strconv.Itoa(fac.ID)+"]", mathprog.Binary)
		f.Select[fac.ID] = v
		limit.Add(1, v)
	}

	var cost mathprog.Expr
	for i, p := range pairs.Pairs() {
		sel, ok := f.Select[p.Facility]
		if !ok {
			return nil, fmt.Errorf("%w: pair references unknown facility %d", ErrInvalidParameter, p.Facility)
		}
		key := pairName(p)
		v := m.AddVariable("assign"+key, mathprog.Binary)
		f.Assign[i] = v
		cost.Add(float64(weight[p.Cluster])*p.Distance, v)

		var link mathprog.Expr
		link.Add(1, v).Add(-1, sel)
		m.AddConstraint(link, mathprog.LessEqual, 0, "link"+key)
	}

	m.AddConstraint(limit, mathprog.LessEqual, float64(maxFacilities), "facility_limit")

	for _, c := range clusters {
		var cover mathprog.Expr
		for _, i := range pairs.byCluster[c.ID] {
			cover.Add(1, f.Assign[i])
		}
		m.AddConstraint(cover, mathprog.Equal, 1, "cover["+strconv.Itoa(c.ID)+"]")
	}

	m.SetObjective(cost, mathprog.Minimize)
	if err := m.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func pairName(p Pair) string {
	return "[" + strconv.Itoa(p.Facility) + "," + strconv.Itoa(p.Cluster) + "]"
}

// Assignment is a cluster served by an open facility.
type Assignment struct {
	Facility int
	Cluster  int
	Distance float64
	Weight   int
}

// Extract reads the open facilities and assignments from a solution. A
// binary variable counts as set when its value exceeds threshold. Facilities
// are returned in input order and assignments in pair order.
func (f *Formulation) Extract(sol *mathprog.Solution, threshold float64) (selected []int, assignments []Assignment) {
	for _, fac := range f.Facilities {
		if sol.Value(f.Select[fac.ID]) > threshold {
			selected = append(selected, fac.ID)
		}
	}

	weight := make(map[int]int, len(f.Clusters))
	for _, c := range f.Clusters {
		weight[c.ID] = c.Weight
	}
	for i, p := range f.Pairings.Pairs() {
		if sol.Value(f.Assign[i]) > threshold {
			assignments = append(assignments, Assignment{
				Facility: p.Facility,
				Cluster:  p.Cluster,
				Distance: p.Distance,
				Weight:   weight[p.Cluster],
			})
		}
	}
	return selected, assignments
}
