package facility

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// ErrInvalidPartition is returned when a Partitioner's output does not
// match its input.
var ErrInvalidPartition = errors.New("facility: invalid partition")

// Partitioner groups points into k clusters. Implementations must be
// deterministic for a fixed seed.
type Partitioner interface {
	Partition(points []orb.Point, k int, seed uint64) (labels []int, centroids []orb.Point, err error)
}

// PartitionerFunc adapts a function to the Partitioner interface.
type PartitionerFunc func(points []orb.Point, k int, seed uint64) ([]int, []orb.Point, error)

// Partition calls f.
func (f PartitionerFunc) Partition(points []orb.Point, k int, seed uint64) ([]int, []orb.Point, error) {
	return f(points, k, seed)
}

// Cluster is a group of customers represented by its centroid.
type Cluster struct {
	ID       int
	Centroid orb.Point
	// Weight is the number of customers in the cluster.
	Weight int
}

// Aggregate reduces customers to k weighted clusters with IDs 0..k-1.
//
// Aggregation is lossy: the model later charges every customer of a cluster
// the distance from the facility to the centroid, so individual assignment
// costs are approximate. Fewer clusters give smaller models and coarser
// costs. Clusters the oracle leaves empty are kept with weight 0; they still
// have to be covered.
func Aggregate(customers []orb.Point, k int, seed uint64, oracle Partitioner) ([]Cluster, error) {
	if k <= 0 || k > len(customers) {
		return nil, fmt.Errorf("%w: %d clusters for %d customers", ErrInvalidParameter, k, len(customers))
	}

	labels, centroids, err := oracle.Partition(customers, k, seed)
	if err != nil {
		return nil, fmt.Errorf("facility: aggregate: %w", err)
	}
	if len(labels) != len(customers) || len(centroids) != k {
		return nil, fmt.Errorf("%w: %d labels and %d centroids for %d points and k=%d",
			ErrInvalidPartition, len(labels), len(centroids), len(customers), k)
	}

	clusters := make([]Cluster, k)
	for j, c := range centroids {
		clusters[j] = Cluster{ID: j, Centroid: c}
	}
	for i, l := range labels {
		if l < 0 || l >= k {
			return nil, fmt.Errorf("%w: point %d has label %d", ErrInvalidPartition, i, l)
		}
		clusters[l].Weight++
	}
	return clusters, nil
}
