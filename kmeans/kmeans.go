// Package kmeans implements seeded mini-batch k-means clustering of planar
// points.
//
// All randomness comes from a PCG generator built from the caller's seed, so
// the same points, k and seed always produce the same labels and centroids.
package kmeans

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrInvalidK is returned when k is not in [1, len(points)].
var ErrInvalidK = errors.New("kmeans: invalid cluster count")

const (
	// DefaultBatchSize is the number of points sampled per iteration.
	DefaultBatchSize = 1024
	// DefaultMaxIter is the number of mini-batch iterations.
	DefaultMaxIter = 100
	// DefaultTol is the total squared center movement of one iteration
	// below which the iterations stop early.
	DefaultTol = 1e-9
)

// MiniBatch is a mini-batch k-means partitioner. Zero fields take the
// package defaults; InitSize defaults to 3k.
type MiniBatch struct {
	BatchSize int
	MaxIter   int
	InitSize  int
	Tol       float64
}

// Partition clusters points into k groups. labels[i] is the cluster of
// points[i]; centroids[j] is the mean of the points labeled j, or the last
// center of j when no point is labeled with it.
func (mb MiniBatch) Partition(points []orb.Point, k int, seed uint64) (labels []int, centroids []orb.Point, err error) {
	n := len(points)
	if k < 1 || k > n {
		return nil, nil, fmt.Errorf("%w: k=%d for %d points", ErrInvalidK, k, n)
	}
	mb = mb.withDefaults(k, n)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	centers := initCenters(points, k, mb.InitSize, rng)

	counts := make([]int, k)
	batch := make([]int, mb.BatchSize)
	nearestOf := make([]int, mb.BatchSize)
	for iter := 0; iter < mb.MaxIter; iter++ {
		for i := range batch {
			batch[i] = rng.IntN(n)
			nearestOf[i], _ = nearest(centers, points[batch[i]])
		}

		var moved float64
		for i, idx := range batch {
			j := nearestOf[i]
			counts[j]++
			eta := 1 / float64(counts[j])
			prev := centers[j]
			p := points[idx]
			centers[j] = orb.Point{
				prev[0] + eta*(p[0]-prev[0]),
				prev[1] + eta*(p[1]-prev[1]),
			}
			moved += planar.DistanceSquared(prev, centers[j])
		}
		if moved <= mb.Tol {
			break
		}
	}

	labels = make([]int, n)
	sums := make([]orb.Point, k)
	sizes := make([]int, k)
	for i, p := range points {
		j, _ := nearest(centers, p)
		labels[i] = j
		sums[j][0] += p[0]
		sums[j][1] += p[1]
		sizes[j]++
	}
	for j := range centers {
		if sizes[j] > 0 {
			centers[j] = orb.Point{sums[j][0] / float64(sizes[j]), sums[j][1] / float64(sizes[j])}
		}
	}
	return labels, centers, nil
}

func (mb MiniBatch) withDefaults(k, n int) MiniBatch {
	if mb.BatchSize <= 0 {
		mb.BatchSize = DefaultBatchSize
	}
	if mb.MaxIter <= 0 {
		mb.MaxIter = DefaultMaxIter
	}
	if mb.InitSize <= 0 {
		mb.InitSize = 3 * k
	}
	mb.InitSize = min(max(mb.InitSize, k), n)
	if mb.Tol <= 0 {
		mb.Tol = DefaultTol
	}
	return mb
}

// initCenters seeds k centers with k-means++ on a random sample of size points.
func initCenters(points []orb.Point, k, size int, rng *rand.Rand) []orb.Point {
	sample := make([]orb.Point, size)
	for i, idx := range rng.Perm(len(points))[:size] {
		sample[i] = points[idx]
	}

	centers := make([]orb.Point, 0, k)
	centers = append(centers, sample[rng.IntN(size)])

	d2 := make([]float64, size)
	for i, p := range sample {
		d2[i] = planar.DistanceSquared(p, centers[0])
	}
	for len(centers) < k {
		var total float64
		for _, d := range d2 {
			total += d
		}

		next := rng.IntN(size)
		if total > 0 {
			r := rng.Float64() * total
			for i, d := range d2 {
				r -= d
				if r < 0 {
					next = i
					break
				}
			}
		}
		c := sample[next]
		centers = append(centers, c)
		for i, p := range sample {
			d2[i] = math.Min(d2[i], planar.DistanceSquared(p, c))
		}
	}
	return centers
}

func nearest(centers []orb.Point, p orb.Point) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for j, c := range centers {
		if d := planar.DistanceSquared(p, c); d < bestD {
			best, bestD = j, d
		}
	}
	return best, bestD
}
