package kmeans

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blobs(seed uint64, centers []orb.Point, perBlob int) []orb.Point {
	rng := rand.New(rand.NewPCG(seed, 1))
	var pts []orb.Point
	for _, c := range centers {
		for i := 0; i < perBlob; i++ {
			pts = append(pts, orb.Point{c[0] + 0.01*rng.NormFloat64(), c[1] + 0.01*rng.NormFloat64()})
		}
	}
	return pts
}

func TestPartitionSeparatedBlobs(t *testing.T) {
	centers := []orb.Point{{-0.4, -0.4}, {0.4, -0.4}, {0, 0.4}}
	pts := blobs(7, centers, 200)

	labels, centroids, err := MiniBatch{BatchSize: 64, InitSize: 60}.Partition(pts, 3, 42)
	require.NoError(t, err)
	require.Len(t, labels, len(pts))
	require.Len(t, centroids, 3)

	// Every blob maps to a single cluster and the blobs use distinct clusters.
	seen := map[int]bool{}
	for b := range centers {
		l := labels[b*200]
		for i := b * 200; i < (b+1)*200; i++ {
			require.Equal(t, l, labels[i], "point %d", i)
		}
		assert.False(t, seen[l])
		seen[l] = true
		assert.InDelta(t, centers[b][0], centroids[l][0], 0.01)
		assert.InDelta(t, centers[b][1], centroids[l][1], 0.01)
	}
}

func TestPartitionDeterministic(t *testing.T) {
	pts := blobs(3, []orb.Point{{0, 0}, {0.3, 0.3}, {-0.2, 0.4}, {0.1, -0.3}}, 250)

	l1, c1, err := MiniBatch{}.Partition(pts, 25, 10101)
	require.NoError(t, err)
	l2, c2, err := MiniBatch{}.Partition(pts, 25, 10101)
	require.NoError(t, err)

	if diff := cmp.Diff(l1, l2); diff != "" {
		t.Errorf("labels differ between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(c1, c2); diff != "" {
		t.Errorf("centroids differ between runs (-first +second):\n%s", diff)
	}

	_, c3, err := MiniBatch{}.Partition(pts, 25, 10102)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c3, "a different seed explores a different start")
}

func TestPartitionCentroidIsMean(t *testing.T) {
	pts := blobs(11, []orb.Point{{0, 0}, {0.5, 0.5}}, 50)
	labels, centroids, err := MiniBatch{}.Partition(pts, 6, 1)
	require.NoError(t, err)

	sums := make([]orb.Point, len(centroids))
	sizes := make([]int, len(centroids))
	for i, l := range labels {
		sums[l][0] += pts[i][0]
		sums[l][1] += pts[i][1]
		sizes[l]++
	}
	for j := range centroids {
		if sizes[j] == 0 {
			continue
		}
		assert.InDelta(t, sums[j][0]/float64(sizes[j]), centroids[j][0], 1e-12)
		assert.InDelta(t, sums[j][1]/float64(sizes[j]), centroids[j][1], 1e-12)
	}
}

func TestPartitionInvalidK(t *testing.T) {
	pts := []orb.Point{{0, 0}, {1, 1}}
	for _, k := range []int{0, -1, 3} {
		_, _, err := MiniBatch{}.Partition(pts, k, 1)
		assert.ErrorIs(t, err, ErrInvalidK, "k=%d", k)
	}

	labels, centroids, err := MiniBatch{}.Partition(pts, 2, 1)
	require.NoError(t, err)
	assert.NotEqual(t, labels[0], labels[1])
	assert.Len(t, centroids, 2)
}
