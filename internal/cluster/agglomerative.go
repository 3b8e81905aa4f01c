package cluster

import (
	"math"
	"sort"

	"github.com/manga-tools/pageseg/internal/geometry"
)

// Agglomerative performs single-linkage agglomerative clustering over
// box centers. Starting from one cluster per box, the two clusters with
// the minimum inter-cluster point distance are merged repeatedly until
// that minimum exceeds maxDistance. The loop terminates deterministically
// since the cluster count strictly decreases each iteration.
func Agglomerative(boxes []geometry.Box, maxDistance float64) []Cluster {
	n := len(boxes)
	if n == 0 {
		return []Cluster{}
	}

	dist := distanceMatrix(boxes)
	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	for len(clusters) > 1 {
		bestI, bestJ := -1, -1
		bestDist := math.Inf(1)
		for i := range clusters {
			for j := i + 1; j < len(clusters); j++ {
				if d := linkageDistance(dist, n, clusters[i], clusters[j]); d < bestDist {
					bestDist = d
					bestI, bestJ = i, j
				}
			}
		}
		if bestDist > maxDistance {
			break
		}
		clusters[bestI] = append(clusters[bestI], clusters[bestJ]...)
		clusters = append(clusters[:bestJ], clusters[bestJ+1:]...)
	}

	out := make([]Cluster, len(clusters))
	for i, members := range clusters {
		sort.Ints(members)
		out[i] = Cluster{Members: members}
	}
	return out
}

// linkageDistance is the single-linkage (minimum) distance between two
// clusters' member points.
func linkageDistance(dist []float64, n int, a, b []int) float64 {
	best := math.Inf(1)
	for _, i := range a {
		for _, j := range b {
			if d := dist[i*n+j]; d < best {
				best = d
			}
		}
	}
	return best
}
