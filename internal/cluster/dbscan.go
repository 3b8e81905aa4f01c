// Package cluster groups boxes into spatial clusters by center distance.
package cluster

import (
	"sort"

	"github.com/manga-tools/pageseg/internal/geometry"
)

// Cluster is a grouping result over the input boxes. Members holds
// indices into the original slice; clusters never own their boxes.
type Cluster struct {
	Members []int
}

// Boxes resolves a cluster's member indices against the input slice.
func (c Cluster) Boxes(boxes []geometry.Box) []geometry.Box {
	out := make([]geometry.Box, len(c.Members))
	for i, idx := range c.Members {
		out[i] = boxes[idx]
	}
	return out
}

// BoundingBox returns the union bbox of the cluster's members.
func (c Cluster) BoundingBox(boxes []geometry.Box) geometry.Box {
	var bb geometry.Box
	for _, idx := range c.Members {
		bb = geometry.EnclosingBox(bb, boxes[idx])
	}
	return bb
}

const (
	noise      = -1
	unassigned = 0
)

// DBSCAN clusters boxes by the Euclidean distance between their
// centers. Points with fewer than minPts neighbors within eps are left
// as noise and excluded from the output. The full pairwise distance
// matrix is built once up front.
func DBSCAN(boxes []geometry.Box, eps float64, minPts int) []Cluster {
	n := len(boxes)
	if n == 0 {
		return []Cluster{}
	}
	if minPts < 1 {
		minPts = 1
	}

	dist := distanceMatrix(boxes)
	labels := make([]int, n) // 0 unassigned, -1 noise, >0 cluster id
	clusterID := 0

	for i := range n {
		if labels[i] != unassigned {
			continue
		}
		neighbors := regionQuery(dist, n, i, eps)
		if len(neighbors) < minPts {
			labels[i] = noise
			continue
		}
		clusterID++
		labels[i] = clusterID
		expandCluster(dist, labels, n, neighbors, clusterID, eps, minPts)
	}

	return collectClusters(labels, clusterID)
}

// expandCluster grows a cluster by repeated region queries over a seed list.
func expandCluster(dist []float64, labels []int, n int, seeds []int, clusterID int, eps float64, minPts int) {
	for k := 0; k < len(seeds); k++ {
		j := seeds[k]
		if labels[j] == noise {
			labels[j] = clusterID // border point reclaimed from noise
		}
		if labels[j] != unassigned {
			continue
		}
		labels[j] = clusterID
		neighbors := regionQuery(dist, n, j, eps)
		if len(neighbors) >= minPts {
			seeds = append(seeds, neighbors...)
		}
	}
}

// regionQuery returns all point indices within eps of point i, i included.
func regionQuery(dist []float64, n, i int, eps float64) []int {
	out := make([]int, 0, 8)
	for j := range n {
		if dist[i*n+j] <= eps {
			out = append(out, j)
		}
	}
	return out
}

// distanceMatrix precomputes pairwise center distances.
func distanceMatrix(boxes []geometry.Box) []float64 {
	n := len(boxes)
	dist := make([]float64, n*n)
	for i := range n {
		for j := i + 1; j < n; j++ {
			d := geometry.CenterDistance(boxes[i], boxes[j])
			dist[i*n+j] = d
			dist[j*n+i] = d
		}
	}
	return dist
}

func collectClusters(labels []int, clusterID int) []Cluster {
	if clusterID == 0 {
		return []Cluster{}
	}
	clusters := make([]Cluster, clusterID)
	for i, l := range labels {
		if l > 0 {
			clusters[l-1].Members = append(clusters[l-1].Members, i)
		}
	}
	out := clusters[:0]
	for _, c := range clusters {
		if len(c.Members) > 0 {
			sort.Ints(c.Members)
			out = append(out, c)
		}
	}
	return out
}
