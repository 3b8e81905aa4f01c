package cluster

import (
	"testing"

	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxAt(x, y float64) geometry.Box {
	return geometry.NewBox(x, y, 10, 10)
}

func TestDBSCANClusterAndNoise(t *testing.T) {
	// Four boxes within 20px of each other, one 500px away.
	boxes := []geometry.Box{
		boxAt(0, 0),
		boxAt(15, 0),
		boxAt(0, 15),
		boxAt(15, 15),
		boxAt(500, 500),
	}
	clusters := DBSCAN(boxes, 50, 2)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Members, 4)
	assert.NotContains(t, clusters[0].Members, 4)
}

func TestDBSCANEmptyInput(t *testing.T) {
	assert.Empty(t, DBSCAN(nil, 50, 2))
	assert.Empty(t, DBSCAN([]geometry.Box{}, 50, 2))
}

func TestDBSCANAllNoise(t *testing.T) {
	boxes := []geometry.Box{boxAt(0, 0), boxAt(500, 0), boxAt(0, 500)}
	clusters := DBSCAN(boxes, 10, 2)
	assert.Empty(t, clusters)
}

func TestDBSCANTwoClusters(t *testing.T) {
	boxes := []geometry.Box{
		boxAt(0, 0), boxAt(10, 0),
		boxAt(300, 300), boxAt(310, 300),
	}
	clusters := DBSCAN(boxes, 30, 2)
	require.Len(t, clusters, 2)
	assert.Equal(t, []int{0, 1}, clusters[0].Members)
	assert.Equal(t, []int{2, 3}, clusters[1].Members)
}

func TestClusterBoundingBox(t *testing.T) {
	boxes := []geometry.Box{boxAt(0, 0), boxAt(20, 30)}
	c := Cluster{Members: []int{0, 1}}
	bb := c.BoundingBox(boxes)
	assert.InDelta(t, 30.0, bb.Width, 1e-9)
	assert.InDelta(t, 40.0, bb.Height, 1e-9)
	assert.Len(t, c.Boxes(boxes), 2)
}

func TestAgglomerativeMergesUntilGap(t *testing.T) {
	boxes := []geometry.Box{
		boxAt(0, 0), boxAt(12, 0), boxAt(24, 0), // chain linked by ~12px steps
		boxAt(200, 0),
	}
	clusters := Agglomerative(boxes, 20)
	require.Len(t, clusters, 2)

	sizes := []int{len(clusters[0].Members), len(clusters[1].Members)}
	assert.ElementsMatch(t, []int{3, 1}, sizes)
}

func TestAgglomerativeNoMergeBeyondMaxDistance(t *testing.T) {
	boxes := []geometry.Box{boxAt(0, 0), boxAt(100, 0), boxAt(200, 0)}
	clusters := Agglomerative(boxes, 10)
	assert.Len(t, clusters, 3)
}

func TestAgglomerativeSingleBox(t *testing.T) {
	clusters := Agglomerative([]geometry.Box{boxAt(5, 5)}, 50)
	require.Len(t, clusters, 1)
	assert.Equal(t, []int{0}, clusters[0].Members)
}
