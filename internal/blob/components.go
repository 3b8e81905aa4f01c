// Package blob discovers pixel blobs in binary rasters and refines
// them into contours, convex hulls and corner quadrilaterals.
package blob

import (
	"github.com/manga-tools/pageseg/internal/geometry"
	"github.com/manga-tools/pageseg/internal/raster"
)

// Blob is a maximal 8-connected set of foreground pixels. Immutable
// once produced by Label.
type Blob struct {
	Label      int
	Box        geometry.Box
	PixelCount int
	Density    float64 // PixelCount / bbox area
}

// LabelMap assigns each pixel its component label (0 = background).
type LabelMap struct {
	w, h   int
	labels []int
}

// At returns the label at (x,y); out-of-bounds reads return background.
func (m *LabelMap) At(x, y int) int {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return 0
	}
	return m.labels[y*m.w+x]
}

// Width returns the map width.
func (m *LabelMap) Width() int { return m.w }

// Height returns the map height.
func (m *LabelMap) Height() int { return m.h }

// blobStats accumulates per-component statistics during labeling.
type blobStats struct {
	count                  int
	minX, minY, maxX, maxY int
}

// Label finds all 8-connected foreground components of the grid and
// returns them with bounding boxes, pixel counts and densities, plus
// the per-pixel label map. Blobs are ordered by first-seen scan order,
// so the result is deterministic.
func Label(g *raster.Grid) ([]Blob, *LabelMap) {
	w, h := g.Width(), g.Height()
	m := &LabelMap{w: w, h: h, labels: make([]int, w*h)}
	if g.Empty() {
		return []Blob{}, m
	}

	var blobs []Blob
	label := 0
	for y := range h {
		for x := range w {
			if !g.On(x, y) || m.labels[y*w+x] != 0 {
				continue
			}
			label++
			st := fillComponent(g, m, x, y, label)
			blobs = append(blobs, blobFromStats(label, st))
		}
	}
	return blobs, m
}

// fillComponent flood-fills one 8-connected component from a seed pixel.
func fillComponent(g *raster.Grid, m *LabelMap, startX, startY, label int) blobStats {
	st := blobStats{minX: startX, minY: startY, maxX: startX, maxY: startY}
	queue := [][2]int{{startX, startY}}
	m.labels[startY*m.w+startX] = label

	dirs := [8][2]int{
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}
	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		cx, cy := p[0], p[1]

		st.count++
		if cx < st.minX {
			st.minX = cx
		}
		if cy < st.minY {
			st.minY = cy
		}
		if cx > st.maxX {
			st.maxX = cx
		}
		if cy > st.maxY {
			st.maxY = cy
		}

		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if g.On(nx, ny) && m.At(nx, ny) == 0 {
				m.labels[ny*m.w+nx] = label
				queue = append(queue, [2]int{nx, ny})
			}
		}
	}
	return st
}

func blobFromStats(label int, st blobStats) Blob {
	box := geometry.NewBox(
		float64(st.minX), float64(st.minY),
		float64(st.maxX-st.minX+1), float64(st.maxY-st.minY+1),
	)
	density := 0.0
	if a := box.Area(); a > 0 {
		density = float64(st.count) / a
	}
	return Blob{Label: label, Box: box, PixelCount: st.count, Density: density}
}
