package blob

import (
	"math"

	"github.com/manga-tools/pageseg/internal/geometry"
)

// Contour is an ordered boundary-pixel sequence around one component.
type Contour struct {
	Points []geometry.Point
}

// TraceOptions bounds the contour-following loop. The step cap is a
// documented termination contract, not an implementation accident:
// malformed or noisy regions stop at MaxSteps and the caller falls
// back to the axis-aligned bounding box.
type TraceOptions struct {
	MaxSteps int // 0 = 4*w*h+8, enough for any simple boundary
}

// SignedArea computes the polygon area via the shoelace formula.
// Positive for counter-clockwise point order in image coordinates.
func (c Contour) SignedArea() float64 {
	pts := c.Points
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// Area returns the absolute shoelace area.
func (c Contour) Area() float64 { return math.Abs(c.SignedArea()) }

// Centroid returns the mean of the contour points.
func (c Contour) Centroid() geometry.Point {
	if len(c.Points) == 0 {
		return geometry.Point{}
	}
	var cx, cy float64
	for _, p := range c.Points {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(c.Points))
	return geometry.Point{X: cx / n, Y: cy / n}
}

// Trace extracts the boundary of the given labeled component using
// Moore-neighbor tracing restricted to the blob's bounding box.
// A degenerate or non-convergent trace returns an empty contour.
func Trace(m *LabelMap, b Blob, opts TraceOptions) Contour {
	if b.Label <= 0 || b.PixelCount == 0 {
		return Contour{}
	}
	sx, sy := findStartPixel(m, b)
	if sx == -1 {
		return Contour{}
	}

	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 4*m.w*m.h + 8
	}

	pts := make([]geometry.Point, 0, 64)
	addPoint := func(x, y int) {
		p := geometry.Point{X: float64(x), Y: float64(y)}
		if n := len(pts); n >= 2 {
			a, b := pts[n-2], pts[n-1]
			cross := (b.X-a.X)*(p.Y-b.Y) - (b.Y-a.Y)*(p.X-b.X)
			if cross == 0 {
				pts = pts[:n-1] // drop collinear middle point
			}
		}
		pts = append(pts, p)
	}
	addPoint(sx, sy)

	cx, cy := sx, sy
	bx, by := sx-1, sy // backtrack starts left of the start pixel
	startCx, startCy, startBx, startBy := cx, cy, bx, by

	for steps := 0; steps < maxSteps; steps++ {
		nx, ny, nbx, nby, found := nextBoundaryPixel(m, b.Label, cx, cy, bx, by)
		if !found {
			break
		}
		bx, by = nbx, nby
		cx, cy = nx, ny
		if len(pts) == 0 || pts[len(pts)-1].X != float64(cx) || pts[len(pts)-1].Y != float64(cy) {
			addPoint(cx, cy)
		}
		if cx == startCx && cy == startCy && bx == startBx && by == startBy {
			break
		}
	}

	// Drop a duplicated closing point.
	if n := len(pts); n >= 2 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return Contour{Points: pts}
}

// findStartPixel locates the first boundary pixel of the component
// inside its bounding box.
func findStartPixel(m *LabelMap, b Blob) (int, int) {
	x0, y0 := int(b.Box.X), int(b.Box.Y)
	x1, y1 := int(b.Box.MaxX())-1, int(b.Box.MaxY())-1
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if m.At(x, y) != b.Label {
				continue
			}
			if m.At(x+1, y) != b.Label || m.At(x-1, y) != b.Label ||
				m.At(x, y+1) != b.Label || m.At(x, y-1) != b.Label {
				return x, y
			}
		}
	}
	// Fully interior components cannot occur, but fall back to any pixel.
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if m.At(x, y) == b.Label {
				return x, y
			}
		}
	}
	return -1, -1
}

// 8-neighborhood in clockwise order: E, SE, S, SW, W, NW, N, NE.
var (
	mooreDx = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	mooreDy = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// nextBoundaryPixel scans the Moore neighborhood clockwise starting
// just after the backtrack direction.
func nextBoundaryPixel(m *LabelMap, label, cx, cy, bx, by int) (int, int, int, int, bool) {
	start := 0
	dx, dy := bx-cx, by-cy
	for i := range 8 {
		if mooreDx[i] == dx && mooreDy[i] == dy {
			start = (i + 1) % 8
			break
		}
	}
	for k := range 8 {
		i := (start + k) % 8
		tx, ty := cx+mooreDx[i], cy+mooreDy[i]
		if m.At(tx, ty) == label {
			return tx, ty, cx, cy, true
		}
		bx, by = tx, ty
	}
	return 0, 0, bx, by, false
}
