package blob

import "github.com/manga-tools/pageseg/internal/geometry"

// CornerOptions controls corner refinement.
type CornerOptions struct {
	SearchRadius float64 // local perturbation radius in pixels
}

// DefaultCornerOptions returns the refinement defaults.
func DefaultCornerOptions() CornerOptions {
	return CornerOptions{SearchRadius: 3}
}

// Corners fits four corner points to a hull: one per quadrant around
// the centroid (the farthest hull point in each), then each corner is
// perturbed within SearchRadius to maximize the quadrilateral's
// shoelace area. Returns ok=false when the hull has fewer than 3
// points; the caller falls back to the bounding box corners.
func Corners(hull []geometry.Point, opts CornerOptions) ([4]geometry.Point, bool) {
	var corners [4]geometry.Point
	if len(hull) < 3 {
		return corners, false
	}

	centroid := meanPoint(hull)
	found := [4]bool{}
	for _, p := range hull {
		q := quadrantOf(p, centroid)
		if !found[q] || distSq(centroid, p) > distSq(centroid, corners[q]) {
			corners[q] = p
			found[q] = true
		}
	}
	// An empty quadrant takes the corresponding bounding-box corner so
	// the quadrilateral always has four vertices.
	bb := geometry.BoundingBoxOf(hull)
	bbCorners := [4]geometry.Point{
		{X: bb.X, Y: bb.Y},
		{X: bb.MaxX(), Y: bb.Y},
		{X: bb.MaxX(), Y: bb.MaxY()},
		{X: bb.X, Y: bb.MaxY()},
	}
	for q := range 4 {
		if !found[q] {
			corners[q] = bbCorners[q]
		}
	}

	refineCorners(&corners, opts.SearchRadius)
	return corners, true
}

// BoxCorners returns the four corners of a bounding box in
// top-left, top-right, bottom-right, bottom-left order, the fallback
// shape for degenerate contours.
func BoxCorners(b geometry.Box) [4]geometry.Point {
	return [4]geometry.Point{
		{X: b.X, Y: b.Y},
		{X: b.MaxX(), Y: b.Y},
		{X: b.MaxX(), Y: b.MaxY()},
		{X: b.X, Y: b.MaxY()},
	}
}

// quadrantOf maps a point to 0..3 (TL, TR, BR, BL) around a center.
func quadrantOf(p, c geometry.Point) int {
	switch {
	case p.X < c.X && p.Y < c.Y:
		return 0
	case p.X >= c.X && p.Y < c.Y:
		return 1
	case p.X >= c.X && p.Y >= c.Y:
		return 2
	default:
		return 3
	}
}

// refineCorners performs coordinate descent: each corner in turn is
// moved over integer offsets within radius, keeping any move that
// grows the enclosed quadrilateral area.
func refineCorners(corners *[4]geometry.Point, radius float64) {
	if radius <= 0 {
		return
	}
	r := int(radius)
	for pass := 0; pass < 2; pass++ {
		for i := range 4 {
			best := corners[i]
			bestArea := quadArea(*corners)
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					cand := geometry.Point{X: best.X + float64(dx), Y: best.Y + float64(dy)}
					trial := *corners
					trial[i] = cand
					if a := quadArea(trial); a > bestArea {
						bestArea = a
						corners[i] = cand
					}
				}
			}
		}
	}
}

func quadArea(c [4]geometry.Point) float64 {
	return PolygonArea(c[:])
}

func meanPoint(pts []geometry.Point) geometry.Point {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(pts))
	return geometry.Point{X: cx / n, Y: cy / n}
}
