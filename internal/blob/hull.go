package blob

import (
	"math"
	"sort"

	"github.com/manga-tools/pageseg/internal/geometry"
)

// ConvexHull computes the convex hull of the points using a Graham
// scan: points are sorted by polar angle around the lowest point and
// swept with a right-turn elimination stack. The hull is returned in
// counter-clockwise order (image coordinates, y down) without the
// closing point. Fewer than 3 distinct points return what remains;
// callers fall back to the bounding box in that case.
func ConvexHull(pts []geometry.Point) []geometry.Point {
	pts = dedupPoints(pts)
	if len(pts) < 3 {
		return pts
	}

	// Pivot: lowest point, leftmost on ties.
	pivot := 0
	for i, p := range pts {
		if p.Y > pts[pivot].Y || (p.Y == pts[pivot].Y && p.X < pts[pivot].X) {
			pivot = i
		}
	}
	pts[0], pts[pivot] = pts[pivot], pts[0]
	origin := pts[0]

	rest := pts[1:]
	sort.Slice(rest, func(i, j int) bool {
		c := crossProduct(origin, rest[i], rest[j])
		if c != 0 {
			return c > 0
		}
		// Collinear with the pivot: nearer point first.
		return distSq(origin, rest[i]) < distSq(origin, rest[j])
	})

	hull := make([]geometry.Point, 0, len(pts))
	hull = append(hull, origin)
	for _, p := range rest {
		for len(hull) >= 2 && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	if len(hull) < 3 {
		return hull
	}
	return hull
}

// crossProduct returns the z component of (a-o) x (b-o) with the sign
// flipped for image coordinates, so positive means a left turn on
// screen.
func crossProduct(o, a, b geometry.Point) float64 {
	return (a.Y-o.Y)*(b.X-o.X) - (a.X-o.X)*(b.Y-o.Y)
}

func distSq(a, b geometry.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

func dedupPoints(pts []geometry.Point) []geometry.Point {
	if len(pts) == 0 {
		return []geometry.Point{}
	}
	seen := make(map[geometry.Point]struct{}, len(pts))
	out := make([]geometry.Point, 0, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// PolygonArea computes the absolute shoelace area of a point sequence.
func PolygonArea(pts []geometry.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum / 2)
}
