package geometry

import (
	"math"
	"sort"
)

// PointInPolygon reports whether p lies inside the polygon described
// by the ordered vertex list, using the ray casting rule. Polygons
// with fewer than three vertices contain nothing. Vertices may wind
// in either direction; the polygon is treated as closed (an implicit
// edge joins the last vertex back to the first).
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi := polygon[i]
		pj := polygon[j]
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
		j = i
	}
	return inside
}

// cross returns the z component of (b-a) x (c-a). Positive means the
// turn a->b->c is counter-clockwise.
func cross(a, b, c Point2D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// ConvexHull computes the convex hull of a set of points using Graham
// scan and returns the hull vertices in counter-clockwise order.
// Collinear interior points are dropped. Inputs with fewer than three
// points are returned unchanged.
func ConvexHull(points []Point2D) []Point2D {
	if len(points) < 3 {
		out := make([]Point2D, len(points))
		copy(out, points)
		return out
	}

	pts := make([]Point2D, len(points))
	copy(pts, points)

	// Pivot on the lowest point, leftmost on ties.
	lowest := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Y < pts[lowest].Y ||
			(pts[i].Y == pts[lowest].Y && pts[i].X < pts[lowest].X) {
			lowest = i
		}
	}
	pts[0], pts[lowest] = pts[lowest], pts[0]
	pivot := pts[0]

	rest := pts[1:]
	sort.Slice(rest, func(i, j int) bool {
		c := cross(pivot, rest[i], rest[j])
		if c != 0 {
			return c > 0
		}
		return pivot.DistanceSquared(rest[i]) < pivot.DistanceSquared(rest[j])
	})

	hull := make([]Point2D, 0, len(pts))
	hull = append(hull, pivot)
	for _, p := range rest {
		if p == hull[len(hull)-1] {
			continue
		}
		for len(hull) > 1 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	if len(hull) < 3 {
		// All input points collinear.
		return hull
	}
	return hull
}

// PolygonArea returns the unsigned area enclosed by the ordered vertex
// list, computed with the shoelace formula.
func PolygonArea(polygon []Point2D) float64 {
	if len(polygon) < 3 {
		return 0
	}
	sum := 0.0
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		sum += polygon[j].X*polygon[i].Y - polygon[i].X*polygon[j].Y
		j = i
	}
	return math.Abs(sum) / 2
}
