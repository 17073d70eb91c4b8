package mapengine

import (
	"math"

	"ideamap/pkg/geometry"
	"ideamap/pkg/scene"
)

const (
	// pickRadiusPx is how close the cursor must get to a point's
	// screen position to hit it.
	pickRadiusPx = 10.0
	// dragThresholdPx separates a click from a pan gesture.
	dragThresholdPx = 5.0
)

// PickPoint returns the point nearest the cursor within the pick
// radius, or nil. Distance ties resolve to the earlier point in
// creation order, which is the iteration order of the scene.
func PickPoint(st *scene.State, vp *Viewport, cx, cy float64) *scene.Point {
	cursor := geometry.Point2D{X: cx, Y: cy}
	var best *scene.Point
	bestD := math.Inf(1)
	for _, p := range st.Points() {
		d := vp.ToScreen(p.Position()).DistanceSquared(cursor)
		if d < bestD {
			best = p
			bestD = d
		}
	}
	if best == nil || bestD > pickRadiusPx*pickRadiusPx {
		return nil
	}
	return best
}

// PickRegion returns the first cluster whose projected hull contains
// the cursor, or nil. Regions iterate in ascending id order, so
// overlapping hulls resolve deterministically. Points always win over
// regions; callers try PickPoint first.
func PickRegion(st *scene.State, vp *Viewport, cx, cy float64) *scene.ClusterRegion {
	cursor := geometry.Point2D{X: cx, Y: cy}
	regions := st.Regions()
	for i := range regions {
		r := &regions[i]
		if !r.Drawable() {
			continue
		}
		if geometry.PointInPolygon(cursor, projectHull(vp, r.Hull)) {
			return r
		}
	}
	return nil
}

// projectHull maps a data-space hull onto the surface.
func projectHull(vp *Viewport, hull []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(hull))
	for i, p := range hull {
		out[i] = vp.ToScreen(p)
	}
	return out
}
