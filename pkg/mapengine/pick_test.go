package mapengine

import (
	"testing"
	"time"

	"ideamap/pkg/geometry"
	"ideamap/pkg/scene"
)

func pickFixture(t *testing.T) (*scene.State, *Viewport) {
	t.Helper()
	st := scene.NewState("viewer")
	created := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	for _, p := range []scene.Point{
		{ID: "a", UserID: "u1", X: 0, Y: 0, Text: "first", CreatedAt: created},
		{ID: "b", UserID: "u2", X: 10, Y: 0, Text: "second", CreatedAt: created},
	} {
		st.Apply(scene.IdeaCreated{Point: p})
	}
	vp := NewViewport(800, 600)
	bounds := geometry.BoundingBox([]geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}})
	vp.Fit(bounds, st.Len())
	return st, vp
}

func TestPickPointWithinRadius(t *testing.T) {
	st, vp := pickFixture(t)
	sa := vp.ToScreen(geometry.Point2D{X: 0, Y: 0})

	if got := PickPoint(st, vp, sa.X+9, sa.Y); got == nil || got.ID != "a" {
		t.Errorf("pick 9px off = %v, want a", got)
	}
	if got := PickPoint(st, vp, sa.X+pickRadiusPx, sa.Y); got == nil || got.ID != "a" {
		t.Errorf("pick exactly on the radius = %v, want a", got)
	}
	if got := PickPoint(st, vp, sa.X+pickRadiusPx+0.5, sa.Y); got != nil {
		t.Errorf("pick beyond the radius = %v, want nil", got)
	}
}

func TestPickPointTieBreaksToFirst(t *testing.T) {
	st := scene.NewState("viewer")
	created := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	st.Apply(scene.IdeaCreated{Point: scene.Point{ID: "early", UserID: "u1", X: 5, Y: 5, CreatedAt: created}})
	st.Apply(scene.IdeaCreated{Point: scene.Point{ID: "late", UserID: "u2", X: 5, Y: 5, CreatedAt: created}})
	vp := NewViewport(800, 600)
	vp.Fit(geometry.Rect{Min: geometry.Point2D{X: 0, Y: 0}, Max: geometry.Point2D{X: 10, Y: 10}}, 2)

	s := vp.ToScreen(geometry.Point2D{X: 5, Y: 5})
	got := PickPoint(st, vp, s.X, s.Y)
	if got == nil || got.ID != "early" {
		t.Errorf("coincident points resolved to %v, want the earlier one", got)
	}
}

func TestPickRegionSquareHull(t *testing.T) {
	st, vp := pickFixture(t)
	hull := []geometry.Point2D{{X: -2, Y: -2}, {X: 12, Y: -2}, {X: 12, Y: 2}, {X: -2, Y: 2}}
	st.Apply(scene.ClustersUpdated{Clusters: []scene.ClusterRegion{
		{ID: 0, Label: "everything", Hull: hull, Count: 2},
	}})

	inside := vp.ToScreen(geometry.Point2D{X: 5, Y: 1})
	if got := PickRegion(st, vp, inside.X, inside.Y); got == nil || got.ID != 0 {
		t.Errorf("point inside hull picked %v, want region 0", got)
	}

	outside := vp.ToScreen(geometry.Point2D{X: 5, Y: 30})
	if got := PickRegion(st, vp, outside.X, outside.Y); got != nil {
		t.Errorf("point outside hull picked region %d", got.ID)
	}
}

func TestPickPointBeatsRegion(t *testing.T) {
	st, vp := pickFixture(t)
	hull := []geometry.Point2D{{X: -2, Y: -2}, {X: 12, Y: -2}, {X: 12, Y: 2}, {X: -2, Y: 2}}
	st.Apply(scene.ClustersUpdated{Clusters: []scene.ClusterRegion{
		{ID: 0, Label: "everything", Hull: hull, Count: 2},
	}})

	// Resolution order is the caller's: point first, then region.
	s := vp.ToScreen(geometry.Point2D{X: 0, Y: 0})
	p := PickPoint(st, vp, s.X, s.Y)
	if p == nil || p.ID != "a" {
		t.Fatalf("expected the point to win, got %v", p)
	}
}

func TestPickRegionSkipsDegenerateHulls(t *testing.T) {
	st, vp := pickFixture(t)
	st.Apply(scene.ClustersUpdated{Clusters: []scene.ClusterRegion{
		{ID: 0, Label: "segment", Hull: []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}}},
	}})

	s := vp.ToScreen(geometry.Point2D{X: 5, Y: 0})
	if got := PickRegion(st, vp, s.X, s.Y); got != nil {
		t.Errorf("degenerate hull should never match, got region %d", got.ID)
	}
}
