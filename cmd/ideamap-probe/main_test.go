package main

import (
	"testing"

	"ideamap/pkg/geometry"
	"ideamap/pkg/scene"
	"ideamap/pkg/sessionapi"
)

func TestToGeoJSONShape(t *testing.T) {
	cid := 2
	snap := &sessionapi.Snapshot{
		Points: []scene.Point{
			{
				ID: "p1", UserID: "ada", UserName: "Ada",
				X: 1.5, Y: -2, Novelty: 0.8,
				Text: "raw", FormattedText: "Polished",
				VoteCount: 3, ClusterID: &cid,
			},
			{ID: "p2", UserID: "grace", Text: "plain"},
		},
		Clusters: []scene.ClusterRegion{
			{
				ID: 2, Label: "transport", Count: 2, AvgNovelty: 0.4,
				Hull: []geometry.Point2D{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}},
			},
			// Two vertices cannot form a ring; the hull is skipped.
			{ID: 3, Label: "tiny", Hull: []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		},
	}

	fc := toGeoJSON(snap)
	if len(fc.Features) != 3 {
		t.Fatalf("features = %d, want 2 points + 1 polygon", len(fc.Features))
	}

	p := fc.Features[0]
	if p.Geometry == nil || !p.Geometry.IsPoint() {
		t.Fatalf("first feature should be a point, got %+v", p.Geometry)
	}
	if got := p.Geometry.Point; got[0] != 1.5 || got[1] != -2 {
		t.Fatalf("point coords = %v", got)
	}
	if p.Properties["text"] != "Polished" {
		t.Fatalf("text property = %v, want the formatted text", p.Properties["text"])
	}
	if p.Properties["cluster_id"] != 2 {
		t.Fatalf("cluster_id property = %v, want 2", p.Properties["cluster_id"])
	}
	if _, ok := fc.Features[1].Properties["cluster_id"]; ok {
		t.Fatal("unclustered point must not carry a cluster_id property")
	}

	poly := fc.Features[2]
	if poly.Geometry == nil || !poly.Geometry.IsPolygon() {
		t.Fatal("last feature should be a polygon")
	}
	ring := poly.Geometry.Polygon[0]
	if len(ring) != 4 {
		t.Fatalf("ring length = %d, want the 3 hull vertices plus closure", len(ring))
	}
	if ring[0][0] != ring[3][0] || ring[0][1] != ring[3][1] {
		t.Fatal("polygon ring must close on its first vertex")
	}
	if poly.Properties["label"] != "transport" {
		t.Fatalf("label property = %v", poly.Properties["label"])
	}
}
