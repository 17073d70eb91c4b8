package geometry

import (
	"math"
	"testing"
)

func TestBoundingBox(t *testing.T) {
	tests := []struct {
		name   string
		points []Point2D
		want   Rect
	}{
		{
			name:   "empty",
			points: nil,
			want:   Rect{},
		},
		{
			name:   "single point",
			points: []Point2D{{X: 3, Y: -2}},
			want:   Rect{Min: Point2D{X: 3, Y: -2}, Max: Point2D{X: 3, Y: -2}},
		},
		{
			name:   "spread",
			points: []Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: -4}},
			want:   Rect{Min: Point2D{X: 0, Y: -4}, Max: Point2D{X: 10, Y: 0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BoundingBox(tt.points)
			if got != tt.want {
				t.Errorf("BoundingBox() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRectCenterAndContains(t *testing.T) {
	r := Rect{Min: Point2D{X: 0, Y: 0}, Max: Point2D{X: 10, Y: 4}}
	if c := r.Center(); c.X != 5 || c.Y != 2 {
		t.Errorf("Center() = %+v, want (5,2)", c)
	}
	if !r.Contains(Point2D{X: 10, Y: 4}) {
		t.Error("Contains() should include the border")
	}
	if r.Contains(Point2D{X: 10.01, Y: 4}) {
		t.Error("Contains() should exclude points past the border")
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{Min: Point2D{X: 0, Y: 0}, Max: Point2D{X: 1, Y: 1}}
	b := Rect{Min: Point2D{X: -2, Y: 0.5}, Max: Point2D{X: 0.5, Y: 3}}
	got := a.Union(b)
	want := Rect{Min: Point2D{X: -2, Y: 0}, Max: Point2D{X: 1, Y: 3}}
	if got != want {
		t.Errorf("Union() = %+v, want %+v", got, want)
	}
}

func TestCentroid(t *testing.T) {
	points := []Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	got := Centroid(points)
	if got.X != 5 || got.Y != 5 {
		t.Errorf("Centroid() = %+v, want (5,5)", got)
	}
	if z := Centroid(nil); z != (Point2D{}) {
		t.Errorf("Centroid(nil) = %+v, want zero point", z)
	}
}

func TestDistance(t *testing.T) {
	a := Point2D{X: 0, Y: 0}
	b := Point2D{X: 3, Y: 4}
	if d := a.Distance(b); math.Abs(d-5) > 1e-12 {
		t.Errorf("Distance() = %v, want 5", d)
	}
	if d2 := a.DistanceSquared(b); d2 != 25 {
		t.Errorf("DistanceSquared() = %v, want 25", d2)
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	triangle := []Point2D{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 2, Y: 4}}

	tests := []struct {
		name    string
		polygon []Point2D
		p       Point2D
		want    bool
	}{
		{"inside square", square, Point2D{X: 5, Y: 5}, true},
		{"outside square", square, Point2D{X: 15, Y: 5}, false},
		{"outside above", square, Point2D{X: 5, Y: 11}, false},
		{"inside triangle", triangle, Point2D{X: 2, Y: 1}, true},
		{"outside triangle", triangle, Point2D{X: 3.9, Y: 3.9}, false},
		{"degenerate two vertices", square[:2], Point2D{X: 5, Y: 0}, false},
		{"empty polygon", nil, Point2D{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.p, tt.polygon); got != tt.want {
				t.Errorf("PointInPolygon(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPointInPolygonReversedWinding(t *testing.T) {
	square := []Point2D{{X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	if !PointInPolygon(Point2D{X: 5, Y: 5}, square) {
		t.Error("clockwise winding should contain the same interior")
	}
}

func TestConvexHull(t *testing.T) {
	square := []Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	t.Run("interior points dropped", func(t *testing.T) {
		input := append([]Point2D{{X: 5, Y: 5}, {X: 2, Y: 7}}, square...)
		hull := ConvexHull(input)
		if len(hull) != 4 {
			t.Fatalf("ConvexHull() kept %d vertices, want 4: %+v", len(hull), hull)
		}
		for _, corner := range square {
			found := false
			for _, h := range hull {
				if h == corner {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("hull is missing corner %+v", corner)
			}
		}
	})

	t.Run("convex input is preserved", func(t *testing.T) {
		hull := ConvexHull(square)
		if len(hull) != 4 {
			t.Fatalf("ConvexHull() = %d vertices, want 4", len(hull))
		}
		if !PointInPolygon(Point2D{X: 5, Y: 5}, hull) {
			t.Error("hull lost the interior of its input")
		}
	})

	t.Run("counter-clockwise winding", func(t *testing.T) {
		hull := ConvexHull(square)
		signed := 0.0
		j := len(hull) - 1
		for i := 0; i < len(hull); i++ {
			signed += hull[j].X*hull[i].Y - hull[i].X*hull[j].Y
			j = i
		}
		if signed <= 0 {
			t.Errorf("hull winds clockwise, signed area %v", signed)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		input := []Point2D{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 0}, {X: 2, Y: 3}}
		hull := ConvexHull(input)
		if len(hull) != 3 {
			t.Errorf("ConvexHull() = %d vertices, want 3: %+v", len(hull), hull)
		}
	})

	t.Run("collinear input degenerates", func(t *testing.T) {
		line := []Point2D{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}}
		hull := ConvexHull(line)
		if len(hull) >= 3 {
			t.Errorf("collinear points produced a %d-vertex hull", len(hull))
		}
	})

	t.Run("fewer than three passes through", func(t *testing.T) {
		two := []Point2D{{X: 1, Y: 1}, {X: 2, Y: 2}}
		hull := ConvexHull(two)
		if len(hull) != 2 {
			t.Errorf("ConvexHull() = %d vertices, want 2", len(hull))
		}
	})
}

func TestPolygonArea(t *testing.T) {
	square := []Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	if a := PolygonArea(square); math.Abs(a-100) > 1e-12 {
		t.Errorf("PolygonArea(square) = %v, want 100", a)
	}
	reversed := []Point2D{{X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	if a := PolygonArea(reversed); math.Abs(a-100) > 1e-12 {
		t.Errorf("PolygonArea(reversed) = %v, want 100", a)
	}
	if a := PolygonArea(square[:2]); a != 0 {
		t.Errorf("PolygonArea(segment) = %v, want 0", a)
	}
}

func BenchmarkPointInPolygon(b *testing.B) {
	hull := make([]Point2D, 0, 16)
	for i := 0; i < 16; i++ {
		angle := float64(i) / 16 * 2 * math.Pi
		hull = append(hull, Point2D{X: math.Cos(angle) * 50, Y: math.Sin(angle) * 50})
	}
	p := Point2D{X: 12, Y: -7}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		PointInPolygon(p, hull)
	}
}
