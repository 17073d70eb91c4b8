package mapengine

import (
	"ideamap/pkg/geometry"
)

// Viewport zoom bounds and wheel steps. One wheel notch multiplies the
// zoom by a fixed factor.
const (
	MinZoom = 0.1
	MaxZoom = 5.0

	zoomStepIn  = 1.1
	zoomStepOut = 0.9

	// fitPadding keeps points off the very edge of the surface when
	// the map is fit to its bounds.
	fitPadding = 60.0
)

// Viewport maps data space onto the drawing surface. The base scale
// fits the current point bounds into the surface with padding; the
// user's zoom multiplies it and the pan offset shifts the result in
// screen space. Fit runs every frame so the transform follows the
// layout as coordinates stream in.
type Viewport struct {
	Width  float64
	Height float64
	Zoom   float64
	PanX   float64
	PanY   float64

	scale  float64
	center geometry.Point2D

	dragging bool
	lastX    float64
	lastY    float64
}

func NewViewport(width, height float64) *Viewport {
	v := &Viewport{Width: width, Height: height, Zoom: 1}
	v.Fit(geometry.Rect{}, 0)
	return v
}

// Resize updates the surface size. The next Fit recomputes the scale.
func (v *Viewport) Resize(width, height float64) {
	v.Width = width
	v.Height = height
}

// Fit recomputes the derived transform from the bounding box of the
// live points. Degenerate extents (no points, a single point, all
// points collinear on an axis) fall back to a one-unit extent so the
// transform never divides by zero.
func (v *Viewport) Fit(bounds geometry.Rect, count int) {
	w := bounds.Width()
	h := bounds.Height()
	if count == 0 {
		bounds = geometry.Rect{}
		w, h = 0, 0
	}
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	availW := v.Width - 2*fitPadding
	availH := v.Height - 2*fitPadding
	if availW < 1 {
		availW = 1
	}
	if availH < 1 {
		availH = 1
	}
	base := availW / w
	if other := availH / h; other < base {
		base = other
	}
	v.scale = base * v.Zoom
	v.center = bounds.Center()
}

// ToScreen projects a data-space point onto the surface.
func (v *Viewport) ToScreen(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: v.Width/2 + (p.X-v.center.X)*v.scale + v.PanX,
		Y: v.Height/2 + (p.Y-v.center.Y)*v.scale + v.PanY,
	}
}

// ToData inverts ToScreen. With a zero scale (never produced by Fit)
// it returns the data center.
func (v *Viewport) ToData(s geometry.Point2D) geometry.Point2D {
	if v.scale == 0 {
		return v.center
	}
	return geometry.Point2D{
		X: (s.X-v.Width/2-v.PanX)/v.scale + v.center.X,
		Y: (s.Y-v.Height/2-v.PanY)/v.scale + v.center.Y,
	}
}

// Scale returns the current data-to-screen scale factor.
func (v *Viewport) Scale() float64 {
	return v.scale
}

// ApplyWheel applies one wheel notch: up zooms in, down zooms out.
func (v *Viewport) ApplyWheel(dy float64) {
	switch {
	case dy > 0:
		v.SetZoom(v.Zoom * zoomStepIn)
	case dy < 0:
		v.SetZoom(v.Zoom * zoomStepOut)
	}
}

// SetZoom clamps zoom into [MinZoom, MaxZoom].
func (v *Viewport) SetZoom(z float64) {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	v.Zoom = z
}

// StartDrag begins a pan gesture at a screen position.
func (v *Viewport) StartDrag(x, y float64) {
	v.dragging = true
	v.lastX = x
	v.lastY = y
}

// DragTo pans by the cursor delta since the last drag position.
func (v *Viewport) DragTo(x, y float64) {
	if !v.dragging {
		return
	}
	v.PanX += x - v.lastX
	v.PanY += y - v.lastY
	v.lastX = x
	v.lastY = y
}

// EndDrag finishes the pan gesture.
func (v *Viewport) EndDrag() {
	v.dragging = false
}

// Dragging reports whether a pan gesture is in progress.
func (v *Viewport) Dragging() bool {
	return v.dragging
}

// ResetView drops zoom and pan back to the fitted default.
func (v *Viewport) ResetView() {
	v.Zoom = 1
	v.PanX = 0
	v.PanY = 0
}
