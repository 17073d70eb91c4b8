package mapengine

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"ideamap/pkg/geometry"
	"ideamap/pkg/scene"
)

const (
	basePointRadius = 6.0
	maxPointRadius  = 14.0

	// Hulls with less projected area than this skip their label chip;
	// the text would cover the region entirely.
	minLabelArea = 1200.0

	dimmedAlpha = 0.22
)

// renderScene draws the full frame back to front: hulls, connection
// lines, points with their glows, the cursor tooltip, then the HUD.
func (e *Engine) renderScene(dst *ebiten.Image) {
	dst.Fill(colorBackground)
	e.drawRegions(dst)
	e.drawConnections(dst)
	e.drawPoints(dst)
	e.drawTooltip(dst)
	e.drawHUD(dst)
}

func (e *Engine) drawRegions(dst *ebiten.Image) {
	hovered := e.scene.HoveredRegion()
	for _, r := range e.scene.Regions() {
		if !r.Drawable() {
			continue
		}
		hull := projectHull(e.view, r.Hull)
		col := clusterColor(r.ID)

		e.fillConvex(dst, hull, col, 0.14)

		emphasized := (hovered != nil && hovered.ID == r.ID) ||
			(e.scene.Filter.ClusterID != nil && *e.scene.Filter.ClusterID == r.ID)
		edge := fade(col, 0.45)
		width := float32(1.5)
		if emphasized {
			edge = fade(col, 0.9)
			width = 2.5
		}
		j := len(hull) - 1
		for i := 0; i < len(hull); i++ {
			vector.StrokeLine(dst,
				float32(hull[j].X), float32(hull[j].Y),
				float32(hull[i].X), float32(hull[i].Y),
				width, edge, true)
			j = i
		}

		if geometry.PolygonArea(hull) >= minLabelArea {
			e.drawRegionLabel(dst, r, hull)
		}
	}
}

func (e *Engine) drawRegionLabel(dst *ebiten.Image, r scene.ClusterRegion, hull []geometry.Point2D) {
	label := r.Label
	if label == "" {
		label = fmt.Sprintf("cluster %d", r.ID)
	}
	if r.Count > 0 {
		label = fmt.Sprintf("%s (%d)", label, r.Count)
	}
	face := e.face(12)
	w, h := text.Measure(label, face, 0)
	c := geometry.Centroid(hull)
	x := float32(c.X - w/2 - 6)
	y := float32(c.Y - h/2 - 3)
	boxW := float32(w) + 12
	boxH := float32(h) + 6

	vector.DrawFilledRect(dst, x, y, boxW, boxH, color.RGBA{R: 0, G: 0, B: 0, A: 140}, false)
	vector.StrokeRect(dst, x, y, boxW, boxH, 1, fade(clusterColor(r.ID), 0.8), false)
	e.drawText(dst, float64(x)+6, float64(y)+3, label, face, colorText)
}

// drawConnections draws the chain-of-thought lines for the hovered
// point: the prior idea it grew from, and the ideas that grew from it.
func (e *Engine) drawConnections(dst *ebiten.Image) {
	h := e.scene.Hovered()
	if h == nil {
		return
	}
	from := e.view.ToScreen(h.Position())
	if prior := e.scene.PointByID(h.ClosestPriorID); prior != nil {
		to := e.view.ToScreen(prior.Position())
		vector.StrokeLine(dst, float32(from.X), float32(from.Y), float32(to.X), float32(to.Y),
			1.5, colorConnect, true)
	}
	for _, p := range e.scene.Points() {
		if p.ID == h.ID || p.ClosestPriorID != h.ID {
			continue
		}
		to := e.view.ToScreen(p.Position())
		vector.StrokeLine(dst, float32(from.X), float32(from.Y), float32(to.X), float32(to.Y),
			1.5, colorConnect, true)
	}
}

func (e *Engine) drawPoints(dst *ebiten.Image) {
	hl := e.scene.Highlights
	hovered := e.scene.Hovered()
	selected := e.scene.Selected()
	filterOn := e.scene.Filter.Active()
	pulse := e.phaser.Pulse()

	const margin = maxPointRadius * 4
	for _, p := range e.scene.Points() {
		s := e.view.ToScreen(p.Position())
		if s.X < -margin || s.X > e.view.Width+margin ||
			s.Y < -margin || s.Y > e.view.Height+margin {
			continue
		}

		alpha := 1.0
		if e.dimmed(p, hovered, filterOn) {
			alpha = dimmedAlpha
		}
		r := pointRadius(p)

		if glow, ok := e.highlightColor(p.ID); ok {
			e.drawGlow(dst, s, r*(2.4+1.6*pulse), glow, (0.35+0.45*pulse)*alpha)
		}

		vector.DrawFilledCircle(dst, float32(s.X), float32(s.Y), float32(r),
			fade(userColor(p.UserID), alpha), true)

		switch {
		case selected != nil && selected.ID == p.ID:
			vector.StrokeCircle(dst, float32(s.X), float32(s.Y), float32(r)+2.5, 2.5,
				fade(colorSelect, alpha), true)
		case hovered != nil && hovered.ID == p.ID:
			vector.StrokeCircle(dst, float32(s.X), float32(s.Y), float32(r)+2, 1.5,
				fade(colorSelect, 0.7*alpha), true)
		}

		if hl.IsMine(p.ID) {
			e.drawSparkle(dst, s, r, pulse, alpha)
		}
	}
}

// dimmed reports whether a point draws at reduced opacity: some
// emphasis is active and this point is not part of it.
func (e *Engine) dimmed(p *scene.Point, hovered *scene.Point, filterOn bool) bool {
	if filterOn && !e.scene.Filter.Matches(p) {
		return true
	}
	if hovered == nil {
		return false
	}
	if p.ID == hovered.ID || p.ClosestPriorID == hovered.ID || hovered.ClosestPriorID == p.ID {
		return false
	}
	return true
}

func (e *Engine) highlightColor(id string) (color.RGBA, bool) {
	hl := e.scene.Highlights
	switch {
	case hl.IsMine(id):
		return colorMine, true
	case hl.IsOther(id):
		return colorOthers, true
	case hl.IsVoted(id):
		return colorVoted, true
	}
	return color.RGBA{}, false
}

// pointRadius grows a dot slowly with its votes.
func pointRadius(p *scene.Point) float64 {
	r := basePointRadius + math.Log10(float64(p.VoteCount)+1)*4
	if r > maxPointRadius {
		return maxPointRadius
	}
	return r
}

// drawGlow blits the radial sprite with additive blending, scaled so
// the halo reaches the requested radius.
func (e *Engine) drawGlow(dst *ebiten.Image, at geometry.Point2D, radius float64, c color.RGBA, alpha float64) {
	if e.glowImage == nil {
		return
	}
	size := float64(e.glowImage.Bounds().Dx())
	scale := radius * 2 / size
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-size/2, -size/2)
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(at.X, at.Y)
	op.ColorScale.Scale(
		float32(c.R)/255*float32(alpha),
		float32(c.G)/255*float32(alpha),
		float32(c.B)/255*float32(alpha),
		float32(alpha))
	op.Blend = ebiten.BlendLighter
	dst.DrawImage(e.glowImage, op)
}

// drawSparkle marks the viewer's newest idea with a small four-point
// star riding the dot's shoulder.
func (e *Engine) drawSparkle(dst *ebiten.Image, at geometry.Point2D, radius, pulse, alpha float64) {
	cx := float32(at.X + radius*0.9)
	cy := float32(at.Y - radius*0.9)
	arm := float32(3 + 2*pulse)
	c := fade(colorSelect, alpha)
	vector.StrokeLine(dst, cx-arm, cy, cx+arm, cy, 1, c, true)
	vector.StrokeLine(dst, cx, cy-arm, cx, cy+arm, 1, c, true)
}

// fillConvex fills a convex screen-space polygon as a triangle fan
// anchored on the first vertex. Vertex colors are straight alpha.
func (e *Engine) fillConvex(dst *ebiten.Image, pts []geometry.Point2D, clr color.RGBA, alpha float64) {
	if len(pts) < 3 || e.whitePixel == nil {
		return
	}
	r := float32(clr.R) / 255
	g := float32(clr.G) / 255
	b := float32(clr.B) / 255
	a := float32(alpha)
	vs := make([]ebiten.Vertex, len(pts))
	for i, p := range pts {
		vs[i] = ebiten.Vertex{
			DstX: float32(p.X), DstY: float32(p.Y),
			SrcX: 1, SrcY: 1,
			ColorR: r, ColorG: g, ColorB: b, ColorA: a,
		}
	}
	is := make([]uint16, 0, (len(pts)-2)*3)
	for i := 2; i < len(pts); i++ {
		is = append(is, 0, uint16(i-1), uint16(i))
	}
	dst.DrawTriangles(vs, is, e.whitePixel, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

func (e *Engine) drawText(dst *ebiten.Image, x, y float64, s string, face *text.GoTextFace, col color.RGBA) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(col)
	text.Draw(dst, s, face, op)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "..."
}
