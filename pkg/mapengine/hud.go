package mapengine

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"ideamap/pkg/geometry"
	"ideamap/pkg/livesync"
	"ideamap/pkg/scene"
)

const (
	hudMargin = 16.0
	hudPad    = 10.0
	hudFont   = 13.0
	hudRowH   = 19.0
	hudTitleH = 26.0

	scoreboardRows = 8
)

func (e *Engine) drawHUD(dst *ebiten.Image) {
	e.drawStatusPanel(dst)
	e.drawScoreboard(dst)
	e.drawLegend(dst)
	e.drawNowPlaying(dst)
}

// panel draws the shared HUD chrome: translucent fill, hairline border,
// an accent bar down the left edge and an uppercase title. Returns the
// y where content starts.
func (e *Engine) panel(dst *ebiten.Image, x, y, w, h float64, title string, accent color.RGBA) float64 {
	vector.DrawFilledRect(dst, float32(x), float32(y), float32(w), float32(h), colorPanelFill, false)
	vector.StrokeRect(dst, float32(x), float32(y), float32(w), float32(h), 1, colorPanelEdge, false)
	vector.DrawFilledRect(dst, float32(x), float32(y), 4, float32(h), accent, false)
	e.drawText(dst, x+hudPad, y+6, strings.ToUpper(title), e.face(hudFont*0.8), colorTextDim)
	return y + hudTitleH
}

func (e *Engine) drawStatusPanel(dst *ebiten.Image) {
	x, y := hudMargin, hudMargin
	w := 240.0
	h := hudTitleH + 4*hudRowH + hudPad
	cy := e.panel(dst, x, y, w, h, "session", colorAccent)

	dot, label := e.connBadge()
	vector.DrawFilledCircle(dst, float32(x+hudPad+5), float32(cy+hudRowH/2), 4.5, dot, true)
	e.drawText(dst, x+hudPad+16, cy+2, label, e.monoFace(hudFont), colorText)
	cy += hudRowH

	st := e.scene.Status()
	status := st.Status
	if status == "" {
		status = "unknown"
	}
	mode := "submissions closed"
	if st.AcceptingIdeas {
		mode = "accepting ideas"
	}
	e.drawText(dst, x+hudPad, cy+2, strings.ToUpper(status), e.face(hudFont), colorText)
	cy += hudRowH
	e.drawText(dst, x+hudPad, cy+2, mode, e.face(hudFont), colorTextDim)
	cy += hudRowH
	counts := fmt.Sprintf("%d participants, %d ideas", e.scene.Participants(), e.scene.Len())
	e.drawText(dst, x+hudPad, cy+2, counts, e.face(hudFont), colorTextDim)
}

func (e *Engine) connBadge() (color.RGBA, string) {
	switch e.connStatus {
	case livesync.StatusConnected:
		return colorStatusLive, "LIVE"
	case livesync.StatusConnecting:
		return colorStatusDialing, "CONNECTING"
	default:
		return colorStatusDown, "OFFLINE"
	}
}

func (e *Engine) drawScoreboard(dst *ebiten.Image) {
	rows := e.scene.Scoreboard()
	if len(rows) == 0 {
		return
	}
	if len(rows) > scoreboardRows {
		rows = rows[:scoreboardRows]
	}
	w := 240.0
	h := hudTitleH + float64(len(rows))*hudRowH + hudPad
	x := e.view.Width - hudMargin - w
	y := hudMargin
	cy := e.panel(dst, x, y, w, h, "top contributors", colorVoted)

	mono := e.monoFace(hudFont * 0.9)
	for i, row := range rows {
		name := row.UserName
		if name == "" {
			name = row.UserID
		}
		col := colorText
		if row.UserID == e.scene.ViewerID {
			col = colorMine
		}
		e.drawText(dst, x+hudPad, cy+2, fmt.Sprintf("%d. %s", i+1, truncate(name, 16)), mono, col)

		votes := fmt.Sprintf("%d", row.Votes)
		vw, _ := text.Measure(votes, mono, 0)
		e.drawText(dst, x+w-hudPad-vw, cy+2, votes, mono, colorTextDim)
		cy += hudRowH
	}
}

func (e *Engine) drawLegend(dst *ebiten.Image) {
	entries := []struct {
		col   color.RGBA
		label string
	}{
		{colorMine, "your newest idea"},
		{colorOthers, "new from others"},
		{colorVoted, "recently voted"},
	}
	hints := []string{
		"click select, V vote, U author filter",
		"C clear filters, R reset view, F12 capture",
	}
	w := 280.0
	h := hudTitleH + float64(len(entries)+len(hints))*hudRowH + hudPad
	x := hudMargin
	y := e.view.Height - hudMargin - h
	cy := e.panel(dst, x, y, w, h, "legend", colorAccent)

	for _, en := range entries {
		at := geometry.Point2D{X: x + hudPad + 5, Y: cy + hudRowH/2}
		e.drawGlow(dst, at, 8, en.col, 0.9)
		vector.DrawFilledCircle(dst, float32(at.X), float32(at.Y), 3, en.col, true)
		e.drawText(dst, x+hudPad+18, cy+2, en.label, e.face(hudFont), colorText)
		cy += hudRowH
	}
	for _, hint := range hints {
		e.drawText(dst, x+hudPad, cy+2, hint, e.face(hudFont*0.85), colorTextDim)
		cy += hudRowH
	}
}

func (e *Engine) drawNowPlaying(dst *ebiten.Image) {
	if e.nowSong == "" {
		return
	}
	w := 260.0
	h := hudTitleH + 2*hudRowH + hudPad
	x := e.view.Width - hudMargin - w
	y := e.view.Height - hudMargin - h
	cy := e.panel(dst, x, y, w, h, "now playing", colorMine)

	e.drawText(dst, x+hudPad, cy+2, truncate(e.nowSong, 28), e.face(hudFont), colorText)
	cy += hudRowH
	artist := e.nowArtist
	if artist == "" {
		artist = "unknown artist"
	}
	e.drawText(dst, x+hudPad, cy+2, truncate(artist, 30), e.face(hudFont*0.9), colorTextDim)
}

// drawTooltip follows the cursor with detail for whatever it rests on.
// Hidden while panning; the cursor means "grab" then, not "inspect".
func (e *Engine) drawTooltip(dst *ebiten.Image) {
	if e.gestureDrag {
		return
	}
	var (
		lines  []string
		dims   []bool
		accent color.RGBA
	)
	if p := e.scene.Hovered(); p != nil {
		accent = userColor(p.UserID)
		lines, dims = e.pointTooltip(p)
	} else if r := e.scene.HoveredRegion(); r != nil {
		accent = clusterColor(r.ID)
		lines, dims = regionTooltip(r)
	} else {
		return
	}

	mainFace := e.face(13)
	metaFace := e.face(11)
	const pad = 8.0
	wMax := 0.0
	hSum := 0.0
	heights := make([]float64, len(lines))
	for i, s := range lines {
		f, lh := mainFace, 17.0
		if dims[i] {
			f, lh = metaFace, 15.0
		}
		lw, _ := text.Measure(s, f, 0)
		if lw > wMax {
			wMax = lw
		}
		heights[i] = lh
		hSum += lh
	}
	w := wMax + pad*2 + 4
	h := hSum + pad*2

	x := e.cursorX + 14
	y := e.cursorY + 14
	if x+w > e.view.Width-4 {
		x = e.cursorX - w - 14
	}
	if y+h > e.view.Height-4 {
		y = e.cursorY - h - 14
	}
	if x < 4 {
		x = 4
	}
	if y < 4 {
		y = 4
	}

	vector.DrawFilledRect(dst, float32(x), float32(y), float32(w), float32(h),
		color.RGBA{R: 10, G: 12, B: 18, A: 230}, false)
	vector.StrokeRect(dst, float32(x), float32(y), float32(w), float32(h), 1, colorPanelEdge, false)
	vector.DrawFilledRect(dst, float32(x), float32(y), 3, float32(h), accent, false)

	cy := y + pad
	for i, s := range lines {
		f, col := mainFace, colorText
		if dims[i] {
			f, col = metaFace, colorTextDim
		}
		e.drawText(dst, x+pad+4, cy, s, f, col)
		cy += heights[i]
	}
}

func (e *Engine) pointTooltip(p *scene.Point) ([]string, []bool) {
	owner := p.UserName
	if owner == "" {
		owner = p.UserID
	}
	meta := fmt.Sprintf("%s, %d votes", owner, p.VoteCount)
	if p.HasVoted {
		meta += ", voted"
	}
	detail := fmt.Sprintf("novelty %.2f", p.Novelty)
	if label := e.scene.RegionLabel(p); label != "" {
		detail = label + ", " + detail
	}
	return []string{truncate(p.DisplayText(), 70), meta, detail},
		[]bool{false, true, true}
}

func regionTooltip(r *scene.ClusterRegion) ([]string, []bool) {
	label := r.Label
	if label == "" {
		label = fmt.Sprintf("cluster %d", r.ID)
	}
	return []string{label, fmt.Sprintf("%d ideas, avg novelty %.2f", r.Count, r.AvgNovelty)},
		[]bool{false, true}
}
