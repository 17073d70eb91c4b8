// Package mapengine renders a live idea map and owns the interaction
// loop: viewport, hit-testing, layered drawing, highlight animation,
// HUD, ambient audio, and frame capture. Everything that mutates scene
// state runs on the game loop goroutine; other goroutines talk to the
// engine through a buffered inbox.
package mapengine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"ideamap/pkg/geometry"
	"ideamap/pkg/livesync"
	"ideamap/pkg/scene"
)

// Input reads go through package variables so update logic is
// testable without a display.
var (
	cursorPosition     = ebiten.CursorPosition
	mouseButtonPressed = ebiten.IsMouseButtonPressed
	keyJustPressed     = inpututil.IsKeyJustPressed
	wheelDelta         = ebiten.Wheel
)

const (
	// inboxSize bounds the queue between network goroutines and the
	// game loop. The loop drains it every tick; overflow is dropped
	// because the next snapshot resynchronizes anyway.
	inboxSize = 256

	// actionTimeout bounds fire-and-forget REST calls started from
	// input handling.
	actionTimeout = 10 * time.Second
)

// SnapshotFunc fetches the whole session image. The engine calls it
// off the game loop when the server signals a recalculation.
type SnapshotFunc func(ctx context.Context) ([]scene.Point, []scene.ClusterRegion, error)

// Voter casts and retracts the viewer's votes. *sessionapi.Client
// satisfies it.
type Voter interface {
	CastVote(ctx context.Context, pointID string) error
	RetractVote(ctx context.Context, pointID string) error
}

// Inbox message kinds. Everything crossing into the game loop is one
// of these.
type (
	eventMsg         struct{ ev scene.Event }
	statusMsg        struct{ status livesync.Status }
	nowPlayingMsg    struct{ song, artist string }
	refetchFailedMsg struct{ err error }
)

// Engine is the ebiten game. Update drains the inbox, applies events,
// sweeps highlight expiry, drives the phaser, and handles input; Draw
// only reads.
type Engine struct {
	// Width and Height track the surface size; Layout follows the
	// window.
	Width  int
	Height int

	// Snapshot, when set, serves refetches triggered by
	// recalculation signals.
	Snapshot SnapshotFunc
	// Voter, when set, enables the V key.
	Voter Voter
	// CaptureDir, when set, enables F12 frame capture.
	CaptureDir string

	log    *zap.Logger
	scene  *scene.State
	view   *Viewport
	phaser Phaser

	inbox chan any

	connStatus livesync.Status
	nowSong    string
	nowArtist  string

	refetchInFlight bool

	leftWasDown bool
	gestureDrag bool
	pressX      float64
	pressY      float64
	cursorX     float64
	cursorY     float64

	// Render resources, nil until InitTextures. Tests drive Update
	// without them; Draw is the only consumer.
	fontSource    *text.GoTextFaceSource
	monoSource    *text.GoTextFaceSource
	glowImage     *ebiten.Image
	whitePixel    *ebiten.Image
	frame         *ebiten.Image
	needsRedraw   bool
	captureQueued bool
}

// NewEngine builds an engine over an existing scene. The fonts parse
// on the CPU, so construction works headless; call InitTextures before
// RunGame for the GPU-side resources.
func NewEngine(width, height int, st *scene.State, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	regular, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	mono, err := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	if err != nil {
		return nil, fmt.Errorf("parse mono font: %w", err)
	}
	return &Engine{
		Width:       width,
		Height:      height,
		log:         log,
		scene:       st,
		view:        NewViewport(float64(width), float64(height)),
		inbox:       make(chan any, inboxSize),
		fontSource:  regular,
		monoSource:  mono,
		needsRedraw: true,
	}, nil
}

// InitTextures builds the procedural glow sprite and the white pixel
// source for triangle fills.
func (e *Engine) InitTextures() {
	const size = 128
	half := float64(size) / 2
	pixels := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - half
			dy := float64(y) - half
			dist := math.Sqrt(dx*dx+dy*dy) / half
			if dist > 1 {
				continue
			}
			fall := (1 - dist) * (1 - dist)
			v := byte(fall * 255)
			i := (y*size + x) * 4
			pixels[i] = v
			pixels[i+1] = v
			pixels[i+2] = v
			pixels[i+3] = v
		}
	}
	e.glowImage = ebiten.NewImage(size, size)
	e.glowImage.WritePixels(pixels)

	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)
	e.whitePixel = white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
}

// PostEvent hands a decoded event to the game loop. Safe from any
// goroutine; never blocks.
func (e *Engine) PostEvent(ev scene.Event) { e.post(eventMsg{ev: ev}) }

// PostStatus reports a connection state change for the HUD.
func (e *Engine) PostStatus(st livesync.Status) { e.post(statusMsg{status: st}) }

// PostNowPlaying updates the HUD's track line.
func (e *Engine) PostNowPlaying(song, artist string) {
	e.post(nowPlayingMsg{song: song, artist: artist})
}

func (e *Engine) post(m any) {
	select {
	case e.inbox <- m:
	default:
		e.log.Warn("engine inbox full, dropping message")
	}
}

// Update runs once per tick on the game loop goroutine.
func (e *Engine) Update() error {
	changed := e.drainInbox()

	wasBreathing := e.phaser.Running()
	e.scene.Highlights.Sweep()
	e.phaser.SetActive(e.scene.Highlights.Active())
	if wasBreathing != e.phaser.Running() {
		changed = true
	}
	e.phaser.Advance()

	if e.handleInput() {
		changed = true
	}

	bounds, n := dataBounds(e.scene.Points())
	e.view.Fit(bounds, n)

	if changed {
		e.needsRedraw = true
	}
	return nil
}

func (e *Engine) drainInbox() bool {
	changed := false
	for {
		select {
		case m := <-e.inbox:
			changed = true
			switch msg := m.(type) {
			case eventMsg:
				e.applyEvent(msg.ev)
			case statusMsg:
				e.connStatus = msg.status
			case nowPlayingMsg:
				e.nowSong, e.nowArtist = msg.song, msg.artist
			case refetchFailedMsg:
				e.refetchInFlight = false
				e.log.Warn("snapshot refetch failed", zap.Error(msg.err))
			}
		default:
			return changed
		}
	}
}

func (e *Engine) applyEvent(ev scene.Event) {
	if _, ok := ev.(scene.SnapshotLoaded); ok {
		e.refetchInFlight = false
	}
	if e.scene.Apply(ev) == scene.EffectRefetch {
		e.requestRefetch()
	}
}

// requestRefetch reloads the snapshot off the game loop. One fetch at
// a time; recalculation signals arriving while one is in flight are
// already covered by it.
func (e *Engine) requestRefetch() {
	if e.Snapshot == nil || e.refetchInFlight {
		return
	}
	e.refetchInFlight = true
	fetch := e.Snapshot
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		points, clusters, err := fetch(ctx)
		if err != nil {
			e.post(refetchFailedMsg{err: err})
			return
		}
		e.PostEvent(scene.SnapshotLoaded{Points: points, Clusters: clusters})
	}()
}

func (e *Engine) handleInput() bool {
	changed := false

	cx, cy := cursorPosition()
	fx, fy := float64(cx), float64(cy)
	cursorMoved := fx != e.cursorX || fy != e.cursorY
	e.cursorX, e.cursorY = fx, fy

	if _, wy := wheelDelta(); wy != 0 {
		e.view.ApplyWheel(wy)
		changed = true
	}

	down := mouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case down && !e.leftWasDown:
		e.pressX, e.pressY = fx, fy
		e.gestureDrag = false
	case down && e.leftWasDown:
		if e.gestureDrag {
			e.view.DragTo(fx, fy)
			if cursorMoved {
				changed = true
			}
		} else {
			dx, dy := fx-e.pressX, fy-e.pressY
			if dx*dx+dy*dy > dragThresholdPx*dragThresholdPx {
				e.gestureDrag = true
				e.view.StartDrag(fx, fy)
			}
		}
	case !down && e.leftWasDown:
		if e.gestureDrag {
			e.view.EndDrag()
			e.gestureDrag = false
		} else {
			e.click(fx, fy)
		}
		changed = true
	}
	e.leftWasDown = down

	if e.gestureDrag {
		// Panning suppresses hover and its tooltip.
		if e.scene.Hovered() != nil || e.scene.HoveredRegion() != nil {
			e.scene.SetHover("", nil)
			changed = true
		}
	} else {
		if e.resolveHover(fx, fy) {
			changed = true
		}
		if cursorMoved && (e.scene.Hovered() != nil || e.scene.HoveredRegion() != nil) {
			// The tooltip is anchored to the cursor.
			changed = true
		}
	}

	if e.handleKeys() {
		changed = true
	}
	return changed
}

// resolveHover re-picks under the cursor every tick; the scene may
// have changed beneath a stationary cursor.
func (e *Engine) resolveHover(x, y float64) bool {
	prevPoint := e.scene.Hovered()
	prevRegion := e.scene.HoveredRegion()

	var pointID string
	var regionID *int
	if p := PickPoint(e.scene, e.view, x, y); p != nil {
		pointID = p.ID
	} else if r := PickRegion(e.scene, e.view, x, y); r != nil {
		id := r.ID
		regionID = &id
	}
	e.scene.SetHover(pointID, regionID)

	return prevPoint != e.scene.Hovered() || prevRegion != e.scene.HoveredRegion()
}

// click resolves a tap: a point selects, a hull toggles the cluster
// filter, empty space clears both.
func (e *Engine) click(x, y float64) {
	if p := PickPoint(e.scene, e.view, x, y); p != nil {
		e.scene.Select(p.ID)
		return
	}
	if r := PickRegion(e.scene, e.view, x, y); r != nil {
		if e.scene.Filter.ClusterID != nil && *e.scene.Filter.ClusterID == r.ID {
			e.scene.Filter.ClusterID = nil
		} else {
			id := r.ID
			e.scene.Filter.ClusterID = &id
		}
		return
	}
	e.scene.ClearSelection()
	e.scene.Filter.ClusterID = nil
}

func (e *Engine) handleKeys() bool {
	changed := false
	if keyJustPressed(ebiten.KeyEscape) && e.scene.Selected() != nil {
		e.scene.ClearSelection()
		changed = true
	}
	if keyJustPressed(ebiten.KeyV) {
		e.toggleVote()
	}
	if keyJustPressed(ebiten.KeyU) && e.toggleUserFilter() {
		changed = true
	}
	if keyJustPressed(ebiten.KeyC) && e.scene.Filter.Active() {
		e.scene.Filter.Clear()
		changed = true
	}
	if keyJustPressed(ebiten.KeyR) {
		e.view.ResetView()
		changed = true
	}
	if keyJustPressed(ebiten.KeyF12) {
		e.captureQueued = true
	}
	return changed
}

// toggleVote fires the REST call for the selected point and lets the
// resulting websocket event move the count. No optimistic update; the
// server owns vote state.
func (e *Engine) toggleVote() {
	sel := e.scene.Selected()
	if sel == nil || e.Voter == nil {
		return
	}
	id := sel.ID
	hasVoted := sel.HasVoted
	voter := e.Voter
	log := e.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		var err error
		if hasVoted {
			err = voter.RetractVote(ctx, id)
		} else {
			err = voter.CastVote(ctx, id)
		}
		if err != nil {
			log.Warn("vote toggle failed", zap.String("point_id", id), zap.Error(err))
		}
	}()
}

func (e *Engine) toggleUserFilter() bool {
	target := e.scene.Hovered()
	if target == nil {
		target = e.scene.Selected()
	}
	if target == nil {
		return false
	}
	if e.scene.Filter.UserID == target.UserID {
		e.scene.Filter.UserID = ""
	} else {
		e.scene.Filter.UserID = target.UserID
	}
	return true
}

// Draw composes the cached frame, re-rendering only when state changed
// or an animation is live. A quiet map costs one image blit per frame.
func (e *Engine) Draw(screen *ebiten.Image) {
	if e.frame == nil || e.frame.Bounds().Dx() != e.Width || e.frame.Bounds().Dy() != e.Height {
		e.frame = ebiten.NewImage(e.Width, e.Height)
		e.needsRedraw = true
	}
	if e.needsRedraw || e.phaser.Running() {
		e.renderScene(e.frame)
		e.needsRedraw = false
	}
	screen.DrawImage(e.frame, nil)

	if e.captureQueued {
		e.captureQueued = false
		e.captureFrame(screen, time.Now())
	}
}

// Layout follows the window so the map always fills its container.
func (e *Engine) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 &&
		(outsideWidth != e.Width || outsideHeight != e.Height) {
		e.Width = outsideWidth
		e.Height = outsideHeight
		e.view.Resize(float64(e.Width), float64(e.Height))
		e.needsRedraw = true
	}
	return e.Width, e.Height
}

func (e *Engine) face(size float64) *text.GoTextFace {
	return &text.GoTextFace{Source: e.fontSource, Size: size}
}

func (e *Engine) monoFace(size float64) *text.GoTextFace {
	return &text.GoTextFace{Source: e.monoSource, Size: size}
}

func dataBounds(points []*scene.Point) (geometry.Rect, int) {
	if len(points) == 0 {
		return geometry.Rect{}, 0
	}
	r := geometry.Rect{Min: points[0].Position(), Max: points[0].Position()}
	for _, p := range points[1:] {
		pos := p.Position()
		if pos.X < r.Min.X {
			r.Min.X = pos.X
		}
		if pos.Y < r.Min.Y {
			r.Min.Y = pos.Y
		}
		if pos.X > r.Max.X {
			r.Max.X = pos.X
		}
		if pos.Y > r.Max.Y {
			r.Max.Y = pos.Y
		}
	}
	return r, len(points)
}
