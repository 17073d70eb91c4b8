package mapengine

import (
	"hash/fnv"
	"image/color"
	"math"
)

// Palette. The map sits on a near-black navy so the glow blending
// reads well; highlight colors separate the three highlight kinds at
// a glance.
var (
	colorBackground = color.RGBA{R: 8, G: 10, B: 15, A: 255}
	colorPanelFill  = color.RGBA{R: 0, G: 0, B: 0, A: 100}
	colorPanelEdge  = color.RGBA{R: 36, G: 42, B: 53, A: 255}
	colorAccent     = color.RGBA{R: 0, G: 191, B: 255, A: 255}
	colorText       = color.RGBA{R: 226, G: 232, B: 240, A: 255}
	colorTextDim    = color.RGBA{R: 148, G: 163, B: 184, A: 255}

	colorMine    = color.RGBA{R: 255, G: 215, B: 120, A: 255}
	colorOthers  = color.RGBA{R: 0, G: 191, B: 255, A: 255}
	colorVoted   = color.RGBA{R: 173, G: 255, B: 47, A: 255}
	colorSelect  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorConnect = color.RGBA{R: 226, G: 232, B: 240, A: 90}

	colorStatusLive    = color.RGBA{R: 80, G: 220, B: 100, A: 255}
	colorStatusDialing = color.RGBA{R: 255, G: 190, B: 60, A: 255}
	colorStatusDown    = color.RGBA{R: 235, G: 80, B: 80, A: 255}
)

// UserHue maps a user id onto a stable hue in [0, 360). FNV-1a keeps
// the same author the same color across sessions and restarts.
func UserHue(userID string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return float64(h.Sum32() % 360)
}

// userColor is the fill for a point, derived from its author.
func userColor(userID string) color.RGBA {
	return hslToRGB(UserHue(userID), 0.65, 0.62)
}

// clusterColor cycles hues in 60 degree steps so neighboring cluster
// ids stay visually distinct.
func clusterColor(id int) color.RGBA {
	hue := float64((id * 60) % 360)
	if hue < 0 {
		hue += 360
	}
	return hslToRGB(hue, 0.55, 0.55)
}

// hslToRGB converts hue [0,360), saturation and lightness [0,1] to an
// opaque RGBA.
func hslToRGB(h, s, l float64) color.RGBA {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 255,
	}
}

// fade scales all four channels, keeping the premultiplied invariant
// color.RGBA expects.
func fade(c color.RGBA, alpha float64) color.RGBA {
	if alpha >= 1 {
		return c
	}
	if alpha < 0 {
		alpha = 0
	}
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(float64(c.A) * alpha),
	}
}
