package mapengine

import "math"

// phaseStep advances the breathing phase once per tick. At 60 ticks
// per second a full cycle takes two seconds.
const phaseStep = math.Pi / 60

// Phaser drives the glow breathing animation. It runs only while
// something is highlighted; an idle map advances no animation state,
// so a quiet frame can reuse the previous render.
type Phaser struct {
	phase   float64
	running bool
}

// SetActive starts or stops the phaser. Stopping resets the phase so
// the next highlight begins its breath from zero.
func (p *Phaser) SetActive(active bool) {
	if active == p.running {
		return
	}
	p.running = active
	if !active {
		p.phase = 0
	}
}

// Advance steps the phase by one tick while running.
func (p *Phaser) Advance() {
	if !p.running {
		return
	}
	p.phase += phaseStep
	if p.phase >= 2*math.Pi {
		p.phase -= 2 * math.Pi
	}
}

// Running reports whether the animation is live this frame.
func (p *Phaser) Running() bool {
	return p.running
}

// Phase returns the current phase in [0, 2π).
func (p *Phaser) Phase() float64 {
	return p.phase
}

// Pulse maps the phase onto [0, 1] for intensity scaling.
func (p *Phaser) Pulse() float64 {
	return (math.Sin(p.phase) + 1) / 2
}
