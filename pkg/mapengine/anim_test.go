package mapengine

import (
	"math"
	"testing"
)

func TestPhaserLifecycle(t *testing.T) {
	var p Phaser
	if p.Running() {
		t.Fatal("zero phaser must be stopped")
	}

	p.Advance()
	if p.Phase() != 0 {
		t.Error("advancing a stopped phaser moved the phase")
	}

	p.SetActive(true)
	for i := 0; i < 10; i++ {
		p.Advance()
	}
	if !p.Running() || p.Phase() == 0 {
		t.Errorf("running phaser did not advance: phase = %v", p.Phase())
	}

	p.SetActive(true)
	if math.Abs(p.Phase()-10*phaseStep) > 1e-12 {
		t.Errorf("re-activating must not reset phase: %v", p.Phase())
	}

	p.SetActive(false)
	if p.Running() || p.Phase() != 0 {
		t.Errorf("stopping must reset: running=%v phase=%v", p.Running(), p.Phase())
	}
}

func TestPhaserWrapsPhase(t *testing.T) {
	var p Phaser
	p.SetActive(true)
	steps := int(2*math.Pi/phaseStep) + 2
	for i := 0; i < steps; i++ {
		p.Advance()
		if ph := p.Phase(); ph < 0 || ph >= 2*math.Pi {
			t.Fatalf("phase left [0,2π): %v after %d steps", ph, i+1)
		}
	}
}

func TestPhaserPulseRange(t *testing.T) {
	var p Phaser
	p.SetActive(true)
	min, max := math.Inf(1), math.Inf(-1)
	for i := 0; i < 500; i++ {
		p.Advance()
		pulse := p.Pulse()
		if pulse < 0 || pulse > 1 {
			t.Fatalf("Pulse() = %v, want within [0,1]", pulse)
		}
		min = math.Min(min, pulse)
		max = math.Max(max, pulse)
	}
	if max-min < 0.9 {
		t.Errorf("pulse barely moves: range [%v, %v]", min, max)
	}
}
