package detail

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

const fps = 30

// FrameMsg advances the loading-progress animation by one frame.
type FrameMsg struct {
	Name string
}

// progress eases the displayed loading fraction toward the last reported
// value with a critically damped spring.
type progress struct {
	spring   harmonica.Spring
	pos, vel float64
	target   float64
	active   bool
}

func newProgress() progress {
	return progress{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0)}
}

// setTarget updates the goal in [0,1] and reports whether an animation
// loop needs to be started.
func (p *progress) setTarget(v float64) bool {
	p.target = math.Max(0, math.Min(1, v))
	if p.settled() || p.active {
		return false
	}
	p.active = true
	return true
}

// jump sets the position without animating.
func (p *progress) jump(v float64) {
	p.pos, p.vel, p.target = v, 0, v
	p.active = false
}

// step advances one frame and reports whether more frames are needed.
func (p *progress) step() bool {
	p.pos, p.vel = p.spring.Update(p.pos, p.vel, p.target)
	if p.settled() {
		p.pos, p.vel = p.target, 0
		p.active = false
		return false
	}
	return true
}

func (p progress) settled() bool {
	return math.Abs(p.pos-p.target) < 0.001 && math.Abs(p.vel) < 0.001
}

func frameCmd(name string) tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg {
		return FrameMsg{Name: name}
	})
}
