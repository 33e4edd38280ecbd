package background

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultSmoothing is the fraction of the remaining distance the smoothed
// pointer covers per frame.
const DefaultSmoothing = 0.06

// Pointer smooths a raw pointer target with exponential interpolation. The
// target may be written from any goroutine; Step and Current belong to the
// render thread.
type Pointer struct {
	target    atomic.Uint64 // two packed float32
	current   mgl32.Vec2
	smoothing float32
}

// NewPointer starts with both target and current at (x, y).
func NewPointer(x, y, smoothing float32) *Pointer {
	p := &Pointer{smoothing: smoothing}
	p.Set(x, y)
	p.current = p.Target()
	return p
}

func pack(x, y float32) uint64 {
	return uint64(math.Float32bits(x))<<32 | uint64(math.Float32bits(y))
}

func unpack(v uint64) mgl32.Vec2 {
	return mgl32.Vec2{math.Float32frombits(uint32(v >> 32)), math.Float32frombits(uint32(v))}
}

// Set records a new target, clamped into [0,1]². Last write wins.
func (p *Pointer) Set(x, y float32) {
	p.target.Store(pack(clampUnit(x), clampUnit(y)))
}

func (p *Pointer) Target() mgl32.Vec2 {
	return unpack(p.target.Load())
}

func (p *Pointer) Current() mgl32.Vec2 {
	return p.current
}

// Step moves the smoothed position toward the target by the smoothing factor.
func (p *Pointer) Step() mgl32.Vec2 {
	t := p.Target()
	p.current = mgl32.Vec2{
		p.current[0] + (t[0]-p.current[0])*p.smoothing,
		p.current[1] + (t[1]-p.current[1])*p.smoothing,
	}
	return p.current
}

func clampUnit(v float32) float32 {
	if v != v {
		return 0.5
	}
	return mgl32.Clamp(v, 0, 1)
}
