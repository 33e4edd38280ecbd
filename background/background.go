// Package background drives the procedural noise-field background: it owns the
// pointer smoothing and viewport state and hands one set of uniforms per frame
// to a Backend that evaluates the program over the whole surface.
package background

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/noisefield/field"
	"go.uber.org/zap"
)

// ErrCapabilityUnavailable reports that the platform cannot run the shading
// program. Hosts show a static notice instead of animating.
var ErrCapabilityUnavailable = errors.New("gpu shading capability unavailable")

// FallbackNotice is the static message shown when ErrCapabilityUnavailable is
// returned.
const FallbackNotice = "This experience requires GPU shader support."

type Uniforms = field.Uniforms

// Backend evaluates the background program across a surface.
type Backend interface {
	// Init binds the program to a surface of the given size. Failures caused by
	// missing GPU support wrap ErrCapabilityUnavailable.
	Init(width, height int) error
	Resize(width, height int)
	SetParams(p field.Params) error
	Draw(u Uniforms) error
	Destroy()
}

// FrameReader is implemented by backends whose last frame can be read back as
// tightly packed RGBA rows.
type FrameReader interface {
	ReadFrame(dst []byte) error
	// BottomUp reports whether ReadFrame returns the bottom row first.
	BottomUp() bool
}

type State int

const (
	Uninitialized State = iota
	Running
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Renderer struct {
	backend Backend
	pointer *Pointer
	params  field.Params
	width   int
	height  int
	state   State
	log     *zap.Logger
}

type config struct {
	log       *zap.Logger
	params    field.Params
	smoothing float32
	pointer   mgl32.Vec2
}

type Option func(*config)

func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

func WithParams(p field.Params) Option {
	return func(c *config) { c.params = p }
}

// WithSmoothing overrides DefaultSmoothing.
func WithSmoothing(f float32) Option {
	return func(c *config) { c.smoothing = f }
}

// WithPointer sets the initial pointer; both the target and the smoothed
// position start there.
func WithPointer(x, y float32) Option {
	return func(c *config) { c.pointer = mgl32.Vec2{x, y} }
}

// Initialize binds backend to a width x height surface and returns a running
// renderer. When the backend cannot run the program the returned error wraps
// ErrCapabilityUnavailable and no renderer is returned.
func Initialize(backend Backend, width, height int, opts ...Option) (*Renderer, error) {
	cfg := config{
		log:       zap.NewNop(),
		params:    field.DefaultParams(),
		smoothing: DefaultSmoothing,
		pointer:   mgl32.Vec2{0.5, 0.5},
	}
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if cfg.smoothing <= 0 || cfg.smoothing > 1 {
		return nil, fmt.Errorf("smoothing must be in (0,1], got %v", cfg.smoothing)
	}

	r := &Renderer{
		backend: backend,
		pointer: NewPointer(cfg.pointer[0], cfg.pointer[1], cfg.smoothing),
		params:  cfg.params,
		width:   clampSize(width),
		height:  clampSize(height),
		log:     cfg.log,
	}

	if err := backend.Init(r.width, r.height); err != nil {
		r.log.Warn("background initialization failed", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize background: %w", err)
	}
	if err := backend.SetParams(r.params); err != nil {
		backend.Destroy()
		return nil, fmt.Errorf("failed to apply params: %w", err)
	}

	r.state = Running
	r.log.Info("background initialized", zap.Int("width", r.width), zap.Int("height", r.height))
	return r, nil
}

func (r *Renderer) State() State { return r.state }

// Size returns the current surface size in pixels.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

// Pointer returns the smoothed pointer the next frame starts from.
func (r *Renderer) Pointer() mgl32.Vec2 { return r.pointer.Current() }

func (r *Renderer) Params() field.Params { return r.params }

// Resize updates the surface and the resolution uniform. Sizes below 1 clamp
// to 1.
func (r *Renderer) Resize(width, height int) {
	if r.state != Running {
		r.log.Debug("resize ignored", zap.Stringer("state", r.state))
		return
	}
	width, height = clampSize(width), clampSize(height)
	if width == r.width && height == r.height {
		return
	}
	r.width, r.height = width, height
	r.backend.Resize(width, height)
	r.log.Debug("background resized", zap.Int("width", width), zap.Int("height", height))
}

// SetPointer records a raw pointer target in normalized coordinates. It is
// safe to call from input callbacks on any goroutine; the value is consumed by
// the next RenderFrame.
func (r *Renderer) SetPointer(x, y float32) {
	r.pointer.Set(x, y)
}

// SetParams swaps the program constants.
func (r *Renderer) SetParams(p field.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if r.state != Running {
		return fmt.Errorf("renderer is %s", r.state)
	}
	if err := r.backend.SetParams(p); err != nil {
		return fmt.Errorf("failed to apply params: %w", err)
	}
	r.params = p
	return nil
}

// Uniforms returns what the next frame would draw with, without advancing
// the pointer.
func (r *Renderer) Uniforms(elapsedSeconds float64) Uniforms {
	return Uniforms{
		Time:       float32(elapsedSeconds),
		Mouse:      r.pointer.Current(),
		Resolution: mgl32.Vec2{float32(r.width), float32(r.height)},
	}
}

// RenderFrame advances pointer smoothing by one step and draws the surface at
// elapsedSeconds since start. Time is absolute, so frames may be skipped.
func (r *Renderer) RenderFrame(elapsedSeconds float64) error {
	if r.state != Running {
		r.log.Debug("frame skipped", zap.Stringer("state", r.state))
		return nil
	}
	r.pointer.Step()
	return r.backend.Draw(r.Uniforms(elapsedSeconds))
}

// Close releases the bound surface. Later calls are no-ops.
func (r *Renderer) Close() {
	if r.state != Running {
		return
	}
	r.backend.Destroy()
	r.state = Closed
	r.log.Info("background closed")
}
