// Package loop drives a background.Renderer from a window: it feeds the
// pointer in, applies debounced resizes and config reloads, and presents one
// frame per tick.
package loop

import (
	"context"
	"math/rand"
	"time"

	"github.com/richinsley/noisefield/background"
	"github.com/richinsley/noisefield/glitch"
	"github.com/richinsley/noisefield/graphics"
	"github.com/richinsley/noisefield/options"
	"go.uber.org/zap"
)

type Host struct {
	window   graphics.Window
	bg       *background.Renderer
	cfg      *options.Config
	debounce *Debouncer
	monitor  *Monitor

	scrambler *glitch.Scrambler
	title     *glitch.Sequence

	updates <-chan *options.Config
	now     func() time.Time
	start   float64
	log     *zap.Logger
}

type Option func(*Host)

func WithLogger(l *zap.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

// WithConfigUpdates makes the host apply every config received on ch.
func WithConfigUpdates(ch <-chan *options.Config) Option {
	return func(h *Host) { h.updates = ch }
}

func WithClock(now func() time.Time) Option {
	return func(h *Host) { h.now = now }
}

// NewHost registers the window's pointer and resize callbacks and, when the
// config asks for it, starts the title glitch.
func NewHost(window graphics.Window, bg *background.Renderer, cfg *options.Config, opts ...Option) *Host {
	h := &Host{
		window:   window,
		bg:       bg,
		cfg:      cfg,
		debounce: NewDebouncer(ResizeDelay),
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.monitor = NewMonitor(h.log)
	h.scrambler = glitch.NewScrambler(rand.New(rand.NewSource(cfg.Seed)))
	h.start = window.Time()

	window.SetPointerCallback(bg.SetPointer)
	window.SetResizeCallback(func(width, height int) {
		h.debounce.Push(width, height, h.now())
	})
	h.startGlitch(h.now())
	return h
}

func (h *Host) startGlitch(now time.Time) {
	if !h.cfg.Glitch {
		h.title = nil
		h.window.SetTitle(h.cfg.Title)
		return
	}
	h.title = h.scrambler.Start(h.cfg.Title, now)
}

// RestartGlitch replays the title glitch from the start.
func (h *Host) RestartGlitch() {
	h.startGlitch(h.now())
}

func (h *Host) Monitor() *Monitor { return h.monitor }

// Run ticks until the window asks to close or ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	h.log.Info("render loop started")
	defer h.log.Info("render loop stopped")
	for !h.window.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := h.Tick(h.now()); err != nil {
			return err
		}
	}
	return nil
}

// Tick runs one iteration of the loop at now.
func (h *Host) Tick(now time.Time) error {
	h.applyConfig(now)

	if fbWidth, fbHeight, ok := h.debounce.Poll(now); ok {
		h.resize(fbWidth, fbHeight)
	}

	if h.title != nil {
		text, done := h.title.At(now)
		h.window.SetTitle(text)
		if done {
			h.title = nil
		}
	}

	if err := h.bg.RenderFrame(h.window.Time() - h.start); err != nil {
		return err
	}
	h.window.EndFrame()
	h.monitor.Tick(now)
	return nil
}

func (h *Host) resize(fbWidth, fbHeight int) {
	winWidth, winHeight := h.window.GetWindowSize()
	width, height := background.SurfaceSize(winWidth, winHeight, fbWidth, fbHeight, h.cfg.MaxPixelRatio)
	h.log.Debug("applying resize",
		zap.Int("framebuffer_width", fbWidth),
		zap.Int("framebuffer_height", fbHeight),
		zap.Int("width", width),
		zap.Int("height", height))
	h.bg.Resize(width, height)
}

// applyConfig takes at most one pending config without blocking.
func (h *Host) applyConfig(now time.Time) {
	if h.updates == nil {
		return
	}
	var cfg *options.Config
	select {
	case cfg = <-h.updates:
	default:
		return
	}
	if cfg == nil {
		return
	}

	if err := h.bg.SetParams(cfg.Params); err != nil {
		h.log.Warn("failed to apply reloaded params", zap.Error(err))
		return
	}
	prev := h.cfg
	h.cfg = cfg
	if cfg.MaxPixelRatio != prev.MaxPixelRatio {
		h.resize(h.window.GetFramebufferSize())
	}
	if cfg.Title != prev.Title || cfg.Glitch != prev.Glitch {
		h.startGlitch(now)
	}
	h.log.Info("config applied")
}
