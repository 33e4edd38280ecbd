package loop

import (
	"context"
	"testing"
	"time"

	"github.com/richinsley/noisefield/background"
	"github.com/richinsley/noisefield/field"
	"github.com/richinsley/noisefield/glitch"
	"github.com/richinsley/noisefield/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeWindow struct {
	time       float64
	winW, winH int
	fbW, fbH   int
	titles     []string
	onPoint    func(x, y float32)
	onResize   func(w, h int)
	frames     int
	closeAfter int
}

func (w *fakeWindow) MakeCurrent()                   {}
func (w *fakeWindow) Shutdown()                      {}
func (w *fakeWindow) ShouldClose() bool              { return w.closeAfter > 0 && w.frames >= w.closeAfter }
func (w *fakeWindow) EndFrame()                      { w.frames++ }
func (w *fakeWindow) GetFramebufferSize() (int, int) { return w.fbW, w.fbH }
func (w *fakeWindow) Time() float64                  { return w.time }
func (w *fakeWindow) IsGLES() bool                   { return false }
func (w *fakeWindow) GetWindowSize() (int, int)      { return w.winW, w.winH }
func (w *fakeWindow) SetTitle(title string)          { w.titles = append(w.titles, title) }
func (w *fakeWindow) SetPointerCallback(f func(x, y float32)) {
	w.onPoint = f
}
func (w *fakeWindow) SetResizeCallback(f func(w, h int)) {
	w.onResize = f
}

type recordingBackend struct {
	draws   []background.Uniforms
	resizes [][2]int
	params  []field.Params
}

func (b *recordingBackend) Init(w, h int) error { return nil }
func (b *recordingBackend) Resize(w, h int)     { b.resizes = append(b.resizes, [2]int{w, h}) }
func (b *recordingBackend) SetParams(p field.Params) error {
	b.params = append(b.params, p)
	return nil
}
func (b *recordingBackend) Draw(u background.Uniforms) error {
	b.draws = append(b.draws, u)
	return nil
}
func (b *recordingBackend) Destroy() {}

func newTestHost(t *testing.T, cfg *options.Config, opts ...Option) (*Host, *fakeWindow, *recordingBackend) {
	t.Helper()
	win := &fakeWindow{time: 3, winW: 400, winH: 300, fbW: 1200, fbH: 900}
	backend := &recordingBackend{}
	bg, err := background.Initialize(backend, 800, 600)
	require.NoError(t, err)
	t.Cleanup(bg.Close)
	opts = append([]Option{WithClock(func() time.Time { return t0 })}, opts...)
	return NewHost(win, bg, cfg, opts...), win, backend
}

func TestDebouncerWaitsForQuiescence(t *testing.T) {
	d := NewDebouncer(ResizeDelay)
	_, _, ok := d.Poll(t0)
	assert.False(t, ok)

	d.Push(100, 100, t0)
	_, _, ok = d.Poll(t0.Add(100 * time.Millisecond))
	assert.False(t, ok)

	d.Push(200, 150, t0.Add(100*time.Millisecond))
	_, _, ok = d.Poll(t0.Add(200 * time.Millisecond))
	assert.False(t, ok, "quiet period restarts on every push")
	assert.True(t, d.Pending())

	w, h, ok := d.Poll(t0.Add(250 * time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)

	_, _, ok = d.Poll(t0.Add(time.Second))
	assert.False(t, ok, "a burst fires once")
	assert.False(t, d.Pending())
}

func TestMonitorReportsOncePerSecond(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := NewMonitor(zap.New(core))
	assert.Equal(t, 60, m.FPS())

	// 11 frames over one second
	for i := 0; i <= 10; i++ {
		m.Tick(t0.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	assert.Equal(t, 11, m.FPS())
	require.Equal(t, 1, logs.FilterMessage("low frame rate").Len())

	// 100 frames over the next second
	start := t0.Add(time.Second)
	for i := 1; i <= 100; i++ {
		m.Tick(start.Add(time.Duration(i) * 10 * time.Millisecond))
	}
	assert.Equal(t, 100, m.FPS())
	assert.Equal(t, 1, logs.FilterMessage("low frame rate").Len())
	assert.Equal(t, 1, logs.FilterMessage("frame rate").Len())
}

func TestHostRendersWithElapsedTime(t *testing.T) {
	cfg := options.Default()
	cfg.Glitch = false
	h, win, backend := newTestHost(t, cfg)

	win.time = 5.5
	require.NoError(t, h.Tick(t0))
	require.Len(t, backend.draws, 1)
	assert.InDelta(t, 2.5, backend.draws[0].Time, 1e-6)
	assert.Equal(t, 1, win.frames)
}

func TestHostFeedsPointer(t *testing.T) {
	cfg := options.Default()
	cfg.Glitch = false
	h, win, backend := newTestHost(t, cfg)

	require.NotNil(t, win.onPoint)
	win.onPoint(1, 1)
	require.NoError(t, h.Tick(t0))
	m := backend.draws[0].Mouse
	assert.InDelta(t, 0.53, m[0], 1e-6)
	assert.InDelta(t, 0.53, m[1], 1e-6)
}

func TestHostDebouncesResize(t *testing.T) {
	cfg := options.Default()
	cfg.Glitch = false
	h, win, backend := newTestHost(t, cfg)

	win.onResize(1000, 800)
	win.fbW, win.fbH = 1200, 900
	win.onResize(1200, 900)

	require.NoError(t, h.Tick(t0.Add(100*time.Millisecond)))
	assert.Empty(t, backend.resizes)

	require.NoError(t, h.Tick(t0.Add(150*time.Millisecond)))
	// 400x300 window at ratio 3 caps to 2, which is the current size
	assert.Empty(t, backend.resizes, "capped size equals the current size")

	win.winW, win.winH = 500, 300
	win.onResize(1500, 900)
	require.NoError(t, h.Tick(t0.Add(400*time.Millisecond)))
	require.Len(t, backend.resizes, 1)
	assert.Equal(t, [2]int{1000, 600}, backend.resizes[0])
	assert.Equal(t, float32(1000), backend.draws[len(backend.draws)-1].Resolution[0])
}

func TestHostTitleGlitchEndsOnTitle(t *testing.T) {
	cfg := options.Default()
	cfg.Title = "AB"
	h, win, _ := newTestHost(t, cfg)

	for i := 0; i < 8; i++ {
		require.NoError(t, h.Tick(t0.Add(time.Duration(i)*glitch.Interval)))
	}
	require.NotEmpty(t, win.titles)
	assert.Equal(t, "AB", win.titles[len(win.titles)-1])
	n := len(win.titles)

	require.NoError(t, h.Tick(t0.Add(time.Second)))
	assert.Len(t, win.titles, n, "title is left alone once resolved")
}

func TestHostWithoutGlitchSetsTitleOnce(t *testing.T) {
	cfg := options.Default()
	cfg.Glitch = false
	h, win, _ := newTestHost(t, cfg)
	require.NoError(t, h.Tick(t0))
	assert.Equal(t, []string{cfg.Title}, win.titles)
}

func TestHostAppliesConfigUpdates(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := options.Default()
	cfg.Glitch = false
	updates := make(chan *options.Config, 1)
	h, win, backend := newTestHost(t, cfg, WithConfigUpdates(updates), WithLogger(zap.New(core)))

	next := options.Default()
	next.Glitch = false
	next.Title = "RELOADED"
	next.MaxPixelRatio = 1
	next.Params.NoiseScale = 4
	updates <- next

	require.NoError(t, h.Tick(t0))
	require.Len(t, backend.params, 2)
	assert.Equal(t, float32(4), backend.params[1].NoiseScale)
	assert.Equal(t, "RELOADED", win.titles[len(win.titles)-1])
	require.Len(t, backend.resizes, 1)
	assert.Equal(t, [2]int{400, 300}, backend.resizes[0])
	assert.Equal(t, 1, logs.FilterMessage("config applied").Len())
}

func TestHostKeepsConfigOnRejectedParams(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := options.Default()
	cfg.Glitch = false
	updates := make(chan *options.Config, 1)
	h, _, backend := newTestHost(t, cfg, WithConfigUpdates(updates), WithLogger(zap.New(core)))

	bad := options.Default()
	bad.Params.NoiseScale = 0
	updates <- bad

	require.NoError(t, h.Tick(t0))
	assert.Len(t, backend.params, 1)
	assert.Equal(t, 1, logs.FilterMessage("failed to apply reloaded params").Len())
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	cfg := options.Default()
	cfg.Glitch = false
	h, win, backend := newTestHost(t, cfg)
	win.closeAfter = 3

	require.NoError(t, h.Run(context.Background()))
	assert.Len(t, backend.draws, 3)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := options.Default()
	cfg.Glitch = false
	h, _, backend := newTestHost(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Run(ctx), context.Canceled)
	assert.Empty(t, backend.draws)
}

func TestHostMonitorCountsTicks(t *testing.T) {
	cfg := options.Default()
	cfg.Glitch = false
	h, _, _ := newTestHost(t, cfg)

	for i := 0; i <= 50; i++ {
		require.NoError(t, h.Tick(t0.Add(time.Duration(i)*20*time.Millisecond)))
	}
	assert.Equal(t, 51, h.Monitor().FPS())
}
