package loop

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// LowFPS is the rate below which the monitor warns.
const LowFPS = 20

// Monitor measures the frame rate over one second windows.
type Monitor struct {
	log    *zap.Logger
	frames int
	last   time.Time
	fps    int
}

func NewMonitor(log *zap.Logger) *Monitor {
	return &Monitor{log: log, fps: 60}
}

// Tick counts one frame drawn at now.
func (m *Monitor) Tick(now time.Time) {
	if m.last.IsZero() {
		m.last = now
	}
	m.frames++
	elapsed := now.Sub(m.last)
	if elapsed < time.Second {
		return
	}
	m.fps = int(math.Round(float64(m.frames) / elapsed.Seconds()))
	m.frames = 0
	m.last = now
	if m.fps < LowFPS {
		m.log.Warn("low frame rate", zap.Int("fps", m.fps))
	} else {
		m.log.Debug("frame rate", zap.Int("fps", m.fps))
	}
}

// FPS returns the rate of the last full window, 60 before the first one.
func (m *Monitor) FPS() int { return m.fps }
