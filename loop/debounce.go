package loop

import "time"

// ResizeDelay is the quiet period a resize must survive before it is applied.
const ResizeDelay = 150 * time.Millisecond

// Debouncer holds the latest framebuffer size until no newer one has arrived
// for its delay. It is driven from the render thread; the clock is passed in.
type Debouncer struct {
	delay   time.Duration
	pending bool
	width   int
	height  int
	last    time.Time
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Push records a new size, restarting the quiet period.
func (d *Debouncer) Push(width, height int, now time.Time) {
	d.width, d.height = width, height
	d.last = now
	d.pending = true
}

// Poll returns the pending size once the quiet period has elapsed. Each
// pushed burst is returned at most once.
func (d *Debouncer) Poll(now time.Time) (int, int, bool) {
	if !d.pending || now.Sub(d.last) < d.delay {
		return 0, 0, false
	}
	d.pending = false
	return d.width, d.height, true
}

func (d *Debouncer) Pending() bool { return d.pending }
