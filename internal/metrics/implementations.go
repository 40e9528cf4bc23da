package metrics

import "time"

// DefaultWindow is the minimum span over which FPS is averaged.
const DefaultWindow = time.Second

// FPSCounter averages rendered frames over windows of at least Window.
// It is not safe for concurrent use.
type FPSCounter struct {
	window time.Duration
	frames int
	start  time.Time
}

// NewFPSCounter starts the first window at start.
func NewFPSCounter(start time.Time, window time.Duration) *FPSCounter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &FPSCounter{window: window, start: start}
}

// Frame records one rendered frame at now. When the current window has
// lasted at least Window it returns frames*1000/elapsedMs and starts a new
// window at now.
func (c *FPSCounter) Frame(now time.Time) (fps float64, closed bool) {
	c.frames++

	elapsed := now.Sub(c.start)
	if elapsed < c.window {
		return 0, false
	}

	elapsedMs := float64(elapsed) / float64(time.Millisecond)
	fps = float64(c.frames) * 1000 / elapsedMs

	c.frames = 0
	c.start = now
	return fps, true
}

// Reset discards the frames counted so far and restarts the window at now.
func (c *FPSCounter) Reset(now time.Time) {
	c.frames = 0
	c.start = now
}
