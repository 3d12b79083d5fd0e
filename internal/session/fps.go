package session

import "time"

// fpsCounter recomputes the frame rate once per second.
type fpsCounter struct {
	frames int
	start  time.Time
}

func newFPSCounter(now time.Time) *fpsCounter {
	return &fpsCounter{start: now}
}

// tick counts one frame. It returns the rate when a full second has passed.
func (c *fpsCounter) tick(now time.Time) (float64, bool) {
	c.frames++
	elapsed := now.Sub(c.start)
	if elapsed < time.Second {
		return 0, false
	}

	rate := float64(c.frames) / elapsed.Seconds()
	c.frames = 0
	c.start = now
	return rate, true
}
