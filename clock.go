package keyvisual

import (
	"time"
)

// DefaultMaxDelta caps a frame's delta so a stalled tab or debugger pause
// does not fling particles.
const DefaultMaxDelta = time.Second / 30

// Clock tracks frame time for the simulation uniforms.
type Clock struct {
	Time    time.Time
	Dt      time.Duration
	Elapsed time.Duration

	MaxDelta time.Duration
}

func NewClock(maxDelta time.Duration) *Clock {
	if maxDelta <= 0 {
		maxDelta = DefaultMaxDelta
	}
	return &Clock{MaxDelta: maxDelta}
}

// Tick advances the clock to now. The first tick has a zero delta; deltas
// are clamped to [0, MaxDelta].
func (c *Clock) Tick(now time.Time) {
	if c.Time.IsZero() {
		c.Time = now
		c.Dt = 0
		return
	}
	dt := now.Sub(c.Time)
	if dt < 0 {
		dt = 0
	}
	if dt > c.MaxDelta {
		dt = c.MaxDelta
	}
	c.Dt = dt
	c.Elapsed += dt
	c.Time = now
}

func (c *Clock) Seconds() float32   { return float32(c.Elapsed.Seconds()) }
func (c *Clock) DtSeconds() float32 { return float32(c.Dt.Seconds()) }
