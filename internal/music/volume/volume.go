// Package volume holds the process-wide playback gain.
package volume

import (
	"math"
	"sync/atomic"
)

// DefaultPercent is the gain a fresh controller starts with.
const DefaultPercent = 50

// Controller stores the gain as a fraction in [0, 1]. Streams read Gain on
// every frame, so Set takes effect on the live track without a restart.
type Controller struct {
	bits atomic.Uint64
}

// New creates a controller at the given percent (clamped).
func New(percent int) *Controller {
	c := &Controller{}
	c.Set(percent)
	return c
}

// Set clamps percent to [0, 100] and stores it. It returns the stored percent.
func (c *Controller) Set(percent int) int {
	percent = Clamp(percent)
	c.bits.Store(math.Float64bits(float64(percent) / 100))
	return percent
}

// Get returns the gain as a percent for display.
func (c *Controller) Get() int {
	return int(math.Round(c.Gain() * 100))
}

// Gain returns the gain as a fraction.
func (c *Controller) Gain() float64 {
	return math.Float64frombits(c.bits.Load())
}

// Clamp limits percent to [0, 100].
func Clamp(percent int) int {
	return min(max(percent, 0), 100)
}
