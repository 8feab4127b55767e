// Package timer provides the tick sources used to time boot stages.
package timer

import (
	"math/bits"
	"time"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
)

// CycleTicker converts a free-running cycle counter into wall time using a
// fixed time base in Hz.
type CycleTicker struct {
	counter  func() uint64
	timeBase uint64
}

var _ interfaces.Ticker = (*CycleTicker)(nil)

// NewCycleTicker creates a ticker over counter running at timeBase Hz.
func NewCycleTicker(counter func() uint64, timeBase uint64) *CycleTicker {
	if timeBase == 0 {
		timeBase = 1
	}
	return &CycleTicker{counter: counter, timeBase: timeBase}
}

// Tick implements interfaces.Ticker
func (c *CycleTicker) Tick() uint64 {
	return c.counter()
}

// TimeBase returns the counter frequency in Hz
func (c *CycleTicker) TimeBase() uint64 {
	return c.timeBase
}

// TicksToDuration implements interfaces.Ticker
func (c *CycleTicker) TicksToDuration(ticks uint64) time.Duration {
	return time.Duration(scale(ticks, uint64(time.Second), c.timeBase))
}

// DurationToTicks implements interfaces.Ticker
func (c *CycleTicker) DurationToTicks(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return scale(uint64(d), c.timeBase, uint64(time.Second))
}

// TicksToMicros converts ticks to whole microseconds
func (c *CycleTicker) TicksToMicros(ticks uint64) uint64 {
	return scale(ticks, 1_000_000, c.timeBase)
}

// TicksToMillis converts ticks to whole milliseconds
func (c *CycleTicker) TicksToMillis(ticks uint64) uint64 {
	return scale(ticks, 1_000, c.timeBase)
}

// TicksToSecs converts ticks to whole seconds
func (c *CycleTicker) TicksToSecs(ticks uint64) uint64 {
	return ticks / c.timeBase
}

// scale computes v*mul/div without overflowing the intermediate product.
// The result saturates at the maximum uint64.
func scale(v, mul, div uint64) uint64 {
	hi, lo := bits.Mul64(v, mul)
	if hi >= div {
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, div)
	return q
}

// NewMonotonicTicker returns a nanosecond ticker over the host monotonic
// clock, counting from construction.
func NewMonotonicTicker() *CycleTicker {
	start := time.Now()
	return NewCycleTicker(func() uint64 {
		return uint64(time.Since(start))
	}, uint64(time.Second))
}

// NewHostCycleTicker emulates a cycle counter running at timeBase Hz from the
// host monotonic clock.
func NewHostCycleTicker(timeBase uint64) *CycleTicker {
	start := time.Now()
	return NewCycleTicker(func() uint64 {
		return scale(uint64(time.Since(start)), timeBase, uint64(time.Second))
	}, timeBase)
}
