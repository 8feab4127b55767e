// File: internal/interfaces/timer.go
package interfaces

import "time"

// Ticker is a free-running tick source used for boot diagnostics
type Ticker interface {
	// Tick returns the current tick count
	Tick() uint64

	// TicksToDuration converts a tick delta into wall time
	TicksToDuration(ticks uint64) time.Duration

	// DurationToTicks converts wall time into a tick delta
	DurationToTicks(d time.Duration) uint64
}
