package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCycleTickerConversions(t *testing.T) {
	var cycles uint64
	ticker := NewCycleTicker(func() uint64 { return cycles }, 1_500_000_000)

	cycles = 3_000_000_000
	assert.Equal(t, uint64(3_000_000_000), ticker.Tick())

	tests := []struct {
		name  string
		ticks uint64
		want  time.Duration
	}{
		{"zero", 0, 0},
		{"one second", 1_500_000_000, time.Second},
		{"one millisecond", 1_500_000, time.Millisecond},
		{"sub-nanosecond truncates", 1, 0},
		{"two nanoseconds", 3, 2 * time.Nanosecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ticker.TicksToDuration(tt.ticks))
		})
	}

	assert.Equal(t, uint64(1_500_000), ticker.DurationToTicks(time.Millisecond))
	assert.Equal(t, uint64(0), ticker.DurationToTicks(-time.Second))
	assert.Equal(t, uint64(2_000), ticker.TicksToMillis(3_000_000_000))
	assert.Equal(t, uint64(1), ticker.TicksToMicros(1_500))
	assert.Equal(t, uint64(2), ticker.TicksToSecs(3_000_000_000))
}

func TestCycleTickerLargeValuesDoNotOverflow(t *testing.T) {
	ticker := NewCycleTicker(func() uint64 { return 0 }, 1_500_000_000)

	// An hour of cycles times 1e9 overflows 64 bits in a naive product.
	hour := uint64(3600) * 1_500_000_000
	assert.Equal(t, time.Hour, ticker.TicksToDuration(hour))
}

func TestMonotonicTicker(t *testing.T) {
	ticker := NewMonotonicTicker()

	first := ticker.Tick()
	time.Sleep(time.Millisecond)
	second := ticker.Tick()

	assert.Greater(t, second, first)
	assert.GreaterOrEqual(t, ticker.TicksToDuration(second-first), time.Millisecond)
}

func TestHostCycleTicker(t *testing.T) {
	ticker := NewHostCycleTicker(1_000_000)
	assert.Equal(t, uint64(1_000_000), ticker.TimeBase())

	first := ticker.Tick()
	time.Sleep(2 * time.Millisecond)
	elapsed := ticker.Tick() - first

	assert.GreaterOrEqual(t, elapsed, uint64(2000))
	assert.GreaterOrEqual(t, ticker.TicksToDuration(elapsed), 2*time.Millisecond)
}
