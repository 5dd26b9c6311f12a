package perf

import "time"

type Config struct {
	// Window is the number of frame timestamps kept in the ring buffer.
	Window int `conf:"window"`

	// Low is the rate below which a healthy monitor turns degraded.
	Low float64 `conf:"low"`

	// High is the rate at or above which a degraded monitor recovers.
	// Must be greater than Low.
	High float64 `conf:"high"`
}

const (
	DefaultWindow      = 60
	DefaultLow         = 15.0
	DefaultHigh        = 20.0
	DefaultInitialRate = 60.0
)

// nanosPerSecond converts a mean frame delta into a rate.
const nanosPerSecond = float64(time.Second)
