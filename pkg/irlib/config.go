// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import "fmt"

// Config holds the tunable capture and matching constants
type Config struct {
	// TickMicros is the sampling period of the receiver
	TickMicros uint32
	// GapMicros is the minimum space that ends a transmission
	GapMicros uint32
	// MarkExcess is subtracted from marks and added to spaces on transfer
	MarkExcess uint32
	// TolerancePercent is the relative part of the match window
	TolerancePercent uint32
	// ToleranceMargin is the absolute part of the match window, in microseconds
	ToleranceMargin uint32
	// BufferSize is the capacity of the pulse buffer
	BufferSize int
	// ActiveLow treats a low input level as a mark.
	// Demodulating receivers idle high and pull the line low on carrier.
	ActiveLow bool
}

// DefaultConfig returns the reference configuration (50us ticks, 5ms gap)
func DefaultConfig() Config {
	return Config{
		TickMicros:       DefaultTickMicros,
		GapMicros:        DefaultGapMicros,
		MarkExcess:       DefaultMarkExcess,
		TolerancePercent: DefaultTolerancePercent,
		ToleranceMargin:  DefaultToleranceMargin,
		BufferSize:       DefaultBufferSize,
		ActiveLow:        true,
	}
}

// Validate checks the configuration for values the codec cannot work with
func (c Config) Validate() error {
	if c.TickMicros == 0 {
		return fmt.Errorf("tick period must be non-zero")
	}
	if c.GapMicros < c.TickMicros {
		return fmt.Errorf("gap %dus shorter than tick %dus", c.GapMicros, c.TickMicros)
	}
	if c.BufferSize < MinBufferSize || c.BufferSize > MaxBufferSize {
		return fmt.Errorf("buffer size %d out of range (%d-%d)", c.BufferSize, MinBufferSize, MaxBufferSize)
	}
	if c.TolerancePercent >= 100 {
		return fmt.Errorf("tolerance %d%% must be below 100%%", c.TolerancePercent)
	}
	return nil
}

// GapTicks returns the gap threshold in ticks
func (c Config) GapTicks() uint32 {
	return c.GapMicros / c.TickMicros
}

// Tolerance returns the match window described by the configuration
func (c Config) Tolerance() Tolerance {
	return Tolerance{Percent: c.TolerancePercent, Margin: c.ToleranceMargin}
}
