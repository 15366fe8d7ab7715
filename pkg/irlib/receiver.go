// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"context"
	"math"
	"sync"
	"time"
)

// Sampler reads the raw level of a receiver input line
type Sampler interface {
	Sample() bool
}

// SamplerFunc adapts a function to the Sampler interface
type SamplerFunc func() bool

// Sample calls f
func (f SamplerFunc) Sample() bool { return f() }

// CaptureState is the receiver state visible to WithLocked callbacks.
// Raw aliases the live buffer and must not be retained after the callback returns.
type CaptureState struct {
	State State
	Timer uint32
	Blink bool
	Raw   []uint16
}

// Receiver implements the tick-driven capture state machine.
//
// Tick is the only writer of the capture state. All foreground access goes
// through the receiver lock, and the buffer is stable from the moment the
// state reaches StateStop until Resume is called.
type Receiver struct {
	mu       sync.Mutex
	cfg      Config
	gapTicks uint32
	state    State
	timer    uint32
	buf      *RawBuffer
	blink    func(on bool)
}

// NewReceiver creates a receiver in the idle state
func NewReceiver(cfg Config) (*Receiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Receiver{
		cfg:      cfg,
		gapTicks: cfg.GapTicks(),
		state:    StateIdle,
		buf:      NewRawBuffer(cfg.BufferSize),
	}, nil
}

// Config returns the receiver configuration
func (r *Receiver) Config() Config {
	return r.cfg
}

// IsMark converts a raw line level to mark/space according to Config.ActiveLow
func (r *Receiver) IsMark(level bool) bool {
	return level != r.cfg.ActiveLow
}

// Tick advances the state machine by one sampling period.
// mark is true when the carrier is present.
func (r *Receiver) Tick(mark bool) {
	r.mu.Lock()

	if r.buf.Full() {
		r.state = StateStop
	}

	switch r.state {
	case StateIdle:
		if mark {
			if r.timer < r.gapTicks {
				// Not a gap, just a glitch between transmissions
				r.timer = 0
			} else {
				r.buf.Reset()
				r.buf.Append(r.timer)
				r.timer = 0
				r.state = StateMark
			}
		}
	case StateMark:
		if !mark {
			r.buf.Append(r.timer)
			r.timer = 0
			r.state = StateSpace
		}
	case StateSpace:
		if mark {
			r.buf.Append(r.timer)
			r.timer = 0
			r.state = StateMark
		} else if r.timer > r.gapTicks {
			// Long space, transmission finished. Timer keeps counting.
			r.state = StateStop
		}
	case StateStop:
		if mark {
			r.timer = 0
		}
	}

	if r.buf.Full() {
		r.state = StateStop
	}
	if r.timer < math.MaxUint32 {
		r.timer++
	}

	blink := r.blink
	on := r.buf.Len()%2 == 1
	r.mu.Unlock()

	if blink != nil {
		blink(on)
	}
}

// Run samples s once per tick period and feeds the state machine until ctx is done
func (r *Receiver) Run(ctx context.Context, s Sampler) error {
	ticker := time.NewTicker(time.Duration(r.cfg.TickMicros) * time.Microsecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick(r.IsMark(s.Sample()))
		}
	}
}

// SetBlink installs an indicator callback driven every tick, on while a mark
// is being timed. Pass nil to disable. The callback runs outside the receiver lock.
func (r *Receiver) SetBlink(fn func(on bool)) {
	r.mu.Lock()
	r.blink = fn
	r.mu.Unlock()
}

// WithLocked runs fn with the capture state under the receiver lock
func (r *Receiver) WithLocked(fn func(s CaptureState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(CaptureState{
		State: r.state,
		Timer: r.timer,
		Blink: r.blink != nil,
		Raw:   r.buf.entries,
	})
}

// State returns the current state
func (r *Receiver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Ready reports whether a complete transmission is waiting
func (r *Receiver) Ready() bool {
	return r.State() == StateStop
}

// Len returns the number of recorded entries
func (r *Receiver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Len()
}

// Entries returns a copy of the recorded entries, in ticks
func (r *Receiver) Entries() []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Entries()
}

// Transfer copies the stopped capture into dst, converting ticks to
// microseconds and removing the receiver mark bias: marks are shortened and
// spaces (including the leading gap) lengthened by MarkExcess.
// Returns the number of entries copied, or 0 if the receiver has not stopped.
func (r *Receiver) Transfer(dst []uint32, timePerTick uint32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transferLocked(dst, timePerTick)
}

func (r *Receiver) transferLocked(dst []uint32, timePerTick uint32) int {
	if r.state != StateStop {
		return 0
	}
	n := min(r.buf.Len(), len(dst))
	excess := r.cfg.MarkExcess
	for i := 0; i < n; i++ {
		v := uint64(r.buf.At(i)) * uint64(timePerTick)
		if i%2 == 1 {
			if v > uint64(excess) {
				v -= uint64(excess)
			} else {
				v = 0
			}
		} else {
			v += uint64(excess)
		}
		if v > math.MaxUint32 {
			v = math.MaxUint32
		}
		dst[i] = uint32(v)
	}
	return n
}

// GetResults loads a stopped capture into d.
// Returns false, leaving d untouched, if no transmission is waiting.
func (r *Receiver) GetResults(d *Decoder) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateStop {
		return false
	}
	d.Reset()
	n := r.transferLocked(d.buf, r.cfg.TickMicros)
	d.Raw = d.buf[:n]
	return true
}

// Resume discards the current capture and restarts reception
func (r *Receiver) Resume() {
	r.mu.Lock()
	r.state = StateIdle
	r.buf.Reset()
	r.mu.Unlock()
}
