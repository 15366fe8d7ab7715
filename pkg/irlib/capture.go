// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"context"
	"time"
)

// Frame is the outcome of one completed capture. Result is never nil; on
// failure it carries ProtocolUnknown and the raw intervals.
type Frame struct {
	Result *Result
	Err    error
}

// Capture drives a Receiver and decodes every completed transmission through
// a Registry
type Capture struct {
	recv *Receiver
	dec  *Decoder
	reg  *Registry
}

// NewCapture creates a capture pipeline. A nil registry selects DefaultRegistry.
func NewCapture(cfg Config, reg *Registry) (*Capture, error) {
	recv, err := NewReceiver(cfg)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Capture{
		recv: recv,
		dec:  NewDecoder(cfg),
		reg:  reg,
	}, nil
}

// Receiver returns the underlying receiver
func (c *Capture) Receiver() *Receiver {
	return c.recv
}

// Decoder returns the underlying decoder
func (c *Capture) Decoder() *Decoder {
	return c.dec
}

// Registry returns the protocol chain
func (c *Capture) Registry() *Registry {
	return c.reg
}

// Poll decodes a waiting transmission and restarts reception.
// Returns false if nothing is waiting.
func (c *Capture) Poll() (Frame, bool) {
	if !c.recv.GetResults(c.dec) {
		return Frame{}, false
	}
	res, err := c.reg.Decode(c.dec)
	c.recv.Resume()
	return Frame{Result: res, Err: err}, true
}

// Step feeds one mark/space sample and polls for a completed transmission
func (c *Capture) Step(mark bool) (Frame, bool) {
	c.recv.Tick(mark)
	return c.Poll()
}

// StepLevel feeds one raw line level
func (c *Capture) StepLevel(level bool) (Frame, bool) {
	return c.Step(c.recv.IsMark(level))
}

// FeedPacked feeds packed line samples, eight per byte, least significant
// bit first, one bit per tick. A set bit is a high line level.
func (c *Capture) FeedPacked(data []byte) []Frame {
	var frames []Frame
	for _, b := range data {
		for i := 0; i < 8; i++ {
			if f, ok := c.StepLevel(b&(1<<i) != 0); ok {
				frames = append(frames, f)
			}
		}
	}
	return frames
}

// Run samples s once per tick period and sends every completed frame on out
// until ctx is done. out is not closed.
func (c *Capture) Run(ctx context.Context, s Sampler, out chan<- Frame) error {
	ticker := time.NewTicker(time.Duration(c.recv.cfg.TickMicros) * time.Microsecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f, ok := c.StepLevel(s.Sample())
			if !ok {
				continue
			}
			select {
			case out <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// PackLevels packs raw line levels into the FeedPacked byte format.
// A trailing partial byte is padded with the last level.
func PackLevels(levels []bool) []byte {
	out := make([]byte, (len(levels)+7)/8)
	for i, l := range levels {
		if l {
			out[i/8] |= 1 << (i % 8)
		}
	}
	if rem := len(levels) % 8; rem != 0 && levels[len(levels)-1] {
		for i := rem; i < 8; i++ {
			out[len(out)-1] |= 1 << i
		}
	}
	return out
}
