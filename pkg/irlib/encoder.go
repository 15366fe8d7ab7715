// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"context"
	"time"
)

// Carrier is a modulated IR output
type Carrier interface {
	// Configure sets the carrier frequency and leaves the output off
	Configure(kHz uint8) error
	On()
	Off()
}

// Sender generates waveforms on a Carrier
type Sender struct {
	carrier Carrier
	delay   func(time.Duration)
	extent  uint32
}

// NewSender creates a sender driving c. Delays use a busy-wait accurate to a
// few microseconds; replace it with SetDelay when timing is simulated.
func NewSender(c Carrier) *Sender {
	return &Sender{carrier: c, delay: spinDelay}
}

// SetDelay replaces the delay function
func (s *Sender) SetDelay(fn func(time.Duration)) {
	s.delay = fn
}

// Extent returns the duration emitted by the last SendGeneric call, in microseconds
func (s *Sender) Extent() uint32 {
	return s.extent
}

// spinDelay busy-waits for d. time.Sleep resolution is too coarse for carrier timing.
func spinDelay(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// Mark emits carrier for us microseconds
func (s *Sender) Mark(us uint32) {
	s.carrier.On()
	s.delay(time.Duration(us) * time.Microsecond)
	s.carrier.Off()
	s.extent += us
}

// Space holds the output off for us microseconds
func (s *Sender) Space(us uint32) {
	s.carrier.Off()
	s.delay(time.Duration(us) * time.Microsecond)
	s.extent += us
}

// SendGeneric transmits the low bits of value MSB-first using t.
// Cancelling ctx aborts between bits with the carrier off.
func (s *Sender) SendGeneric(ctx context.Context, value uint32, bits int, t Template) error {
	if bits < 1 || bits > 32 {
		return ErrInvalidBitCount
	}
	s.extent = 0
	data := value << (32 - bits)

	if err := s.carrier.Configure(t.KHz); err != nil {
		return err
	}
	if t.HeadMark != 0 {
		s.Mark(t.HeadMark)
	}
	if t.HeadSpace != 0 {
		s.Space(t.HeadSpace)
	}

	for i := 0; i < bits; i++ {
		if err := ctx.Err(); err != nil {
			s.carrier.Off()
			return err
		}
		if data&0x80000000 != 0 {
			s.Mark(t.MarkOne)
			s.Space(t.SpaceOne)
		} else {
			s.Mark(t.MarkZero)
			s.Space(t.SpaceZero)
		}
		data <<= 1
	}

	if t.StopBit {
		s.Mark(t.MarkOne)
	}
	switch {
	case t.MaxExtent == 0:
		s.Space(t.SpaceOne)
	case t.MaxExtent > s.extent:
		s.Space(t.MaxExtent - s.extent)
	}
	return nil
}
