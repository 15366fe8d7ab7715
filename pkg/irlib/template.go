// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import "fmt"

// Template is the timing description of a pulse-distance or pulse-width
// protocol. All durations are in microseconds; zero head durations are omitted.
//
// When MarkOne and MarkZero differ the mark length carries each bit and every
// space is SpaceOne. Otherwise the space length carries each bit and every
// mark is MarkZero.
type Template struct {
	HeadMark  uint32
	HeadSpace uint32
	MarkOne   uint32
	MarkZero  uint32
	SpaceOne  uint32
	SpaceZero uint32
	Bits      int    // nominal bit width
	KHz       uint8  // carrier frequency
	StopBit   bool   // trailing mark after the last data bit
	MaxExtent uint32 // fixed frame period, 0 if the protocol has none
	RawCount  int    // exact buffer length of a complete frame, 0 to accept any
}

func (t Template) variableMark() bool {
	return t.MarkOne != t.MarkZero
}

// Validate checks that the template describes a waveform the decoder can
// read back after the encoder emits it
func (t Template) Validate() error {
	if t.Bits < 1 || t.Bits > 32 {
		return fmt.Errorf("%w: %d bits", ErrInvalidTemplate, t.Bits)
	}
	if t.HeadMark == 0 || t.HeadSpace == 0 {
		return fmt.Errorf("%w: header mark and space required", ErrInvalidTemplate)
	}
	if t.MarkZero == 0 || t.SpaceOne == 0 {
		return fmt.Errorf("%w: zero-length data interval", ErrInvalidTemplate)
	}
	if t.variableMark() {
		if t.MarkOne == 0 {
			return fmt.Errorf("%w: zero-length one mark", ErrInvalidTemplate)
		}
		if t.StopBit {
			return fmt.Errorf("%w: pulse-width encoding cannot carry a stop mark", ErrInvalidTemplate)
		}
		if t.SpaceZero != t.SpaceOne {
			return fmt.Errorf("%w: pulse-width spaces %d and %d differ", ErrInvalidTemplate, t.SpaceOne, t.SpaceZero)
		}
		if t.HeadSpace != t.SpaceOne {
			return fmt.Errorf("%w: pulse-width head space %d must equal data space %d",
				ErrInvalidTemplate, t.HeadSpace, t.SpaceOne)
		}
		return nil
	}
	if !t.StopBit {
		return fmt.Errorf("%w: pulse-distance encoding needs a stop mark", ErrInvalidTemplate)
	}
	if t.SpaceZero == 0 || t.SpaceZero == t.SpaceOne {
		return fmt.Errorf("%w: space lengths %d and %d are not distinct", ErrInvalidTemplate, t.SpaceOne, t.SpaceZero)
	}
	return nil
}

// FrameLength returns the buffer length of a complete frame of the given width,
// including the leading gap
func (t Template) FrameLength(bits int) int {
	if t.variableMark() {
		// Final space merges into the trailing gap
		return 2*bits + 2
	}
	return 2*bits + 4
}
