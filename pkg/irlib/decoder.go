// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import "time"

// Result is a decoded transmission
type Result struct {
	Protocol  ProtocolID
	Value     uint32
	Bits      int
	Raw       []uint32 // microseconds, index 0 is the preceding gap
	Timestamp time.Time

	// Repeat marks a repeat code. Value and Bits are zero.
	Repeat bool
	// AlsoMatched lists later protocols in the chain that accept the same buffer
	AlsoMatched []ProtocolID
}

// Decoder matches a microsecond interval buffer against protocol templates
type Decoder struct {
	// Raw is the buffer under decode, filled by Receiver.GetResults or SetRaw
	Raw []uint32
	// IgnoreHeader skips the header mark check, for receivers that
	// clip the first mark of a transmission
	IgnoreHeader bool
	// Tolerance is the timing window used for every comparison
	Tolerance Tolerance

	buf []uint32
}

// NewDecoder creates a decoder sized to cfg.BufferSize
func NewDecoder(cfg Config) *Decoder {
	buf := make([]uint32, cfg.BufferSize)
	return &Decoder{
		Raw:       buf[:0],
		Tolerance: cfg.Tolerance(),
		buf:       buf,
	}
}

// Capacity returns the largest buffer the decoder holds
func (d *Decoder) Capacity() int {
	return len(d.buf)
}

// Reset empties the buffer under decode
func (d *Decoder) Reset() {
	d.Raw = d.buf[:0]
}

// SetRaw loads raw into the decoder, truncating at capacity.
// A truncated buffer reports Overflowed.
func (d *Decoder) SetRaw(raw []uint32) {
	n := copy(d.buf, raw)
	d.Raw = d.buf[:n]
}

// Overflowed reports whether the buffer filled to capacity. Such a buffer
// is an overflowed capture, not a valid reading.
func (d *Decoder) Overflowed() bool {
	return len(d.Raw) >= len(d.buf)
}

func (d *Decoder) match(offset int, expected uint32) bool {
	return d.Tolerance.Match(d.Raw[offset], expected)
}

// DecodeGeneric decodes the buffer against t.
//
// The number of bits reported is the number consumed, so a buffer that is
// shorter than the template but otherwise in tolerance decodes to a partial
// value. Templates that set RawCount only accept complete frames.
func (d *Decoder) DecodeGeneric(t Template) (value uint32, bits int, err error) {
	n := len(d.Raw)
	if d.Overflowed() {
		return 0, 0, ErrBufferOverflow
	}
	if t.RawCount != 0 && n != t.RawCount {
		return 0, 0, mismatch(KindRawCount, -1, uint32(t.RawCount), uint32(n))
	}
	if n < 3 {
		return 0, 0, mismatch(KindRawCount, -1, 3, uint32(n))
	}

	if !d.IgnoreHeader && t.HeadMark != 0 && !d.match(1, t.HeadMark) {
		return 0, 0, mismatch(KindHeaderMark, 1, t.HeadMark, d.Raw[1])
	}
	if t.HeadSpace != 0 && !d.match(2, t.HeadSpace) {
		return 0, 0, mismatch(KindHeaderSpace, 2, t.HeadSpace, d.Raw[2])
	}

	limit := min(t.Bits, 32)
	if limit <= 0 {
		limit = 32
	}

	var offset int
	if t.variableMark() {
		// Fixed spaces, the mark length carries the bit. The head space
		// doubles as the first data space.
		for offset = 2; offset < n-1; offset += 2 {
			if !d.match(offset, t.SpaceOne) {
				return 0, 0, mismatch(KindDataSpace, offset, t.SpaceOne, d.Raw[offset])
			}
			if bits == limit {
				return 0, 0, mismatch(KindRawCount, offset, uint32(limit), uint32(bits+1))
			}
			switch {
			case d.match(offset+1, t.MarkOne):
				value = value<<1 | 1
			case d.match(offset+1, t.MarkZero):
				value <<= 1
			default:
				return 0, 0, mismatch(KindDataMark, offset+1, t.MarkZero, d.Raw[offset+1])
			}
			bits++
		}
		return value, bits, nil
	}

	// Fixed marks, the space length carries the bit. The final entry is
	// the stop mark.
	for offset = 3; offset < n-1; offset += 2 {
		if !d.match(offset, t.MarkZero) {
			return 0, 0, mismatch(KindDataMark, offset, t.MarkZero, d.Raw[offset])
		}
		if bits == limit {
			return 0, 0, mismatch(KindRawCount, offset, uint32(limit), uint32(bits+1))
		}
		switch {
		case d.match(offset+1, t.SpaceOne):
			value = value<<1 | 1
		case d.match(offset+1, t.SpaceZero):
			value <<= 1
		default:
			return 0, 0, mismatch(KindDataSpace, offset+1, t.SpaceZero, d.Raw[offset+1])
		}
		bits++
	}
	return value, bits, nil
}
