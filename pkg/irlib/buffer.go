// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

// MaxEntry is the largest duration a buffer entry can hold, in ticks
const MaxEntry = 0xFFFF

// RawBuffer is the fixed-capacity interval sequence written by the capture
// state machine. Index 0 is the gap before the transmission, odd indices
// are marks and even indices are spaces.
type RawBuffer struct {
	entries []uint16
}

// NewRawBuffer creates an empty buffer holding at most capacity entries
func NewRawBuffer(capacity int) *RawBuffer {
	return &RawBuffer{entries: make([]uint16, 0, capacity)}
}

// Len returns the number of recorded entries
func (b *RawBuffer) Len() int {
	return len(b.entries)
}

// Cap returns the buffer capacity
func (b *RawBuffer) Cap() int {
	return cap(b.entries)
}

// Full reports whether the buffer has reached capacity
func (b *RawBuffer) Full() bool {
	return len(b.entries) >= cap(b.entries)
}

// Reset empties the buffer without releasing storage
func (b *RawBuffer) Reset() {
	b.entries = b.entries[:0]
}

// Append records a duration, saturating at MaxEntry.
// Returns false and records nothing if the buffer is full.
func (b *RawBuffer) Append(ticks uint32) bool {
	if b.Full() {
		return false
	}
	if ticks > MaxEntry {
		ticks = MaxEntry
	}
	b.entries = append(b.entries, uint16(ticks))
	return true
}

// At returns entry i
func (b *RawBuffer) At(i int) uint16 {
	return b.entries[i]
}

// Entries returns a copy of the recorded entries
func (b *RawBuffer) Entries() []uint16 {
	out := make([]uint16, len(b.entries))
	copy(out, b.entries)
	return out
}
