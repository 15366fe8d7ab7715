// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

// Tolerance is a relative-plus-absolute timing window.
// A measured duration matches an expected one when
// |measured - expected| <= expected*Percent/100 + Margin.
type Tolerance struct {
	Percent uint32
	Margin  uint32
}

// window returns the allowed deviation for an expected duration
func (t Tolerance) window(expected uint32) uint64 {
	return uint64(expected)*uint64(t.Percent)/100 + uint64(t.Margin)
}

// Match reports whether measured is within tolerance of expected
func (t Tolerance) Match(measured, expected uint32) bool {
	w := t.window(expected)
	if measured >= expected {
		return uint64(measured-expected) <= w
	}
	return uint64(expected-measured) <= w
}

// Bounds returns the lowest and highest matching durations for expected.
// The lower bound saturates at zero.
func (t Tolerance) Bounds(expected uint32) (low, high uint32) {
	w := t.window(expected)
	if w >= uint64(expected) {
		low = 0
	} else {
		low = expected - uint32(w)
	}
	h := uint64(expected) + w
	if h > 0xFFFFFFFF {
		h = 0xFFFFFFFF
	}
	return low, uint32(h)
}
