// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"fmt"
	"strings"
)

// FormatResult formats a result and its raw intervals into a human-readable dump
func FormatResult(r *Result) string {
	var b strings.Builder

	if !r.Timestamp.IsZero() {
		fmt.Fprintf(&b, "[%s] ", r.Timestamp.Format("15:04:05.000"))
	}
	if r.Repeat {
		fmt.Fprintf(&b, "Decoded %s(%d): Repeat ", r.Protocol, r.Protocol)
	} else if r.Protocol != ProtocolUnknown {
		fmt.Fprintf(&b, "Decoded %s(%d): Value:%X ", r.Protocol, r.Protocol, r.Value)
	} else {
		b.WriteString("Unknown ")
	}
	fmt.Fprintf(&b, "(%d bits)\n", r.Bits)
	if len(r.AlsoMatched) > 0 {
		names := make([]string, len(r.AlsoMatched))
		for i, id := range r.AlsoMatched {
			names[i] = id.String()
		}
		fmt.Fprintf(&b, "Ambiguous, also matches %s\n", strings.Join(names, ", "))
	}

	raw := r.Raw
	fmt.Fprintf(&b, "Raw samples(%d)", len(raw))
	if len(raw) > 0 {
		fmt.Fprintf(&b, ": Gap:%d", raw[0])
	}
	b.WriteString("\n")
	if len(raw) < 3 {
		return b.String()
	}
	fmt.Fprintf(&b, "  Head: m%d  s%d\n", raw[1], raw[2])

	stats := Summarize(raw)
	for i := 3; i < len(raw); i++ {
		if i%2 == 1 {
			fmt.Fprintf(&b, "%d:m%d", i/2-1, raw[i])
		} else {
			fmt.Fprintf(&b, " s%d", raw[i])
		}
		j := i - 1
		if j%2 == 1 {
			b.WriteString("\t")
		}
		if j%4 == 1 {
			b.WriteString("\t ")
		}
		if j%8 == 1 {
			b.WriteString("\n")
		}
		if j%32 == 1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Extent=%d\n", stats.Extent)
	fmt.Fprintf(&b, "Mark  min:%d\t max:%d\n", stats.MarkMin, stats.MarkMax)
	fmt.Fprintf(&b, "Space min:%d\t max:%d\n", stats.SpaceMin, stats.SpaceMax)
	return b.String()
}

// FormatResultShort formats a result on a single line
func FormatResultShort(r *Result) string {
	if r.Protocol == ProtocolUnknown {
		return fmt.Sprintf("Unknown (%d intervals)", len(r.Raw))
	}
	if r.Repeat {
		return r.Protocol.String() + " repeat"
	}
	if len(r.AlsoMatched) > 0 {
		return fmt.Sprintf("%s 0x%X (%d bits, ambiguous)", r.Protocol, r.Value, r.Bits)
	}
	return fmt.Sprintf("%s 0x%X (%d bits)", r.Protocol, r.Value, r.Bits)
}

// IntervalStats summarizes a raw buffer after its header
type IntervalStats struct {
	Extent   uint64 // sum of all intervals after the gap
	MarkMin  uint32
	MarkMax  uint32
	SpaceMin uint32 // zero-length spaces are ignored
	SpaceMax uint32
}

// Summarize computes extent and mark/space ranges of raw. Index 0 (gap) is
// excluded everywhere and the header is excluded from the ranges.
func Summarize(raw []uint32) IntervalStats {
	var s IntervalStats
	if len(raw) < 3 {
		for _, v := range raw[min(1, len(raw)):] {
			s.Extent += uint64(v)
		}
		return s
	}
	s.Extent = uint64(raw[1]) + uint64(raw[2])
	s.MarkMin = ^uint32(0)
	s.SpaceMin = ^uint32(0)
	for i := 3; i < len(raw); i++ {
		v := raw[i]
		s.Extent += uint64(v)
		if i%2 == 1 {
			s.MarkMin = min(s.MarkMin, v)
			s.MarkMax = max(s.MarkMax, v)
		} else {
			if v > 0 {
				s.SpaceMin = min(s.SpaceMin, v)
			}
			s.SpaceMax = max(s.SpaceMax, v)
		}
	}
	if s.MarkMin == ^uint32(0) {
		s.MarkMin = 0
	}
	if s.SpaceMin == ^uint32(0) {
		s.SpaceMin = 0
	}
	return s
}
