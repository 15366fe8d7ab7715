// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks decoded frames and decode failures
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames   uint64
	DecodedFrames uint64
	RepeatFrames  uint64
	Overflows     uint64
	Unmatched     uint64
	ByProtocol    map[ProtocolID]uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		ByProtocol:     make(map[ProtocolID]uint64),
	}
}

// Update records one capture and its decode outcome
func (s *Statistics) Update(r *Result, err error) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	if err != nil {
		if errors.Is(err, ErrBufferOverflow) {
			s.Overflows++
		} else {
			s.Unmatched++
		}
		return
	}

	s.DecodedFrames++
	s.ByProtocol[r.Protocol]++
	if r.Repeat {
		s.RepeatFrames++
	}
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.Overflows+s.Unmatched) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var decodedPercent, overflowPercent, unmatchedPercent float64
	if s.TotalFrames > 0 {
		decodedPercent = float64(s.DecodedFrames) * 100.0 / float64(s.TotalFrames)
		overflowPercent = float64(s.Overflows) * 100.0 / float64(s.TotalFrames)
		unmatchedPercent = float64(s.Unmatched) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Decoded Frames:  %8d (%.1f%%)\n", s.DecodedFrames, decodedPercent)
	for _, id := range []ProtocolID{ProtocolNEC, ProtocolLightStrike, ProtocolSony} {
		if n := s.ByProtocol[id]; n > 0 {
			result += fmt.Sprintf("  %-14s  %6d\n", id.String()+":", n)
		}
	}
	if s.RepeatFrames > 0 {
		result += fmt.Sprintf("  Repeats:         %6d\n", s.RepeatFrames)
	}
	if s.Overflows > 0 {
		result += fmt.Sprintf("Overflows:       %8d (%.1f%%)\n", s.Overflows, overflowPercent)
	}
	if s.Unmatched > 0 {
		result += fmt.Sprintf("Unmatched:       %8d (%.1f%%)\n", s.Unmatched, unmatchedPercent)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalFrames = 0
	s.DecodedFrames = 0
	s.RepeatFrames = 0
	s.Overflows = 0
	s.Unmatched = 0
	s.ByProtocol = make(map[ProtocolID]uint64)
	s.FrameRate = 0
	s.ErrorRate = 0
}
