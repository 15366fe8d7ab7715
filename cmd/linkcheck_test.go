// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import "testing"

func TestCheckSampleRate(t *testing.T) {
	// 50 µs ticks, eight samples per byte
	const expected = 2500.0

	tests := []struct {
		name     string
		rate     float64
		wantFail bool
	}{
		{"exact", 2500, false},
		{"slightly slow", 2400, false},
		{"slightly fast", 2620, false},
		{"at tolerance", 2375, false},
		{"too slow", 2300, true},
		{"too fast", 2700, true},
		{"trickle", 125, true},
		{"no samples", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSampleRate(tt.rate, expected, 5)
			if tt.wantFail && err == nil {
				t.Errorf("rate %.0f passed", tt.rate)
			}
			if !tt.wantFail && err != nil {
				t.Errorf("rate %.0f failed: %v", tt.rate, err)
			}
		})
	}
}
