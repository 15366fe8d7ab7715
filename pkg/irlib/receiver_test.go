// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func newTestReceiver(t *testing.T, cfg Config) *Receiver {
	t.Helper()
	r, err := NewReceiver(cfg)
	if err != nil {
		t.Fatalf("NewReceiver failed: %v", err)
	}
	return r
}

func TestReceiver_CapturesIntervals(t *testing.T) {
	r := newTestReceiver(t, DefaultConfig())

	feed(r, false, 150)
	feed(r, true, 10)
	feed(r, false, 5)
	feed(r, true, 20)

	if r.State() != StateMark {
		t.Fatalf("Expected MARK, got %s", r.State())
	}

	// A space must exceed the gap threshold to end the transmission
	gap := int(DefaultConfig().GapTicks())
	feed(r, false, gap+1)
	if r.Ready() {
		t.Fatal("Receiver stopped before the space exceeded the gap threshold")
	}
	feed(r, false, 1)
	if !r.Ready() {
		t.Fatal("Receiver did not stop after the gap")
	}

	want := []uint16{150, 10, 5, 20}
	if got := r.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries = %v, want %v", got, want)
	}
}

func TestReceiver_ShortGapIgnored(t *testing.T) {
	r := newTestReceiver(t, DefaultConfig())

	feed(r, false, 50)
	feed(r, true, 3)
	if r.State() != StateIdle || r.Len() != 0 {
		t.Fatalf("Mark after a short gap started a capture: state=%s len=%d", r.State(), r.Len())
	}

	// The glitch restarts gap timing, counting from its last tick
	feed(r, false, 100)
	feed(r, true, 1)
	if r.State() != StateMark {
		t.Fatalf("Expected MARK after a full gap, got %s", r.State())
	}
	if got := r.Entries(); len(got) != 1 || got[0] != 101 {
		t.Errorf("Gap entry = %v, want [101]", got)
	}
}

func TestReceiver_OverflowStops(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferSize = 8
	r := newTestReceiver(t, cfg)

	feed(r, false, 120)
	for i := 0; i < 20; i++ {
		feed(r, true, 2)
		feed(r, false, 2)
	}

	if r.State() != StateStop {
		t.Fatalf("Expected STOP on overflow, got %s", r.State())
	}
	if r.Len() != cfg.BufferSize {
		t.Errorf("Len = %d, want %d", r.Len(), cfg.BufferSize)
	}

	d := NewDecoder(cfg)
	if !r.GetResults(d) {
		t.Fatal("GetResults returned false for a stopped receiver")
	}
	if !d.Overflowed() {
		t.Error("Decoder did not flag the full buffer as overflowed")
	}
}

func TestReceiver_EntriesSaturate(t *testing.T) {
	r := newTestReceiver(t, DefaultConfig())

	feed(r, false, MaxEntry+100)
	feed(r, true, 1)

	if got := r.Entries(); len(got) != 1 || got[0] != MaxEntry {
		t.Errorf("Gap entry = %v, want [%d]", got, MaxEntry)
	}
}

func TestReceiver_StopHoldsUntilResume(t *testing.T) {
	r := newTestReceiver(t, DefaultConfig())

	feed(r, false, 200)
	feed(r, true, 10)
	feed(r, false, 200)
	if !r.Ready() {
		t.Fatal("Receiver did not stop")
	}
	before := r.Entries()

	// A new transmission must not disturb the stopped buffer
	feed(r, true, 10)
	feed(r, false, 10)
	feed(r, true, 10)
	if !r.Ready() {
		t.Fatal("Receiver left STOP without Resume")
	}
	if got := r.Entries(); !reflect.DeepEqual(got, before) {
		t.Errorf("Stopped buffer changed: %v -> %v", before, got)
	}
}

func TestReceiver_TransferBias(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferSize = 5
	cfg.MarkExcess = 2
	r := newTestReceiver(t, cfg)

	// Five entries fill the buffer: gap, m1, s1, m2, s2
	feed(r, false, 120)
	feed(r, true, 7)
	feed(r, false, 9)
	feed(r, true, 11)
	feed(r, false, 13)
	feed(r, true, 1)

	if !r.Ready() {
		t.Fatal("Receiver did not stop at capacity")
	}

	dst := make([]uint32, 5)
	if n := r.Transfer(dst, 1); n != 5 {
		t.Fatalf("Transfer copied %d entries, want 5", n)
	}
	want := []uint32{122, 5, 11, 9, 15}
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("Transfer = %v, want %v", dst, want)
	}
}

func TestReceiver_TransferSaturatesMarks(t *testing.T) {
	cfg := DefaultConfig()
	r := newTestReceiver(t, cfg)

	feed(r, false, 120)
	feed(r, true, 1) // 50us, shorter than the 100us excess
	feed(r, false, 200)

	dst := make([]uint32, cfg.BufferSize)
	n := r.Transfer(dst, cfg.TickMicros)
	if n != 2 {
		t.Fatalf("Transfer copied %d entries, want 2", n)
	}
	if dst[0] != 120*50+100 {
		t.Errorf("Gap = %d, want %d", dst[0], 120*50+100)
	}
	if dst[1] != 0 {
		t.Errorf("Mark = %d, want 0", dst[1])
	}
}

func TestReceiver_TransferRequiresStop(t *testing.T) {
	r := newTestReceiver(t, DefaultConfig())

	feed(r, false, 120)
	feed(r, true, 5)

	dst := []uint32{7, 7, 7}
	if n := r.Transfer(dst, 50); n != 0 {
		t.Errorf("Transfer while receiving copied %d entries", n)
	}
	if dst[0] != 7 {
		t.Error("Transfer while receiving modified the destination")
	}

	d := NewDecoder(DefaultConfig())
	if r.GetResults(d) {
		t.Error("GetResults returned true while receiving")
	}
}

func TestReceiver_ResumeIsolatesTransferredCopy(t *testing.T) {
	cfg := DefaultConfig()
	r := newTestReceiver(t, cfg)
	d := NewDecoder(cfg)

	feed(r, false, 120)
	feed(r, true, 10)
	feed(r, false, 200)
	if !r.GetResults(d) {
		t.Fatal("GetResults returned false")
	}
	copied := append([]uint32(nil), d.Raw...)

	r.Resume()
	if r.State() != StateIdle || r.Len() != 0 {
		t.Fatalf("After Resume: state=%s len=%d", r.State(), r.Len())
	}

	// The space kept counting through STOP, so the next mark starts a capture
	feed(r, true, 30)
	feed(r, false, 200)
	if !r.Ready() {
		t.Fatal("Second transmission not captured")
	}
	if !reflect.DeepEqual(d.Raw, copied) {
		t.Errorf("Transferred copy changed: %v -> %v", copied, d.Raw)
	}
	if got := r.Entries(); got[1] != 30 {
		t.Errorf("Second capture mark = %d, want 30", got[1])
	}
}

func TestReceiver_Blink(t *testing.T) {
	r := newTestReceiver(t, DefaultConfig())

	var states []bool
	r.SetBlink(func(on bool) { states = append(states, on) })

	feed(r, false, 120)
	feed(r, true, 2)
	feed(r, false, 2)

	if len(states) != 124 {
		t.Fatalf("Blink called %d times, want 124", len(states))
	}
	if states[119] {
		t.Error("Indicator on during the gap")
	}
	if !states[120] || !states[121] {
		t.Error("Indicator off during a mark")
	}
	if states[122] || states[123] {
		t.Error("Indicator on during a space")
	}

	r.SetBlink(nil)
	feed(r, true, 1)
	if len(states) != 124 {
		t.Error("Blink called after being disabled")
	}
}

func TestReceiver_WithLocked(t *testing.T) {
	r := newTestReceiver(t, DefaultConfig())
	feed(r, false, 120)
	feed(r, true, 4)

	r.WithLocked(func(s CaptureState) {
		if s.State != StateMark {
			t.Errorf("State = %s, want MARK", s.State)
		}
		if s.Timer != 4 {
			t.Errorf("Timer = %d, want 4", s.Timer)
		}
		if len(s.Raw) != 1 || s.Raw[0] != 120 {
			t.Errorf("Raw = %v, want [120]", s.Raw)
		}
	})
}

func TestReceiver_RunStopsOnCancel(t *testing.T) {
	r := newTestReceiver(t, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Line held high: idle for an active-low receiver
	err := r.Run(ctx, SamplerFunc(func() bool { return true }))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run returned %v, want deadline exceeded", err)
	}
	if r.State() != StateIdle {
		t.Errorf("State = %s, want IDLE", r.State())
	}
}

func TestNewReceiver_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero tick", func(c *Config) { c.TickMicros = 0 }},
		{"buffer too small", func(c *Config) { c.BufferSize = 3 }},
		{"buffer too large", func(c *Config) { c.BufferSize = 256 }},
		{"gap shorter than tick", func(c *Config) { c.GapMicros = 10 }},
		{"tolerance 100%", func(c *Config) { c.TolerancePercent = 100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if _, err := NewReceiver(cfg); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}
