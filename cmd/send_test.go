// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/Thermoquad/irscope/pkg/irlib"
)

func TestSendFrameValue(t *testing.T) {
	tests := []struct {
		name     string
		id       irlib.ProtocolID
		value    string
		address  int
		command  int
		want     uint32
		wantFail bool
	}{
		{"hex with prefix", irlib.ProtocolSony, "0x95", -1, -1, 0x95, false},
		{"hex without prefix", irlib.ProtocolNEC, "20df10ef", -1, -1, 0x20DF10EF, false},
		{"upper prefix", irlib.ProtocolNEC, "0XFF", -1, -1, 0xFF, false},
		{"repeat", irlib.ProtocolNEC, "repeat", -1, -1, irlib.RepeatValue, false},
		{"repeat not NEC", irlib.ProtocolSony, "REPEAT", -1, -1, 0, true},
		{"nec fields", irlib.ProtocolNEC, "", 0x04, 0x08, irlib.NECValue(0x04, 0x08), false},
		{"fields not NEC", irlib.ProtocolSony, "", 0x04, 0x08, 0, true},
		{"command missing", irlib.ProtocolNEC, "", 0x04, -1, 0, true},
		{"command too large", irlib.ProtocolNEC, "", 0x04, 0x100, 0, true},
		{"value and fields", irlib.ProtocolNEC, "0x1", 0x04, 0x08, 0, true},
		{"missing value", irlib.ProtocolNEC, "", -1, -1, 0, true},
		{"not hex", irlib.ProtocolNEC, "0xZZ", -1, -1, 0, true},
		{"too wide", irlib.ProtocolNEC, "0x100000000", -1, -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sendFrameValue(tt.id, tt.value, tt.address, tt.command)
			if tt.wantFail {
				if err == nil {
					t.Fatalf("expected error, got value 0x%X", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("value = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestWaveCarrier_Sony(t *testing.T) {
	wave := &waveCarrier{}
	s := irlib.NewSender(wave)
	s.SetDelay(wave.delay)
	reg := irlib.DefaultRegistry()

	if err := reg.Send(context.Background(), s, irlib.ProtocolSony, 0x95, 0); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if wave.kHz != 40 {
		t.Errorf("kHz = %d, want 40", wave.kHz)
	}
	// header plus twelve mark/space pairs, the last space padded to the period
	if len(wave.intervals) != 26 {
		t.Fatalf("got %d intervals, want 26: %s", len(wave.intervals), wave)
	}
	var total uint32
	for _, v := range wave.intervals {
		total += v
	}
	if total != irlib.SonyTemplate.MaxExtent {
		t.Errorf("frame length = %d, want %d", total, irlib.SonyTemplate.MaxExtent)
	}

	wave.reset()
	if err := reg.Send(context.Background(), s, irlib.ProtocolSony, 0x5, 3); !errors.Is(err, irlib.ErrInvalidBitCount) {
		t.Errorf("3-bit Sony send: err = %v, want ErrInvalidBitCount", err)
	}
	if len(wave.intervals) != 0 {
		t.Errorf("rejected send produced output: %s", wave)
	}
}

func TestWaveCarrier_Waveform(t *testing.T) {
	wave := &waveCarrier{}
	s := irlib.NewSender(wave)
	s.SetDelay(wave.delay)

	tmpl := irlib.Template{
		HeadMark: 1000, HeadSpace: 500,
		MarkOne: 300, MarkZero: 100,
		SpaceOne: 200, SpaceZero: 200,
		Bits: 2, KHz: 38, MaxExtent: 3000,
	}
	if err := s.SendGeneric(context.Background(), 0x2, 2, tmpl); err != nil {
		t.Fatalf("SendGeneric failed: %v", err)
	}

	// head, bit 1, bit 0, trailing space padded to MaxExtent
	want := "+1000 -500 +300 -200 +100 -900"
	if got := wave.String(); got != want {
		t.Errorf("waveform = %q, want %q", got, want)
	}

	wave.reset()
	if len(wave.intervals) != 0 {
		t.Error("reset kept intervals")
	}
}

// sampleIntervals renders alternating mark/space intervals as receiver
// samples taken every tickUs, with marks stretched by 100 µs the way a
// demodulator reports them and idleUs of space on both sides
func sampleIntervals(intervals []uint32, tickUs, idleUs uint32) []bool {
	var samples []bool
	emit := func(mark bool, us uint32) {
		for n := us / tickUs; n > 0; n-- {
			samples = append(samples, mark)
		}
	}
	emit(false, idleUs)
	for i, us := range intervals {
		mark := i%2 == 0
		switch {
		case mark:
			us += 100
		case us > 100:
			us -= 100
		}
		emit(mark, us)
	}
	emit(false, idleUs)
	return samples
}

func TestSendRepeated_FramesSeparate(t *testing.T) {
	tests := []struct {
		name     string
		protocol irlib.ProtocolID
		value    uint32
		bits     int
	}{
		{"light strike", irlib.ProtocolLightStrike, 0x8F2C0013, 0},
		{"nec", irlib.ProtocolNEC, irlib.NECValue(0x04, 0x08), 0},
		{"sony", irlib.ProtocolSony, 0x95, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := irlib.DefaultRegistry()
			p, _ := reg.Lookup(tt.protocol)

			wave := &waveCarrier{}
			s := irlib.NewSender(wave)
			s.SetDelay(wave.delay)
			err := sendRepeated(context.Background(), reg, s, p, tt.value, tt.bits, 3, irlib.DefaultGapMicros, nil)
			if err != nil {
				t.Fatalf("sendRepeated failed: %v", err)
			}

			cfg := irlib.DefaultConfig()
			capture, err := irlib.NewCapture(cfg, reg)
			if err != nil {
				t.Fatalf("NewCapture failed: %v", err)
			}
			var frames []irlib.Frame
			for _, mark := range sampleIntervals(wave.intervals, cfg.TickMicros, 10000) {
				if f, ok := capture.Step(mark); ok {
					frames = append(frames, f)
				}
			}

			if len(frames) != 3 {
				t.Fatalf("captured %d frames, want 3", len(frames))
			}
			for i, f := range frames {
				if f.Err != nil {
					t.Errorf("frame %d: %v", i, f.Err)
					continue
				}
				if f.Result.Protocol != tt.protocol || f.Result.Value != tt.value {
					t.Errorf("frame %d: got %s", i, irlib.FormatResultShort(f.Result))
				}
			}
		})
	}
}

func TestSendRepeated_StopsOnError(t *testing.T) {
	reg := irlib.DefaultRegistry()
	p, _ := reg.Lookup(irlib.ProtocolLightStrike)
	wave := &waveCarrier{}
	s := irlib.NewSender(wave)
	s.SetDelay(wave.delay)

	calls := 0
	failure := errors.New("carrier fault")
	err := sendRepeated(context.Background(), reg, s, p, 0x1, 0, 5, irlib.DefaultGapMicros, func() error {
		calls++
		return failure
	})
	if !errors.Is(err, failure) {
		t.Errorf("err = %v, want the callback error", err)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times, want 1", calls)
	}
}
