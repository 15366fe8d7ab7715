// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"context"
	"testing"
	"time"
)

// segment is one constant-level stretch of an emitted waveform
type segment struct {
	mark bool
	us   uint32
}

// waveRecorder is a Carrier that records the waveform produced through a fake delay
type waveRecorder struct {
	kHz        uint8
	configured int
	on         bool
	wave       []segment
}

func (w *waveRecorder) Configure(kHz uint8) error {
	w.kHz = kHz
	w.configured++
	w.on = false
	return nil
}

func (w *waveRecorder) On()  { w.on = true }
func (w *waveRecorder) Off() { w.on = false }

// delay merges consecutive stretches at the same level
func (w *waveRecorder) delay(d time.Duration) {
	us := uint32(d / time.Microsecond)
	if n := len(w.wave); n > 0 && w.wave[n-1].mark == w.on {
		w.wave[n-1].us += us
		return
	}
	w.wave = append(w.wave, segment{mark: w.on, us: us})
}

func newRecordingSender() (*Sender, *waveRecorder) {
	rec := &waveRecorder{}
	s := NewSender(rec)
	s.SetDelay(rec.delay)
	return s, rec
}

// toRaw converts a waveform into a decoder buffer preceded by gap.
// The trailing space merges into the next gap and is dropped.
func toRaw(wave []segment, gap uint32) []uint32 {
	if n := len(wave); n > 0 && !wave[n-1].mark {
		wave = wave[:n-1]
	}
	raw := []uint32{gap}
	for _, seg := range wave {
		raw = append(raw, seg.us)
	}
	return raw
}

// encodeRaw emits value with t and returns the resulting decoder buffer
func encodeRaw(t *testing.T, tmpl Template, value uint32, bits int) []uint32 {
	t.Helper()
	s, rec := newRecordingSender()
	if err := s.SendGeneric(context.Background(), value, bits, tmpl); err != nil {
		t.Fatalf("SendGeneric failed: %v", err)
	}
	return toRaw(rec.wave, 20000)
}

// sampleWave renders a waveform as mark/space samples taken every tickUs.
// Marks are stretched by skewUs at the expense of the following space, the
// way demodulating receivers report them, and the frame is padded with
// idleUs of space on both sides.
func sampleWave(wave []segment, tickUs, skewUs, idleUs uint32) []bool {
	type edge struct {
		end  uint64
		mark bool
	}
	var edges []edge
	t := uint64(idleUs)
	edges = append(edges, edge{end: t, mark: false})
	for i, seg := range wave {
		d := uint64(seg.us)
		switch {
		case seg.mark:
			d += uint64(skewUs)
		case i > 0 && wave[i-1].mark:
			if d > uint64(skewUs) {
				d -= uint64(skewUs)
			}
		}
		t += d
		edges = append(edges, edge{end: t, mark: seg.mark})
	}
	t += uint64(idleUs)
	edges = append(edges, edge{end: t, mark: false})

	var samples []bool
	e := 0
	for at := uint64(0); at < t; at += uint64(tickUs) {
		for edges[e].end <= at {
			e++
		}
		samples = append(samples, edges[e].mark)
	}
	return samples
}

// waveFor emits value through p and returns the waveform
func waveFor(t *testing.T, p Protocol, value uint32, bits int) []segment {
	t.Helper()
	s, rec := newRecordingSender()
	if err := p.Send(context.Background(), s, value, bits); err != nil {
		t.Fatalf("%s send failed: %v", p.Name(), err)
	}
	return rec.wave
}

// feed ticks r n times with the same level
func feed(r *Receiver, mark bool, n int) {
	for i := 0; i < n; i++ {
		r.Tick(mark)
	}
}
