// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"
)

func TestRecord_WriteRead(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 123000, time.UTC)
	results := []*Result{
		{Protocol: ProtocolNEC, Value: 0x00FF00FF, Bits: 32, Raw: []uint32{20000, 9000, 4500, 564}, Timestamp: ts},
		{Protocol: ProtocolUnknown, Raw: []uint32{7000, 300, 300}, Timestamp: ts.Add(time.Second)},
	}

	var buf bytes.Buffer
	for _, r := range results {
		if err := WriteRecord(&buf, NewRecord(r, 50)); err != nil {
			t.Fatalf("WriteRecord failed: %v", err)
		}
	}

	rr := NewRecordReader(&buf)
	for i, want := range results {
		rec, err := rr.Next()
		if err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
		if rec.TickMicros != 50 {
			t.Errorf("Record %d: TickMicros = %d, want 50", i, rec.TickMicros)
		}
		got := rec.Result()
		if got.Protocol != want.Protocol || got.Value != want.Value || got.Bits != want.Bits {
			t.Errorf("Record %d: got %s 0x%X/%d", i, got.Protocol, got.Value, got.Bits)
		}
		if !reflect.DeepEqual(got.Raw, want.Raw) {
			t.Errorf("Record %d: Raw = %v, want %v", i, got.Raw, want.Raw)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("Record %d: Timestamp = %v, want %v", i, got.Timestamp, want.Timestamp)
		}
	}

	if _, err := rr.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF after the last record, got %v", err)
	}
}

func TestRecord_Truncated(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecord(&Result{Protocol: ProtocolSony, Raw: []uint32{1, 2, 3, 4}}, 50)
	if err := WriteRecord(&buf, rec); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	data := buf.Bytes()

	_, err := NewRecordReader(bytes.NewReader(data[:len(data)-2])).Next()
	if err == nil || errors.Is(err, io.EOF) {
		t.Errorf("Expected a decode error for a truncated record, got %v", err)
	}
}

func TestRecord_ReplayDecodes(t *testing.T) {
	raw := encodeRaw(t, NECTemplate, NECValue(0x55, 0x10), 32)

	var buf bytes.Buffer
	if err := WriteRecord(&buf, NewRecord(&Result{Raw: raw}, 50)); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	rec, err := NewRecordReader(&buf).Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	res, err := DefaultRegistry().Decode(decoderWith(rec.Raw))
	if err != nil {
		t.Fatalf("Decode of replayed record failed: %v", err)
	}
	if res.Value != NECValue(0x55, 0x10) {
		t.Errorf("Value = 0x%08X", res.Value)
	}
}
