// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is a stored capture. Records are written back to back as CBOR maps
// with integer keys.
type Record struct {
	Timestamp  int64    `cbor:"1,keyasint"` // unix microseconds
	Protocol   uint8    `cbor:"2,keyasint"`
	Value      uint32   `cbor:"3,keyasint"`
	Bits       int      `cbor:"4,keyasint"`
	Raw        []uint32 `cbor:"5,keyasint"`
	TickMicros uint32   `cbor:"6,keyasint,omitempty"`
	Repeat     bool     `cbor:"7,keyasint,omitempty"`
}

// NewRecord captures r for storage
func NewRecord(r *Result, tickMicros uint32) Record {
	raw := make([]uint32, len(r.Raw))
	copy(raw, r.Raw)
	return Record{
		Timestamp:  r.Timestamp.UnixMicro(),
		Protocol:   uint8(r.Protocol),
		Value:      r.Value,
		Bits:       r.Bits,
		Raw:        raw,
		TickMicros: tickMicros,
		Repeat:     r.Repeat,
	}
}

// Result converts the record back into a result
func (rec Record) Result() *Result {
	return &Result{
		Protocol:  ProtocolID(rec.Protocol),
		Value:     rec.Value,
		Bits:      rec.Bits,
		Raw:       rec.Raw,
		Timestamp: time.UnixMicro(rec.Timestamp),
		Repeat:    rec.Repeat,
	}
}

// WriteRecord appends one record to w
func WriteRecord(w io.Writer, rec Record) error {
	data, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// RecordReader reads records written by WriteRecord
type RecordReader struct {
	dec *cbor.Decoder
}

// NewRecordReader creates a reader over r
func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF after the last one
func (rr *RecordReader) Next() (Record, error) {
	var rec Record
	if err := rr.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}
