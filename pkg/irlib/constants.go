// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package irlib captures, decodes and generates infrared remote-control signals.
//
// Signals are handled as alternating marks (carrier on) and spaces (carrier off).
// A Receiver samples an input line once per tick and records interval lengths,
// a Decoder matches the recorded intervals against a protocol Template with a
// dual-band timing tolerance, and a Sender rebuilds the waveform from a value and
// the same Template. Protocols are tried in order by a Registry.
package irlib

// Capture defaults
const (
	DefaultTickMicros       = 50   // sampling period
	DefaultGapMicros        = 5000 // minimum silence between transmissions
	DefaultMarkExcess       = 100  // receiver mark over-report, in microseconds
	DefaultTolerancePercent = 20
	DefaultToleranceMargin  = 25 // microseconds
	DefaultBufferSize       = 100
)

// Buffer size limits
const (
	MinBufferSize = 4
	MaxBufferSize = 255
)

// RepeatValue asks the NEC sender for a repeat code.
const RepeatValue = 0xFFFFFFFF

// ProtocolID identifies a registered protocol.
// New protocols are appended; existing values never change.
type ProtocolID uint8

// Protocol identifiers
const (
	ProtocolUnknown     ProtocolID = 0
	ProtocolLightStrike ProtocolID = 1
	ProtocolNEC         ProtocolID = 2
	ProtocolSony        ProtocolID = 3
)

// String returns the protocol name
func (id ProtocolID) String() string {
	switch id {
	case ProtocolLightStrike:
		return "LIGHT_STRIKE"
	case ProtocolNEC:
		return "NEC"
	case ProtocolSony:
		return "SONY"
	default:
		return "Unknown"
	}
}

// State is the capture state machine state
type State uint8

// Capture states
const (
	StateIdle State = iota
	StateMark
	StateSpace
	StateStop
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateMark:
		return "MARK"
	case StateSpace:
		return "SPACE"
	case StateStop:
		return "STOP"
	default:
		return "INVALID"
	}
}
