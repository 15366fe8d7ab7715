// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a decode failure
type ErrorKind int

// Decode error kinds
const (
	KindRawCount ErrorKind = iota + 1
	KindHeaderMark
	KindHeaderSpace
	KindDataMark
	KindDataSpace
	KindBufferOverflow
	KindNoProtocolMatched
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case KindRawCount:
		return "RawCountMismatch"
	case KindHeaderMark:
		return "HeaderMarkMismatch"
	case KindHeaderSpace:
		return "HeaderSpaceMismatch"
	case KindDataMark:
		return "DataMarkMismatch"
	case KindDataSpace:
		return "DataSpaceMismatch"
	case KindBufferOverflow:
		return "BufferOverflow"
	case KindNoProtocolMatched:
		return "NoProtocolMatched"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// DecodeError describes where and why a buffer failed to match a template
type DecodeError struct {
	Kind     ErrorKind
	Offset   int    // buffer index of the offending entry, -1 if not applicable
	Expected uint32 // expected duration or count
	Actual   uint32 // measured duration or count
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Offset < 0 {
		if e.Expected == 0 && e.Actual == 0 {
			return e.Kind.String()
		}
		return fmt.Sprintf("%s: expected %d, got %d", e.Kind, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s at offset %d: expected %d, got %d", e.Kind, e.Offset, e.Expected, e.Actual)
}

// Is matches any DecodeError of the same kind
func (e *DecodeError) Is(target error) bool {
	var t *DecodeError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors, usable with errors.Is
var (
	ErrRawCount          = &DecodeError{Kind: KindRawCount, Offset: -1}
	ErrHeaderMark        = &DecodeError{Kind: KindHeaderMark, Offset: -1}
	ErrHeaderSpace       = &DecodeError{Kind: KindHeaderSpace, Offset: -1}
	ErrDataMark          = &DecodeError{Kind: KindDataMark, Offset: -1}
	ErrDataSpace         = &DecodeError{Kind: KindDataSpace, Offset: -1}
	ErrBufferOverflow    = &DecodeError{Kind: KindBufferOverflow, Offset: -1}
	ErrNoProtocolMatched = &DecodeError{Kind: KindNoProtocolMatched, Offset: -1}
)

// Encoder and registry errors
var (
	ErrInvalidBitCount = errors.New("bit count must be between 1 and 32")
	ErrInvalidTemplate = errors.New("invalid protocol template")
	ErrUnknownProtocol = errors.New("unknown protocol")
	ErrInvalidChecksum = errors.New("inverse check failed")
)

func mismatch(kind ErrorKind, offset int, expected, actual uint32) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Expected: expected, Actual: actual}
}

// Attempt records one protocol's rejection of a buffer
type Attempt struct {
	Protocol ProtocolID
	Err      error
}

// NoMatchError is returned when every registered protocol rejected a buffer.
// It matches ErrNoProtocolMatched.
type NoMatchError struct {
	Attempts []Attempt
}

// Error implements the error interface
func (e *NoMatchError) Error() string {
	if len(e.Attempts) == 0 {
		return "no protocol matched: registry is empty"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Protocol, a.Err))
	}
	return "no protocol matched (" + strings.Join(parts, "; ") + ")"
}

// Is reports true for ErrNoProtocolMatched
func (e *NoMatchError) Is(target error) bool {
	var t *DecodeError
	return errors.As(target, &t) && t.Kind == KindNoProtocolMatched
}
