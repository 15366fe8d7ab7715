// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"context"
	"fmt"
	"math/bits"
)

// NEC protocol references
// https://www.sbprojects.net/knowledge/ir/nec.php

// NEC timing, in microseconds
const (
	necUnit        = 564
	necRepeatSpace = 2250
	necPeriod      = 108000
)

// NECTemplate is the NEC data frame timing
var NECTemplate = Template{
	HeadMark:  9000,
	HeadSpace: 4500,
	MarkOne:   necUnit,
	MarkZero:  necUnit,
	SpaceOne:  necUnit * 3,
	SpaceZero: necUnit,
	Bits:      32,
	KHz:       38,
	StopBit:   true,
	MaxExtent: necPeriod,
	RawCount:  68,
}

type necProtocol struct {
	genericProtocol
}

// NewNEC returns the NEC protocol. Values are reported in transmission order,
// first bit in the most significant position. Data frames must carry an
// inverted command byte. Repeat frames decode to a Result with Repeat set.
// Sending RepeatValue emits a repeat frame.
func NewNEC() Protocol {
	return &necProtocol{genericProtocol{id: ProtocolNEC, template: NECTemplate}}
}

func (p *necProtocol) Decode(d *Decoder) (*Result, error) {
	if p.isRepeat(d) {
		res := newResult(ProtocolNEC, 0, 0, d)
		res.Repeat = true
		return res, nil
	}
	value, n, err := d.DecodeGeneric(p.template)
	if err != nil {
		return nil, err
	}
	if uint8(value) != ^uint8(value>>8) {
		return nil, fmt.Errorf("%w: 0x%08X", ErrInvalidChecksum, value)
	}
	return newResult(ProtocolNEC, value, n, d), nil
}

// isRepeat matches the four-entry repeat frame: gap, head mark, short space, stop mark
func (p *necProtocol) isRepeat(d *Decoder) bool {
	if len(d.Raw) != 4 {
		return false
	}
	headOK := d.IgnoreHeader || d.match(1, p.template.HeadMark)
	return headOK && d.match(2, necRepeatSpace) && d.match(3, necUnit)
}

func (p *necProtocol) Send(ctx context.Context, s *Sender, value uint32, n int) error {
	if value == RepeatValue {
		return SendNECRepeat(ctx, s)
	}
	return p.genericProtocol.Send(ctx, s, value, n)
}

// SendNECRepeat transmits a repeat frame padded to the NEC frame period
func SendNECRepeat(ctx context.Context, s *Sender) error {
	if err := s.carrier.Configure(NECTemplate.KHz); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.extent = 0
	s.Mark(NECTemplate.HeadMark)
	s.Space(necRepeatSpace)
	s.Mark(necUnit)
	s.Space(necPeriod - s.extent)
	return nil
}

// NECValue builds the transmission-order value for an address and command
func NECValue(address uint16, command byte) uint32 {
	return bits.Reverse32(MakeRawNECData(address, command))
}

// NECFields splits a transmission-order value into address and command.
// valid is false if the command inverse does not match.
func NECFields(value uint32) (valid bool, address uint16, command byte) {
	return SplitRawNECData(bits.Reverse32(value))
}

// SplitRawNECData breaks a least-significant-bit-first NEC code into
// address and command, checking the inverted command byte
func SplitRawNECData(data uint32) (valid bool, address uint16, command byte) {
	addrLow := byte(data)
	addrHigh := byte(data >> 8)
	command = byte(data >> 16)
	invCmd := byte(data >> 24)
	address = MakeNECAddress(addrLow, addrHigh)
	return command == ^invCmd, address, command
}

// MakeRawNECData assembles a least-significant-bit-first NEC code
func MakeRawNECData(address uint16, command byte) uint32 {
	addrLow, addrHigh := SplitNECAddress(address)
	return uint32(^command)<<24 | uint32(command)<<16 | uint32(addrHigh)<<8 | uint32(addrLow)
}

// SplitNECAddress splits an address into low and high bytes. Addresses in the
// 8-bit range carry the inverted low byte as their high byte.
func SplitNECAddress(address uint16) (addrLow, addrHigh byte) {
	addrLow = byte(address)
	addrHigh = byte(address >> 8)
	if addrHigh == 0 {
		addrHigh = ^addrLow
	}
	return addrLow, addrHigh
}

// MakeNECAddress assembles an address from low and high bytes. A high byte
// equal to the inverted low byte denotes an 8-bit address.
func MakeNECAddress(addrLow, addrHigh byte) uint16 {
	if addrHigh == ^addrLow {
		return uint16(addrLow)
	}
	return uint16(addrHigh)<<8 | uint16(addrLow)
}
