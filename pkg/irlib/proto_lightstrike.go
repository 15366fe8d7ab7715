// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

// LightStrikeTemplate is the LightStrike laser tag timing, built on a 564us unit
var LightStrikeTemplate = Template{
	HeadMark:  necUnit * 16,
	HeadSpace: necUnit * 8,
	MarkOne:   necUnit,
	MarkZero:  necUnit,
	SpaceOne:  necUnit * 3,
	SpaceZero: necUnit,
	Bits:      32,
	KHz:       38,
	StopBit:   true,
	RawCount:  68,
}

// NewLightStrike returns the LightStrike protocol
func NewLightStrike() Protocol {
	return &genericProtocol{id: ProtocolLightStrike, template: LightStrikeTemplate}
}
