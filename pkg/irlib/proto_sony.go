// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"context"
	"fmt"
)

// SonyTemplate is the Sony SIRC timing. The mark length carries each bit and
// the frame repeats every 45ms. Bits is the widest variant.
var SonyTemplate = Template{
	HeadMark:  2400,
	HeadSpace: 600,
	MarkOne:   1200,
	MarkZero:  600,
	SpaceOne:  600,
	SpaceZero: 600,
	Bits:      20,
	KHz:       40,
	MaxExtent: 45000,
}

// SonyDefaultBits is the width sent when none is given
const SonyDefaultBits = 12

type sonyProtocol struct {
	genericProtocol
}

// NewSony returns the Sony SIRC protocol in its 12, 15 and 20 bit variants
func NewSony() Protocol {
	return &sonyProtocol{genericProtocol{id: ProtocolSony, template: SonyTemplate}}
}

func sonyWidth(bits int) bool {
	return bits == 12 || bits == 15 || bits == 20
}

func (p *sonyProtocol) Decode(d *Decoder) (*Result, error) {
	t := p.template
	n := len(d.Raw)
	switch n {
	case t.FrameLength(12), t.FrameLength(15), t.FrameLength(20):
		t.RawCount = n
	default:
		return nil, mismatch(KindRawCount, -1, uint32(t.FrameLength(SonyDefaultBits)), uint32(n))
	}
	return p.genericProtocol.decodeWith(d, t)
}

func (p *sonyProtocol) Send(ctx context.Context, s *Sender, value uint32, bits int) error {
	if bits == 0 {
		bits = SonyDefaultBits
	}
	if !sonyWidth(bits) {
		return fmt.Errorf("%w: Sony sends 12, 15 or 20 bits, not %d", ErrInvalidBitCount, bits)
	}
	return s.SendGeneric(ctx, value, bits, p.template)
}
