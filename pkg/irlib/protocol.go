// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package irlib

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Protocol is one entry in the decode chain
type Protocol interface {
	ID() ProtocolID
	Name() string
	Template() Template
	// Decode matches the decoder buffer, returning a result or the reason for rejection
	Decode(d *Decoder) (*Result, error)
	// Send transmits value with the given bit width
	Send(ctx context.Context, s *Sender, value uint32, bits int) error
}

// genericProtocol decodes and sends with a single template
type genericProtocol struct {
	id       ProtocolID
	template Template
}

// NewGenericProtocol returns a protocol handled entirely by the generic codec
func NewGenericProtocol(id ProtocolID, t Template) (Protocol, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("protocol %s: %w", id, err)
	}
	return &genericProtocol{id: id, template: t}, nil
}

func (p *genericProtocol) ID() ProtocolID     { return p.id }
func (p *genericProtocol) Name() string       { return p.id.String() }
func (p *genericProtocol) Template() Template { return p.template }

func (p *genericProtocol) Decode(d *Decoder) (*Result, error) {
	return p.decodeWith(d, p.template)
}

func (p *genericProtocol) decodeWith(d *Decoder, t Template) (*Result, error) {
	value, bits, err := d.DecodeGeneric(t)
	if err != nil {
		return nil, err
	}
	return newResult(p.id, value, bits, d), nil
}

func (p *genericProtocol) Send(ctx context.Context, s *Sender, value uint32, bits int) error {
	if bits == 0 {
		bits = p.template.Bits
	}
	return s.SendGeneric(ctx, value, bits, p.template)
}

func newResult(id ProtocolID, value uint32, bits int, d *Decoder) *Result {
	raw := make([]uint32, len(d.Raw))
	copy(raw, d.Raw)
	return &Result{
		Protocol:  id,
		Value:     value,
		Bits:      bits,
		Raw:       raw,
		Timestamp: time.Now(),
	}
}

// Registry is an ordered chain of protocols. The first protocol to accept a
// buffer wins.
type Registry struct {
	protocols []Protocol
}

// NewRegistry creates a registry trying protocols in the given order
func NewRegistry(protocols ...Protocol) *Registry {
	r := &Registry{}
	for _, p := range protocols {
		r.Register(p)
	}
	return r
}

// DefaultRegistry returns NEC, LightStrike and Sony, in that order.
// NEC is tried before LightStrike because both share the 564us data
// timing and only NEC carries an inverse check.
func DefaultRegistry() *Registry {
	return NewRegistry(NewNEC(), NewLightStrike(), NewSony())
}

// Register appends p to the chain, replacing any protocol with the same ID
func (r *Registry) Register(p Protocol) {
	for i, existing := range r.protocols {
		if existing.ID() == p.ID() {
			r.protocols[i] = p
			return
		}
	}
	r.protocols = append(r.protocols, p)
}

// Protocols returns the chain in decode order
func (r *Registry) Protocols() []Protocol {
	out := make([]Protocol, len(r.protocols))
	copy(out, r.protocols)
	return out
}

// Decode tries each protocol in order. The first match wins; later protocols
// that also accept the buffer are listed in the result's AlsoMatched.
// If none matches, the result carries ProtocolUnknown and the raw buffer,
// and the error is a *NoMatchError listing every rejection.
func (r *Registry) Decode(d *Decoder) (*Result, error) {
	if d.Overflowed() {
		return newResult(ProtocolUnknown, 0, 0, d), ErrBufferOverflow
	}

	attempts := make([]Attempt, 0, len(r.protocols))
	for i, p := range r.protocols {
		res, err := p.Decode(d)
		if err == nil {
			for _, other := range r.protocols[i+1:] {
				if _, err := other.Decode(d); err == nil {
					res.AlsoMatched = append(res.AlsoMatched, other.ID())
				}
			}
			return res, nil
		}
		attempts = append(attempts, Attempt{Protocol: p.ID(), Err: err})
	}
	return newResult(ProtocolUnknown, 0, 0, d), &NoMatchError{Attempts: attempts}
}

// Lookup returns the protocol registered under id
func (r *Registry) Lookup(id ProtocolID) (Protocol, bool) {
	for _, p := range r.protocols {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// ByName returns the protocol with the given name, ignoring case.
// Dashes and underscores are interchangeable.
func (r *Registry) ByName(name string) (Protocol, bool) {
	want := normalizeName(name)
	for _, p := range r.protocols {
		if normalizeName(p.Name()) == want {
			return p, true
		}
	}
	return nil, false
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
}

// Send transmits value using the protocol registered under id.
// A bits value of 0 selects the protocol's nominal width.
func (r *Registry) Send(ctx context.Context, s *Sender, id ProtocolID, value uint32, bits int) error {
	p, ok := r.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProtocol, id)
	}
	return p.Send(ctx, s, value, bits)
}
