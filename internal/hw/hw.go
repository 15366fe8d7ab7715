// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hw connects the IR codec to Linux GPIO through periph.io
package hw

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// pin is the subset of gpio.PinIO used here, to allow for mocking in tests
type pin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
	Halt() error
}

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the host drivers. Safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		_, initErr = host.Init()
	})
	return initErr
}

func lookup(name string) (pin, error) {
	if err := Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown GPIO pin %q", name)
	}
	return p, nil
}

// Input samples a demodulating IR receiver output
type Input struct {
	p pin
}

// OpenInput configures the named pin as an input with pull-up.
// Receiver modules idle high and pull low on carrier.
func OpenInput(name string) (*Input, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return newInput(p)
}

func newInput(p pin) (*Input, error) {
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure input: %w", err)
	}
	return &Input{p: p}, nil
}

// Sample returns the raw line level, true when high
func (in *Input) Sample() bool {
	return in.p.Read() == gpio.High
}

// Close releases the pin
func (in *Input) Close() error {
	return in.p.Halt()
}

// Carrier drives an IR LED with a PWM carrier
type Carrier struct {
	p    pin
	duty gpio.Duty
	freq physic.Frequency
	err  error
}

// OpenCarrier opens the named PWM-capable pin with the given duty cycle
// percentage. Values outside 1-100 select 33%.
func OpenCarrier(name string, dutyPercent int) (*Carrier, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return newCarrier(p, dutyPercent), nil
}

func newCarrier(p pin, dutyPercent int) *Carrier {
	if dutyPercent < 1 || dutyPercent > 100 {
		dutyPercent = 33
	}
	return &Carrier{
		p:    p,
		duty: gpio.DutyMax * gpio.Duty(dutyPercent) / 100,
	}
}

// Configure sets the carrier frequency and drives the LED off
func (c *Carrier) Configure(kHz uint8) error {
	if kHz == 0 {
		return fmt.Errorf("carrier frequency must be non-zero")
	}
	c.freq = physic.Frequency(kHz) * physic.KiloHertz
	c.err = nil
	return c.p.Out(gpio.Low)
}

// On starts the carrier. The first failure is kept for Err.
func (c *Carrier) On() {
	if err := c.p.PWM(c.duty, c.freq); err != nil && c.err == nil {
		c.err = fmt.Errorf("pwm: %w", err)
	}
}

// Off stops the carrier
func (c *Carrier) Off() {
	if err := c.p.Out(gpio.Low); err != nil && c.err == nil {
		c.err = fmt.Errorf("out: %w", err)
	}
}

// Err returns the first output error since the last Configure
func (c *Carrier) Err() error {
	return c.err
}

// Close turns the LED off and releases the pin
func (c *Carrier) Close() error {
	c.Off()
	return c.p.Halt()
}

// Indicator is an activity LED
type Indicator struct {
	p pin
}

// OpenIndicator opens the named pin as an output, initially off
func OpenIndicator(name string) (*Indicator, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return newIndicator(p)
}

func newIndicator(p pin) (*Indicator, error) {
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to configure indicator: %w", err)
	}
	return &Indicator{p: p}, nil
}

// Set drives the LED. Matches the Receiver blink callback signature.
func (i *Indicator) Set(on bool) {
	_ = i.p.Out(gpio.Level(on))
}

// Close turns the LED off and releases the pin
func (i *Indicator) Close() error {
	i.Set(false)
	return i.p.Halt()
}
