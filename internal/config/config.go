// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"fmt"
	"os"

	"github.com/Thermoquad/irscope/pkg/irlib"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Capture  CaptureConfig  `yaml:"capture"`
	Source   SourceConfig   `yaml:"source"`
	Transmit TransmitConfig `yaml:"transmit"`
	Serve    ServeConfig    `yaml:"serve"`
}

// ---- CAPTURE ----

type CaptureConfig struct {
	TickMicros        uint32   `yaml:"tick_us"`
	GapMicros         uint32   `yaml:"gap_us"`
	MarkExcessMicros  uint32   `yaml:"mark_excess_us"`
	TolerancePercent  uint32   `yaml:"tolerance_percent"`
	ToleranceMicros   uint32   `yaml:"tolerance_margin_us"`
	BufferSize        int      `yaml:"buffer_size"`
	ActiveLow         bool     `yaml:"active_low"`
	IgnoreHeader      bool     `yaml:"ignore_header"`
	BlinkPin          string   `yaml:"blink_pin"` // optional activity LED
	DisabledProtocols []string `yaml:"disabled_protocols"`
}

// ---- SOURCE ----

// Exactly one of Port, URL or GPIO selects where line samples come from
type SourceConfig struct {
	Port        string `yaml:"port"`
	Baud        int    `yaml:"baud"`
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
	GPIO        string `yaml:"gpio"`
}

// ---- TRANSMIT ----

type TransmitConfig struct {
	Pin         string `yaml:"pin"`
	DutyPercent int    `yaml:"duty_percent"`
}

// ---- SERVE ----

type ServeConfig struct {
	Listen  string `yaml:"listen"`
	History int    `yaml:"history"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	d := irlib.DefaultConfig()
	return &Config{
		Capture: CaptureConfig{
			TickMicros:       d.TickMicros,
			GapMicros:        d.GapMicros,
			MarkExcessMicros: d.MarkExcess,
			TolerancePercent: d.TolerancePercent,
			ToleranceMicros:  d.ToleranceMargin,
			BufferSize:       d.BufferSize,
			ActiveLow:        d.ActiveLow,
		},
		Source: SourceConfig{
			Baud: 115200,
		},
		Transmit: TransmitConfig{
			DutyPercent: 33,
		},
		Serve: ServeConfig{
			Listen:  ":8080",
			History: 100,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// IRConfig converts the capture section to the codec configuration
func (c *Config) IRConfig() irlib.Config {
	return irlib.Config{
		TickMicros:       c.Capture.TickMicros,
		GapMicros:        c.Capture.GapMicros,
		MarkExcess:       c.Capture.MarkExcessMicros,
		TolerancePercent: c.Capture.TolerancePercent,
		ToleranceMargin:  c.Capture.ToleranceMicros,
		BufferSize:       c.Capture.BufferSize,
		ActiveLow:        c.Capture.ActiveLow,
	}
}

// Registry returns the default protocol chain without the disabled protocols
func (c *Config) Registry() *irlib.Registry {
	all := irlib.DefaultRegistry()
	disabled := make(map[irlib.ProtocolID]bool)
	for _, name := range c.Capture.DisabledProtocols {
		if p, ok := all.ByName(name); ok {
			disabled[p.ID()] = true
		}
	}

	reg := irlib.NewRegistry()
	for _, p := range all.Protocols() {
		if !disabled[p.ID()] {
			reg.Register(p)
		}
	}
	return reg
}
