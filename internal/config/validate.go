// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"fmt"
	"net/url"

	"github.com/Thermoquad/irscope/pkg/irlib"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// CAPTURE
	// ------------------------------------------------------------

	if err := cfg.IRConfig().Validate(); err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	registry := irlib.DefaultRegistry()
	for _, name := range cfg.Capture.DisabledProtocols {
		if _, ok := registry.ByName(name); !ok {
			return fmt.Errorf("capture: unknown protocol %q in disabled_protocols", name)
		}
	}

	// ------------------------------------------------------------
	// SOURCE
	// ------------------------------------------------------------

	selected := 0
	for _, v := range []string{cfg.Source.Port, cfg.Source.URL, cfg.Source.GPIO} {
		if v != "" {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("source: port, url and gpio are mutually exclusive")
	}

	if cfg.Source.Port != "" && cfg.Source.Baud <= 0 {
		return fmt.Errorf("source: baud must be positive, got %d", cfg.Source.Baud)
	}

	if cfg.Source.URL != "" {
		u, err := url.Parse(cfg.Source.URL)
		if err != nil {
			return fmt.Errorf("source: invalid url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("source: unsupported url scheme %q (use ws:// or wss://)", u.Scheme)
		}
	}

	// ------------------------------------------------------------
	// TRANSMIT
	// ------------------------------------------------------------

	if cfg.Transmit.DutyPercent < 1 || cfg.Transmit.DutyPercent > 100 {
		return fmt.Errorf("transmit: duty_percent must be 1-100, got %d", cfg.Transmit.DutyPercent)
	}

	// ------------------------------------------------------------
	// SERVE
	// ------------------------------------------------------------

	if cfg.Serve.History < 0 {
		return fmt.Errorf("serve: history must not be negative, got %d", cfg.Serve.History)
	}

	return nil
}
