// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Source.Port = strings.TrimSpace(cfg.Source.Port)
	cfg.Source.URL = strings.TrimSpace(cfg.Source.URL)
	cfg.Source.GPIO = strings.ToUpper(strings.TrimSpace(cfg.Source.GPIO))
	cfg.Transmit.Pin = strings.ToUpper(strings.TrimSpace(cfg.Transmit.Pin))
	cfg.Capture.BlinkPin = strings.ToUpper(strings.TrimSpace(cfg.Capture.BlinkPin))

	// Protocol names match the registry spelling
	for i, name := range cfg.Capture.DisabledProtocols {
		cfg.Capture.DisabledProtocols[i] = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	}

	if cfg.Serve.Listen == "" {
		cfg.Serve.Listen = ":8080"
	}

	// Gap threshold is counted in whole ticks
	if rem := cfg.Capture.GapMicros % cfg.Capture.TickMicros; rem != 0 {
		cfg.Capture.GapMicros -= rem
	}
}
