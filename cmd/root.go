// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/irscope/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Local GPIO input
	gpioPin string

	configPath string

	// appConfig is the merged file and flag configuration, set before any
	// subcommand runs
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "irscope",
	Short: "Infrared Remote Capture and Decode Tool",
	Long: `irscope - A CLI tool for capturing, decoding and sending infrared remote signals.

Line samples from a demodulating IR receiver are timed into mark/space
intervals, and each completed transmission is decoded against the NEC,
LightStrike and Sony protocols.

Sample sources:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]
  GPIO:      --gpio GPIO17

Serial and WebSocket bridges stream packed samples: each byte carries eight
consecutive line levels, least significant bit first, one per tick.

For WebSocket authentication, the password is read from the IRSCOPE_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "0.3.0",
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&gpioPin, "gpio", "", "GPIO pin wired to the IR receiver output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
}

// loadConfig reads the configuration file, then applies any flags given on
// the command line over it
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Source.Port = portName
	}
	if flags.Changed("baud") {
		cfg.Source.Baud = baudRate
	}
	if flags.Changed("url") {
		cfg.Source.URL = wsURL
	}
	if flags.Changed("username") {
		cfg.Source.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.Source.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("gpio") {
		cfg.Source.GPIO = gpioPin
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	config.Normalize(cfg)

	appConfig = cfg
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
