// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// irscope - Infrared Remote Capture and Decode Tool
//
// A CLI tool for capturing IR remote transmissions from a demodulating
// receiver, decoding them, and sending codes through an IR LED.

package main

import (
	"os"

	"github.com/Thermoquad/irscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
