// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/irscope/pkg/irlib"
	"github.com/spf13/cobra"
)

var (
	frameTestTimeout int
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_check",
	Short: "Test the receiver by waiting for a decoded transmission",
	Long: `Wait for a transmission that decodes to a known protocol until timeout.

This command opens the configured sample source and waits for any IR
transmission accepted by the protocol chain. Captures that no protocol
accepts are counted and ignored.

Exit codes:
  0 - Transmission decoded before timeout
  1 - Timeout reached without a decoded transmission
  2 - Source error

Press a button on any NEC, LightStrike or Sony remote while it waits.`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a transmission")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, err := openCaptureSource(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Source error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("irscope - Frame Test\n")
	fmt.Printf("Source: %s\n", src.info)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for a decoded transmission...\n\n")

	code := waitForFrame(src.Frames(), time.Duration(frameTestTimeout)*time.Second)
	src.Close()
	os.Exit(code)
	return nil
}

// waitForFrame reports the first decoded frame and returns the exit code
func waitForFrame(frames <-chan irlib.Frame, timeout time.Duration) int {
	deadline := time.After(timeout)
	rejected := 0
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				fmt.Fprintf(os.Stderr, "Source closed\n")
				return 2
			}
			if f.Err != nil {
				rejected++
				continue
			}
			if rejected > 0 {
				fmt.Printf("(ignored %d undecodable captures)\n", rejected)
			}
			fmt.Printf("SUCCESS: Received %s\n", irlib.FormatResultShort(f.Result))
			fmt.Printf("  Protocol: %s (%d)\n", f.Result.Protocol, f.Result.Protocol)
			fmt.Printf("  Value: 0x%X\n", f.Result.Value)
			fmt.Printf("  Bits: %d\n", f.Result.Bits)
			fmt.Printf("  Intervals: %d\n", len(f.Result.Raw))
			return 0

		case <-deadline:
			fmt.Fprintf(os.Stderr, "TIMEOUT: No decoded transmission within %s\n", timeout)
			return 1
		}
	}
}
