// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"math"
	"math/bits"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var linkCheckCmd = &cobra.Command{
	Use:   "link_check",
	Short: "Test raw sample stream stability",
	Long: `Test the serial or WebSocket sample bridge without decoding.

This command connects to the bridge and counts the packed sample bytes it
receives, comparing the byte rate against the configured tick period and
reporting how many samples carried a mark. The test fails when the measured
rate is further than --tolerance percent from the expected rate, since a
drifting sample clock scales every decoded duration. Useful for debugging
bridges that drop samples or stall.

Exit codes:
  0 - Test completed normally
  1 - Test failed
  2 - Connection error`,
	RunE: runLinkCheck,
}

var (
	linkCheckDuration  int
	linkCheckTolerance float64
)

func init() {
	rootCmd.AddCommand(linkCheckCmd)
	linkCheckCmd.Flags().IntVar(&linkCheckDuration, "duration", 30, "Test duration in seconds")
	linkCheckCmd.Flags().Float64Var(&linkCheckTolerance, "tolerance", 5, "Allowed byte rate deviation in percent")
}

func runLinkCheck(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(appConfig.Source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	tick := time.Duration(appConfig.Capture.TickMicros) * time.Microsecond
	expected := float64(time.Second) / float64(tick) / 8

	fmt.Printf("Sample Stream Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n", linkCheckDuration)
	fmt.Printf("Expected rate: %.0f bytes/s (%s per sample)\n\n", expected, tick)

	readChan := make(chan []byte, 100)
	errChan := make(chan error, 1)

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				readChan <- data
			}
		}
	}()

	start := time.Now()
	endTime := start.Add(time.Duration(linkCheckDuration) * time.Second)
	bytesReceived := 0
	highSamples := 0
	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	fmt.Printf("Listening for samples...\n\n")

	measuredRate := func() float64 {
		return float64(bytesReceived) / time.Since(start).Seconds()
	}
	report := func() {
		elapsed := time.Since(start)
		rate := measuredRate()
		fmt.Printf("\n--- Test Results ---\n")
		fmt.Printf("Duration: %s\n", elapsed.Truncate(time.Millisecond))
		fmt.Printf("Bytes received: %d (%d samples)\n", bytesReceived, bytesReceived*8)
		fmt.Printf("Byte rate: %.0f bytes/s (%.1f%% of expected)\n", rate, rate*100/expected)
		if bytesReceived > 0 {
			fmt.Printf("High samples: %.1f%%\n", float64(highSamples)*100/float64(bytesReceived*8))
		}
	}

	for time.Now().Before(endTime) {
		select {
		case data := <-readChan:
			bytesReceived += len(data)
			for _, b := range data {
				highSamples += bits.OnesCount8(b)
			}

		case err := <-errChan:
			fmt.Printf("\n[%s] Connection error: %v\n",
				time.Now().Format("15:04:05.000"), err)
			report()
			fmt.Printf("Result: FAILED (connection error)\n")
			os.Exit(1)

		case <-heartbeat.C:
			fmt.Printf("[%s] %d bytes so far (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), bytesReceived, time.Until(endTime).Seconds())
		}
	}

	report()
	if err := checkSampleRate(measuredRate(), expected, linkCheckTolerance); err != nil {
		fmt.Printf("Result: FAILED (%v)\n", err)
		os.Exit(1)
	}
	fmt.Printf("Result: PASSED (connection stable)\n")

	return nil
}

// checkSampleRate fails when rate is outside tolerancePercent of expected
func checkSampleRate(rate, expected, tolerancePercent float64) error {
	if rate <= 0 {
		return fmt.Errorf("no samples")
	}
	deviation := (rate - expected) * 100 / expected
	if math.Abs(deviation) > tolerancePercent {
		return fmt.Errorf("byte rate %+.1f%% off expected, tolerance %.1f%%", deviation, tolerancePercent)
	}
	return nil
}
