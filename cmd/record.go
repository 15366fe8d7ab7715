// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Thermoquad/irscope/pkg/irlib"
	"github.com/spf13/cobra"
)

var (
	recordOut      string
	recordDecoded  bool
	recordMaxCount int
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Store captured transmissions in a CBOR file",
	Long: `Capture IR transmissions and append each one to a file as a CBOR record.

Every record holds the capture time, the decoded protocol, value and bit
count, and the raw intervals in microseconds, so the file can be decoded
again later with the replay command. Undecodable captures are stored too
unless --decoded-only is given.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "capture.cbor", "Output file (appended)")
	recordCmd.Flags().BoolVar(&recordDecoded, "decoded-only", false, "Skip captures no protocol accepts")
	recordCmd.Flags().IntVarP(&recordMaxCount, "count", "n", 0, "Stop after this many records (0 = unlimited)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	f, err := os.OpenFile(recordOut, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", recordOut, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := openCaptureSource(ctx, true)
	if err != nil {
		return err
	}
	defer src.Close()

	fmt.Printf("irscope - Record\n")
	fmt.Printf("Source: %s\n", src.info)
	fmt.Printf("Output: %s\n", recordOut)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	tick := appConfig.Capture.TickMicros
	written := 0
	for frame := range src.Frames() {
		if frame.Err != nil && recordDecoded {
			continue
		}
		if err := irlib.WriteRecord(w, irlib.NewRecord(frame.Result, tick)); err != nil {
			return err
		}
		// keep the file usable if the process is killed
		if err := w.Flush(); err != nil {
			return fmt.Errorf("failed to write %s: %w", recordOut, err)
		}
		written++
		fmt.Printf("[%s] #%d %s\n", frame.Result.Timestamp.Format("15:04:05.000"), written, irlib.FormatResultShort(frame.Result))

		if recordMaxCount > 0 && written >= recordMaxCount {
			break
		}
	}

	fmt.Printf("\n%d records written to %s\n", written, recordOut)
	return nil
}
