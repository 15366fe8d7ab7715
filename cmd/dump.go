// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/Thermoquad/irscope/pkg/irlib"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Display every captured transmission with its timing",
	Long: `Continuously capture and decode IR transmissions as they arrive.

Each transmission is printed with its decoded protocol and value, the gap
before it, the header, every mark and space interval in microseconds, the
total extent and the mark/space extremes. Transmissions no protocol accepts
are still printed, with the decode error highlighted.`,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := openCaptureSource(ctx, true)
	if err != nil {
		return err
	}
	defer src.Close()

	fmt.Printf("irscope - Capture Dump\n")
	fmt.Printf("Source: %s\n", src.info)
	fmt.Printf("Protocols: %s\n", protocolNames(src.capture.Registry()))
	fmt.Printf("Press Ctrl+C to exit\n\n")

	for f := range src.Frames() {
		if f.Err != nil {
			printDecodeError(f.Err)
		}
		fmt.Print(irlib.FormatResult(f.Result))
		fmt.Println()
	}

	if ctx.Err() == nil {
		log.Printf("Source closed")
	}
	return nil
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(err error) {
	fmt.Printf("\033[1;31m[ERROR] %v\033[0m\n", err)
}

func protocolNames(reg *irlib.Registry) string {
	names := ""
	for i, p := range reg.Protocols() {
		if i > 0 {
			names += ", "
		}
		names += p.Name()
	}
	if names == "" {
		return "(none)"
	}
	return names
}
