// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Thermoquad/irscope/pkg/irlib"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch decoded transmissions with live statistics",
	Long: `Track IR transmissions, decode failures and buffer overflows with statistics.

The terminal UI lists recent transmissions; select one with the arrow keys to
see its full timing dump. Statistics show decoded frames per protocol, NEC
repeats, overflows and unmatched captures, with frame and error rates.

In text mode (--tui=false) decoded frames are printed one per line, decode
failures are highlighted, and a statistics summary is printed at the
configured interval. Use --show-all to include the rejection reason of every
protocol for failed captures.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show every protocol's rejection for failed captures")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := openCaptureSource(ctx, true)
	if err != nil {
		return err
	}
	defer src.Close()

	if useTUI {
		return runTUIMode(src)
	}
	return runTextMode(ctx, src)
}

// runTUIMode runs the monitor in TUI mode
func runTUIMode(src *captureSource) error {
	m := initialMonitorModel(src.info)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		for f := range src.Frames() {
			p.Send(frameMsg(f))
		}
		p.Send(sourceClosedMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// runTextMode prints frames as they arrive with periodic statistics
func runTextMode(ctx context.Context, src *captureSource) error {
	fmt.Printf("irscope - Monitor\n")
	fmt.Printf("Source: %s\n", src.info)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := irlib.NewStatistics()

	statsTicker := time.NewTicker(time.Duration(max(statsInterval, 1)) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case f, ok := <-src.Frames():
			if !ok {
				fmt.Println()
				fmt.Print(stats.String())
				return nil
			}
			stats.Update(f.Result, f.Err)
			printFrameLine(f)

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()

		case <-ctx.Done():
			fmt.Println()
			fmt.Print(stats.String())
			return nil
		}
	}
}

func printFrameLine(f irlib.Frame) {
	ts := f.Result.Timestamp.Format("15:04:05.000")
	if f.Err == nil {
		fmt.Printf("[%s] %s\n", ts, irlib.FormatResultShort(f.Result))
		return
	}

	fmt.Printf("\033[1;31m[%s] %s: %v\033[0m\n", ts, irlib.FormatResultShort(f.Result), frameError(f.Err))
	if !showAll {
		return
	}
	var nm *irlib.NoMatchError
	if errors.As(f.Err, &nm) {
		for _, a := range nm.Attempts {
			fmt.Printf("  %-13s %v\n", a.Protocol.String()+":", a.Err)
		}
	}
}

// frameError summarizes a capture failure on one line
func frameError(err error) string {
	if errors.Is(err, irlib.ErrBufferOverflow) {
		return "buffer overflow"
	}
	var nm *irlib.NoMatchError
	if errors.As(err, &nm) {
		return fmt.Sprintf("no protocol matched (%d tried)", len(nm.Attempts))
	}
	return err.Error()
}
