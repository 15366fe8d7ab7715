// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Thermoquad/irscope/pkg/irlib"
	"github.com/spf13/cobra"
)

var replayShort bool

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Decode transmissions stored by the record command",
	Long: `Read a CBOR capture file and decode every stored raw buffer again with
the current protocol chain and tolerances.

Records whose new decode differs from the stored one are flagged, which makes
replay useful for checking tolerance or protocol changes against a library of
real captures.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVarP(&replayShort, "short", "s", false, "One line per record instead of the full dump")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	reg := appConfig.Registry()
	dec := irlib.NewDecoder(appConfig.IRConfig())
	dec.IgnoreHeader = appConfig.Capture.IgnoreHeader
	stats := irlib.NewStatistics()
	changed := 0

	rr := irlib.NewRecordReader(f)
	for n := 1; ; n++ {
		rec, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}

		res, decodeErr := replayRecord(reg, dec, rec)
		stats.Update(res, decodeErr)

		stored := rec.Result()
		differs := stored.Protocol != res.Protocol || stored.Value != res.Value || stored.Bits != res.Bits ||
			stored.Repeat != res.Repeat
		if differs {
			changed++
		}

		if replayShort {
			line := fmt.Sprintf("#%d %s", n, irlib.FormatResultShort(res))
			if differs {
				line += fmt.Sprintf(" (stored: %s)", irlib.FormatResultShort(stored))
			}
			fmt.Println(line)
			continue
		}

		fmt.Printf("--- record %d ---\n", n)
		if decodeErr != nil {
			printDecodeError(decodeErr)
		}
		if differs {
			fmt.Printf("\033[1;33mStored as %s\033[0m\n", irlib.FormatResultShort(stored))
		}
		fmt.Print(irlib.FormatResult(res))
		fmt.Println()
	}

	fmt.Println()
	fmt.Print(stats.String())
	fmt.Printf("Changed decodes: %d\n", changed)
	return nil
}

// replayRecord decodes a stored raw buffer. The result keeps the stored
// capture time.
func replayRecord(reg *irlib.Registry, dec *irlib.Decoder, rec irlib.Record) (*irlib.Result, error) {
	dec.SetRaw(rec.Raw)
	res, err := reg.Decode(dec)
	res.Timestamp = rec.Result().Timestamp
	return res, err
}
