// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/irscope/internal/hw"
	"github.com/Thermoquad/irscope/pkg/irlib"
	"github.com/spf13/cobra"
)

var (
	sendProtocol string
	sendValue    string
	sendBits     int
	sendPin      string
	sendDryRun   bool
	sendRepeat   int
	sendAddress  int
	sendCommand  int
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transmit an IR code",
	Long: `Encode a value with one of the registered protocols and transmit it on a
PWM-capable GPIO pin driving an IR LED.

The value is given in hex (0x prefix optional), or as "repeat" for an NEC
repeat frame. For NEC, --address and --command build the value instead.
With --dry-run nothing is transmitted and the mark/space waveform is printed.

Examples:
  irscope send --protocol nec --address 0x04 --command 0x08 --pin GPIO18
  irscope send --protocol sony --value 0x95 --bits 12 --repeat 3 --dry-run`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendProtocol, "protocol", "P", "NEC", "Protocol name (NEC, LIGHT_STRIKE, SONY)")
	sendCmd.Flags().StringVarP(&sendValue, "value", "v", "", "Value in hex, or \"repeat\"")
	sendCmd.Flags().IntVar(&sendBits, "bits", 0, "Bit count (0 = protocol default)")
	sendCmd.Flags().StringVar(&sendPin, "pin", "", "PWM output pin (overrides transmit.pin)")
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "Print the waveform instead of transmitting")
	sendCmd.Flags().IntVar(&sendRepeat, "repeat", 1, "Number of times to send the frame")
	sendCmd.Flags().IntVar(&sendAddress, "address", -1, "NEC address (8 or 16 bit)")
	sendCmd.Flags().IntVar(&sendCommand, "command", -1, "NEC command byte")
}

func runSend(cmd *cobra.Command, args []string) error {
	reg := appConfig.Registry()
	p, ok := reg.ByName(sendProtocol)
	if !ok {
		return fmt.Errorf("%w: %q", irlib.ErrUnknownProtocol, sendProtocol)
	}

	value, err := sendFrameValue(p.ID(), sendValue, sendAddress, sendCommand)
	if err != nil {
		return err
	}
	if sendRepeat < 1 {
		return fmt.Errorf("--repeat must be at least 1")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if sendDryRun {
		wave := &waveCarrier{}
		s := irlib.NewSender(wave)
		s.SetDelay(wave.delay)
		return sendRepeated(ctx, reg, s, p, value, sendBits, sendRepeat, appConfig.Capture.GapMicros, func() error {
			fmt.Printf("%s 0x%X @ %d kHz, extent %d µs\n", p.Name(), value, wave.kHz, s.Extent())
			fmt.Println(wave.String())
			wave.reset()
			return nil
		})
	}

	pin := sendPin
	if pin == "" {
		pin = appConfig.Transmit.Pin
	}
	if pin == "" {
		return fmt.Errorf("no output pin: use --pin or transmit.pin")
	}
	carrier, err := hw.OpenCarrier(strings.ToUpper(pin), appConfig.Transmit.DutyPercent)
	if err != nil {
		return err
	}
	defer carrier.Close()

	s := irlib.NewSender(carrier)
	err = sendRepeated(ctx, reg, s, p, value, sendBits, sendRepeat, appConfig.Capture.GapMicros, func() error {
		if err := carrier.Err(); err != nil {
			return fmt.Errorf("transmit failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Sent %s 0x%X on %s (%d time(s), %d µs each)\n", p.Name(), value, pin, sendRepeat, s.Extent())
	return nil
}

// sendRepeated transmits value count times, calling each after every frame.
// Templates without a fixed extent end on a single bit space, so gapUs of
// silence is added between frames for receivers to split them.
func sendRepeated(ctx context.Context, reg *irlib.Registry, s *irlib.Sender, p irlib.Protocol,
	value uint32, bits, count int, gapUs uint32, each func() error) error {
	for i := 0; i < count; i++ {
		if err := reg.Send(ctx, s, p.ID(), value, bits); err != nil {
			return err
		}
		if i < count-1 && p.Template().MaxExtent == 0 {
			s.Space(gapUs)
		}
		if each != nil {
			if err := each(); err != nil {
				return err
			}
		}
	}
	return nil
}

// sendFrameValue resolves the value to transmit from the command line
func sendFrameValue(id irlib.ProtocolID, value string, address, command int) (uint32, error) {
	if address >= 0 || command >= 0 {
		if id != irlib.ProtocolNEC {
			return 0, fmt.Errorf("--address and --command only apply to NEC")
		}
		if value != "" {
			return 0, fmt.Errorf("--value cannot be combined with --address/--command")
		}
		if address < 0 || address > 0xFFFF || command < 0 || command > 0xFF {
			return 0, fmt.Errorf("NEC needs both --address (0-0xFFFF) and --command (0-0xFF)")
		}
		return irlib.NECValue(uint16(address), byte(command)), nil
	}

	if value == "" {
		return 0, fmt.Errorf("--value is required")
	}
	if strings.EqualFold(value, "repeat") {
		if id != irlib.ProtocolNEC {
			return 0, fmt.Errorf("repeat frames only exist for NEC")
		}
		return irlib.RepeatValue, nil
	}

	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(value), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", value, err)
	}
	return uint32(v), nil
}

// waveCarrier records the waveform instead of driving an output
type waveCarrier struct {
	kHz       uint8
	on        bool
	intervals []uint32 // alternating mark, space
}

func (w *waveCarrier) Configure(kHz uint8) error {
	w.kHz = kHz
	w.on = false
	return nil
}

func (w *waveCarrier) On()  { w.on = true }
func (w *waveCarrier) Off() { w.on = false }

func (w *waveCarrier) reset() {
	w.intervals = w.intervals[:0]
}

func (w *waveCarrier) delay(d time.Duration) {
	us := uint32(d / time.Microsecond)
	// even length means the next interval is a mark
	mark := len(w.intervals)%2 == 0
	if w.on == mark {
		w.intervals = append(w.intervals, us)
		return
	}
	if len(w.intervals) == 0 {
		// leading space
		return
	}
	w.intervals[len(w.intervals)-1] += us
}

// String formats the waveform as +mark -space pairs
func (w *waveCarrier) String() string {
	var b strings.Builder
	for i, v := range w.intervals {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i%2 == 0 {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return b.String()
}
