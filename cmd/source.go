// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Thermoquad/irscope/internal/hw"
	"github.com/Thermoquad/irscope/pkg/irlib"
)

// captureSource feeds line samples from the configured source into a
// capture pipeline and delivers the decoded frames
type captureSource struct {
	capture *irlib.Capture
	frames  chan irlib.Frame
	info    string

	reconnect  bool
	open       func() (Connection, string, error)
	retryDelay time.Duration

	cancel    context.CancelFunc
	done      chan struct{}
	mu        sync.Mutex
	conn      Connection
	input     *hw.Input
	indicator *hw.Indicator
}

// openCaptureSource builds the capture pipeline from appConfig and starts
// reading samples. Frames are delivered until ctx is done or the source
// fails; the channel is then closed. With reconnect, a lost serial or
// WebSocket connection is reopened instead of failing the source.
func openCaptureSource(ctx context.Context, reconnect bool) (*captureSource, error) {
	capture, err := newCapture()
	if err != nil {
		return nil, err
	}

	src := &captureSource{
		capture:   capture,
		frames:    make(chan irlib.Frame, 16),
		reconnect: reconnect,
		open: func() (Connection, string, error) {
			return OpenConnection(appConfig.Source)
		},
		retryDelay: time.Second,
		done:       make(chan struct{}),
	}

	if pin := appConfig.Capture.BlinkPin; pin != "" {
		ind, err := hw.OpenIndicator(pin)
		if err != nil {
			return nil, fmt.Errorf("failed to open blink pin: %w", err)
		}
		src.indicator = ind
		capture.Receiver().SetBlink(ind.Set)
	}

	ctx, src.cancel = context.WithCancel(ctx)

	if pin := appConfig.Source.GPIO; pin != "" {
		in, err := hw.OpenInput(pin)
		if err != nil {
			src.release()
			return nil, err
		}
		src.input = in
		src.info = fmt.Sprintf("GPIO: %s @ %d µs/tick", pin, appConfig.Capture.TickMicros)
		go src.runGPIO(ctx)
		return src, nil
	}

	conn, info, err := src.open()
	if err != nil {
		src.release()
		return nil, err
	}
	src.conn = conn
	src.info = info
	go src.runConnection(ctx)
	return src, nil
}

// newCapture creates a capture pipeline with the configured protocol chain
func newCapture() (*irlib.Capture, error) {
	capture, err := irlib.NewCapture(appConfig.IRConfig(), appConfig.Registry())
	if err != nil {
		return nil, err
	}
	capture.Decoder().IgnoreHeader = appConfig.Capture.IgnoreHeader
	return capture, nil
}

func (s *captureSource) runGPIO(ctx context.Context) {
	defer close(s.done)
	defer close(s.frames)

	if err := s.capture.Run(ctx, s.input, s.frames); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Capture stopped: %v", err)
	}
}

func (s *captureSource) runConnection(ctx context.Context) {
	defer close(s.done)
	defer close(s.frames)

	for {
		if !s.readFromConnection(ctx) {
			return
		}
		if !s.reconnect {
			log.Printf("Connection closed")
			return
		}
		log.Printf("Connection lost, reconnecting")
		if !s.reopen(ctx) {
			return
		}
	}
}

// readFromConnection feeds samples until the connection fails.
// Returns true if the connection was lost, false if ctx is done.
func (s *captureSource) readFromConnection(ctx context.Context) bool {
	conn := s.getConn()
	buf := make([]byte, 256)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			if errors.Is(err, io.EOF) || errors.Is(err, ErrConnectionClosed) {
				return true
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for _, f := range s.capture.FeedPacked(buf[:n]) {
			select {
			case s.frames <- f:
			case <-ctx.Done():
				return false
			}
		}
	}
}

// reopen reconnects with exponential backoff from retryDelay.
// Returns false if ctx is done first.
func (s *captureSource) reopen(ctx context.Context) bool {
	s.getConn().Close()

	backoff := s.retryDelay
	maxBackoff := 30 * backoff

	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		conn, info, err := s.open()
		if err == nil {
			s.mu.Lock()
			s.conn = conn
			s.mu.Unlock()
			// samples were lost, drop the partial capture
			s.capture.Receiver().Resume()
			log.Printf("Reconnected: %s", info)
			return true
		}
		log.Printf("Reconnect failed: %v", err)

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *captureSource) getConn() Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Frames returns the decoded frame stream
func (s *captureSource) Frames() <-chan irlib.Frame {
	return s.frames
}

// Close stops sampling and releases the source
func (s *captureSource) Close() {
	s.cancel()
	if conn := s.getConn(); conn != nil {
		// unblocks a pending Read
		conn.Close()
	}
	<-s.done
	s.release()
}

func (s *captureSource) release() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.input != nil {
		s.input.Close()
	}
	if s.indicator != nil {
		s.indicator.Close()
	}
}
