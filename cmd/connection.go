// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/irscope/internal/config"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection is a receive-only stream of packed line samples from a
// sample bridge
type Connection interface {
	io.ReadCloser
}

// ErrConnectionClosed is returned once the bridge connection has failed
var ErrConnectionClosed = errors.New("bridge connection closed")

// wsConnection concatenates the binary messages of a bridge WebSocket
type wsConnection struct {
	conn   *websocket.Conn
	msg    io.Reader
	closed bool
}

func (w *wsConnection) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	for {
		if w.msg == nil {
			kind, r, err := w.conn.NextReader()
			if err != nil {
				w.closed = true
				return 0, fmt.Errorf("%w: %v", ErrConnectionClosed, err)
			}
			// text frames carry bridge status, not samples
			if kind == websocket.BinaryMessage {
				w.msg = r
			}
			continue
		}

		n, err := w.msg.Read(p)
		if errors.Is(err, io.EOF) {
			w.msg = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		if err != nil {
			w.closed = true
		}
		return n, err
	}
}

func (w *wsConnection) Close() error {
	w.closed = true
	return w.conn.Close()
}

// openSerial opens the bridge's serial port, 8N1
func openSerial(portName string, baudRate int) (Connection, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return port, nil
}

// openWebSocket dials the bridge, sending HTTP Basic credentials when a
// username is configured
func openWebSocket(ctx context.Context, src config.SourceConfig, password string) (Connection, error) {
	u, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: src.NoSSLVerify}
	}

	headers := http.Header{}
	if src.Username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(src.Username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, src.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}
	return &wsConnection{conn: conn}, nil
}

// promptedPassword is kept so reconnects do not prompt again
var promptedPassword string

// bridgePassword returns IRSCOPE_PASSWORD, or prompts once on the terminal
func bridgePassword() (string, error) {
	if pw := os.Getenv("IRSCOPE_PASSWORD"); pw != "" {
		return pw, nil
	}
	if promptedPassword != "" {
		return promptedPassword, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// not a terminal
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		pw = []byte(strings.TrimSpace(line))
	}
	fmt.Fprintln(os.Stderr)

	promptedPassword = string(pw)
	return promptedPassword, nil
}

// OpenConnection connects to the sample bridge named by src, preferring the
// WebSocket URL over the serial port. The string describes the source.
func OpenConnection(src config.SourceConfig) (Connection, string, error) {
	switch {
	case src.URL != "":
		password := ""
		if src.Username != "" {
			var err error
			if password, err = bridgePassword(); err != nil {
				return nil, "", err
			}
		}
		conn, err := openWebSocket(context.Background(), src, password)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", src.URL), nil

	case src.Port != "":
		conn, err := openSerial(src.Port, src.Baud)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", src.Port, src.Baud), nil
	}

	return nil, "", fmt.Errorf("one of --port, --url or --gpio must be specified")
}
