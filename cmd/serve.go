// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Thermoquad/irscope/pkg/irlib"
	"github.com/spf13/cobra"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var (
	serveListen  string
	serveHistory int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Publish decoded transmissions over HTTP and WebSocket",
	Long: `Capture IR transmissions and publish them to network clients.

Endpoints:
  GET /ir/frames   recent transmissions as a JSON array, newest last
                   (?protocol=NEC or ?protocol=unknown filters,
                   ?limit=N caps the count)
  WS  /ir/stream   every new transmission as a JSON message

Each transmission carries its sequence number, capture time, protocol, value,
bit count, raw intervals in microseconds, and the decode error if any.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address (overrides serve.listen)")
	serveCmd.Flags().IntVar(&serveHistory, "history", -1, "Transmissions kept for /ir/frames (overrides serve.history)")
}

func runServe(cmd *cobra.Command, args []string) error {
	listen := appConfig.Serve.Listen
	if serveListen != "" {
		listen = serveListen
	}
	history := appConfig.Serve.History
	if serveHistory >= 0 {
		history = serveHistory
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := openCaptureSource(ctx, true)
	if err != nil {
		return err
	}
	defer src.Close()

	hub := newFrameHub(history)
	go func() {
		for f := range src.Frames() {
			ev := hub.publish(f)
			log.Printf("#%d %s", ev.Seq, irlib.FormatResultShort(f.Result))
		}
		log.Print("Source closed")
	}()

	server := http.Server{Addr: listen, Handler: hub.handler()}
	server.RegisterOnShutdown(func() {
		log.Print("Shutting down server")
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Capturing from %s", src.info)
	log.Printf("Server started on %s", listen)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// frameEvent is the JSON form of a capture
type frameEvent struct {
	Seq        int       `json:"seq"`
	Time       time.Time `json:"time"`
	Protocol   string    `json:"protocol"`
	ProtocolID uint8     `json:"protocolId"`
	Value      uint32    `json:"value"`
	Hex        string    `json:"hex"`
	Bits       int       `json:"bits"`
	Repeat     bool      `json:"repeat,omitempty"`
	Raw        []uint32  `json:"raw"`
	Error      string    `json:"error,omitempty"`
}

// frameHub keeps recent captures and fans new ones out to stream subscribers
type frameHub struct {
	mu          sync.Mutex
	seq         int
	history     []frameEvent
	maxHistory  int
	subscribers map[chan frameEvent]struct{}
}

func newFrameHub(maxHistory int) *frameHub {
	return &frameHub{
		maxHistory:  maxHistory,
		subscribers: make(map[chan frameEvent]struct{}),
	}
}

// publish stores f and delivers it to every subscriber. Subscribers that
// are not keeping up miss the event.
func (h *frameHub) publish(f irlib.Frame) frameEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ev := frameEvent{
		Seq:        h.seq,
		Time:       f.Result.Timestamp,
		Protocol:   f.Result.Protocol.String(),
		ProtocolID: uint8(f.Result.Protocol),
		Value:      f.Result.Value,
		Hex:        fmt.Sprintf("0x%X", f.Result.Value),
		Bits:       f.Result.Bits,
		Repeat:     f.Result.Repeat,
		Raw:        f.Result.Raw,
	}
	if f.Err != nil {
		ev.Error = f.Err.Error()
	}

	if h.maxHistory > 0 {
		h.history = append(h.history, ev)
		if len(h.history) > h.maxHistory {
			h.history = h.history[len(h.history)-h.maxHistory:]
		}
	}

	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

func (h *frameHub) subscribe() (<-chan frameEvent, func()) {
	ch := make(chan frameEvent, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		h.mu.Unlock()
	}
}

func (h *frameHub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// frames returns stored captures, newest last, optionally filtered by
// protocol name and capped to the most recent limit
func (h *frameHub) frames(protocol string, limit int) []frameEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]frameEvent, 0, len(h.history))
	for _, ev := range h.history {
		if protocol != "" && ev.Protocol != protocol {
			continue
		}
		out = append(out, ev)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func (h *frameHub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ir/frames", h.framesHandler)
	mux.HandleFunc("/ir/stream", h.streamHandler)
	return mux
}

func (h *frameHub) framesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	protocol := ""
	if name := q.Get("protocol"); strings.EqualFold(name, "unknown") {
		protocol = irlib.ProtocolUnknown.String()
	} else if name != "" {
		p, ok := irlib.DefaultRegistry().ByName(name)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown protocol %q", name), http.StatusBadRequest)
			return
		}
		protocol = p.Name()
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	output, err := json.Marshal(h.frames(protocol, limit))
	if err != nil {
		log.Print(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.Header().Add("Access-Control-Allow-Origin", "*")
	w.Write(output)
}

func (h *frameHub) streamHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Print(err)
		return
	}
	log.Printf("Accepted websocket request from %s", r.RemoteAddr)
	defer log.Printf("Closing websocket connection for %s", r.RemoteAddr)
	defer c.Close(websocket.StatusNormalClosure, "")

	events, unsubscribe := h.subscribe()
	defer unsubscribe()

	// clients only listen; CloseRead cancels ctx when they go away
	ctx := c.CloseRead(r.Context())
	for {
		select {
		case ev := <-events:
			if err := writeFrame(ctx, c, ev); err != nil {
				log.Print(err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeFrame(ctx context.Context, c *websocket.Conn, ev frameEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return wsjson.Write(ctx, c, ev)
}
