// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/irscope/pkg/irlib"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func testFrame(id irlib.ProtocolID, value uint32, bits int, err error) irlib.Frame {
	return irlib.Frame{
		Result: &irlib.Result{
			Protocol:  id,
			Value:     value,
			Bits:      bits,
			Raw:       []uint32{5000, 2400, 600},
			Timestamp: time.Now(),
		},
		Err: err,
	}
}

func TestFrameHub_History(t *testing.T) {
	hub := newFrameHub(2)
	hub.publish(testFrame(irlib.ProtocolNEC, 1, 32, nil))
	hub.publish(testFrame(irlib.ProtocolSony, 2, 12, nil))
	ev := hub.publish(testFrame(irlib.ProtocolUnknown, 0, 0, irlib.ErrBufferOverflow))

	if ev.Seq != 3 {
		t.Errorf("seq = %d, want 3", ev.Seq)
	}
	if ev.Error == "" {
		t.Error("decode error not carried in event")
	}

	got := hub.frames("", 0)
	if len(got) != 2 {
		t.Fatalf("history length = %d, want 2", len(got))
	}
	if got[0].Seq != 2 || got[1].Seq != 3 {
		t.Errorf("history seqs = %d,%d, want 2,3", got[0].Seq, got[1].Seq)
	}

	if got := hub.frames("SONY", 0); len(got) != 1 || got[0].Value != 2 {
		t.Errorf("protocol filter returned %+v", got)
	}
	if got := hub.frames("", 1); len(got) != 1 || got[0].Seq != 3 {
		t.Errorf("limit returned %+v", got)
	}
}

func TestFrameHub_NoHistory(t *testing.T) {
	hub := newFrameHub(0)
	hub.publish(testFrame(irlib.ProtocolNEC, 1, 32, nil))
	if got := hub.frames("", 0); len(got) != 0 {
		t.Errorf("history kept %d frames with history disabled", len(got))
	}
}

func TestFramesHandler(t *testing.T) {
	hub := newFrameHub(10)
	hub.publish(testFrame(irlib.ProtocolNEC, 0x20DF10EF, 32, nil))
	hub.publish(testFrame(irlib.ProtocolSony, 0x95, 12, nil))

	server := httptest.NewServer(hub.handler())
	defer server.Close()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{"all", "", http.StatusOK, 2},
		{"by protocol", "?protocol=nec", http.StatusOK, 1},
		{"unknown only", "?protocol=unknown", http.StatusOK, 0},
		{"limit", "?limit=1", http.StatusOK, 1},
		{"bad protocol", "?protocol=rc5", http.StatusBadRequest, 0},
		{"bad limit", "?limit=x", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + "/ir/frames" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var events []frameEvent
			if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if len(events) != tt.wantCount {
				t.Errorf("got %d events, want %d", len(events), tt.wantCount)
			}
		})
	}
}

func TestFramesHandler_MethodNotAllowed(t *testing.T) {
	hub := newFrameHub(10)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://localhost:8080/ir/frames", strings.NewReader("{}"))
	hub.framesHandler(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestStreamHandler(t *testing.T) {
	hub := newFrameHub(10)
	server := httptest.NewServer(hub.handler())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http")+"/ir/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	// the handler subscribes after the upgrade completes
	for hub.subscriberCount() == 0 {
		if ctx.Err() != nil {
			t.Fatal("stream handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.publish(testFrame(irlib.ProtocolNEC, 0x20DF10EF, 32, nil))

	var ev frameEvent
	if err := wsjson.Read(ctx, c, &ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Protocol != "NEC" || ev.Value != 0x20DF10EF || ev.Hex != "0x20DF10EF" || ev.Bits != 32 {
		t.Errorf("unexpected event %+v", ev)
	}

	c.Close(websocket.StatusNormalClosure, "")
	for hub.subscriberCount() != 0 {
		if ctx.Err() != nil {
			t.Fatal("stream handler did not unsubscribe")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
