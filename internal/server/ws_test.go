package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/claude/stagecoach/internal/models"
	"github.com/claude/stagecoach/internal/pose"
)

// dialFrameStream starts the server and opens the frame websocket with the
// given API key header.
func dialFrameStream(t *testing.T, s *Server, key string) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(s)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/current/frames"

	header := map[string][]string{}
	if key != "" {
		header["X-API-Key"] = []string{key}
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		srv.Close()
		if resp != nil {
			t.Fatalf("dial failed with status %d: %v", resp.StatusCode, err)
		}
		t.Fatalf("dial failed: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

// TestFrameStreamRejectsWithoutKey verifies the websocket endpoint sits
// behind the API key middleware.
func TestFrameStreamRejectsWithoutKey(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/current/frames"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial without API key succeeded")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Errorf("handshake response = %v, want 401", resp)
	}
}

// TestFrameStreamFeedsTracker sends frames over the websocket and checks
// they reach the session tracker; malformed messages are skipped without
// dropping the connection.
func TestFrameStreamFeedsTracker(t *testing.T) {
	s := newTestServer(t)
	s.tracker.Start()
	defer s.tracker.Stop()

	conn, done := dialFrameStream(t, s, "test-key")
	defer done()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write malformed: %v", err)
	}

	base := time.Now().UnixMilli()
	frame := models.FramePayload{
		Landmarks: []pose.Landmark{{X: 0.5, Y: 0.5, Visibility: 0.9}},
		Smile:     0.9,
		TS:        base,
	}
	for i := 0; i < 4; i++ {
		frame.TS = base + int64(i)*400
		if err := conn.WriteJSON(frame); err != nil {
			t.Fatalf("write frame %d: %v", i, err)
		}
	}

	// The read loop runs on the server goroutine; poll briefly for the
	// smile counter to move.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.tracker.Snapshot().SmileCount > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	snap := s.tracker.Snapshot()
	if snap.SmileCount != 1 {
		t.Errorf("smile count = %d, want 1 from the sustained smile", snap.SmileCount)
	}
}

// TestFrameTimeNormalizesImplausibleTS verifies page-load-relative
// timestamps (and absent ones) fall back to the server clock, while epoch
// millisecond timestamps near the server clock pass through.
func TestFrameTimeNormalizesImplausibleTS(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ts   int64
		want time.Time
	}{
		{"zero ts", 0, now},
		{"page-load millis", 12345, now},
		{"far future", now.Add(48 * time.Hour).UnixMilli(), now},
		{"epoch millis", now.Add(-2 * time.Second).UnixMilli(), now.Add(-2 * time.Second)},
	}
	for _, tt := range tests {
		got := frameTime(models.FramePayload{TS: tt.ts}, now)
		if !got.Equal(tt.want) {
			t.Errorf("%s: frameTime = %v, want %v", tt.name, got, tt.want)
		}
	}
}
