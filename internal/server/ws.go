package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/claude/stagecoach/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 4 * 1024,
	// Browser capture clients connect cross-origin; access control is the
	// API key plus the tsnet boundary, not the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsReadLimit    = 512 * 1024
	wsReadDeadline = 30 * time.Second

	// wsMaxClockSkew bounds how far a client timestamp may drift from the
	// server clock before it is ignored. A performance.now() value sent by
	// mistake is millis since page load, lands near the Unix epoch, and
	// would break every elapsed-time threshold in the tracker.
	wsMaxClockSkew = time.Hour
)

// handleFrameStream upgrades to a websocket and pumps landmark frames into
// the tracker at capture rate. Each text message is one FramePayload.
// Malformed frames are counted and skipped: transient bad frames self-heal,
// so the stream stays up. The connection closes when the client goes away
// or stops sending for wsReadDeadline.
func (s *Server) handleFrameStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	s.log.Info("frame stream connected", "remote", r.RemoteAddr)

	var frames, malformed int
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("frame stream error", "error", err)
			}
			break
		}

		var frame models.FramePayload
		if err := json.Unmarshal(data, &frame); err != nil {
			malformed++
			continue
		}
		if err := frame.Validate(); err != nil {
			malformed++
			continue
		}

		s.tracker.ProcessFrame(frame.Landmarks, frame.Smile, frameTime(frame, time.Now()))
		if s.recorder != nil {
			s.recorder.Write(frame)
		}
		frames++
	}

	s.log.Info("frame stream closed",
		"remote", r.RemoteAddr,
		"frames", frames,
		"malformed", malformed,
	)
}

// frameTime picks the tracker timestamp for a payload: the client ts when it
// is within wsMaxClockSkew of the server clock, otherwise the server clock.
func frameTime(f models.FramePayload, now time.Time) time.Time {
	if f.TS == 0 {
		return now
	}
	at := f.Time()
	if skew := now.Sub(at); skew > wsMaxClockSkew || skew < -wsMaxClockSkew {
		return now
	}
	return at
}
