// Package models holds the wire and storage value types shared between the
// server, the recorder and the storage layer.
package models

import (
	"fmt"
	"time"

	"github.com/claude/stagecoach/internal/pose"
)

// FramePayload is one landmark frame as received over the websocket and as
// written to recording files. Timestamps are Unix epoch milliseconds
// (Date.now() in a browser; performance.now() is since page load and will
// not do).
type FramePayload struct {
	Landmarks []pose.Landmark `json:"landmarks"`
	Smile     float64         `json:"smile"`
	TS        int64           `json:"ts"`
}

// Time converts the payload timestamp.
func (f FramePayload) Time() time.Time {
	return time.UnixMilli(f.TS)
}

// Validate rejects structurally unusable payloads. Frames with fewer points
// than expected are fine (absent points read as not visible); a frame with
// no points at all carries no signal.
func (f FramePayload) Validate() error {
	if len(f.Landmarks) == 0 {
		return fmt.Errorf("frame has no landmarks")
	}
	if f.Smile < 0 || f.Smile > 1 {
		return fmt.Errorf("smile signal %v outside [0,1]", f.Smile)
	}
	return nil
}
