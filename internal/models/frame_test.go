package models

import (
	"testing"
	"time"

	"github.com/claude/stagecoach/internal/pose"
)

// TestFramePayloadValidate covers the structural rejection rules.
func TestFramePayloadValidate(t *testing.T) {
	valid := FramePayload{
		Landmarks: []pose.Landmark{{X: 0.5, Y: 0.5, Visibility: 0.9}},
		Smile:     0.5,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	empty := FramePayload{Smile: 0.5}
	if err := empty.Validate(); err == nil {
		t.Error("payload with no landmarks accepted")
	}

	for _, smile := range []float64{-0.1, 1.1} {
		bad := valid
		bad.Smile = smile
		if err := bad.Validate(); err == nil {
			t.Errorf("smile %v accepted", smile)
		}
	}
}

// TestFramePayloadTime verifies the Unix-millisecond conversion.
func TestFramePayloadTime(t *testing.T) {
	fp := FramePayload{TS: 1_750_000_000_123}
	want := time.UnixMilli(1_750_000_000_123)
	if !fp.Time().Equal(want) {
		t.Errorf("Time = %v, want %v", fp.Time(), want)
	}
}
