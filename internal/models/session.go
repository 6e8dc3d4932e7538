package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionRow is a completed-session summary ready for insertion into the
// sessions table.
type SessionRow struct {
	ID             uuid.UUID `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	DurationSec    float64   `json:"duration_sec"`
	GestureCount   int       `json:"gesture_count"`
	BestStreakSec  float64   `json:"best_streak_sec"`
	SmileCount     int       `json:"smile_count"`
	SlouchCount    int       `json:"slouch_count"`
	GoodPostureSec float64   `json:"good_posture_sec"`
	PeakImpact     float64   `json:"peak_impact"`
	AverageImpact  float64   `json:"average_impact"`
}
