// Package session owns all mutable per-session state: it ingests per-frame
// analysis results, smooths and debounces them, and exposes a coalesced
// SessionState snapshot plus a frozen Summary when the session ends.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/claude/stagecoach/internal/analyzer"
	"github.com/claude/stagecoach/internal/tips"
)

// Params holds the tracker's tunable timing and threshold constants.
// Durations are plain numbers (milliseconds / seconds) so the YAML config
// stays flat.
type Params struct {
	// ThrottleMillis gates how often the smoothing/aggregation tick runs.
	// Raw per-frame impact is too jittery for display and for
	// threshold-crossing logic; the window trades ~300ms latency for
	// stability.
	ThrottleMillis int `yaml:"throttle_millis" json:"throttle_millis"`

	// SmoothWindow is how many recent per-frame impact samples are
	// averaged into the displayed impact (~300ms at 30fps).
	SmoothWindow int `yaml:"smooth_window" json:"smooth_window"`

	// Streaks: smoothed impact at/above StreakThreshold continuously for
	// StreakSustainSecs starts counting.
	StreakThreshold   float64 `yaml:"streak_threshold" json:"streak_threshold"`
	StreakSustainSecs float64 `yaml:"streak_sustain_secs" json:"streak_sustain_secs"`

	// GestureMinImpact is the per-frame impact bar a power move must clear
	// to increment the gesture counter.
	GestureMinImpact float64 `yaml:"gesture_min_impact" json:"gesture_min_impact"`

	// GoodPostureFloor: smoothed impact above this while not slouching
	// accrues good-posture time.
	GoodPostureFloor float64 `yaml:"good_posture_floor" json:"good_posture_floor"`

	// Celebration trigger: smoothed impact bar, a warm-up exclusion for
	// model warm-up spikes, and a re-trigger cooldown.
	CelebrationImpactMin    float64 `yaml:"celebration_impact_min" json:"celebration_impact_min"`
	CelebrationWarmupSecs   float64 `yaml:"celebration_warmup_secs" json:"celebration_warmup_secs"`
	CelebrationCooldownSecs float64 `yaml:"celebration_cooldown_secs" json:"celebration_cooldown_secs"`

	// TipHoldSecs is the minimum time a displayed tip set stays up before
	// a non-slouch swap is allowed.
	TipHoldSecs float64 `yaml:"tip_hold_secs" json:"tip_hold_secs"`

	// SmileThreshold converts the external smile scalar into a boolean
	// for the edge-triggered smile counter.
	SmileThreshold float64 `yaml:"smile_threshold" json:"smile_threshold"`
}

// DefaultParams returns the shipped session tuning.
func DefaultParams() Params {
	return Params{
		ThrottleMillis:          300,
		SmoothWindow:            12,
		StreakThreshold:         70,
		StreakSustainSecs:       3,
		GestureMinImpact:        55,
		GoodPostureFloor:        50,
		CelebrationImpactMin:    85,
		CelebrationWarmupSecs:   10,
		CelebrationCooldownSecs: 30,
		TipHoldSecs:             8,
		SmileThreshold:          0.6,
	}
}

// State is the coalesced snapshot read by the UI at its own cadence.
// Counters and peak values are monotonically non-decreasing within a
// session and fully reset on start.
type State struct {
	SessionID uuid.UUID `json:"session_id"`
	Active    bool      `json:"active"`

	ElapsedSeconds float64 `json:"elapsed_seconds"`

	Gesture       analyzer.Gesture `json:"gesture"`
	Impact        float64          `json:"impact"`
	AverageImpact float64          `json:"average_impact"`
	PeakImpact    float64          `json:"peak_impact"`

	GestureCount  int     `json:"gesture_count"`
	CurrentStreak float64 `json:"current_streak_secs"`
	BestStreak    float64 `json:"best_streak_secs"`

	Tips        []tips.Tip `json:"tips"`
	Celebrating bool       `json:"celebrating"`
	Slouching   bool       `json:"slouching"`

	SmileCount         int     `json:"smile_count"`
	SlouchCount        int     `json:"slouch_count"`
	GoodPostureSeconds float64 `json:"good_posture_seconds"`
}

// Summary is the plain record handed to storage when a session stops.
type Summary struct {
	ID                 uuid.UUID `json:"id"`
	StartedAt          time.Time `json:"started_at"`
	EndedAt            time.Time `json:"ended_at"`
	DurationSeconds    float64   `json:"duration_seconds"`
	GestureCount       int       `json:"gesture_count"`
	BestStreak         float64   `json:"best_streak_secs"`
	SmileCount         int       `json:"smile_count"`
	SlouchCount        int       `json:"slouch_count"`
	GoodPostureSeconds float64   `json:"good_posture_seconds"`
	PeakImpact         float64   `json:"peak_impact"`
	AverageImpact      float64   `json:"average_impact"`
}
