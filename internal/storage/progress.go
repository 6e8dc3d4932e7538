package storage

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/claude/stagecoach/internal/models"
)

// ProgressStats aggregates stored sessions over a time range into the
// numbers the progress view and the MCP coach read.
type ProgressStats struct {
	SessionCount      int        `json:"session_count"`
	TotalPracticeSec  float64    `json:"total_practice_sec"`
	TotalGestures     int        `json:"total_gestures"`
	BestStreakSec     float64    `json:"best_streak_sec"`
	MeanPeakImpact    float64    `json:"mean_peak_impact"`
	MeanAverageImpact float64    `json:"mean_average_impact"`
	GoodPostureSec    float64    `json:"good_posture_sec"`
	PeakImpactTrend   float64    `json:"peak_impact_trend"`
	EarliestSession   *time.Time `json:"earliest_session,omitempty"`
	LatestSession     *time.Time `json:"latest_session,omitempty"`
}

// GetProgressStats computes aggregate stats over sessions in the range.
// The trend is the least-squares slope of peak impact over session index,
// oldest first: positive means the speaker is improving.
func (db *DB) GetProgressStats(ctx context.Context, start, end time.Time) (*ProgressStats, error) {
	rows, err := db.QuerySessions(ctx, start, end, 1000)
	if err != nil {
		return nil, fmt.Errorf("loading sessions for progress: %w", err)
	}
	return ComputeProgress(rows), nil
}

// ComputeProgress derives ProgressStats from session rows (any order).
func ComputeProgress(rows []models.SessionRow) *ProgressStats {
	stats := &ProgressStats{SessionCount: len(rows)}
	if len(rows) == 0 {
		return stats
	}

	// QuerySessions returns newest first; trend wants oldest first.
	peaks := make([]float64, len(rows))
	averages := make([]float64, len(rows))
	idx := make([]float64, len(rows))
	for i, r := range rows {
		j := len(rows) - 1 - i
		peaks[j] = r.PeakImpact
		averages[j] = r.AverageImpact
		idx[j] = float64(j)

		stats.TotalPracticeSec += r.DurationSec
		stats.TotalGestures += r.GestureCount
		stats.GoodPostureSec += r.GoodPostureSec
		if r.BestStreakSec > stats.BestStreakSec {
			stats.BestStreakSec = r.BestStreakSec
		}
		if stats.EarliestSession == nil || r.StartedAt.Before(*stats.EarliestSession) {
			t := r.StartedAt
			stats.EarliestSession = &t
		}
		if stats.LatestSession == nil || r.StartedAt.After(*stats.LatestSession) {
			t := r.StartedAt
			stats.LatestSession = &t
		}
	}

	stats.MeanPeakImpact = stat.Mean(peaks, nil)
	stats.MeanAverageImpact = stat.Mean(averages, nil)
	if len(rows) >= 2 {
		_, slope := stat.LinearRegression(idx, peaks, nil, false)
		stats.PeakImpactTrend = slope
	}
	return stats
}
