package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/stagecoach/internal/models"
	"github.com/claude/stagecoach/internal/session"
)

// RowFromSummary converts an engine summary into a storage row.
func RowFromSummary(sum *session.Summary) models.SessionRow {
	return models.SessionRow{
		ID:             sum.ID,
		StartedAt:      sum.StartedAt,
		EndedAt:        sum.EndedAt,
		DurationSec:    sum.DurationSeconds,
		GestureCount:   sum.GestureCount,
		BestStreakSec:  sum.BestStreak,
		SmileCount:     sum.SmileCount,
		SlouchCount:    sum.SlouchCount,
		GoodPostureSec: sum.GoodPostureSeconds,
		PeakImpact:     sum.PeakImpact,
		AverageImpact:  sum.AverageImpact,
	}
}

// InsertSession inserts a session summary row. Returns true if inserted,
// false if the session ID already exists (replays are idempotent).
func (db *DB) InsertSession(ctx context.Context, row models.SessionRow) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, started_at, ended_at, duration_sec, gesture_count,
		 best_streak_sec, smile_count, slouch_count, good_posture_sec, peak_impact, average_impact)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT DO NOTHING`,
		row.ID, row.StartedAt, row.EndedAt, row.DurationSec, row.GestureCount,
		row.BestStreakSec, row.SmileCount, row.SlouchCount, row.GoodPostureSec,
		row.PeakImpact, row.AverageImpact)
	if err != nil {
		return false, fmt.Errorf("inserting session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QuerySessions retrieves session summaries in a time range, newest first.
func (db *DB) QuerySessions(ctx context.Context, start, end time.Time, limit int) ([]models.SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, started_at, ended_at, duration_sec, gesture_count,
		 best_streak_sec, smile_count, slouch_count, good_posture_sec, peak_impact, average_impact
		 FROM sessions
		 WHERE started_at >= $1 AND started_at <= $2
		 ORDER BY started_at DESC
		 LIMIT $3`, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []models.SessionRow
	for rows.Next() {
		var r models.SessionRow
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.EndedAt, &r.DurationSec, &r.GestureCount,
			&r.BestStreakSec, &r.SmileCount, &r.SlouchCount, &r.GoodPostureSec,
			&r.PeakImpact, &r.AverageImpact); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSession retrieves one session summary by ID, or nil if absent.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.SessionRow, error) {
	var r models.SessionRow
	err := db.Pool.QueryRow(ctx,
		`SELECT id, started_at, ended_at, duration_sec, gesture_count,
		 best_streak_sec, smile_count, slouch_count, good_posture_sec, peak_impact, average_impact
		 FROM sessions WHERE id = $1`, id,
	).Scan(&r.ID, &r.StartedAt, &r.EndedAt, &r.DurationSec, &r.GestureCount,
		&r.BestStreakSec, &r.SmileCount, &r.SlouchCount, &r.GoodPostureSec,
		&r.PeakImpact, &r.AverageImpact)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying session %s: %w", id, err)
	}
	return &r, nil
}
