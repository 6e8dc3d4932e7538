// Package replay drives recorded landmark streams through the analysis
// engine offline, producing the same session summaries a live run would.
// Each .jsonl recording becomes one stored session; the recorded
// timestamps act as the clock so throttling, streaks and debouncing
// behave exactly as they did live.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/claude/stagecoach/internal/analyzer"
	"github.com/claude/stagecoach/internal/recorder"
	"github.com/claude/stagecoach/internal/session"
	"github.com/claude/stagecoach/internal/storage"
)

// Stats tracks replay progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	FramesReplayed   int
	SessionsInserted int
	SessionsDupes    int
}

// Replayer scans a directory of landmark recordings and replays each one
// through a fresh tracker. Files already replayed (tracked by path, size
// and content hash in a local state DB) are skipped, so re-running over
// the same directory is safe.
type Replayer struct {
	db             *storage.DB
	analyzerParams analyzer.Params
	sessionParams  session.Params
	log            *slog.Logger
	dryRun         bool
	stats          Stats
}

// New creates a new Replayer.
func New(db *storage.DB, ap analyzer.Params, sp session.Params, log *slog.Logger, dryRun bool) *Replayer {
	return &Replayer{db: db, analyzerParams: ap, sessionParams: sp, log: log, dryRun: dryRun}
}

// Replay processes all .jsonl recordings under dir.
func (r *Replayer) Replay(ctx context.Context, dir string) (*Stats, error) {
	state, err := recorder.OpenStateDB(dir)
	if err != nil {
		return &r.stats, fmt.Errorf("opening state db: %w", err)
	}
	defer state.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return &r.stats, fmt.Errorf("reading %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return &r.stats, err
		}
		path := filepath.Join(dir, name)

		info, err := os.Stat(path)
		if err != nil {
			r.log.Warn("stat failed, skipping", "file", name, "error", err)
			r.stats.FilesErrored++
			continue
		}
		hash, err := recorder.HashFile(path)
		if err != nil {
			r.log.Warn("hash failed, skipping", "file", name, "error", err)
			r.stats.FilesErrored++
			continue
		}
		done, err := state.IsImported(name, info.Size(), hash)
		if err != nil {
			return &r.stats, fmt.Errorf("checking state for %s: %w", name, err)
		}
		if done {
			r.stats.FilesSkipped++
			continue
		}

		if err := r.replayFile(ctx, path, name); err != nil {
			r.log.Warn("replay failed", "file", name, "error", err)
			r.stats.FilesErrored++
			continue
		}
		r.stats.FilesProcessed++

		if !r.dryRun {
			if err := state.MarkImported(name, info.Size(), hash); err != nil {
				return &r.stats, fmt.Errorf("marking %s replayed: %w", name, err)
			}
		}
	}

	return &r.stats, nil
}

// replayFile feeds one recording through a fresh tracker and stores the
// resulting summary.
func (r *Replayer) replayFile(ctx context.Context, path, name string) error {
	frames, err := recorder.ReadRecording(path, r.log)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames in %s", name)
	}

	clock := &virtualClock{t: frames[0].Time()}
	tracker := session.NewTracker(analyzer.New(r.analyzerParams), r.sessionParams, r.log)
	tracker.SetClock(clock.Now)

	tracker.Start()
	for _, f := range frames {
		at := f.Time()
		clock.Set(at)
		tracker.ProcessFrame(f.Landmarks, f.Smile, at)
		r.stats.FramesReplayed++
	}
	clock.Set(frames[len(frames)-1].Time())
	sum := tracker.Stop()
	if sum == nil {
		return fmt.Errorf("tracker produced no summary for %s", name)
	}

	r.log.Info("recording replayed",
		"file", name,
		"frames", len(frames),
		"duration_secs", sum.DurationSeconds,
		"gestures", sum.GestureCount,
		"peak_impact", sum.PeakImpact,
	)

	if r.dryRun {
		return nil
	}
	inserted, err := r.db.InsertSession(ctx, storage.RowFromSummary(sum))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	if inserted {
		r.stats.SessionsInserted++
	} else {
		r.stats.SessionsDupes++
	}
	return nil
}

// virtualClock is a settable clock shared with the tracker, advanced by the
// recorded frame timestamps.
type virtualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *virtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *virtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
