package replay

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude/stagecoach/internal/analyzer"
	"github.com/claude/stagecoach/internal/models"
	"github.com/claude/stagecoach/internal/pose"
	"github.com/claude/stagecoach/internal/session"
)

// writeRecording writes n frames spaced 100ms apart starting at startMillis.
func writeRecording(t *testing.T, dir, name string, startMillis int64, n int) {
	t.Helper()
	var buf []byte
	for i := 0; i < n; i++ {
		fp := models.FramePayload{
			Landmarks: []pose.Landmark{{X: 0.5, Y: 0.5, Visibility: 0.9}},
			Smile:     0.5,
			TS:        startMillis + int64(i)*100,
		}
		line, err := json.Marshal(fp)
		if err != nil {
			t.Fatal(err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf, 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestReplayDryRun verifies a directory of recordings replays through the
// engine without touching the database, and that dry runs leave no
// replayed-state marks behind.
func TestReplayDryRun(t *testing.T) {
	dir := t.TempDir()
	writeRecording(t, dir, "a.jsonl", 1_000_000, 20)
	writeRecording(t, dir, "b.jsonl", 2_000_000, 10)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644); err != nil {
		t.Fatal(err)
	}

	log := slog.New(slog.DiscardHandler)
	rep := New(nil, analyzer.DefaultParams(), session.DefaultParams(), log, true)

	stats, err := rep.Replay(context.Background(), dir)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if stats.FilesProcessed != 2 {
		t.Errorf("files processed = %d, want 2", stats.FilesProcessed)
	}
	if stats.FramesReplayed != 30 {
		t.Errorf("frames replayed = %d, want 30", stats.FramesReplayed)
	}
	if stats.SessionsInserted != 0 {
		t.Errorf("sessions inserted = %d, want 0 in dry run", stats.SessionsInserted)
	}

	// Dry runs do not mark files, so a second pass processes them again.
	rep = New(nil, analyzer.DefaultParams(), session.DefaultParams(), log, true)
	stats, err = rep.Replay(context.Background(), dir)
	if err != nil {
		t.Fatalf("second Replay: %v", err)
	}
	if stats.FilesProcessed != 2 || stats.FilesSkipped != 0 {
		t.Errorf("second dry run processed=%d skipped=%d, want 2/0", stats.FilesProcessed, stats.FilesSkipped)
	}
}

// TestReplaySkipsEmptyRecording verifies a recording with no usable frames
// counts as errored, not processed.
func TestReplaySkipsEmptyRecording(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "junk.jsonl"), []byte("not json\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep := New(nil, analyzer.DefaultParams(), session.DefaultParams(), slog.New(slog.DiscardHandler), true)
	stats, err := rep.Replay(context.Background(), dir)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if stats.FilesErrored != 1 || stats.FilesProcessed != 0 {
		t.Errorf("errored=%d processed=%d, want 1/0", stats.FilesErrored, stats.FilesProcessed)
	}
}
