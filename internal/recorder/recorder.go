// Package recorder captures the live frame stream to per-session JSONL
// files for offline replay and threshold tuning, and tracks which
// recordings the replay CLI has already imported.
package recorder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/claude/stagecoach/internal/models"
)

// Recorder appends FramePayload lines to one file per session. Writes are
// buffered; a dropped frame on write error is logged and skipped, never
// propagated into the frame path.
type Recorder struct {
	mu   sync.Mutex
	dir  string
	log  *slog.Logger
	file *os.File
	w    *bufio.Writer
}

// New creates a Recorder writing under dir.
func New(dir string, log *slog.Logger) *Recorder {
	return &Recorder{dir: dir, log: log}
}

// Begin opens a new recording file for the session, closing any recording
// still open from a previous session.
func (r *Recorder) Begin(sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeLocked()

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating recording dir %s: %w", r.dir, err)
	}
	path := filepath.Join(r.dir, sessionID.String()+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating recording %s: %w", path, err)
	}
	r.file = f
	r.w = bufio.NewWriter(f)
	r.log.Info("recording started", "path", path)
	return nil
}

// Write appends one frame. No-op when no recording is open.
func (r *Recorder) Write(frame models.FramePayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		r.log.Warn("skipping unencodable frame", "error", err)
		return
	}
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		r.log.Warn("recording write failed", "error", err)
	}
}

// End flushes and closes the current recording.
func (r *Recorder) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *Recorder) closeLocked() error {
	if r.file == nil {
		return nil
	}
	var err error
	if werr := r.w.Flush(); werr != nil {
		err = fmt.Errorf("flushing recording: %w", werr)
	}
	if cerr := r.file.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing recording: %w", cerr)
	}
	r.file = nil
	r.w = nil
	return err
}

// ReadRecording loads all frames from a JSONL recording file. Unparseable
// lines are skipped with a count so a truncated tail doesn't lose the whole
// recording.
func ReadRecording(path string, log *slog.Logger) ([]models.FramePayload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	var (
		frames  []models.FramePayload
		skipped int
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var fp models.FramePayload
		if err := json.Unmarshal(sc.Bytes(), &fp); err != nil || fp.Validate() != nil {
			skipped++
			continue
		}
		frames = append(frames, fp)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	if skipped > 0 {
		log.Warn("skipped malformed recording lines", "path", path, "count", skipped)
	}
	return frames, nil
}
