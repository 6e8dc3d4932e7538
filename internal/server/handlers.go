package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/stagecoach/internal/analyzer"
	"github.com/claude/stagecoach/internal/config"
	"github.com/claude/stagecoach/internal/session"
	"github.com/claude/stagecoach/internal/storage"
	"github.com/claude/stagecoach/internal/tips"
)

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	id := s.tracker.Start()
	if s.recorder != nil {
		if err := s.recorder.Begin(id); err != nil {
			s.log.Warn("recording unavailable for session", "session_id", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id})
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	sum := s.tracker.Stop()
	if s.recorder != nil {
		if err := s.recorder.End(); err != nil {
			s.log.Warn("closing recording failed", "error", err)
		}
	}
	if sum == nil {
		// Stop is idempotent: stopping an idle tracker is not an error.
		writeJSON(w, http.StatusOK, map[string]any{"stopped": false})
		return
	}

	inserted, err := s.db.InsertSession(r.Context(), storage.RowFromSummary(sum))
	if err != nil {
		s.log.Error("persisting session summary", "session_id", sum.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !inserted {
		s.log.Warn("session summary already stored", "session_id", sum.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"stopped": true, "summary": sum})
}

func (s *Server) handleCurrentState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleQuerySessions(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	rows, err := s.db.QuerySessions(r.Context(), start, end, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	row, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if row == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stats, err := s.db.GetProgressStats(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTipCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tips.Catalog())
}

// engineParams is the combined tuning payload for the params endpoints.
type engineParams struct {
	Analyzer analyzer.Params `json:"analyzer"`
	Session  session.Params  `json:"session"`
}

func (s *Server) handleGetEngineParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, engineParams{
		Analyzer: s.tracker.AnalyzerParams(),
		Session:  s.tracker.Params(),
	})
}

// handleSetEngineParams adjusts the engine tuning at runtime. Zero-valued
// fields keep their current setting, so a partial payload tweaks only the
// thresholds it names.
func (s *Server) handleSetEngineParams(w http.ResponseWriter, r *http.Request) {
	var p engineParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	merged := engineParams{
		Analyzer: config.MergeAnalyzerParams(p.Analyzer, s.tracker.AnalyzerParams()),
		Session:  config.MergeSessionParams(p.Session, s.tracker.Params()),
	}
	s.tracker.SetAnalyzerParams(merged.Analyzer)
	s.tracker.SetParams(merged.Session)
	s.log.Info("engine params updated")
	writeJSON(w, http.StatusOK, merged)
}

// parseTimeRange reads optional start/end query params (RFC 3339 or
// YYYY-MM-DD), defaulting to the last 30 days.
func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
