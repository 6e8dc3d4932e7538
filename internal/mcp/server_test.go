package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/stagecoach/internal/analyzer"
	"github.com/claude/stagecoach/internal/session"
)

// TestDefaultTimeRange verifies the 30-day default and explicit overrides.
func TestDefaultTimeRange(t *testing.T) {
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("defaultTimeRange: %v", err)
	}
	if days := end.Sub(start).Hours() / 24; days < 29 || days > 31 {
		t.Errorf("default range = %v days, want ~30", days)
	}

	start, end, err = defaultTimeRange("2026-02-01", "2026-02-15")
	if err != nil {
		t.Fatalf("defaultTimeRange explicit: %v", err)
	}
	if start.Day() != 1 || end.Day() != 15 {
		t.Errorf("range = %v..%v, want Feb 1..15", start, end)
	}

	if _, _, err := defaultTimeRange("last tuesday", ""); err == nil {
		t.Error("junk start date accepted")
	}
}

// TestParseFlexTime accepts both RFC 3339 and plain dates.
func TestParseFlexTime(t *testing.T) {
	if got, err := parseFlexTime("2026-03-04T12:30:00Z"); err != nil || got.Hour() != 12 {
		t.Errorf("RFC 3339 parse = %v, %v", got, err)
	}
	if got, err := parseFlexTime("2026-03-04"); err != nil || got.Month() != time.March {
		t.Errorf("date parse = %v, %v", got, err)
	}
}

// TestLiveStateResource verifies the live-state resource serializes the
// tracker snapshot without a database.
func TestLiveStateResource(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	tracker := session.NewTracker(analyzer.New(analyzer.DefaultParams()), session.DefaultParams(), log)
	tracker.Start()
	defer tracker.Stop()

	h := &handlers{tracker: tracker, log: log}
	req := mcpgo.ReadResourceRequest{}
	req.Params.URI = "stagecoach://live_state"

	contents, err := h.liveState(context.Background(), req)
	if err != nil {
		t.Fatalf("liveState: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	text, ok := contents[0].(mcpgo.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T, want TextResourceContents", contents[0])
	}
	if text.MIMEType != "application/json" {
		t.Errorf("mime = %q, want application/json", text.MIMEType)
	}

	var state session.State
	if err := json.Unmarshal([]byte(text.Text), &state); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if !state.Active {
		t.Error("live state not active for a started session")
	}
	if !strings.HasPrefix(text.URI, "stagecoach://") {
		t.Errorf("uri = %q, want stagecoach scheme", text.URI)
	}
}

// TestTipCatalogResource verifies the catalog resource round-trips as JSON.
func TestTipCatalogResource(t *testing.T) {
	h := &handlers{log: slog.New(slog.DiscardHandler)}
	req := mcpgo.ReadResourceRequest{}
	req.Params.URI = "stagecoach://tip_catalog"

	contents, err := h.tipCatalog(context.Background(), req)
	if err != nil {
		t.Fatalf("tipCatalog: %v", err)
	}
	text := contents[0].(mcpgo.TextResourceContents)
	var catalog []map[string]any
	if err := json.Unmarshal([]byte(text.Text), &catalog); err != nil {
		t.Fatalf("unmarshal catalog: %v", err)
	}
	if len(catalog) == 0 {
		t.Error("empty tip catalog")
	}
}
