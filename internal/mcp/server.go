// Package mcp exposes session history, live state and progress stats to an
// LLM coach over the Model Context Protocol.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/stagecoach/internal/session"
	"github.com/claude/stagecoach/internal/storage"
)

// New creates an MCP server with all tools and resources registered.
func New(db *storage.DB, tracker *session.Tracker, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("StageCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("StageCoach presentation-coaching server. Query practice sessions, live session state, progress trends, and the coaching tip catalog to help the speaker improve their body language."),
	)

	h := &handlers{db: db, tracker: tracker, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetLiveState, Handler: h.getLiveState},
		server.ServerTool{Tool: toolListCoachingTips, Handler: h.listCoachingTips},
	)

	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resLiveState, Handler: h.liveState},
		server.ServerResource{Resource: resTipCatalog, Handler: h.tipCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	db      *storage.DB
	tracker *session.Tracker
	log     *slog.Logger
}

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"stagecoach://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Practice session summaries from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resLiveState = mcp.NewResource(
	"stagecoach://live_state",
	"Live Session State",
	mcp.WithResourceDescription("Current session snapshot: elapsed time, gesture, impact, streaks, active coaching tips"),
	mcp.WithMIMEType("application/json"),
)

var resTipCatalog = mcp.NewResource(
	"stagecoach://tip_catalog",
	"Coaching Tip Catalog",
	mcp.WithResourceDescription("The full coaching tip table with priorities"),
	mcp.WithMIMEType("application/json"),
)
