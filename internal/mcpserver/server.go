// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Dagaz calendar tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/calsvc"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/scheduler"
	"github.com/starford/dagaz/internal/view"
)

// editPerms grants the stdio client full edit rights. MCP sessions are
// local trusted integrations, unlike HTTP clients with read-only tokens.
type editPerms struct{}

func (editPerms) CanEdit() bool { return true }

// Server wraps the MCP server with Dagaz calendar tools. Navigation tools
// drive a per-session view controller, so "navigate" and "today" behave
// like the arrow buttons of an interactive client.
type Server struct {
	mcp    *server.MCPServer
	svc    *calsvc.Service
	ctrl   *calsvc.Controller
	tenant string
}

// New creates a new MCP server with all calendar tools registered.
func New(svc *calsvc.Service, tenant string) *Server {
	s := &Server{
		svc:    svc,
		ctrl:   calsvc.NewController(svc, tenant, time.Now),
		tenant: tenant,
	}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_calendar",
		mcp.WithDescription("Get the current calendar page with layouted events. "+
			"The view follows the session state set via set_view/navigate/today."),
	), s.getCalendar)

	s.mcp.AddTool(mcp.NewTool("set_view",
		mcp.WithDescription("Switch the session's calendar view."),
		mcp.WithString("view", mcp.Required(), mcp.Description("One of: day, week, month")),
	), s.setView)

	s.mcp.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Step the session's calendar backward or forward by one view unit."),
		mcp.WithString("direction", mcp.Required(), mcp.Description("Either next or prev")),
	), s.navigate)

	s.mcp.AddTool(mcp.NewTool("today",
		mcp.WithDescription("Jump the session's calendar back to today."),
	), s.today)

	s.mcp.AddTool(mcp.NewTool("move_event",
		mcp.WithDescription("Move a calendar event to a new date and start time. "+
			"The event keeps its duration; the time snaps to the configured grid."),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("ID of the event to move")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Target date (YYYY-MM-DD)")),
		mcp.WithString("time", mcp.Required(), mcp.Description("Target start time (HH:MM, 24h)")),
	), s.moveEvent)

	s.mcp.AddTool(mcp.NewTool("create_activity",
		mcp.WithDescription("Create a new activity on the calendar."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Activity title")),
		mcp.WithString("start", mcp.Required(), mcp.Description("Start instant (RFC 3339, e.g. 2026-08-26T09:00:00Z)")),
		mcp.WithString("end", mcp.Description("Optional end instant (RFC 3339)")),
	), s.createActivity)

	// Resource: current grid settings.
	s.mcp.AddResource(
		mcp.NewResource("dagaz://grid-settings", "Time Grid Settings",
			mcp.WithResourceDescription("Active time-grid configuration: visible hours, pixel scale, snap granularity."),
			mcp.WithMIMEType("application/json"),
		),
		s.readGridResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, _, _, _ := s.ctrl.State()
	var payload any
	var err error
	if mode == view.ModeMonth {
		payload, err = s.ctrl.MonthPage(ctx)
	} else {
		payload, err = s.ctrl.Page(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("view")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := view.ParseMode(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.ctrl.SetMode(mode)
	return mcp.NewToolResultText(fmt.Sprintf("view: %s", mode)), nil
}

func (s *Server) navigate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	switch dir {
	case "next":
		s.ctrl.Navigate(1)
	case "prev":
		s.ctrl.Navigate(-1)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown direction %q, want next or prev", dir)), nil
	}
	_, ref, _, _ := s.ctrl.State()
	return mcp.NewToolResultText(fmt.Sprintf("now at %s", ref.Format("2006-01-02"))), nil
}

func (s *Server) today(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.ctrl.GoToToday()
	_, ref, _, _ := s.ctrl.State()
	return mcp.NewToolResultText(fmt.Sprintf("now at %s", ref.Format("2006-01-02"))), nil
}

func (s *Server) moveEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clock, err := req.RequireString("time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	target, err := time.Parse("2006-01-02", date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("bad date %q: %v", date, err)), nil
	}
	at, err := time.Parse("15:04", clock)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("bad time %q: %v", clock, err)), nil
	}

	// Express the clock time as the pixel the drop would land on, so the
	// move goes through the same snap and dual-write path as a drag.
	drop := scheduler.Drop{
		EventID:    id,
		PixelY:     s.svc.Mapper().TimeToOffset(at.Hour(), at.Minute()),
		TargetDate: target,
	}
	res, _, err := s.ctrl.Drop(ctx, drop, editPerms{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createActivity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	startRaw, err := req.RequireString("start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("bad start %q: %v", startRaw, err)), nil
	}

	act := &models.Activity{Title: title, StartAt: start}
	if endRaw, rerr := req.RequireString("end"); rerr == nil && endRaw != "" {
		end, perr := time.Parse(time.RFC3339, endRaw)
		if perr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("bad end %q: %v", endRaw, perr)), nil
		}
		if end.Before(start) {
			return mcp.NewToolResultError("end must not be before start"), nil
		}
		act.EndAt = &end
	}

	act.TenantID = s.tenant
	if err := s.svc.CreateActivity(ctx, act); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", act.ID)), nil
}

func (s *Server) readGridResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, _ := json.MarshalIndent(s.svc.Mapper().Config(), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "dagaz://grid-settings",
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
