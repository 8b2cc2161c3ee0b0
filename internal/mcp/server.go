package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-signer/internal/config"
	"github.com/a3tai/mcp-pdf-signer/internal/descriptions"
	"github.com/a3tai/mcp-pdf-signer/internal/session"
	"github.com/a3tai/mcp-pdf-signer/internal/source"
)

const shutdownTimeout = 10 * time.Second

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	loader    *source.Loader
	sessions  *session.Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, loader *source.Loader, sessions *session.Registry, logger *slog.Logger) (*Server, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader cannot be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session registry cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		loader:    loader,
		sessions:  sessions,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// MCPServer exposes the underlying protocol server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by signer_open_document"),
	)
}

func fieldParam() mcp.ToolOption {
	return mcp.WithString("field_id",
		mcp.Required(),
		mcp.Description("Field id"),
	)
}

func pointerParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Pointer X in viewport pixels")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Pointer Y in viewport pixels")),
		mcp.WithNumber("scroll_top", mcp.Description("Scroll offset of the document container (default 0)")),
		mcp.WithNumber("scale", mcp.Description("Current zoom (default 1)")),
	}
}

func tool(name string, opts ...mcp.ToolOption) mcp.Tool {
	opts = append([]mcp.ToolOption{mcp.WithDescription(descriptions.GetToolDescription(name))}, opts...)
	return mcp.NewTool(name, opts...)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Sessions
	s.mcpServer.AddTool(tool("signer_list_documents",
		mcp.WithString("query", mcp.Description("Fuzzy file name filter")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of documents to list (default 50, 0 for all)")),
	), s.handleListDocuments)

	s.mcpServer.AddTool(tool("signer_open_document",
		mcp.WithString("path", mcp.Description("PDF path inside the document directory")),
		mcp.WithString("url", mcp.Description("http or https URL of a PDF")),
		mcp.WithString("base64", mcp.Description("PDF bytes, base64 or data URL")),
		mcp.WithString("text", mcp.Description("Plain text body for a text document")),
		mcp.WithString("title", mcp.Description("Title of a text or uploaded document")),
	), s.handleOpenDocument)

	s.mcpServer.AddTool(tool("signer_list_sessions"), s.handleListSessions)

	s.mcpServer.AddTool(tool("signer_close_session", sessionParam()), s.handleCloseSession)

	s.mcpServer.AddTool(tool("signer_report_page",
		sessionParam(),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("1-based page number")),
		mcp.WithNumber("width", mcp.Required(), mcp.Description("Natural page width")),
		mcp.WithNumber("height", mcp.Required(), mcp.Description("Natural page height")),
	), s.handleReportPage)

	// Placement
	s.mcpServer.AddTool(tool("signer_select_field_type",
		sessionParam(),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Enum("signature", "date", "text", "checkbox"),
			mcp.Description("Field type to arm"),
		),
	), s.handleSelectFieldType)

	s.mcpServer.AddTool(tool("signer_place_field", append([]mcp.ToolOption{
		sessionParam(),
		mcp.WithString("type",
			mcp.Enum("signature", "date", "text", "checkbox"),
			mcp.Description("Field type (uses the armed type when omitted)"),
		),
	}, pointerParams()...)...), s.handlePlaceField)

	s.mcpServer.AddTool(tool("signer_pointer_down",
		append([]mcp.ToolOption{sessionParam(), fieldParam()}, pointerParams()...)...,
	), s.handlePointerDown)

	s.mcpServer.AddTool(tool("signer_pointer_move",
		append([]mcp.ToolOption{sessionParam()}, pointerParams()...)...,
	), s.handlePointerMove)

	s.mcpServer.AddTool(tool("signer_pointer_up", sessionParam()), s.handlePointerUp)

	s.mcpServer.AddTool(tool("signer_field_click", sessionParam(), fieldParam()), s.handleFieldClick)

	s.mcpServer.AddTool(tool("signer_move_field",
		sessionParam(),
		fieldParam(),
		mcp.WithNumber("dx", mcp.Required(), mcp.Description("Horizontal delta in viewport pixels")),
		mcp.WithNumber("dy", mcp.Required(), mcp.Description("Vertical delta in viewport pixels")),
		mcp.WithNumber("scale", mcp.Description("Current zoom (default 1)")),
	), s.handleMoveField)

	s.mcpServer.AddTool(tool("signer_update_field",
		sessionParam(),
		fieldParam(),
		mcp.WithNumber("width", mcp.Description("New width in document units")),
		mcp.WithNumber("height", mcp.Description("New height in document units")),
		mcp.WithBoolean("required", mcp.Description("Whether the field must be completed")),
	), s.handleUpdateField)

	s.mcpServer.AddTool(tool("signer_duplicate_field", sessionParam(), fieldParam()), s.handleDuplicateField)

	s.mcpServer.AddTool(tool("signer_remove_field", sessionParam(), fieldParam()), s.handleRemoveField)

	// Recipients and values
	s.mcpServer.AddTool(tool("signer_assign_recipient",
		sessionParam(),
		fieldParam(),
		mcp.WithString("recipient_id", mcp.Required(), mcp.Description("Recipient id")),
	), s.handleAssignRecipient)

	s.mcpServer.AddTool(tool("signer_attach_signature",
		sessionParam(),
		fieldParam(),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Enum("drawn", "typed", "uploaded"),
			mcp.Description("How the signature was captured"),
		),
		mcp.WithString("data", mcp.Description("Base64 image or data URL (drawn and uploaded)")),
		mcp.WithString("text", mcp.Description("Typed signature text")),
		mcp.WithString("font", mcp.Description("Font label of a typed signature")),
		mcp.WithString("name", mcp.Description("Name of the signer")),
	), s.handleAttachSignature)

	s.mcpServer.AddTool(tool("signer_clear_signature", sessionParam(), fieldParam()), s.handleClearSignature)

	s.mcpServer.AddTool(tool("signer_add_recipient",
		sessionParam(),
		mcp.WithString("name", mcp.Description("Full name")),
		mcp.WithString("email", mcp.Description("Email address")),
		mcp.WithString("role", mcp.Enum("signer", "viewer"), mcp.Description("Role (default signer)")),
	), s.handleAddRecipient)

	s.mcpServer.AddTool(tool("signer_update_recipient",
		sessionParam(),
		mcp.WithString("recipient_id", mcp.Required(), mcp.Description("Recipient id")),
		mcp.WithString("name", mcp.Description("Full name")),
		mcp.WithString("email", mcp.Description("Email address")),
		mcp.WithString("role", mcp.Enum("signer", "viewer"), mcp.Description("Role")),
	), s.handleUpdateRecipient)

	s.mcpServer.AddTool(tool("signer_remove_recipient",
		sessionParam(),
		mcp.WithString("recipient_id", mcp.Required(), mcp.Description("Recipient id")),
	), s.handleRemoveRecipient)

	// Review and export
	s.mcpServer.AddTool(tool("signer_validate",
		sessionParam(),
		mcp.WithString("mode", mcp.Enum("send", "export"), mcp.Description("Rule set (default send)")),
	), s.handleValidate)

	s.mcpServer.AddTool(tool("signer_list_fields",
		sessionParam(),
		mcp.WithNumber("page", mcp.Description("Only list fields on this page")),
		mcp.WithNumber("scale", mcp.Description("Zoom for viewport rectangles (default 1)")),
		mcp.WithNumber("scroll_top", mcp.Description("Scroll offset for viewport rectangles (default 0)")),
	), s.handleListFields)

	s.mcpServer.AddTool(tool("signer_export_document",
		sessionParam(),
		mcp.WithString("output_path", mcp.Description("Write the PDF here, inside the document directory")),
	), s.handleExportDocument)

	s.mcpServer.AddTool(tool("signer_server_info"), s.handleServerInfo)
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves the protocol on stdin and stdout
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Info("starting MCP server in stdio mode", "dir", s.config.DocumentDirectory)

	errLog := slog.NewLogLogger(s.logger.Handler(), slog.LevelError)
	if err := server.ServeStdio(s.mcpServer, server.WithErrorLogger(errLog)); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves the protocol and the download routes over HTTP until
// ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server in HTTP mode", "addr", httpServer.Addr, "dir", s.config.DocumentDirectory)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	}
}
