// Package server exposes the platform links of the signed-in user as MCP tools.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/brizzai/codetrack/internal/config"
	"github.com/brizzai/codetrack/internal/logger"
	"github.com/brizzai/codetrack/internal/platform"
	"github.com/brizzai/codetrack/internal/server/handler"
	"github.com/brizzai/codetrack/internal/server/tool"
	"github.com/brizzai/codetrack/internal/session"
	"github.com/brizzai/codetrack/internal/verification"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Tracker is the verification workflow served as tools.
type Tracker interface {
	Snapshot() platform.Snapshot
	Load(ctx context.Context) (platform.Snapshot, error)
	Start(ctx context.Context, p platform.Platform, username string) (verification.Challenge, error)
	Complete(ctx context.Context, p platform.Platform) (platform.Snapshot, error)
	Cancel(p platform.Platform) error
	Refresh(ctx context.Context, p platform.Platform) (platform.Snapshot, error)
	Disconnect(ctx context.Context, p platform.Platform, confirmer verification.Confirmer) (platform.Snapshot, error)
}

// Session is the signed-in state tool calls run under.
type Session interface {
	Active() bool
}

// Server represents the MCP server instance. It supports SSE, streamable HTTP
// and STDIO.
type Server struct {
	config  *config.Config
	mcp     *mcpserver.MCPServer
	tracker Tracker
	handler *handler.Handler
	tool    *tool.Handler
}

// NewServer creates a new MCP server with the platform tools registered.
func NewServer(cfg *config.Config, tracker Tracker, sess Session) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if tracker == nil || sess == nil {
		return nil, fmt.Errorf("tracker and session are required")
	}

	srv := &Server{
		config: cfg,
		mcp: mcpserver.NewMCPServer(
			cfg.Server.Name,
			cfg.Server.Version,
			mcpserver.WithToolCapabilities(false),
		),
		tracker: tracker,
		handler: handler.NewHandler(sess),
		tool:    tool.NewHandler(sess),
	}
	srv.setupTools()
	return srv, nil
}

func (s *Server) setupTools() {
	for _, t := range s.tools() {
		s.mcp.AddTool(t.tool, s.tool.CreateHandler(&t.tool, t.run))
		logger.Debug("Registered tool", zap.String("tool", t.tool.Name))
	}
}

func (s *Server) ServeSSE(ctx context.Context) error {
	logger.Info("Starting SSE server")

	sseServer := mcpserver.NewSSEServer(
		s.mcp,
		mcpserver.WithBaseURL(fmt.Sprintf("http://%s:%d", s.config.Server.Host, s.config.Server.Port)),
	)

	return s.serveHTTP(ctx, sseServer, "SSE")
}

func (s *Server) ServeHTTP(ctx context.Context) error {
	logger.Info("Starting HTTP server")
	httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
	return s.serveHTTP(ctx, httpServer, "HTTP")
}

func (s *Server) serveHTTP(ctx context.Context, mcpHandler http.Handler, mode string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler.CreateHTTPHandler(mcpHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server",
			zap.String("mode", mode),
			zap.String("address", addr),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.String("mode", mode),
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

func (s *Server) ServeSTDIO(ctx context.Context) error {
	logger.Info("Starting STDIO server")
	stdioServer := mcpserver.NewStdioServer(s.mcp)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// Start starts the server in the configured mode (SSE, HTTP, or STDIO).
// It returns an error if the server fails to start or encounters an error
// during operation.
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting server",
		zap.String("mode", string(s.config.Server.Mode)),
		zap.String("version", s.config.Server.Version),
	)

	switch s.config.Server.Mode {
	case config.ServerModeSSE:
		return s.ServeSSE(ctx)
	case config.ServerModeHTTP:
		return s.ServeHTTP(ctx)
	case config.ServerModeSTDIO:
		return s.ServeSTDIO(ctx)
	default:
		return fmt.Errorf("unsupported server mode: %s", s.config.Server.Mode)
	}
}

// Module provides the MCP server over the verification workflow and session.
var Module = fx.Module("mcp_server",
	fx.Provide(
		func(cfg *config.Config, w *verification.Workflow, c *session.Controller) (*Server, error) {
			return NewServer(cfg, w, c)
		},
	),
)
