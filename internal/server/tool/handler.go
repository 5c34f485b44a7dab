// Package tool provides tool handling functionality for the MCP server.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brizzai/codetrack/internal/api"
	"github.com/brizzai/codetrack/internal/logger"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ErrNoSession is reported to MCP clients while nobody is signed in.
const ErrNoSession = "Unauthorized: no active session, run `codetrack login` first"

// Session reports whether calls can be made on behalf of a user.
type Session interface {
	Active() bool
}

// Func runs one tool call. A string result is returned as text, anything else
// as indented JSON.
type Func func(ctx context.Context, args Args) (any, error)

// Handler manages tool execution and session checks.
type Handler struct {
	session Session
}

// NewHandler creates a new tool handler.
func NewHandler(session Session) *Handler {
	return &Handler{session: session}
}

// CreateHandler creates a handler function for a specific tool.
// Failures are reported as tool errors so the model can read them; only a
// result that cannot be encoded fails the call itself.
func (h *Handler) CreateHandler(tool *mcp.Tool, fn Func) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !h.session.Active() {
			logger.Warn("Tool called without a session", zap.String("tool", tool.Name))
			return mcp.NewToolResultError(ErrNoSession), nil
		}

		result, err := fn(ctx, Args(request.GetArguments()))
		if err != nil {
			logger.Warn("Tool call failed",
				zap.String("tool", tool.Name),
				zap.Stringer("kind", api.KindOf(err)),
				zap.Error(err),
			)
			return mcp.NewToolResultError(Message(err)), nil
		}

		if text, ok := result.(string); ok {
			return mcp.NewToolResultText(text), nil
		}
		body, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode result for tool %s: %w", tool.Name, err)
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// Message is the user-facing text of err.
func Message(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Sprintf("%s error: %s", apiErr.Kind, apiErr.Message)
	}
	return err.Error()
}

// Args are the arguments of one tool call.
type Args map[string]any

// String returns the named string argument, or an error when it is missing.
func (a Args) String(name string) (string, error) {
	v, ok := a[name].(string)
	if !ok || v == "" {
		return "", api.NewValidationError("missing required argument %q", name)
	}
	return v, nil
}

// Bool returns the named boolean argument, false when absent.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}
