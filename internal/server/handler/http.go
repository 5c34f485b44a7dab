// Package handler provides HTTP request handling for the MCP server.
package handler

import (
	"net/http"
	"time"

	"github.com/brizzai/codetrack/internal/logger"
	"github.com/brizzai/codetrack/internal/utils"
	"go.uber.org/zap"
)

// Session reports the state of the signed-in user for the health endpoint.
type Session interface {
	Active() bool
}

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	session Session
}

// NewHandler creates a new HTTP handler.
func NewHandler(session Session) *Handler {
	return &Handler{session: session}
}

// CreateHTTPHandler mounts the MCP transport next to a health endpoint and
// logs every request.
func (h *Handler) CreateHTTPHandler(mcpHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/", mcpHandler)
	return LoggingMiddleware(mux)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method_not_allowed", "only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	utils.WriteJSON(w, map[string]any{
		"status":  "ok",
		"session": h.session.Active(),
	})
}

// LoggingMiddleware logs information about each incoming request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		logger.Info("HTTP Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rw.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

// responseWriter is a custom ResponseWriter that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and passes it to the underlying ResponseWriter
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
