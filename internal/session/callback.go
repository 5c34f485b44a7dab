package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/brizzai/codetrack/internal/logger"
	"github.com/brizzai/codetrack/internal/utils"
	"go.uber.org/zap"
)

const (
	callbackPath = "/callback"
	// landingGrace bounds how long Wait keeps serving after the credential
	// arrived, so the browser can load the clean landing page.
	landingGrace = 3 * time.Second
)

// CallbackServer receives the SSO redirect on a loopback address. The browser
// is sent to /callback?token=...; the token is adopted and the browser is
// redirected to /callback without it.
type CallbackServer struct {
	controller *Controller
	listener   net.Listener
	server     *http.Server

	adoptOnce sync.Once
	adopted   chan struct{}
	landOnce  sync.Once
	landed    chan struct{}
}

// NewCallbackServer binds addr, e.g. "127.0.0.1:8765" or "127.0.0.1:0".
func NewCallbackServer(addr string, controller *Controller) (*CallbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for sso callback: %w", err)
	}
	s := &CallbackServer{
		controller: controller,
		listener:   ln,
		adopted:    make(chan struct{}),
		landed:     make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, s.handleCallback)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// CallbackURL is the address the SSO flow must redirect to.
func (s *CallbackServer) CallbackURL() string {
	return "http://" + s.listener.Addr().String() + callbackPath
}

// Wait serves until a credential has been adopted or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer s.shutdown()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errChan:
		return fmt.Errorf("sso callback server: %w", err)
	case <-s.adopted:
	}

	select {
	case <-s.landed:
	case <-time.After(landingGrace):
	case <-ctx.Done():
	}
	return nil
}

func (s *CallbackServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		logger.Warn("SSO callback server shutdown", zap.Error(err))
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token, cleaned := ConsumeRedirect(r.URL)
	if token != "" {
		s.controller.Adopt(token)
		s.adoptOnce.Do(func() { close(s.adopted) })
		http.Redirect(w, r, cleaned.RequestURI(), http.StatusSeeOther)
		return
	}

	if !s.controller.Active() {
		utils.WriteError(w, "invalid_request", "Missing token", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Signed in to codetrack. You can close this window.")
	s.landOnce.Do(func() { close(s.landed) })
}
