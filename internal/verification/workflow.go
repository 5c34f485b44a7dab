// Package verification drives the two-phase challenge/response that links an
// external platform account: the backend issues a one-time code, the user puts
// it on their public profile, and the backend confirms by re-fetching it.
package verification

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/brizzai/codetrack/internal/api"
	"github.com/brizzai/codetrack/internal/logger"
	"github.com/brizzai/codetrack/internal/platform"
	"go.uber.org/zap"
)

var (
	ErrEmptyUsername     = api.NewValidationError("username is required")
	ErrAlreadyVerified   = api.NewWorkflowError("platform is already verified")
	ErrNotPending        = api.NewWorkflowError("no verification in progress for this platform")
	ErrNotVerified       = api.NewWorkflowError("platform is not verified")
	ErrNotLinked         = api.NewWorkflowError("platform is not linked")
	ErrRefreshInProgress = api.NewWorkflowError("a refresh for this platform is already in progress")
	ErrNotConfirmed      = api.NewWorkflowError("disconnect was not confirmed")
	ErrStillUnverified   = api.NewWorkflowError("backend did not report the platform as verified")
)

// Backend is the subset of the backend client the workflow needs.
type Backend interface {
	ListPlatforms(ctx context.Context) (api.Links, error)
	StartVerification(ctx context.Context, platform, username string) (string, error)
	CompleteVerification(ctx context.Context, platform string) (api.Links, error)
	RefreshPlatform(ctx context.Context, platform string) (api.Links, error)
	DisconnectPlatform(ctx context.Context, platform string) (api.Links, error)
}

// Challenge is an outstanding verification request.
type Challenge struct {
	Platform platform.Platform
	Username string
	Code     string
}

// Hint tells the user where to paste the code.
func (c Challenge) Hint() string {
	return c.Platform.Hint()
}

type Workflow struct {
	backend  Backend
	registry *platform.Registry

	mu         sync.Mutex
	refreshing map[platform.Platform]bool
}

func NewWorkflow(backend Backend, registry *platform.Registry) *Workflow {
	return &Workflow{
		backend:    backend,
		registry:   registry,
		refreshing: make(map[platform.Platform]bool),
	}
}

// Snapshot returns the current link states.
func (w *Workflow) Snapshot() platform.Snapshot {
	return w.registry.Snapshot()
}

// Load fetches the user's links and replaces the registry with them.
func (w *Workflow) Load(ctx context.Context) (platform.Snapshot, error) {
	links, err := w.backend.ListPlatforms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load platforms: %w", err)
	}
	w.registry.Replace(toStates(links))
	return w.registry.Snapshot(), nil
}

// Start requests a verification code for username on p. Restarting a pending
// verification replaces its code.
func (w *Workflow) Start(ctx context.Context, p platform.Platform, username string) (Challenge, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Challenge{}, ErrEmptyUsername
	}
	if w.registry.Get(p).Status() == platform.StatusVerified {
		return Challenge{}, ErrAlreadyVerified
	}

	code, err := w.backend.StartVerification(ctx, p.String(), username)
	if err != nil {
		return Challenge{}, fmt.Errorf("failed to start verification: %w", err)
	}

	w.registry.Set(p, platform.Pending{Username: username, Code: code})
	logger.Info("Verification started",
		zap.Stringer("platform", p),
		zap.String("username", username))
	return Challenge{Platform: p, Username: username, Code: code}, nil
}

// Challenge returns the outstanding challenge for p, if any.
func (w *Workflow) Challenge(p platform.Platform) (Challenge, bool) {
	pending, ok := w.registry.Get(p).(platform.Pending)
	if !ok {
		return Challenge{}, false
	}
	return Challenge{Platform: p, Username: pending.Username, Code: pending.Code}, true
}

// Complete asks the backend to confirm the pending challenge. On failure the
// challenge stays as it was and may be completed again.
func (w *Workflow) Complete(ctx context.Context, p platform.Platform) (platform.Snapshot, error) {
	if _, ok := w.Challenge(p); !ok {
		return nil, ErrNotPending
	}

	links, err := w.backend.CompleteVerification(ctx, p.String())
	if err != nil {
		return nil, fmt.Errorf("verification not confirmed: %w", err)
	}

	w.registry.Replace(toStates(links))
	if status := w.registry.Get(p).Status(); status != platform.StatusVerified {
		logger.Warn("Verification accepted but platform not verified",
			zap.Stringer("platform", p),
			zap.Stringer("status", status))
		return nil, ErrStillUnverified
	}
	logger.Info("Verification completed", zap.Stringer("platform", p))
	return w.registry.Snapshot(), nil
}

// Cancel drops the pending challenge for p. The backend is not told.
func (w *Workflow) Cancel(p platform.Platform) error {
	if _, ok := w.Challenge(p); !ok {
		return ErrNotPending
	}
	w.registry.Set(p, platform.Unlinked{})
	return nil
}

// Refresh re-fetches the stats of a verified platform. Only one refresh per
// platform may be in flight.
func (w *Workflow) Refresh(ctx context.Context, p platform.Platform) (platform.Snapshot, error) {
	if w.registry.Get(p).Status() != platform.StatusVerified {
		return nil, ErrNotVerified
	}

	w.mu.Lock()
	if w.refreshing[p] {
		w.mu.Unlock()
		return nil, ErrRefreshInProgress
	}
	w.refreshing[p] = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.refreshing, p)
		w.mu.Unlock()
	}()

	links, err := w.backend.RefreshPlatform(ctx, p.String())
	if err != nil {
		return nil, fmt.Errorf("failed to refresh %s: %w", p.DisplayName(), err)
	}
	w.registry.Replace(toStates(links))
	return w.registry.Snapshot(), nil
}

// Refreshing reports whether a refresh of p is in flight.
func (w *Workflow) Refreshing(p platform.Platform) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refreshing[p]
}

// Disconnect unlinks p after the confirmer agrees. A pending challenge has no
// backend record and is dropped locally.
func (w *Workflow) Disconnect(ctx context.Context, p platform.Platform, confirmer Confirmer) (platform.Snapshot, error) {
	status := w.registry.Get(p).Status()
	if status == platform.StatusUnlinked {
		return nil, ErrNotLinked
	}

	if err := confirm(ctx, confirmer, DisconnectPrompt(p)); err != nil {
		return nil, err
	}

	if status == platform.StatusPending {
		w.registry.Set(p, platform.Unlinked{})
		return w.registry.Snapshot(), nil
	}

	links, err := w.backend.DisconnectPlatform(ctx, p.String())
	if err != nil {
		return nil, fmt.Errorf("failed to disconnect %s: %w", p.DisplayName(), err)
	}
	w.registry.Replace(toStates(links))
	logger.Info("Platform disconnected", zap.Stringer("platform", p))
	return w.registry.Snapshot(), nil
}

func toStates(links api.Links) map[platform.Platform]platform.LinkState {
	out := make(map[platform.Platform]platform.LinkState, len(links))
	for name, rec := range links {
		p, err := platform.Parse(name)
		if err != nil {
			logger.Debug("Skipping unsupported platform from backend", zap.String("platform", name))
			continue
		}
		out[p] = platform.FromRecord(rec.Username, rec.Verified, rec.Data)
	}
	return out
}
