package tui

import (
	"context"
	"fmt"

	"github.com/brizzai/codetrack/internal/platform"
	"github.com/brizzai/codetrack/internal/verification"
	tea "github.com/charmbracelet/bubbletea"
)

// Tracker is the verification workflow as seen by the dashboard.
type Tracker interface {
	Snapshot() platform.Snapshot
	Load(ctx context.Context) (platform.Snapshot, error)
	Start(ctx context.Context, p platform.Platform, username string) (verification.Challenge, error)
	Complete(ctx context.Context, p platform.Platform) (platform.Snapshot, error)
	Cancel(p platform.Platform) error
	Refresh(ctx context.Context, p platform.Platform) (platform.Snapshot, error)
	Disconnect(ctx context.Context, p platform.Platform, confirmer verification.Confirmer) (platform.Snapshot, error)
}

// SnapshotMsg carries new link states and an optional status line.
type SnapshotMsg struct {
	Snapshot platform.Snapshot
	Status   string
}

// ChallengeMsg reports a started verification.
type ChallengeMsg struct {
	Challenge verification.Challenge
}

// ErrorMsg reports a failed operation; the dashboard shows it and carries on.
type ErrorMsg struct {
	Err error
}

// RefreshResultMsg ends a platform refresh; Err is set on failure.
type RefreshResultMsg struct {
	Platform platform.Platform
	Snapshot platform.Snapshot
	Err      error
}

type commands struct {
	ctx     context.Context
	tracker Tracker
}

func (c commands) load() tea.Cmd {
	return func() tea.Msg {
		snap, err := c.tracker.Load(c.ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

func (c commands) start(p platform.Platform, username string) tea.Cmd {
	return func() tea.Msg {
		ch, err := c.tracker.Start(c.ctx, p, username)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return ChallengeMsg{Challenge: ch}
	}
}

func (c commands) complete(p platform.Platform) tea.Cmd {
	return func() tea.Msg {
		snap, err := c.tracker.Complete(c.ctx, p)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return SnapshotMsg{Snapshot: snap, Status: p.DisplayName() + " verified successfully!"}
	}
}

func (c commands) cancel(p platform.Platform) tea.Cmd {
	return func() tea.Msg {
		if err := c.tracker.Cancel(p); err != nil {
			return ErrorMsg{Err: err}
		}
		return SnapshotMsg{Snapshot: c.tracker.Snapshot(), Status: "Verification cancelled"}
	}
}

func (c commands) refresh(p platform.Platform) tea.Cmd {
	return func() tea.Msg {
		snap, err := c.tracker.Refresh(c.ctx, p)
		return RefreshResultMsg{Platform: p, Snapshot: snap, Err: err}
	}
}

// disconnect runs after the confirm modal was accepted.
func (c commands) disconnect(p platform.Platform) tea.Cmd {
	return func() tea.Msg {
		snap, err := c.tracker.Disconnect(c.ctx, p, verification.Confirmed)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return SnapshotMsg{Snapshot: snap, Status: fmt.Sprintf("Disconnected %s", p.DisplayName())}
	}
}
