package models

import (
	"fmt"
	"strings"

	"github.com/brizzai/codetrack/internal/platform"
	"github.com/charmbracelet/lipgloss"
)

var (
	verifiedBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("#56FF4E")).Render("[Verified]")
	pendingBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB347")).Render("[Pending]")
	unlinkedBadge = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#A49FA5"}).Render("[Not linked]")
)

// PlatformItem wraps one platform's link state for display in the list.
// Implements list.Item
type PlatformItem struct {
	Platform   platform.Platform
	State      platform.LinkState
	Refreshing bool
}

func (i PlatformItem) Title() string {
	name := i.Platform.DisplayName()
	if u := platform.Username(i.State); u != "" {
		name += " · " + u
	}
	return name
}

func (i PlatformItem) Description() string {
	switch st := i.State.(type) {
	case platform.Verified:
		if i.Refreshing {
			return verifiedBadge + " refreshing..."
		}
		stats := st.Stats.Visible()
		parts := make([]string, 0, len(stats))
		for _, s := range stats {
			parts = append(parts, fmt.Sprintf("%s: %s", s.Label, s.Value))
		}
		if len(parts) == 0 {
			return verifiedBadge
		}
		return verifiedBadge + " " + strings.Join(parts, " | ")
	case platform.Pending:
		return pendingBadge + " code " + st.Code
	default:
		return unlinkedBadge
	}
}

func (i PlatformItem) FilterValue() string {
	return i.Platform.String() + " " + platform.Username(i.State)
}

// WithState returns the item with an updated link state.
func (i PlatformItem) WithState(st platform.LinkState) PlatformItem {
	i.State = st
	return i
}

// WithRefreshing marks the item's refresh as in flight or done.
func (i PlatformItem) WithRefreshing(refreshing bool) PlatformItem {
	i.Refreshing = refreshing
	return i
}

// Items builds one item per supported platform from a snapshot.
func Items(snap platform.Snapshot) []PlatformItem {
	out := make([]PlatformItem, 0, len(platform.All()))
	for _, p := range platform.All() {
		out = append(out, PlatformItem{Platform: p, State: snap.Get(p)})
	}
	return out
}
