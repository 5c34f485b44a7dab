package tui

import (
	"github.com/brizzai/codetrack/internal/platform"
	"github.com/brizzai/codetrack/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// newItemDelegate returns a list.DefaultDelegate whose help shows only the
// actions valid for the selected platform's state.
func newItemDelegate(keys *delegateKeyMap) list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	d.UpdateFunc = func(msg tea.Msg, m *list.Model) tea.Cmd {
		item, ok := m.SelectedItem().(models.PlatformItem)
		if !ok {
			return nil
		}
		keys.enableFor(item)
		return nil
	}

	help := []key.Binding{keys.link, keys.complete, keys.cancel, keys.refresh, keys.disconnect}

	d.ShortHelpFunc = func() []key.Binding {
		return help
	}

	d.FullHelpFunc = func() [][]key.Binding {
		return [][]key.Binding{help}
	}

	return d
}

// delegateKeyMap holds key bindings for platform actions.
type delegateKeyMap struct {
	link       key.Binding
	complete   key.Binding
	cancel     key.Binding
	refresh    key.Binding
	disconnect key.Binding
}

// newDelegateKeyMap creates a new delegateKeyMap with default bindings.
func newDelegateKeyMap() *delegateKeyMap {
	return &delegateKeyMap{
		link: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Verify / link"),
		),
		complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Complete verification"),
		),
		cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Cancel verification"),
		),
		refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh stats"),
		),
		disconnect: key.NewBinding(
			key.WithKeys("d", "backspace"),
			key.WithHelp("d", "Disconnect"),
		),
	}
}

// enableFor switches bindings on and off to match the item's state.
func (d *delegateKeyMap) enableFor(item models.PlatformItem) {
	status := item.State.Status()
	d.link.SetEnabled(status != platform.StatusVerified)
	d.complete.SetEnabled(status == platform.StatusPending)
	d.cancel.SetEnabled(status == platform.StatusPending)
	d.refresh.SetEnabled(status == platform.StatusVerified && !item.Refreshing)
	d.disconnect.SetEnabled(status != platform.StatusUnlinked)
}
