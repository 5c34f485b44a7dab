package tui

import (
	"fmt"

	"github.com/brizzai/codetrack/internal/platform"
	"github.com/brizzai/codetrack/internal/verification"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModal asks before disconnecting a platform.
type ConfirmModal struct {
	platform platform.Platform
	keys     confirmKeyMap
}

// ConfirmedMsg is sent when the user accepts the confirm modal.
type ConfirmedMsg struct {
	Platform platform.Platform
}

type confirmKeyMap struct {
	yes key.Binding
	no  key.Binding
}

func NewConfirmModal(p platform.Platform) ConfirmModal {
	return ConfirmModal{
		platform: p,
		keys: confirmKeyMap{
			yes: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "Disconnect")),
			no:  key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n/esc", "Cancel")),
		},
	}
}

func (m ConfirmModal) Update(msg tea.Msg) (ConfirmModal, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.yes):
			return m, func() tea.Msg { return ConfirmedMsg{Platform: m.platform} }
		case key.Matches(msg, m.keys.no):
			return m, func() tea.Msg { return ModalClosedMsg{} }
		}
	}
	return m, nil
}

func (m ConfirmModal) View() string {
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		editHeaderStyle.Render(fmt.Sprintf("Disconnect %s?", m.platform.DisplayName())),
		verification.DisconnectPrompt(m.platform),
		"(y) Disconnect | (n) Cancel",
	) + "\n\n"
}
