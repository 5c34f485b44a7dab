package tui

import (
	"fmt"

	"github.com/brizzai/codetrack/internal/platform"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// UsernameModal asks for the account name to verify on a platform.
type UsernameModal struct {
	platform  platform.Platform
	textInput textinput.Model
}

// UsernameSubmittedMsg is sent when the user confirms the username.
type UsernameSubmittedMsg struct {
	Platform platform.Platform
	Username string
}

// ModalClosedMsg is sent when a modal is dismissed without a decision.
type ModalClosedMsg struct{}

func NewUsernameModal(p platform.Platform) UsernameModal {
	ti := textinput.New()
	ti.Placeholder = fmt.Sprintf("Enter %s username", p.DisplayName())
	ti.CharLimit = 64
	ti.Width = 40
	ti.Focus()

	return UsernameModal{platform: p, textInput: ti}
}

func (m UsernameModal) Init() tea.Cmd {
	return textinput.Blink
}

func (m UsernameModal) Update(msg tea.Msg) (UsernameModal, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEsc:
			return m, func() tea.Msg { return ModalClosedMsg{} }
		case tea.KeyEnter:
			submitted := UsernameSubmittedMsg{Platform: m.platform, Username: m.textInput.Value()}
			return m, func() tea.Msg { return submitted }
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m UsernameModal) View() string {
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		editHeaderStyle.Render("Link "+m.platform.DisplayName()),
		m.textInput.View(),
		"(enter) Get verification code | (esc) Cancel",
	) + "\n\n"
}
