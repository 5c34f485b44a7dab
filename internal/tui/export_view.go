package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/brizzai/codetrack/internal/models"
	"github.com/brizzai/codetrack/internal/platform"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ExportView prompts for a filename and writes a snapshot report.
type ExportView struct {
	snapshot     platform.Snapshot
	account      string
	textInput    textinput.Model
	err          error
	width        int
	height       int
	exportStatus string
	Success      bool
}

// BackToPlatformsMsg returns from the export view to the platform list.
type BackToPlatformsMsg struct{}

func NewExportView(snap platform.Snapshot, account string) ExportView {
	ti := textinput.New()
	ti.Placeholder = "codetrack-report.yaml"
	ti.Focus()
	ti.Width = 40

	return ExportView{
		snapshot:  snap,
		account:   account,
		textInput: ti,
	}
}

func (m ExportView) Init() tea.Cmd {
	return textinput.Blink
}

func (m ExportView) Update(msg tea.Msg) (ExportView, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg { return BackToPlatformsMsg{} }
		case "enter":
			filename := strings.TrimSpace(m.textInput.Value())
			if filename == "" {
				m.exportStatus = "Please enter a filename"
				return m, nil
			}
			if filepath.Ext(filename) == "" {
				filename += ".yaml"
			}

			export := models.NewExport(m.snapshot, m.account, time.Now())
			if err := models.WriteFile(filename, export); err != nil {
				m.err = err
				m.exportStatus = errorMessageStyle(fmt.Sprintf("Error exporting: %v", err))
				return m, nil
			}

			m.Success = true
			m.err = nil
			m.exportStatus = completeMessageStyle(fmt.Sprintf("Successfully exported to %s", filename))
			return m, tea.Tick(time.Second, func(time.Time) tea.Msg {
				return BackToPlatformsMsg{}
			})
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m ExportView) View() string {
	var sb strings.Builder

	verticalPadding := (m.height - 6) / 2
	for i := 0; i < verticalPadding; i++ {
		sb.WriteString("\n")
	}

	sb.WriteString(centerText(titleStyle.Render("Export Report"), m.width))
	sb.WriteString("\n\n")
	sb.WriteString(centerText("Enter a .yaml or .json filename:", m.width))
	sb.WriteString("\n")
	sb.WriteString(centerText(m.textInput.View(), m.width))
	sb.WriteString("\n\n")

	if m.exportStatus != "" {
		sb.WriteString(centerText(m.exportStatus, m.width))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(centerText("(esc) Back | (enter) Export", m.width))

	return sb.String()
}

// centerText pads text to sit in the middle of width columns.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if width <= w {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}
