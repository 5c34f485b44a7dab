package tui

import (
	"fmt"
	"strconv"

	"github.com/brizzai/codetrack/internal/platform"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MainPageKeyMap holds key bindings for the main page actions
type MainPageKeyMap struct {
	open key.Binding
	quit key.Binding
}

func newMainPageKeyMap() *MainPageKeyMap {
	return &MainPageKeyMap{
		open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Manage platforms"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("ctrl+c/q", "Quit"),
		),
	}
}

// MainPageModel is the landing page with the aggregate stats.
type MainPageModel struct {
	keys    *MainPageKeyMap
	width   int
	height  int
	account string
	summary platform.Summary
}

// OpenPlatformsMsg is sent when the user opens the platform list.
type OpenPlatformsMsg struct{}

func NewMainPageModel(account string, snap platform.Snapshot) MainPageModel {
	return MainPageModel{
		keys:    newMainPageKeyMap(),
		account: account,
		summary: platform.Summarize(snap),
	}
}

func (m MainPageModel) Init() tea.Cmd {
	return nil
}

func (m MainPageModel) Update(msg tea.Msg) (MainPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.open):
			return m, func() tea.Msg { return OpenPlatformsMsg{} }
		}

	case SnapshotMsg:
		m.summary = platform.Summarize(msg.Snapshot)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// Summary is the aggregate currently displayed.
func (m MainPageModel) Summary() platform.Summary {
	return m.summary
}

func (m MainPageModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render("codetrack dashboard")

	centered := lipgloss.NewStyle().
		Width(m.width - 4).
		Align(lipgloss.Center)

	welcome := "Track all your coding platforms in one place."
	if m.account != "" {
		welcome = "Signed in as " + m.account
	}

	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Problems Solved", formatNumber(m.summary.ProblemsSolved)),
		statBox("Contests", formatNumber(m.summary.Contests)),
		statBox("Verified", strconv.Itoa(m.summary.Verified)),
		statBox("Not Linked", strconv.Itoa(m.summary.Unlinked)),
	)

	rows := []string{"", title, "", centered.Render(welcome), "", centered.Render(boxes)}

	if gh := m.summary.GitHub; gh != nil {
		github := lipgloss.JoinHorizontal(lipgloss.Top,
			statBox("Repositories", formatNumber(gh.PublicRepos)),
			statBox("Stars", formatNumber(gh.TotalStars)),
			statBox("Followers", formatNumber(gh.Followers)),
		)
		rows = append(rows, "", centered.Render(editHeaderStyle.Render("GitHub")), centered.Render(github))
	}

	instruction := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f56a96")).
		Padding(1, 0).
		Width(m.width - 4).
		Align(lipgloss.Center).
		Render("Press ENTER to manage your platforms")

	help := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#A49FA5"}).
		Width(m.width - 4).
		Align(lipgloss.Center).
		Render("Press q or Ctrl+C to quit")

	rows = append(rows, "", instruction, "", help)
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func statBox(label, value string) string {
	return statBoxStyle.Render(fmt.Sprintf("%s\n%s", lipgloss.NewStyle().Bold(true).Render(value), label))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
