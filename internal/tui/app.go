// Package tui is the interactive terminal dashboard.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

type page int

const (
	pageMain page = iota
	pagePlatforms
	pageExport
)

// AppModel is the main application model that manages page switching
type AppModel struct {
	cmds       commands
	account    string
	mainPage   MainPageModel
	platforms  PlatformListModel
	exportView ExportView
	page       page
	width      int
	height     int
}

// NewAppModel builds the dashboard over tracker. The initial view shows the
// tracker's current snapshot; Init reloads it from the backend.
func NewAppModel(ctx context.Context, tracker Tracker, account string) AppModel {
	cmds := commands{ctx: ctx, tracker: tracker}
	snap := tracker.Snapshot()
	return AppModel{
		cmds:      cmds,
		account:   account,
		mainPage:  NewMainPageModel(account, snap),
		platforms: NewPlatformListModel(cmds, snap),
		page:      pageMain,
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.mainPage.Init(),
		m.platforms.Init(),
		m.cmds.load(),
	)
}

// Update handles app-level messages and delegates to the appropriate page model
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case OpenPlatformsMsg:
		m.page = pagePlatforms
		return m, nil

	case ExportRequestedMsg:
		m.page = pageExport
		m.exportView = NewExportView(m.cmds.tracker.Snapshot(), m.account)
		m.exportView, _ = m.exportView.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		return m, m.exportView.Init()

	case BackToPlatformsMsg:
		m.page = pagePlatforms
		return m, nil

	case SnapshotMsg, RefreshResultMsg:
		// Both pages track link state, whichever is showing.
		if r, ok := msg.(RefreshResultMsg); ok && r.Err == nil {
			m.mainPage, _ = m.mainPage.Update(SnapshotMsg{Snapshot: r.Snapshot})
		} else if s, ok := msg.(SnapshotMsg); ok {
			m.mainPage, _ = m.mainPage.Update(s)
		}
		m.platforms, cmd = m.platforms.Update(msg)
		return m, cmd

	case ChallengeMsg, ErrorMsg:
		m.platforms, cmd = m.platforms.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "esc" && m.page == pagePlatforms && m.platforms.mode == modeBrowse {
			m.page = pageMain
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

		m.mainPage, cmd = m.mainPage.Update(msg)
		cmds = append(cmds, cmd)
		m.platforms, cmd = m.platforms.Update(msg)
		cmds = append(cmds, cmd)
		m.exportView, cmd = m.exportView.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	switch m.page {
	case pageMain:
		m.mainPage, cmd = m.mainPage.Update(msg)
	case pagePlatforms:
		m.platforms, cmd = m.platforms.Update(msg)
	case pageExport:
		m.exportView, cmd = m.exportView.Update(msg)
	}
	return m, cmd
}

// View renders the active page
func (m AppModel) View() string {
	switch m.page {
	case pagePlatforms:
		return m.platforms.View()
	case pageExport:
		return m.exportView.View()
	default:
		return m.mainPage.View()
	}
}

// Run starts the dashboard on the terminal and blocks until it exits.
func Run(ctx context.Context, tracker Tracker, account string) error {
	p := tea.NewProgram(NewAppModel(ctx, tracker, account), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
