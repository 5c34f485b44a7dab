package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brizzai/codetrack/internal/api"
	"github.com/brizzai/codetrack/internal/platform"
	"github.com/brizzai/codetrack/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type listMode int

const (
	modeBrowse listMode = iota
	modeUsername
	modeConfirm
)

// listKeyMap holds key bindings for the page-level actions.
type listKeyMap struct {
	reload key.Binding
	export key.Binding
	quit   key.Binding
}

// ExportRequestedMsg asks the app to open the export view.
type ExportRequestedMsg struct{}

func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		reload: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Reload"),
		),
		export: key.NewBinding(
			key.WithKeys("E", "e"),
			key.WithHelp("E", "Export"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// PlatformListModel lists the supported platforms and drives the link,
// verify, refresh and disconnect actions.
type PlatformListModel struct {
	list         list.Model
	keys         *listKeyMap
	itemKeys     *delegateKeyMap
	cmds         commands
	mode         listMode
	usernameForm UsernameModal
	confirmForm  ConfirmModal
}

func NewPlatformListModel(cmds commands, snap platform.Snapshot) PlatformListModel {
	listKeys := newListKeyMap()
	itemKeys := newDelegateKeyMap()

	l := list.New(nil, newItemDelegate(itemKeys), 0, 0)
	l.Title = titleStyle.Render("Coding Platforms")
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{listKeys.reload, listKeys.export, listKeys.quit}
	}

	m := PlatformListModel{list: l, keys: listKeys, itemKeys: itemKeys, cmds: cmds}
	m.setSnapshot(snap)
	return m
}

func (m PlatformListModel) Init() tea.Cmd {
	return nil
}

func (m PlatformListModel) Update(msg tea.Msg) (PlatformListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case UsernameSubmittedMsg:
		m.mode = modeBrowse
		return m, m.cmds.start(msg.Platform, msg.Username)

	case ConfirmedMsg:
		m.mode = modeBrowse
		return m, m.cmds.disconnect(msg.Platform)

	case ModalClosedMsg:
		m.mode = modeBrowse
		return m, nil

	case SnapshotMsg:
		m.setSnapshot(msg.Snapshot)
		if msg.Status != "" {
			return m, m.list.NewStatusMessage(completeMessageStyle(msg.Status))
		}
		return m, nil

	case ChallengeMsg:
		ch := msg.Challenge
		m.setState(ch.Platform, platform.Pending{Username: ch.Username, Code: ch.Code})
		return m, m.list.NewStatusMessage(statusMessageStyle("Verification code generated for " + ch.Platform.DisplayName()))

	case RefreshResultMsg:
		m.setRefreshing(msg.Platform, false)
		if msg.Err != nil {
			return m, m.list.NewStatusMessage(errorMessageStyle(describeError(msg.Err)))
		}
		m.setSnapshot(msg.Snapshot)
		return m, m.list.NewStatusMessage(completeMessageStyle("Refreshed " + msg.Platform.DisplayName()))

	case ErrorMsg:
		return m, m.list.NewStatusMessage(errorMessageStyle(describeError(msg.Err)))

	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-detailHeight)
	}

	switch m.mode {
	case modeUsername:
		var cmd tea.Cmd
		m.usernameForm, cmd = m.usernameForm.Update(msg)
		return m, cmd
	case modeConfirm:
		var cmd tea.Cmd
		m.confirmForm, cmd = m.confirmForm.Update(msg)
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *PlatformListModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.reload):
		return m.cmds.load(), true
	case key.Matches(msg, m.keys.export):
		return func() tea.Msg { return ExportRequestedMsg{} }, true
	}

	item, ok := m.list.SelectedItem().(models.PlatformItem)
	if !ok {
		return nil, false
	}
	m.itemKeys.enableFor(item)

	switch {
	case key.Matches(msg, m.itemKeys.link):
		m.mode = modeUsername
		m.usernameForm = NewUsernameModal(item.Platform)
		return m.usernameForm.Init(), true
	case key.Matches(msg, m.itemKeys.complete):
		return tea.Batch(
			m.list.NewStatusMessage(statusMessageStyle("Checking your "+item.Platform.DisplayName()+" profile...")),
			m.cmds.complete(item.Platform),
		), true
	case key.Matches(msg, m.itemKeys.cancel):
		return m.cmds.cancel(item.Platform), true
	case key.Matches(msg, m.itemKeys.refresh):
		m.setRefreshing(item.Platform, true)
		return m.cmds.refresh(item.Platform), true
	case key.Matches(msg, m.itemKeys.disconnect):
		m.mode = modeConfirm
		m.confirmForm = NewConfirmModal(item.Platform)
		return nil, true
	}
	return nil, false
}

const detailHeight = 4

func (m PlatformListModel) View() string {
	switch m.mode {
	case modeUsername:
		return docStyle.Render(m.usernameForm.View())
	case modeConfirm:
		return docStyle.Render(m.confirmForm.View())
	}
	return docStyle.Render(m.list.View() + "\n" + m.detailView())
}

// detailView shows the code and hint of a selected pending platform.
func (m PlatformListModel) detailView() string {
	item, ok := m.list.SelectedItem().(models.PlatformItem)
	if !ok {
		return ""
	}
	pending, ok := item.State.(platform.Pending)
	if !ok {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Verification code:")
	sb.WriteString(codeStyle.Render(pending.Code))
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render(item.Platform.Hint()))
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("Press c once the code is on your profile."))
	return sb.String()
}

func (m *PlatformListModel) setSnapshot(snap platform.Snapshot) {
	refreshing := make(map[platform.Platform]bool)
	for _, it := range m.list.Items() {
		if pi, ok := it.(models.PlatformItem); ok && pi.Refreshing {
			refreshing[pi.Platform] = true
		}
	}
	items := models.Items(snap)
	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = it.WithRefreshing(refreshing[it.Platform])
	}
	m.list.SetItems(listItems)
}

func (m *PlatformListModel) setState(p platform.Platform, st platform.LinkState) {
	for i, it := range m.list.Items() {
		if pi, ok := it.(models.PlatformItem); ok && pi.Platform == p {
			m.list.SetItem(i, pi.WithState(st))
		}
	}
}

func (m *PlatformListModel) setRefreshing(p platform.Platform, refreshing bool) {
	for i, it := range m.list.Items() {
		if pi, ok := it.(models.PlatformItem); ok && pi.Platform == p {
			m.list.SetItem(i, pi.WithRefreshing(refreshing))
		}
	}
}

// Items returns the platform items currently shown.
func (m PlatformListModel) Items() []models.PlatformItem {
	out := make([]models.PlatformItem, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		if pi, ok := it.(models.PlatformItem); ok {
			out = append(out, pi)
		}
	}
	return out
}

func describeError(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Error: %s", apiErr.Message)
	}
	return fmt.Sprintf("Error: %v", err)
}
