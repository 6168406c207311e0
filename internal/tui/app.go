package tui

import (
	"fmt"
	"time"

	"github.com/Martyvole/timetracking/internal/session"
	"github.com/Martyvole/timetracking/internal/store"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// App is the root Bubble Tea model. Until a profile is selected it
// shows only the user screen; every tracking view is scoped to the
// selected user.
type App struct {
	store   *store.Store
	session *session.Session
	width   int
	height  int

	selecting   bool
	currentUser *store.User

	activeView viewState
	showHelp   bool

	users     usersModel
	dashboard dashboardModel
	history   historyModel
	projects  projectsModel
	reports   reportsModel
	settings  settingsModel

	help   help.Model
	status string
}

func NewApp(s *store.Store, sess *session.Session) App {
	h := help.New()
	h.ShowAll = false

	a := App{
		store:      s,
		session:    sess,
		selecting:  true,
		activeView: viewDashboard,
		users:      newUsersModel(s),
		dashboard:  newDashboardModel(s, sess),
		history:    newHistoryModel(s),
		projects:   newProjectsModel(s),
		reports:    newReportsModel(s),
		settings:   newSettingsModel(s),
		help:       h,
	}

	// Pick up where the previous run left off.
	if id, err := s.CurrentUserID(); err == nil && id != "" {
		if user, err := s.GetUser(id); err == nil {
			a.applyUser(user)
		}
	}

	return a
}

func (a *App) applyUser(user *store.User) {
	a.currentUser = user
	a.selecting = false
	a.activeView = viewDashboard
	a.dashboard.setUser(user.ID)
	a.history.setUser(user.ID)
	a.projects.setUser(user.ID)
	a.reports.setUser(user)
	a.settings.setUser(user)
}

func (a App) Init() tea.Cmd {
	if a.selecting {
		return tea.Batch(a.users.refresh(), tickCmd())
	}
	return tea.Batch(a.dashboard.loadData(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.users.setSize(a.width, contentHeight)
		a.dashboard.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case userSelectedMsg:
		a.applyUser(msg.user)
		a.status = "Tracking as " + msg.user.Name
		return a, a.dashboard.loadData()

	case switchUserMsg:
		return a.switchUser()

	case tea.KeyMsg:
		if a.selecting {
			if key.Matches(msg, keys.Quit) && !a.users.formActive {
				return a, tea.Quit
			}
			var cmd tea.Cmd
			a.users, cmd = a.users.update(msg)
			return a, cmd
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewProjects
			return a, a.projects.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 5
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		if !a.selecting {
			var cmd tea.Cmd
			a.dashboard, cmd = a.dashboard.update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		return a, nil

	case timerStartedMsg:
		a.status = "Timer started"
		return a, nil

	case timerStoppedMsg:
		if msg.entry != nil {
			a.status = "Saved " + formatSeconds(msg.entry.Duration)
		} else {
			a.status = "Timer stopped"
		}
		return a, nil

	case timerPausedMsg:
		a.status = "Timer paused"
		return a, nil

	case timerResumedMsg:
		a.status = "Timer resumed"
		return a, nil

	case projectDeletedMsg:
		return a.onProjectDeleted(msg.projectID)

	case entriesChangedMsg:
		return a, a.dashboard.loadData()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		return a, nil

	case importDoneMsg:
		a.status = fmt.Sprintf("Imported %d projects, %d entries (%d skipped)",
			msg.result.Projects, msg.result.Entries, msg.result.Skipped)
		return a, tea.Batch(a.dashboard.loadData(), a.settings.refresh())

	case dataResetMsg:
		return a.onDataReset()
	}

	if a.selecting {
		var cmd tea.Cmd
		a.users, cmd = a.users.update(msg)
		return a, cmd
	}
	return a.updateActiveView(msg)
}

// switchUser force-stops any active timer, crediting the tracked time
// to the departing user, then returns to the profile screen.
func (a App) switchUser() (tea.Model, tea.Cmd) {
	if entry := a.session.Stop(); entry != nil {
		if _, err := a.store.SaveEntry(*entry); err != nil {
			a.store.LogStorageError("save entry on switch", err)
		}
	}
	a.store.ClearTimerSnapshot()
	if err := a.store.ClearCurrentUser(); err != nil {
		a.store.LogStorageError("clear current user", err)
	}
	a.selecting = true
	a.currentUser = nil
	a.status = ""
	return a, a.users.refresh()
}

func (a App) onProjectDeleted(projectID string) (tea.Model, tea.Cmd) {
	a.status = "Project deleted"
	if a.session.Active() && a.session.ProjectID() == projectID {
		// The running timer lost its project; its time goes with it.
		a.session.Stop()
		a.store.ClearTimerSnapshot()
		a.status = "Project deleted, timer stopped"
	}
	return a, a.dashboard.loadData()
}

func (a App) onDataReset() (tea.Model, tea.Cmd) {
	if a.session.Active() {
		a.session.Stop()
		a.store.ClearTimerSnapshot()
	}
	a.status = "Data reset"
	return a, tea.Batch(a.dashboard.loadData(), a.settings.refresh())
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

// isCapturing reports whether the active view owns the keyboard, which
// suppresses global tab and quit handling.
func (a App) isCapturing() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive || a.dashboard.picking
	case viewHistory:
		return a.history.formActive || a.history.kindPicking || a.history.confirmDelete
	case viewProjects:
		return a.projects.formActive || a.projects.confirmDelete
	case viewReports:
		return a.reports.formActive
	case viewSettings:
		return a.settings.formActive || a.settings.exportPicking || a.settings.confirmReset
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewHistory:
		return a.history.refresh()
	case viewProjects:
		return a.projects.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	if a.selecting {
		header := headerStyle.Render(
			lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("timetracking"),
		)
		return lipgloss.JoinVertical(lipgloss.Left, header, a.users.view())
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewHistory:
		content = a.history.view()
	case viewProjects:
		content = a.projects.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("timetracking")
	if a.currentUser != nil {
		title += mutedStyle.Render(" · " + a.currentUser.Name)
	}
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if a.session.Active() {
		elapsed := a.session.Elapsed()
		if a.session.State() == session.Paused {
			timerInfo = warningStyle.Render(" ⏸ " + formatDuration(elapsed))
		} else {
			timerInfo = successStyle.Render(" ● " + formatDuration(elapsed))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
