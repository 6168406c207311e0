package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Martyvole/timetracking/internal/session"
	"github.com/Martyvole/timetracking/internal/store"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type dashboardModel struct {
	store   *store.Store
	session *session.Session
	userID  string
	width   int
	height  int

	settings     store.Settings
	todaySeconds int64
	todayPanels  int
	todaySummary []store.DailySummary
	recent       []store.WorkEntry
	projects     []store.Project
	projectNames map[string]string

	// Project picker state. pickerSwitch marks a pick made while the
	// timer is running, which swaps the project instead of starting.
	picking      bool
	pickerSwitch bool
	pickerCursor int

	// Panel quick-log form.
	formActive  bool
	form        *huh.Form
	formProject *string
	formCount   *string
	formNotes   *string
}

func newDashboardModel(s *store.Store, sess *session.Session) dashboardModel {
	project, count, notes := "", "", ""
	return dashboardModel{
		store:        s,
		session:      sess,
		projectNames: map[string]string{},
		formProject:  &project,
		formCount:    &count,
		formNotes:    &notes,
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d *dashboardModel) setUser(userID string) {
	d.userID = userID
}

type dashboardDataMsg struct {
	settings     store.Settings
	todaySeconds int64
	todayPanels  int
	todaySummary []store.DailySummary
	recent       []store.WorkEntry
	projects     []store.Project
}

func (d dashboardModel) loadData() tea.Cmd {
	userID := d.userID
	if userID == "" {
		return nil
	}
	return func() tea.Msg {
		cfg, _ := d.store.GetSettings(userID)

		now := time.Now().UTC()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)

		seconds, panels, _ := d.store.RangeTotals(userID, dayStart, dayEnd)
		summary, _ := d.store.GetDailySummary(userID, dayStart, dayEnd)
		recent, _ := d.store.ListEntries(userID, store.EntryFilter{Limit: 5})
		projects, _ := d.store.ListProjects(userID)

		return dashboardDataMsg{
			settings:     cfg,
			todaySeconds: seconds,
			todayPanels:  panels,
			todaySummary: summary,
			recent:       recent,
			projects:     projects,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.settings = msg.settings
		d.todaySeconds = msg.todaySeconds
		d.todayPanels = msg.todayPanels
		d.todaySummary = msg.todaySummary
		d.recent = msg.recent
		d.projects = msg.projects
		d.projectNames = map[string]string{}
		for _, p := range msg.projects {
			d.projectNames[p.ID] = p.Name
		}
		return d, nil

	case tickMsg:
		// Elapsed time is derived from wall clock on render; nothing
		// to update here beyond triggering a redraw.
		return d, nil

	case tea.KeyMsg:
		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if len(d.projects) == 0 {
				return d, func() tea.Msg {
					return statusMsg{text: "No projects yet. Press 3 to go to Projects and create one.", isError: true}
				}
			}
			if !d.session.Active() && len(d.projects) == 1 {
				return d.startTimer(d.projects[0].ID)
			}
			d.picking = true
			d.pickerSwitch = d.session.Active()
			d.pickerCursor = 0
			return d, nil

		case key.Matches(msg, keys.Stop):
			return d.stopTimer()

		case key.Matches(msg, keys.Pause):
			if !d.session.Active() {
				return d, nil
			}
			d.session.Toggle()
			d.persistSnapshot()
			if d.session.State() == session.Paused {
				return d, func() tea.Msg { return timerPausedMsg{} }
			}
			return d, func() tea.Msg { return timerResumedMsg{} }

		case key.Matches(msg, keys.Panels):
			return d.showPanelForm()
		}
	}
	return d, nil
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(d.projects)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		p := d.projects[d.pickerCursor]
		wasSwitch := d.pickerSwitch
		d.picking = false
		d.pickerSwitch = false
		if wasSwitch {
			return d.switchProject(p.ID)
		}
		return d.startTimer(p.ID)
	case key.Matches(msg, keys.Back):
		d.picking = false
		d.pickerSwitch = false
	}
	return d, nil
}

func (d dashboardModel) startTimer(projectID string) (dashboardModel, tea.Cmd) {
	if err := d.session.Start(d.userID, projectID, nil); err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	d.persistSnapshot()
	return d, func() tea.Msg { return timerStartedMsg{projectID: projectID} }
}

func (d dashboardModel) switchProject(projectID string) (dashboardModel, tea.Cmd) {
	entry, err := d.session.SwitchProject(projectID)
	if err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	d.persistSnapshot()
	var cmds []tea.Cmd
	if entry != nil {
		saveErr := d.saveStopped(entry)
		if saveErr != nil {
			cmds = append(cmds, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", saveErr), isError: true}
			})
		}
	}
	cmds = append(cmds,
		d.loadData(),
		func() tea.Msg { return timerStartedMsg{projectID: projectID} },
	)
	return d, tea.Batch(cmds...)
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	entry := d.session.Stop()
	d.store.ClearTimerSnapshot()
	if entry == nil {
		return d, func() tea.Msg { return timerStoppedMsg{} }
	}
	if err := d.saveStopped(entry); err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return timerStoppedMsg{entry: entry} },
	)
}

func (d dashboardModel) saveStopped(entry *store.TimeEntry) error {
	_, err := d.store.SaveEntry(*entry)
	return err
}

func (d dashboardModel) persistSnapshot() {
	if snap := d.session.Snapshot(); snap != nil {
		d.store.SaveTimerSnapshot(*snap)
	} else {
		d.store.ClearTimerSnapshot()
	}
}

func (d dashboardModel) showPanelForm() (dashboardModel, tea.Cmd) {
	if len(d.projects) == 0 {
		return d, func() tea.Msg {
			return statusMsg{text: "No projects yet. Press 3 to go to Projects and create one.", isError: true}
		}
	}

	*d.formProject = d.projects[0].ID
	if d.session.Active() {
		*d.formProject = d.session.ProjectID()
	}
	*d.formCount = ""
	*d.formNotes = ""

	options := make([]huh.Option[string], len(d.projects))
	for i, p := range d.projects {
		options[i] = huh.NewOption(p.Name, p.ID)
	}

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Project").Options(options...).Value(d.formProject),
			huh.NewInput().Title("Panels installed").Value(d.formCount),
			huh.NewInput().Title("Notes").Value(d.formNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		count, err := strconv.Atoi(strings.TrimSpace(*d.formCount))
		if err != nil || count <= 0 {
			return d, func() tea.Msg {
				return statusMsg{text: "Panel count must be a positive number", isError: true}
			}
		}
		entry := store.PanelEntry{
			EntryMeta: store.EntryMeta{
				UserID:    d.userID,
				ProjectID: *d.formProject,
				Notes:     *d.formNotes,
			},
			Date:  time.Now().UTC(),
			Count: count,
		}
		if _, err := d.store.SaveEntry(entry); err != nil {
			return d, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		return d, tea.Batch(
			d.loadData(),
			func() tea.Msg { return statusMsg{text: fmt.Sprintf("Logged %d panels", count)} },
		)
	}

	return d, cmd
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	if d.formActive && d.form != nil {
		title := titleStyle.Render("Log Panels")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.View())
		return panelStyle.Width(contentWidth).Render(content)
	}

	timerPanel := d.renderTimerPanel(contentWidth)
	summaryPanel := d.renderSummaryPanel(contentWidth)

	var bottomPanel string
	if d.picking {
		bottomPanel = d.renderProjectPicker(contentWidth)
	} else {
		bottomPanel = d.renderRecentPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, summaryPanel, bottomPanel)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.session.Active() {
		elapsed := d.session.Elapsed()
		timeStr := formatDuration(elapsed)

		var timeDisplay, indicator string
		if d.session.State() == session.Paused {
			timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
			indicator = warningStyle.Render("⏸  PAUSED")
		} else {
			timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  RUNNING")
		}

		projectLine := highlightStyle.Render(d.projectName(d.session.ProjectID()))
		earnings := earningsStyle.Width(w - 6).Render(
			formatMoney(d.session.Earnings(d.settings.HourlyRate), d.settings.Currency),
		)

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			earnings,
			indicator,
			projectLine,
		)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  STOPPED")
	hint := mutedStyle.Render("s: start tracking  p: log panels")

	content := lipgloss.JoinVertical(lipgloss.Center,
		timeDisplay,
		indicator,
		hint,
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(formatSeconds(d.todaySeconds))

	earned := float64(d.todaySeconds)/3600*d.settings.HourlyRate +
		float64(d.todayPanels)*d.settings.PanelRate
	money := earningsStyle.Render(formatMoney(earned, d.settings.Currency))

	header := fmt.Sprintf("%s  %s  %s", title, total, money)
	if d.todayPanels > 0 {
		header += mutedStyle.Render(fmt.Sprintf("  %d panels", d.todayPanels))
	}

	if len(d.todaySummary) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No time tracked today"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, header)
	for _, s := range d.todaySummary {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(s.ProjectColor)).Render("●")
		row := fmt.Sprintf("  %s %-20s %s  (%d entries)",
			colorDot,
			s.ProjectName,
			formatSeconds(s.TotalSeconds),
			s.EntryCount,
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, e := range d.recent {
		pName := d.projectName(e.Meta().ProjectID)
		switch entry := e.(type) {
		case store.TimeEntry:
			startStr := entry.StartTime.Local().Format("Jan 02 15:04")
			rows = append(rows, fmt.Sprintf("  ✓ %s  %-16s %s",
				startStr, pName, formatSeconds(entry.Duration)))
		case store.PanelEntry:
			dateStr := entry.Date.Local().Format("Jan 02")
			rows = append(rows, fmt.Sprintf("  ▦ %s        %-16s %d panels",
				dateStr, pName, entry.Count))
		}
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderProjectPicker(w int) string {
	title := titleStyle.Render("Select Project")
	if d.pickerSwitch {
		title = titleStyle.Render("Switch Project")
	}

	var rows []string
	rows = append(rows, title)
	for i, p := range d.projects {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, colorDot, p.Name)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) projectName(id string) string {
	if name, ok := d.projectNames[id]; ok {
		return name
	}
	return "?"
}
