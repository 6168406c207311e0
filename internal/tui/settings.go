package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Martyvole/timetracking/internal/export"
	"github.com/Martyvole/timetracking/internal/store"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const (
	actionRates = iota
	actionExport
	actionImport
	actionReset
	actionSwitch
	actionCount
)

var actionLabels = []string{
	"Edit billing rates",
	"Export data",
	"Import data",
	"Reset my data",
	"Switch profile",
}

type settingsModel struct {
	store  *store.Store
	user   *store.User
	width  int
	height int

	settings store.Settings
	cursor   int

	exportPicking bool
	exportCursor  int
	confirmReset  bool

	formActive bool
	form       *huh.Form
	formType   string // "rates", "import"

	// Form values as pointers (survive value copies)
	hourlyRate *string
	panelRate  *string
	currency   *string
	importPath *string
}

func newSettingsModel(s *store.Store) settingsModel {
	hr, pr, cur, path := "", "", "", ""
	return settingsModel{
		store:      s,
		hourlyRate: &hr,
		panelRate:  &pr,
		currency:   &cur,
		importPath: &path,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *settingsModel) setUser(user *store.User) {
	s.user = user
	s.cursor = 0
	s.confirmReset = false
	s.exportPicking = false
}

type settingsDataMsg struct {
	settings store.Settings
}

func (s settingsModel) refresh() tea.Cmd {
	if s.user == nil {
		return nil
	}
	userID := s.user.ID
	return func() tea.Msg {
		cfg, _ := s.store.GetSettings(userID)
		return settingsDataMsg{settings: cfg}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		if s.exportPicking {
			return s.updateExportPicker(msg)
		}
		if s.confirmReset {
			return s.updateConfirm(msg)
		}

		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < actionCount-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Enter):
			return s.runAction()
		}
	}
	return s, nil
}

func (s settingsModel) runAction() (settingsModel, tea.Cmd) {
	switch s.cursor {
	case actionRates:
		return s.showRatesForm()
	case actionExport:
		s.exportPicking = true
		s.exportCursor = 0
		return s, nil
	case actionImport:
		return s.showImportForm()
	case actionReset:
		s.confirmReset = true
		return s, nil
	case actionSwitch:
		return s, func() tea.Msg { return switchUserMsg{} }
	}
	return s, nil
}

func (s settingsModel) updateConfirm(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		s.confirmReset = false
		userID := s.user.ID
		return s, func() tea.Msg {
			// Rates survive a reset; only tracked data goes.
			if err := s.store.ResetUser(userID, true); err != nil {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
			return dataResetMsg{}
		}
	case "n", "N", "esc":
		s.confirmReset = false
	}
	return s, nil
}

func (s settingsModel) updateExportPicker(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if s.exportCursor > 0 {
			s.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if s.exportCursor < 1 {
			s.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		s.exportPicking = false
		return s, s.doExport(s.exportCursor)
	case key.Matches(msg, keys.Back):
		s.exportPicking = false
	}
	return s, nil
}

func (s settingsModel) doExport(format int) tea.Cmd {
	userID := s.user.ID
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		if format == 0 {
			entries, err := s.store.ListEntries(userID, store.EntryFilter{})
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			projects := make(map[string]*store.Project)
			plist, _ := s.store.ListProjects(userID)
			for i := range plist {
				projects[plist[i].ID] = &plist[i]
			}
			path := filepath.Join(home, fmt.Sprintf("timetracking-export-%s.csv", dateStr))
			if err := export.ToCSV(entries, projects, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
			return exportDoneMsg{path: path}
		}

		snap, err := s.store.ExportSnapshot(userID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		path := filepath.Join(home, fmt.Sprintf("timetracking-export-%s.json", dateStr))
		if err := export.WriteSnapshot(snap, path); err != nil {
			return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}

func (s settingsModel) showRatesForm() (settingsModel, tea.Cmd) {
	*s.hourlyRate = strconv.FormatFloat(s.settings.HourlyRate, 'f', -1, 64)
	*s.panelRate = strconv.FormatFloat(s.settings.PanelRate, 'f', -1, 64)
	*s.currency = s.settings.Currency
	s.formType = "rates"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Hourly rate").Value(s.hourlyRate),
			huh.NewInput().Title("Rate per panel").Value(s.panelRate),
			huh.NewInput().Title("Currency").Value(s.currency),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showImportForm() (settingsModel, tea.Cmd) {
	*s.importPath = ""
	s.formType = "import"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Path to exported JSON").Value(s.importPath),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		switch s.formType {
		case "rates":
			return s.saveRates()
		case "import":
			return s, s.doImport(strings.TrimSpace(*s.importPath))
		}
	}

	return s, cmd
}

func (s settingsModel) saveRates() (settingsModel, tea.Cmd) {
	cfg := s.settings
	if v, err := strconv.ParseFloat(strings.TrimSpace(*s.hourlyRate), 64); err == nil && v >= 0 {
		cfg.HourlyRate = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(*s.panelRate), 64); err == nil && v >= 0 {
		cfg.PanelRate = v
	}
	if c := strings.TrimSpace(*s.currency); c != "" {
		cfg.Currency = c
	}
	if err := s.store.SaveSettings(s.user.ID, cfg); err != nil {
		return s, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	return s, s.refresh()
}

func (s settingsModel) doImport(path string) tea.Cmd {
	userID := s.user.ID
	return func() tea.Msg {
		snap, err := export.ReadSnapshot(path)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import error: %v", err), isError: true}
		}
		result, err := s.store.ImportSnapshot(userID, snap)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import error: %v", err), isError: true}
		}
		return importDoneMsg{result: result}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Billing Rates")
		if s.formType == "import" {
			title = titleStyle.Render("Import Data")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	if s.exportPicking {
		return s.renderExportPicker(w)
	}

	title := titleStyle.Render("Settings")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if s.user != nil {
		who := fmt.Sprintf("  Profile: %s", s.user.Name)
		if s.user.IsAdmin {
			who += "  " + accentStyle.Render("admin")
		}
		rows = append(rows, who)
	}
	rows = append(rows, fmt.Sprintf("  Hourly rate:    %s",
		highlightStyle.Render(formatMoney(s.settings.HourlyRate, s.settings.Currency))))
	rows = append(rows, fmt.Sprintf("  Rate per panel: %s",
		highlightStyle.Render(formatMoney(s.settings.PanelRate, s.settings.Currency))))
	rows = append(rows, "")

	for i, label := range actionLabels {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+label))
	}

	rows = append(rows, "")
	if s.confirmReset {
		rows = append(rows, errorStyle.Render("  Delete all your projects and entries? Rates are kept. y/n"))
	} else {
		rows = append(rows, mutedStyle.Render("  enter: select"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (s settingsModel) renderExportPicker(w int) string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == s.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
