package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Martyvole/timetracking/internal/store"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const entryTimeLayout = "2006-01-02 15:04"
const entryDateLayout = "2006-01-02"

// historyModel lists work entries and supports manual add, edit and
// delete. Manual adds go through a kind picker first because the two
// entry kinds need different forms.
type historyModel struct {
	store  *store.Store
	userID string
	width  int
	height int

	entries      []store.WorkEntry
	projects     []store.Project
	projectNames map[string]string
	cursor       int

	confirmDelete bool
	kindPicking   bool
	kindCursor    int

	formActive bool
	form       *huh.Form
	formKind   store.EntryKind
	editingID  string

	formProject *string
	formStart   *string
	formEnd     *string
	formDate    *string
	formCount   *string
	formNotes   *string
}

func newHistoryModel(s *store.Store) historyModel {
	project, start, end, date, count, notes := "", "", "", "", "", ""
	return historyModel{
		store:        s,
		projectNames: map[string]string{},
		formProject:  &project,
		formStart:    &start,
		formEnd:      &end,
		formDate:     &date,
		formCount:    &count,
		formNotes:    &notes,
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

func (h *historyModel) setUser(userID string) {
	h.userID = userID
	h.cursor = 0
}

type historyDataMsg struct {
	entries  []store.WorkEntry
	projects []store.Project
}

func (h historyModel) refresh() tea.Cmd {
	userID := h.userID
	if userID == "" {
		return nil
	}
	return func() tea.Msg {
		entries, _ := h.store.ListEntries(userID, store.EntryFilter{Limit: 200})
		projects, _ := h.store.ListProjects(userID)
		return historyDataMsg{entries: entries, projects: projects}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if h.formActive && h.form != nil {
		return h.updateForm(msg)
	}

	switch msg := msg.(type) {
	case historyDataMsg:
		h.entries = msg.entries
		h.projects = msg.projects
		h.projectNames = map[string]string{}
		for _, p := range msg.projects {
			h.projectNames[p.ID] = p.Name
		}
		if h.cursor >= len(h.entries) {
			h.cursor = max(0, len(h.entries)-1)
		}
		return h, nil

	case tea.KeyMsg:
		if h.confirmDelete {
			return h.updateConfirm(msg)
		}
		if h.kindPicking {
			return h.updateKindPicker(msg)
		}
		return h.updateList(msg)
	}
	return h, nil
}

func (h historyModel) updateList(msg tea.KeyMsg) (historyModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if h.cursor > 0 {
			h.cursor--
		}
	case key.Matches(msg, keys.Down):
		if h.cursor < len(h.entries)-1 {
			h.cursor++
		}
	case key.Matches(msg, keys.New):
		if len(h.projects) == 0 {
			return h, func() tea.Msg {
				return statusMsg{text: "No projects yet. Press 3 to go to Projects and create one.", isError: true}
			}
		}
		h.kindPicking = true
		h.kindCursor = 0
		return h, nil
	case key.Matches(msg, keys.Edit):
		if len(h.entries) > 0 {
			return h.showEditForm(h.entries[h.cursor])
		}
	case key.Matches(msg, keys.Delete):
		if len(h.entries) > 0 {
			h.confirmDelete = true
		}
	}
	return h, nil
}

func (h historyModel) updateConfirm(msg tea.KeyMsg) (historyModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		h.confirmDelete = false
		entry := h.entries[h.cursor]
		if err := h.store.DeleteEntry(h.userID, entry.Meta().ID); err != nil {
			return h, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		return h, tea.Batch(
			h.refresh(),
			func() tea.Msg { return entriesChangedMsg{} },
		)
	case "n", "N", "esc":
		h.confirmDelete = false
	}
	return h, nil
}

func (h historyModel) updateKindPicker(msg tea.KeyMsg) (historyModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if h.kindCursor > 0 {
			h.kindCursor--
		}
	case key.Matches(msg, keys.Down):
		if h.kindCursor < 1 {
			h.kindCursor++
		}
	case key.Matches(msg, keys.Enter):
		h.kindPicking = false
		if h.kindCursor == 0 {
			return h.showTimeForm(nil)
		}
		return h.showPanelForm(nil)
	case key.Matches(msg, keys.Back):
		h.kindPicking = false
	}
	return h, nil
}

func (h historyModel) showEditForm(entry store.WorkEntry) (historyModel, tea.Cmd) {
	switch e := entry.(type) {
	case store.TimeEntry:
		return h.showTimeForm(&e)
	case store.PanelEntry:
		return h.showPanelForm(&e)
	}
	return h, nil
}

func (h historyModel) showTimeForm(editing *store.TimeEntry) (historyModel, tea.Cmd) {
	h.formKind = store.KindHourly
	h.editingID = ""

	now := time.Now().Local()
	*h.formProject = h.projects[0].ID
	*h.formStart = now.Add(-time.Hour).Format(entryTimeLayout)
	*h.formEnd = now.Format(entryTimeLayout)
	*h.formNotes = ""

	if editing != nil {
		h.editingID = editing.ID
		*h.formProject = editing.ProjectID
		*h.formStart = editing.StartTime.Local().Format(entryTimeLayout)
		*h.formEnd = editing.EndTime.Local().Format(entryTimeLayout)
		*h.formNotes = editing.Notes
	}

	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Project").Options(h.projectOptions()...).Value(h.formProject),
			huh.NewInput().Title("Start (YYYY-MM-DD HH:MM)").Value(h.formStart),
			huh.NewInput().Title("End (YYYY-MM-DD HH:MM)").Value(h.formEnd),
			huh.NewInput().Title("Notes").Value(h.formNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	h.formActive = true
	return h, h.form.Init()
}

func (h historyModel) showPanelForm(editing *store.PanelEntry) (historyModel, tea.Cmd) {
	h.formKind = store.KindPanels
	h.editingID = ""

	*h.formProject = h.projects[0].ID
	*h.formDate = time.Now().Local().Format(entryDateLayout)
	*h.formCount = ""
	*h.formNotes = ""

	if editing != nil {
		h.editingID = editing.ID
		*h.formProject = editing.ProjectID
		*h.formDate = editing.Date.Local().Format(entryDateLayout)
		*h.formCount = strconv.Itoa(editing.Count)
		*h.formNotes = editing.Notes
	}

	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Project").Options(h.projectOptions()...).Value(h.formProject),
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(h.formDate),
			huh.NewInput().Title("Panels installed").Value(h.formCount),
			huh.NewInput().Title("Notes").Value(h.formNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	h.formActive = true
	return h, h.form.Init()
}

func (h historyModel) projectOptions() []huh.Option[string] {
	options := make([]huh.Option[string], len(h.projects))
	for i, p := range h.projects {
		options[i] = huh.NewOption(p.Name, p.ID)
	}
	return options
}

func (h historyModel) updateForm(msg tea.Msg) (historyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			h.formActive = false
			h.form = nil
			return h, nil
		}
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}

	if h.form.State == huh.StateCompleted {
		h.formActive = false
		entry, err := h.buildEntry()
		if err != nil {
			return h, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		if _, err := h.store.SaveEntry(entry); err != nil {
			return h, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		return h, tea.Batch(
			h.refresh(),
			func() tea.Msg { return entriesChangedMsg{} },
		)
	}

	return h, cmd
}

func (h historyModel) buildEntry() (store.WorkEntry, error) {
	meta := store.EntryMeta{
		ID:        h.editingID,
		UserID:    h.userID,
		ProjectID: *h.formProject,
		Notes:     *h.formNotes,
	}

	if h.formKind == store.KindHourly {
		start, err := time.ParseInLocation(entryTimeLayout, strings.TrimSpace(*h.formStart), time.Local)
		if err != nil {
			return nil, fmt.Errorf("bad start time: %w", err)
		}
		end, err := time.ParseInLocation(entryTimeLayout, strings.TrimSpace(*h.formEnd), time.Local)
		if err != nil {
			return nil, fmt.Errorf("bad end time: %w", err)
		}
		return store.TimeEntry{
			EntryMeta: meta,
			StartTime: start.UTC(),
			EndTime:   end.UTC(),
		}, nil
	}

	date, err := time.ParseInLocation(entryDateLayout, strings.TrimSpace(*h.formDate), time.Local)
	if err != nil {
		return nil, fmt.Errorf("bad date: %w", err)
	}
	count, err := strconv.Atoi(strings.TrimSpace(*h.formCount))
	if err != nil {
		return nil, fmt.Errorf("bad panel count: %w", err)
	}
	return store.PanelEntry{
		EntryMeta: meta,
		Date:      date.UTC(),
		Count:     count,
	}, nil
}

func (h historyModel) view() string {
	w := h.width - 4

	if h.formActive && h.form != nil {
		title := titleStyle.Render("New Entry")
		if h.editingID != "" {
			title = titleStyle.Render("Edit Entry")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", h.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if h.kindPicking {
		return h.renderKindPicker(w)
	}

	title := titleStyle.Render("History")

	if len(h.entries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No entries yet. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-18s %-18s %-12s %s", "When", "Project", "Amount", "Notes"))
	rows = append(rows, header)

	visible := len(h.entries)
	maxRows := h.height - 10
	if maxRows > 0 && visible > maxRows {
		visible = maxRows
	}
	offset := 0
	if h.cursor >= visible {
		offset = h.cursor - visible + 1
	}

	for i := offset; i < offset+visible && i < len(h.entries); i++ {
		e := h.entries[i]
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		pName := h.projectName(e.Meta().ProjectID)
		notes := e.Meta().Notes
		if len(notes) > 24 {
			notes = notes[:21] + "..."
		}

		var when, amount string
		switch entry := e.(type) {
		case store.TimeEntry:
			when = entry.StartTime.Local().Format(entryTimeLayout)
			amount = formatSeconds(entry.Duration)
		case store.PanelEntry:
			when = entry.Date.Local().Format(entryDateLayout)
			amount = fmt.Sprintf("%d panels", entry.Count)
		}

		rows = append(rows, style.Render(fmt.Sprintf("%s%-18s %-18s %-12s", cursor, when, pName, amount))+mutedStyle.Render(notes))
	}

	rows = append(rows, "")
	if h.confirmDelete {
		rows = append(rows, errorStyle.Render("  Delete this entry? y/n"))
	} else {
		rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (h historyModel) renderKindPicker(w int) string {
	title := titleStyle.Render("Entry Kind")
	kinds := []string{"Timed work", "Panels installed"}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, k := range kinds {
		cursor := "  "
		style := normalItemStyle
		if i == h.kindCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+k))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (h historyModel) projectName(id string) string {
	if name, ok := h.projectNames[id]; ok {
		return name
	}
	return "?"
}
