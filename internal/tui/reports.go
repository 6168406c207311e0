package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Martyvole/timetracking/internal/store"
	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

// viewSelf marks the report as showing the current user's own data. Any
// other value is an admin view: store.ViewAll or a concrete user id.
const viewSelf = ""

type reportsModel struct {
	store  *store.Store
	user   *store.User
	width  int
	height int

	mode      reportMode
	summaries []store.DailySummary
	offset    int // weeks or 7-day blocks offset from today (0 = current)

	// Cross-user viewing, admin only. Requires a one-time password
	// unlock per app run.
	viewing       string
	adminUnlocked bool
	viewableUsers []store.User

	totalSeconds int64
	totalPanels  int
	earnings     float64
	currency     string

	formActive   bool
	form         *huh.Form
	formPassword *string

	chart barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	password := ""
	return reportsModel{
		store:        s,
		chart:        barchart.New(60, 12),
		formPassword: &password,
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r *reportsModel) setUser(user *store.User) {
	r.user = user
	r.viewing = viewSelf
	r.offset = 0
}

type reportsDataMsg struct {
	summaries    []store.DailySummary
	users        []store.User
	totalSeconds int64
	totalPanels  int
	earnings     float64
	currency     string
}

func (r reportsModel) refresh() tea.Cmd {
	if r.user == nil {
		return nil
	}
	user := r.user
	viewing := r.viewing
	from, to := r.dateRange()

	return func() tea.Msg {
		msg := reportsDataMsg{}

		if viewing == viewSelf {
			msg.summaries, _ = r.store.GetDailySummary(user.ID, from, to)
			seconds, panels, _ := r.store.RangeTotals(user.ID, from, to)
			cfg, _ := r.store.GetSettings(user.ID)
			msg.totalSeconds = seconds
			msg.totalPanels = panels
			msg.earnings = float64(seconds)/3600*cfg.HourlyRate + float64(panels)*cfg.PanelRate
			msg.currency = cfg.Currency
		} else {
			msg.summaries, _ = r.store.AdminDailySummary(user.ID, viewing, from, to)
			for _, s := range msg.summaries {
				msg.totalSeconds += s.TotalSeconds
			}
			if viewing != store.ViewAll {
				seconds, panels, _ := r.store.RangeTotals(viewing, from, to)
				cfg, _ := r.store.GetSettings(viewing)
				msg.totalSeconds = seconds
				msg.totalPanels = panels
				msg.earnings = float64(seconds)/3600*cfg.HourlyRate + float64(panels)*cfg.PanelRate
				msg.currency = cfg.Currency
			}
		}

		if user.IsAdmin {
			if agg, err := r.store.AdminAggregate(user.ID); err == nil {
				msg.users = agg.Users
			}
		}

		return msg
	}
}

func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch r.mode {
	case reportWeekly:
		// Start of current week (Monday)
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*r.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		// Daily: last 7 days
		end := today.AddDate(0, 0, 1-7*r.offset)
		start := end.AddDate(0, 0, -7)
		return start, end
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summaries = msg.summaries
		if msg.users != nil {
			r.viewableUsers = msg.users
		}
		r.totalSeconds = msg.totalSeconds
		r.totalPanels = msg.totalPanels
		r.earnings = msg.earnings
		r.currency = msg.currency
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Tab):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		case key.Matches(msg, keys.Admin):
			if r.user == nil || !r.user.IsAdmin {
				return r, nil
			}
			if !r.adminUnlocked {
				return r.showPasswordForm()
			}
			r.cycleView()
			return r, r.refresh()
		}
	}
	return r, nil
}

// cycleView steps self -> all users -> each tracked user -> self.
func (r *reportsModel) cycleView() {
	if r.viewing == viewSelf {
		r.viewing = store.ViewAll
		return
	}
	if r.viewing == store.ViewAll {
		if len(r.viewableUsers) > 0 {
			r.viewing = r.viewableUsers[0].ID
		} else {
			r.viewing = viewSelf
		}
		return
	}
	for i, u := range r.viewableUsers {
		if u.ID == r.viewing {
			if i+1 < len(r.viewableUsers) {
				r.viewing = r.viewableUsers[i+1].ID
			} else {
				r.viewing = viewSelf
			}
			return
		}
	}
	r.viewing = viewSelf
}

func (r reportsModel) showPasswordForm() (reportsModel, tea.Cmd) {
	*r.formPassword = ""

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Admin password").
				EchoMode(huh.EchoModePassword).
				Value(r.formPassword),
		),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r reportsModel) updateForm(msg tea.Msg) (reportsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			r.formActive = false
			r.form = nil
			return r, nil
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted {
		r.formActive = false
		if err := store.VerifyAdminPassword(*r.formPassword); err != nil {
			return r, func() tea.Msg {
				return statusMsg{text: "Wrong admin password", isError: true}
			}
		}
		r.adminUnlocked = true
		r.cycleView()
		return r, r.refresh()
	}

	return r, cmd
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()

	// Build bars for each day in range
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		label := d.Format("Mon 02")

		var values []barchart.BarValue
		for _, s := range r.summaries {
			if s.Date == dateStr {
				hours := float64(s.TotalSeconds) / 3600.0
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.ProjectColor))
				values = append(values, barchart.BarValue{
					Name:  s.ProjectName,
					Value: hours,
					Style: style,
				})
			}
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	if r.formActive && r.form != nil {
		title := titleStyle.Render("Admin Unlock")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", r.form.View())
		return panelStyle.Width(w).Render(content)
	}

	// Mode tabs
	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	// Date range label
	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s / %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel, "  ", r.viewLabel(),
	)

	chartView := r.chart.View()
	totals := r.renderTotals()
	tableView := r.renderSummaryTable(w)
	legend := r.renderLegend()

	nav := mutedStyle.Render("  ←/→: navigate  tab: switch mode")
	if r.user != nil && r.user.IsAdmin {
		nav += mutedStyle.Render("  u: cycle users")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", totals, "", legend, "", tableView, "", nav,
		),
	)
}

func (r reportsModel) viewLabel() string {
	switch r.viewing {
	case viewSelf:
		return ""
	case store.ViewAll:
		return accentStyle.Render("[all users]")
	}
	for _, u := range r.viewableUsers {
		if u.ID == r.viewing {
			return accentStyle.Render("[" + u.Name + "]")
		}
	}
	return ""
}

func (r reportsModel) renderTotals() string {
	total := fmt.Sprintf("  Total %s", formatSeconds(r.totalSeconds))
	if r.totalPanels > 0 {
		total += fmt.Sprintf("  %d panels", r.totalPanels)
	}
	if r.currency != "" {
		total += "  " + earningsStyle.Render(formatMoney(r.earnings, r.currency))
	}
	return highlightStyle.Render(total)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-12s %-20s %10s %8s", "Date", "Project", "Duration", "Entries"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 54))))

	for _, s := range r.summaries {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(s.ProjectColor)).Render("●")
		rows = append(rows, fmt.Sprintf("  %-12s %s %-18s %10s %8d",
			s.Date, colorDot, s.ProjectName, formatSeconds(s.TotalSeconds), s.EntryCount,
		))
	}

	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	// Collect unique projects from summaries
	seen := make(map[string]bool)
	var items []string
	for _, s := range r.summaries {
		if seen[s.ProjectID] {
			continue
		}
		seen[s.ProjectID] = true
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(s.ProjectColor)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, s.ProjectName))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
