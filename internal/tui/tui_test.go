package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/Martyvole/timetracking/internal/session"
	"github.com/Martyvole/timetracking/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s *store.Store, name string) *store.User {
	t.Helper()
	user, err := s.CreateUser(name)
	if err != nil {
		t.Fatalf("create user %q: %v", name, err)
	}
	return user
}

func createProject(t *testing.T, s *store.Store, userID, name string) *store.Project {
	t.Helper()
	p, err := s.CreateProject(userID, name, "#6C63FF")
	if err != nil {
		t.Fatalf("create project %q: %v", name, err)
	}
	return p
}

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSession() (*session.Session, *testClock) {
	clock := &testClock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	return session.NewWithClock(clock.now), clock
}

// ============================================================
// App model
// ============================================================

func TestNewAppStartsOnUserScreen(t *testing.T) {
	s := newTestStore(t)
	sess, _ := newTestSession()
	app := NewApp(s, sess)

	if !app.selecting {
		t.Fatal("app with no current user should show the profile screen")
	}
	if app.currentUser != nil {
		t.Fatal("no user should be selected")
	}
}

func TestNewAppResumesCurrentUser(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	if err := s.SetCurrentUser(user.ID); err != nil {
		t.Fatal(err)
	}

	sess, _ := newTestSession()
	app := NewApp(s, sess)

	if app.selecting {
		t.Fatal("app should skip the profile screen when a user was selected")
	}
	if app.currentUser == nil || app.currentUser.ID != user.ID {
		t.Fatal("current user not resumed")
	}
	if app.dashboard.userID != user.ID {
		t.Fatal("dashboard not scoped to resumed user")
	}
}

func TestAppUserSelection(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")

	sess, _ := newTestSession()
	app := NewApp(s, sess)

	model, _ := app.Update(userSelectedMsg{user: user})
	app = model.(App)

	if app.selecting {
		t.Fatal("selection should leave the profile screen")
	}
	if app.activeView != viewDashboard {
		t.Fatal("selection should land on the dashboard")
	}
	if app.history.userID != user.ID || app.projects.userID != user.ID {
		t.Fatal("views not scoped to selected user")
	}
}

func TestAppSwitchUserForceStopsTimer(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	p := createProject(t, s, user.ID, "Roof A")
	s.SetCurrentUser(user.ID)

	sess, clock := newTestSession()
	app := NewApp(s, sess)

	if err := sess.Start(user.ID, p.ID, nil); err != nil {
		t.Fatal(err)
	}
	clock.advance(90 * time.Second)

	model, _ := app.Update(switchUserMsg{})
	app = model.(App)

	if !app.selecting {
		t.Fatal("switch should return to the profile screen")
	}
	if sess.Active() {
		t.Fatal("switch should stop the running timer")
	}

	entries, err := s.ListEntries(user.ID, store.EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("force-stopped time should be saved, got %d entries", len(entries))
	}
	if entries[0].(store.TimeEntry).Duration != 90 {
		t.Fatalf("expected 90s entry, got %d", entries[0].(store.TimeEntry).Duration)
	}

	if id, _ := s.CurrentUserID(); id != "" {
		t.Fatal("current user should be cleared")
	}
}

func TestAppProjectDeletedStopsOrphanedTimer(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	p := createProject(t, s, user.ID, "Roof A")
	s.SetCurrentUser(user.ID)

	sess, clock := newTestSession()
	app := NewApp(s, sess)

	sess.Start(user.ID, p.ID, nil)
	clock.advance(30 * time.Second)

	model, _ := app.Update(projectDeletedMsg{projectID: p.ID})
	app = model.(App)

	if sess.Active() {
		t.Fatal("timer should stop when its project is deleted")
	}
	if !strings.Contains(app.status, "timer stopped") {
		t.Fatalf("status should mention the stopped timer, got %q", app.status)
	}
}

func TestAppProjectDeletedLeavesOtherTimer(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	p1 := createProject(t, s, user.ID, "Roof A")
	p2 := createProject(t, s, user.ID, "Roof B")
	s.SetCurrentUser(user.ID)

	sess, _ := newTestSession()
	app := NewApp(s, sess)

	sess.Start(user.ID, p1.ID, nil)

	model, _ := app.Update(projectDeletedMsg{projectID: p2.ID})
	_ = model.(App)

	if !sess.Active() {
		t.Fatal("deleting an unrelated project should not stop the timer")
	}
}

func TestAppIsCapturingDefault(t *testing.T) {
	s := newTestStore(t)
	sess, _ := newTestSession()
	app := NewApp(s, sess)

	if app.isCapturing() {
		t.Fatal("no view should capture input initially")
	}
}

func TestAppLoadingState(t *testing.T) {
	s := newTestStore(t)
	sess, _ := newTestSession()
	app := NewApp(s, sess)
	// Width 0 means not yet sized
	output := app.View()
	if output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	s.SetCurrentUser(user.ID)

	sess, _ := newTestSession()
	app := NewApp(s, sess)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
	if !strings.Contains(header, "Marty") {
		t.Fatal("header should show the active profile")
	}
}

func TestAppRenderFooterShowsTimer(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	p := createProject(t, s, user.ID, "Roof A")
	s.SetCurrentUser(user.ID)

	sess, clock := newTestSession()
	app := NewApp(s, sess)
	app.width = 120
	app.height = 40

	sess.Start(user.ID, p.ID, nil)
	clock.advance(65 * time.Second)

	footer := app.renderFooter()
	if !strings.Contains(footer, "00:01:05") {
		t.Fatalf("footer should show elapsed time, got %q", footer)
	}
}

func TestAppViewStatesRender(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	s.SetCurrentUser(user.ID)

	sess, _ := newTestSession()
	app := NewApp(s, sess)
	app.width = 120
	app.height = 40

	views := []viewState{viewDashboard, viewHistory, viewProjects, viewReports, viewSettings}
	for _, v := range views {
		app.activeView = v
		output := app.View()
		if output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

// ============================================================
// Dashboard model
// ============================================================

func TestDashboardStartStop(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	p := createProject(t, s, user.ID, "Roof A")

	sess, clock := newTestSession()
	d := newDashboardModel(s, sess)
	d.setUser(user.ID)
	d.projects = []store.Project{*p}

	d, _ = d.startTimer(p.ID)
	if !sess.Active() {
		t.Fatal("timer should be running")
	}
	if s.LoadTimerSnapshot() == nil {
		t.Fatal("starting should persist a snapshot")
	}

	clock.advance(2 * time.Minute)

	d, _ = d.stopTimer()
	if sess.Active() {
		t.Fatal("timer should be stopped")
	}
	if s.LoadTimerSnapshot() != nil {
		t.Fatal("stopping should clear the snapshot")
	}

	entries, _ := s.ListEntries(user.ID, store.EntryFilter{})
	if len(entries) != 1 {
		t.Fatalf("stop should save the entry, got %d", len(entries))
	}
}

func TestDashboardStopUnderGuardSavesNothing(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	p := createProject(t, s, user.ID, "Roof A")

	sess, clock := newTestSession()
	d := newDashboardModel(s, sess)
	d.setUser(user.ID)
	d.projects = []store.Project{*p}

	d, _ = d.startTimer(p.ID)
	clock.advance(500 * time.Millisecond)
	d, _ = d.stopTimer()

	entries, _ := s.ListEntries(user.ID, store.EntryFilter{})
	if len(entries) != 0 {
		t.Fatalf("sub-second run should be discarded, got %d entries", len(entries))
	}
}

func TestDashboardSwitchProject(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	p1 := createProject(t, s, user.ID, "Roof A")
	p2 := createProject(t, s, user.ID, "Roof B")

	sess, clock := newTestSession()
	d := newDashboardModel(s, sess)
	d.setUser(user.ID)
	d.projects = []store.Project{*p1, *p2}

	d, _ = d.startTimer(p1.ID)
	clock.advance(10 * time.Minute)

	d, _ = d.switchProject(p2.ID)
	if sess.ProjectID() != p2.ID {
		t.Fatal("session should track the new project")
	}

	entries, _ := s.ListEntries(user.ID, store.EntryFilter{})
	if len(entries) != 1 {
		t.Fatalf("switch should save the old project's time, got %d", len(entries))
	}
	entry := entries[0].(store.TimeEntry)
	if entry.ProjectID != p1.ID || entry.Duration != 600 {
		t.Fatalf("unexpected saved entry: project=%s duration=%d", entry.ProjectID, entry.Duration)
	}
}

// ============================================================
// History model
// ============================================================

func TestHistoryBuildTimeEntry(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	p := createProject(t, s, user.ID, "Roof A")

	h := newHistoryModel(s)
	h.setUser(user.ID)
	h.formKind = store.KindHourly
	*h.formProject = p.ID
	*h.formStart = "2024-06-01 08:00"
	*h.formEnd = "2024-06-01 09:30"
	*h.formNotes = "manual"

	entry, err := h.buildEntry()
	if err != nil {
		t.Fatal(err)
	}
	te, ok := entry.(store.TimeEntry)
	if !ok {
		t.Fatalf("expected TimeEntry, got %T", entry)
	}
	if te.EndTime.Sub(te.StartTime) != 90*time.Minute {
		t.Fatalf("expected 90m window, got %v", te.EndTime.Sub(te.StartTime))
	}
	if te.Notes != "manual" {
		t.Fatal("notes not carried")
	}
}

func TestHistoryBuildTimeEntryBadInput(t *testing.T) {
	s := newTestStore(t)
	h := newHistoryModel(s)
	h.formKind = store.KindHourly
	*h.formProject = "p"
	*h.formStart = "not a time"
	*h.formEnd = "2024-06-01 09:30"

	if _, err := h.buildEntry(); err == nil {
		t.Fatal("expected parse error for bad start time")
	}
}

func TestHistoryBuildPanelEntry(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")
	p := createProject(t, s, user.ID, "Roof A")

	h := newHistoryModel(s)
	h.setUser(user.ID)
	h.formKind = store.KindPanels
	*h.formProject = p.ID
	*h.formDate = "2024-06-01"
	*h.formCount = "14"

	entry, err := h.buildEntry()
	if err != nil {
		t.Fatal(err)
	}
	pe, ok := entry.(store.PanelEntry)
	if !ok {
		t.Fatalf("expected PanelEntry, got %T", entry)
	}
	if pe.Count != 14 {
		t.Fatalf("expected 14 panels, got %d", pe.Count)
	}
}

func TestHistoryBuildPanelEntryBadCount(t *testing.T) {
	s := newTestStore(t)
	h := newHistoryModel(s)
	h.formKind = store.KindPanels
	*h.formProject = "p"
	*h.formDate = "2024-06-01"
	*h.formCount = "lots"

	if _, err := h.buildEntry(); err == nil {
		t.Fatal("expected error for non-numeric count")
	}
}

// ============================================================
// Reports model
// ============================================================

func TestReportsCycleView(t *testing.T) {
	s := newTestStore(t)
	admin := createUser(t, s, "Boss")
	worker := createUser(t, s, "Alice")

	r := newReportsModel(s)
	r.setUser(admin)
	r.viewableUsers = []store.User{*worker}

	if r.viewing != viewSelf {
		t.Fatal("should start on own data")
	}
	r.cycleView()
	if r.viewing != store.ViewAll {
		t.Fatalf("expected all-users view, got %q", r.viewing)
	}
	r.cycleView()
	if r.viewing != worker.ID {
		t.Fatalf("expected per-user view, got %q", r.viewing)
	}
	r.cycleView()
	if r.viewing != viewSelf {
		t.Fatalf("expected to wrap back to self, got %q", r.viewing)
	}
}

func TestReportsCycleViewNoUsers(t *testing.T) {
	s := newTestStore(t)
	admin := createUser(t, s, "Boss")

	r := newReportsModel(s)
	r.setUser(admin)

	r.cycleView()
	if r.viewing != store.ViewAll {
		t.Fatal("expected all-users view")
	}
	r.cycleView()
	if r.viewing != viewSelf {
		t.Fatal("with no tracked users the cycle wraps straight back")
	}
}

func TestReportsSetUserResetsView(t *testing.T) {
	s := newTestStore(t)
	admin := createUser(t, s, "Boss")
	worker := createUser(t, s, "Alice")

	r := newReportsModel(s)
	r.setUser(admin)
	r.viewing = store.ViewAll

	r.setUser(worker)
	if r.viewing != viewSelf {
		t.Fatal("changing user should reset the admin view")
	}
}

// ============================================================
// Settings model
// ============================================================

func TestSettingsSwitchAction(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")

	m := newSettingsModel(s)
	m.setUser(user)
	m.cursor = actionSwitch

	m, cmd := m.runAction()
	if cmd == nil {
		t.Fatal("switch action should produce a command")
	}
	if _, ok := cmd().(switchUserMsg); !ok {
		t.Fatal("expected switchUserMsg")
	}
}

func TestSettingsSaveRates(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")

	m := newSettingsModel(s)
	m.setUser(user)
	m.settings, _ = s.GetSettings(user.ID)
	*m.hourlyRate = "250"
	*m.panelRate = "40"
	*m.currency = "EUR"

	m, _ = m.saveRates()

	cfg, err := s.GetSettings(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HourlyRate != 250 || cfg.PanelRate != 40 || cfg.Currency != "EUR" {
		t.Fatalf("rates not saved: %+v", cfg)
	}
}

func TestSettingsSaveRatesIgnoresGarbage(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "Marty")

	m := newSettingsModel(s)
	m.setUser(user)
	m.settings, _ = s.GetSettings(user.ID)
	*m.hourlyRate = "not a number"
	*m.panelRate = "-5"
	*m.currency = ""

	m, _ = m.saveRates()

	cfg, _ := s.GetSettings(user.ID)
	if cfg.HourlyRate != store.DefaultHourlyRate {
		t.Fatalf("bad input should keep the old hourly rate, got %v", cfg.HourlyRate)
	}
	if cfg.PanelRate != store.DefaultPanelRate {
		t.Fatalf("negative input should keep the old panel rate, got %v", cfg.PanelRate)
	}
	if cfg.Currency != store.DefaultCurrency {
		t.Fatalf("blank input should keep the old currency, got %q", cfg.Currency)
	}
}

// ============================================================
// Helper functions
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{25 * time.Hour, "25:00:00"},
	}
	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{61, "00:01:01"},
		{3600, "01:00:00"},
		{86400, "24:00:00"},
	}
	for _, tt := range tests {
		got := formatSeconds(tt.secs)
		if got != tt.want {
			t.Errorf("formatSeconds(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "0.0h"},
		{3600, "1.0h"},
		{5400, "1.5h"},
		{7200, "2.0h"},
	}
	for _, tt := range tests {
		got := formatHours(tt.secs)
		if got != tt.want {
			t.Errorf("formatHours(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   float64
		currency string
		want     string
	}{
		{0, "CZK", "0.00 CZK"},
		{300, "CZK", "300.00 CZK"},
		{12.345, "EUR", "12.35 EUR"},
	}
	for _, tt := range tests {
		got := formatMoney(tt.amount, tt.currency)
		if got != tt.want {
			t.Errorf("formatMoney(%v, %q) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestMinMax(t *testing.T) {
	if min(3, 5) != 3 {
		t.Fatal("min(3,5) should be 3")
	}
	if min(5, 3) != 3 {
		t.Fatal("min(5,3) should be 3")
	}
	if max(3, 5) != 5 {
		t.Fatal("max(3,5) should be 5")
	}
	if max(5, 3) != 5 {
		t.Fatal("max(5,3) should be 5")
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 5 {
		t.Fatalf("expected 5 view names, got %d", len(viewNames))
	}
	expected := []string{"Dashboard", "History", "Projects", "Reports", "Settings"}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewDashboard != 0 || viewHistory != 1 || viewProjects != 2 || viewReports != 3 || viewSettings != 4 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	bindings := keys.ShortHelp()
	if len(bindings) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test — just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"timer", func() string { return timerStyle.Render("test") }},
		{"timerRunning", func() string { return timerRunningStyle.Render("test") }},
		{"timerPaused", func() string { return timerPausedStyle.Render("test") }},
		{"earnings", func() string { return earningsStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"subtitle", func() string { return subtitleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		result := s.fn()
		if result == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}
