package tui

import (
	"fmt"
	"time"

	"github.com/Martyvole/timetracking/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewHistory
	viewProjects
	viewReports
	viewSettings
)

var viewNames = []string{"Dashboard", "History", "Projects", "Reports", "Settings"}

// --- Messages ---

type userSelectedMsg struct {
	user *store.User
}

type switchUserMsg struct{}

type timerStartedMsg struct {
	projectID string
}

type timerStoppedMsg struct {
	entry *store.TimeEntry
}

type timerPausedMsg struct{}
type timerResumedMsg struct{}

type projectCreatedMsg struct {
	project *store.Project
}

type projectUpdatedMsg struct{}

type projectDeletedMsg struct {
	projectID string
}

type taskCreatedMsg struct {
	task *store.Task
}

type entriesChangedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type importDoneMsg struct {
	result store.ImportResult
}

type dataResetMsg struct{}

type formDoneMsg struct{}
type formCancelMsg struct{}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

func formatMoney(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
