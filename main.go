package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Martyvole/timetracking/internal/session"
	"github.com/Martyvole/timetracking/internal/store"
	"github.com/Martyvole/timetracking/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

func main() {
	logger := openLogger()

	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	sess := session.New()
	restoreTimer(s, sess, logger)

	app := tui.NewApp(s, sess)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openLogger writes structured logs next to the database. The TUI owns
// the terminal, so logging never goes to stdout.
func openLogger() zerolog.Logger {
	path, err := store.DefaultLogPath()
	if err != nil {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger()
}

// restoreTimer resumes a timer that was running when the previous
// process exited. A snapshot that no longer matches the current user
// or whose project is gone is settled instead: the tracked time is
// saved as an entry when possible and the snapshot dropped.
func restoreTimer(s *store.Store, sess *session.Session, logger zerolog.Logger) {
	snap := s.LoadTimerSnapshot()
	if snap == nil {
		return
	}

	projectExists := func(userID, projectID string) bool {
		_, err := s.GetProject(userID, projectID)
		return err == nil
	}

	currentID, _ := s.CurrentUserID()
	if snap.UserID == currentID && sess.Restore(snap, projectExists) {
		logger.Info().
			Str("user", snap.UserID).
			Str("project", snap.ProjectID).
			Msg("timer restored")
		return
	}

	settleSnapshot(s, snap, projectExists, logger)
	s.ClearTimerSnapshot()
}

func settleSnapshot(s *store.Store, snap *store.TimerSnapshot, projectExists func(string, string) bool, logger zerolog.Logger) {
	if !projectExists(snap.UserID, snap.ProjectID) {
		logger.Warn().Str("project", snap.ProjectID).Msg("dropping timer snapshot, project gone")
		return
	}

	now := time.Now().UTC()
	final := time.Duration(snap.AccumulatedSeconds * float64(time.Second))
	if !snap.IsPaused && snap.StartTime != nil {
		final += now.Sub(*snap.StartTime)
	}
	if final <= session.MinDuration {
		return
	}

	entry := store.TimeEntry{
		EntryMeta: store.EntryMeta{
			UserID:    snap.UserID,
			ProjectID: snap.ProjectID,
		},
		StartTime: now.Add(-final),
		EndTime:   now,
	}
	if _, err := s.SaveEntry(entry); err != nil {
		logger.Error().Err(err).Msg("settle timer snapshot")
		return
	}
	logger.Info().
		Str("user", snap.UserID).
		Dur("tracked", final).
		Msg("settled orphaned timer snapshot")
}
