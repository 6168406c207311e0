// Package session implements the timer state machine: one in-progress
// billable activity per user, tracked across pause/resume cycles and
// turned into exactly one time entry on stop.
package session

import (
	"errors"
	"math"
	"time"

	"github.com/Martyvole/timetracking/internal/store"
)

type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// MinDuration is the minimum-duration guard: a stopped session at or
// under this produces no entry, so an accidental start/stop tap leaves
// no record.
const MinDuration = time.Second

// ErrAlreadyActive is returned by Start while a session is in progress;
// use SwitchProject to reassign a running timer.
var ErrAlreadyActive = errors.New("a session is already active")

// Session tracks elapsed wall-clock time for the current user's activity.
// Elapsed time is always accumulated + (now - startedAt) while running,
// and exactly accumulated while paused, so pauses never advance it and
// repeated pause/resume cycles cannot drift.
type Session struct {
	now func() time.Time

	state       State
	userID      string
	projectID   string
	startedAt   time.Time     // start of the current run segment
	accumulated time.Duration // sum of completed run segments
}

func New() *Session {
	return NewWithClock(time.Now)
}

// NewWithClock injects the time source, for tests.
func NewWithClock(now func() time.Time) *Session {
	return &Session{now: now}
}

func (s *Session) State() State      { return s.state }
func (s *Session) UserID() string    { return s.userID }
func (s *Session) ProjectID() string { return s.projectID }

// Active reports whether a session is in progress (running or paused).
func (s *Session) Active() bool { return s.state != Idle }

// Start begins a session for userID on projectID. A non-nil backdatedStart
// in the past seeds the session as if it had been running since then.
func (s *Session) Start(userID, projectID string, backdatedStart *time.Time) error {
	if projectID == "" {
		return store.ErrNoProjectSelected
	}
	if s.state != Idle {
		return ErrAlreadyActive
	}

	now := s.now()
	s.userID = userID
	s.projectID = projectID
	s.startedAt = now
	s.accumulated = 0
	if backdatedStart != nil && backdatedStart.Before(now) {
		s.accumulated = now.Sub(*backdatedStart)
	}
	s.state = Running
	return nil
}

// Pause folds the current run segment into the accumulated total.
// No-op unless running.
func (s *Session) Pause() {
	if s.state != Running {
		return
	}
	s.accumulated += s.now().Sub(s.startedAt)
	s.state = Paused
}

// Resume opens a new run segment. No-op unless paused.
func (s *Session) Resume() {
	if s.state != Paused {
		return
	}
	s.startedAt = s.now()
	s.state = Running
}

// Toggle pauses a running session or resumes a paused one.
func (s *Session) Toggle() {
	switch s.state {
	case Running:
		s.Pause()
	case Paused:
		s.Resume()
	}
}

// Elapsed returns the total time spent running, excluding pauses.
func (s *Session) Elapsed() time.Duration {
	switch s.state {
	case Running:
		return s.accumulated + s.now().Sub(s.startedAt)
	case Paused:
		return s.accumulated
	default:
		return 0
	}
}

// Earnings derives the live earnings readout for the given hourly rate.
func (s *Session) Earnings(hourlyRate float64) float64 {
	return s.Elapsed().Hours() * hourlyRate
}

// Stop ends the session and returns the entry to persist, or nil when
// the session was idle or at or under the minimum-duration guard.
// Calling Stop while idle is a no-op.
//
// The entry's start time is reconstructed as end minus total duration:
// wall-clock gaps spent paused are reflected only in the shorter
// duration, not in the persisted start/end window.
func (s *Session) Stop() *store.TimeEntry {
	if s.state == Idle {
		return nil
	}

	now := s.now()
	final := s.accumulated
	if s.state == Running {
		final += now.Sub(s.startedAt)
	}
	userID, projectID := s.userID, s.projectID
	s.reset()

	if final <= MinDuration || userID == "" {
		return nil
	}

	duration := int64(math.Round(final.Seconds()))
	return &store.TimeEntry{
		EntryMeta: store.EntryMeta{
			UserID:    userID,
			ProjectID: projectID,
		},
		StartTime: now.Add(-final),
		EndTime:   now,
		Duration:  duration,
	}
}

// SwitchProject reassigns an active session to another project as an
// atomic stop-then-start, so time accumulated on the old project is
// persisted rather than carried over. Returns the stopped entry, which
// is nil when the old run was under the guard.
func (s *Session) SwitchProject(newProjectID string) (*store.TimeEntry, error) {
	if newProjectID == "" {
		return nil, store.ErrNoProjectSelected
	}
	if s.state == Idle {
		return nil, store.ErrNoProjectSelected
	}

	userID := s.userID
	entry := s.Stop()
	if err := s.Start(userID, newProjectID, nil); err != nil {
		return entry, err
	}
	return entry, nil
}

func (s *Session) reset() {
	s.state = Idle
	s.userID = ""
	s.projectID = ""
	s.startedAt = time.Time{}
	s.accumulated = 0
}

// Snapshot returns the persistable state of the session, or nil while
// idle (the caller clears any stored snapshot then).
func (s *Session) Snapshot() *store.TimerSnapshot {
	if s.state == Idle {
		return nil
	}
	snap := &store.TimerSnapshot{
		UserID:             s.userID,
		ProjectID:          s.projectID,
		AccumulatedSeconds: s.accumulated.Seconds(),
		IsPaused:           s.state == Paused,
	}
	if s.state == Running {
		t := s.startedAt
		snap.StartTime = &t
	}
	return snap
}

// Restore rebuilds a session from a persisted snapshot. projectExists
// reports whether the snapshot's project still belongs to its user; a
// snapshot that fails that check is rejected and the session stays idle,
// so a deleted project never comes back as a running timer.
func (s *Session) Restore(snap *store.TimerSnapshot, projectExists func(userID, projectID string) bool) bool {
	if s.state != Idle || snap == nil {
		return false
	}
	if snap.UserID == "" || snap.ProjectID == "" {
		return false
	}
	if projectExists != nil && !projectExists(snap.UserID, snap.ProjectID) {
		return false
	}

	s.userID = snap.UserID
	s.projectID = snap.ProjectID
	s.accumulated = time.Duration(snap.AccumulatedSeconds * float64(time.Second))
	if snap.IsPaused || snap.StartTime == nil {
		s.state = Paused
	} else {
		s.startedAt = *snap.StartTime
		s.state = Running
	}
	return true
}
