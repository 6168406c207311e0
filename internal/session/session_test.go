package session

import (
	"errors"
	"testing"
	"time"

	"github.com/Martyvole/timetracking/internal/store"
)

// fakeClock lets tests advance time explicitly.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestSession() (*Session, *fakeClock) {
	clk := newFakeClock()
	return NewWithClock(clk.now), clk
}

// ============================================================
// Start
// ============================================================

func TestStartRequiresProject(t *testing.T) {
	s, _ := newTestSession()
	err := s.Start("u1", "", nil)
	if !errors.Is(err, store.ErrNoProjectSelected) {
		t.Fatalf("expected ErrNoProjectSelected, got %v", err)
	}
	if s.State() != Idle {
		t.Fatal("failed start must not change state")
	}
}

func TestStartWhileActive(t *testing.T) {
	s, _ := newTestSession()
	if err := s.Start("u1", "p1", nil); err != nil {
		t.Fatal(err)
	}
	err := s.Start("u1", "p2", nil)
	if !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
	if s.ProjectID() != "p1" {
		t.Fatal("second start must not replace the active project")
	}
}

func TestBackdatedStart(t *testing.T) {
	s, clk := newTestSession()
	backdated := clk.t.Add(-15 * time.Minute)
	if err := s.Start("u1", "p1", &backdated); err != nil {
		t.Fatal(err)
	}
	if got := s.Elapsed(); got != 15*time.Minute {
		t.Fatalf("expected 15m elapsed immediately after backdated start, got %v", got)
	}
	clk.advance(30 * time.Second)
	if got := s.Elapsed(); got != 15*time.Minute+30*time.Second {
		t.Fatalf("expected 15m30s, got %v", got)
	}
}

func TestBackdatedStartInFutureIgnored(t *testing.T) {
	s, clk := newTestSession()
	future := clk.t.Add(time.Hour)
	if err := s.Start("u1", "p1", &future); err != nil {
		t.Fatal(err)
	}
	if got := s.Elapsed(); got != 0 {
		t.Fatalf("future backdate must not seed elapsed time, got %v", got)
	}
}

// ============================================================
// Pause / resume accounting
// ============================================================

func TestPauseResumeAccounting(t *testing.T) {
	// start at t=0, pause at t=65, resume at t=70, stop at t=130:
	// duration = 65 + (130-70) = 125s.
	s, clk := newTestSession()
	if err := s.Start("u1", "p1", nil); err != nil {
		t.Fatal(err)
	}

	clk.advance(65 * time.Second)
	s.Pause()
	if got := s.Elapsed(); got != 65*time.Second {
		t.Fatalf("expected 65s at pause, got %v", got)
	}

	clk.advance(5 * time.Second)
	if got := s.Elapsed(); got != 65*time.Second {
		t.Fatalf("elapsed advanced while paused: %v", got)
	}

	s.Resume()
	clk.advance(60 * time.Second)

	entry := s.Stop()
	if entry == nil {
		t.Fatal("expected an entry")
	}
	if entry.Duration != 125 {
		t.Fatalf("expected duration 125, got %d", entry.Duration)
	}
	if entry.UserID != "u1" || entry.ProjectID != "p1" {
		t.Fatalf("wrong ownership: %+v", entry.EntryMeta)
	}
}

func TestRepeatedPauseResumeCyclesDoNotDrift(t *testing.T) {
	s, clk := newTestSession()
	s.Start("u1", "p1", nil)

	var running time.Duration
	for i := 0; i < 10; i++ {
		clk.advance(7 * time.Second)
		running += 7 * time.Second
		s.Pause()
		clk.advance(13 * time.Second) // paused gap, must not count
		s.Resume()
	}
	if got := s.Elapsed(); got != running {
		t.Fatalf("expected %v running time, got %v", running, got)
	}
}

func TestPauseWhenNotRunning(t *testing.T) {
	s, _ := newTestSession()
	s.Pause()
	if s.State() != Idle {
		t.Fatal("pause while idle must be a no-op")
	}
	s.Resume()
	if s.State() != Idle {
		t.Fatal("resume while idle must be a no-op")
	}
}

// ============================================================
// Stop
// ============================================================

func TestStopIdleIsNoOp(t *testing.T) {
	s, _ := newTestSession()
	if entry := s.Stop(); entry != nil {
		t.Fatalf("stop while idle produced an entry: %+v", entry)
	}
	if s.State() != Idle {
		t.Fatal("state changed")
	}
}

func TestStopUnderMinimumDuration(t *testing.T) {
	s, clk := newTestSession()
	s.Start("u1", "p1", nil)
	clk.advance(time.Second) // exactly the guard, not above it
	if entry := s.Stop(); entry != nil {
		t.Fatalf("sub-threshold stop produced an entry: %+v", entry)
	}
	if s.State() != Idle {
		t.Fatal("session must reset even when discarded")
	}
}

func TestStopReconstructsStartTime(t *testing.T) {
	s, clk := newTestSession()
	s.Start("u1", "p1", nil)

	clk.advance(60 * time.Second)
	s.Pause()
	clk.advance(10 * time.Minute) // long pause gap
	s.Resume()
	clk.advance(60 * time.Second)

	end := clk.t
	entry := s.Stop()
	if entry == nil {
		t.Fatal("expected an entry")
	}
	if !entry.EndTime.Equal(end) {
		t.Fatalf("end time: got %v want %v", entry.EndTime, end)
	}
	// Synthetic start: end minus total duration, the pause gap is not
	// part of the persisted window.
	if want := end.Add(-120 * time.Second); !entry.StartTime.Equal(want) {
		t.Fatalf("start time: got %v want %v", entry.StartTime, want)
	}
	if entry.Duration != 120 {
		t.Fatalf("duration: got %d want 120", entry.Duration)
	}
}

func TestStopWhilePaused(t *testing.T) {
	s, clk := newTestSession()
	s.Start("u1", "p1", nil)
	clk.advance(90 * time.Second)
	s.Pause()
	clk.advance(time.Hour)

	entry := s.Stop()
	if entry == nil {
		t.Fatal("expected an entry")
	}
	if entry.Duration != 90 {
		t.Fatalf("duration: got %d want 90", entry.Duration)
	}
}

// ============================================================
// Switch project
// ============================================================

func TestSwitchProjectPersistsOldTime(t *testing.T) {
	s, clk := newTestSession()
	s.Start("u1", "p1", nil)
	clk.advance(5 * time.Minute)

	entry, err := s.SwitchProject("p2")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil {
		t.Fatal("expected an entry from the stopped run")
	}
	if entry.ProjectID != "p1" || entry.Duration != 300 {
		t.Fatalf("unexpected stopped entry: %+v", entry)
	}
	if s.State() != Running || s.ProjectID() != "p2" {
		t.Fatal("session should be running on the new project")
	}
	if got := s.Elapsed(); got != 0 {
		t.Fatalf("new run should start from zero, got %v", got)
	}
	if s.UserID() != "u1" {
		t.Fatal("user must carry over on switch")
	}
}

func TestSwitchProjectUnderGuard(t *testing.T) {
	s, _ := newTestSession()
	s.Start("u1", "p1", nil)

	entry, err := s.SwitchProject("p2")
	if err != nil {
		t.Fatal(err)
	}
	if entry != nil {
		t.Fatal("sub-threshold run must be discarded silently on switch")
	}
	if s.ProjectID() != "p2" {
		t.Fatal("switch should still happen")
	}
}

func TestSwitchProjectWhileIdle(t *testing.T) {
	s, _ := newTestSession()
	if _, err := s.SwitchProject("p2"); err == nil {
		t.Fatal("expected error switching with no active session")
	}
}

// ============================================================
// Earnings
// ============================================================

func TestEarnings(t *testing.T) {
	s, clk := newTestSession()
	s.Start("u1", "p1", nil)
	clk.advance(90 * time.Minute)

	got := s.Earnings(200)
	if want := 300.0; got != want {
		t.Fatalf("earnings: got %v want %v", got, want)
	}
}

// ============================================================
// Snapshot / restore
// ============================================================

func TestSnapshotWhileIdle(t *testing.T) {
	s, _ := newTestSession()
	if snap := s.Snapshot(); snap != nil {
		t.Fatalf("idle session produced a snapshot: %+v", snap)
	}
}

func TestSnapshotRestoreRunning(t *testing.T) {
	s, clk := newTestSession()
	s.Start("u1", "p1", nil)
	clk.advance(40 * time.Second)
	s.Pause()
	clk.advance(10 * time.Second)
	s.Resume()
	clk.advance(20 * time.Second)

	snap := s.Snapshot()
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if snap.IsPaused || snap.StartTime == nil {
		t.Fatalf("running snapshot malformed: %+v", snap)
	}
	if snap.AccumulatedSeconds != 40 {
		t.Fatalf("accumulated: got %v want 40", snap.AccumulatedSeconds)
	}

	restored := NewWithClock(clk.now)
	ok := restored.Restore(snap, func(userID, projectID string) bool {
		return userID == "u1" && projectID == "p1"
	})
	if !ok {
		t.Fatal("restore rejected a valid snapshot")
	}
	if restored.State() != Running {
		t.Fatalf("state: got %v want running", restored.State())
	}
	if got := restored.Elapsed(); got != 60*time.Second {
		t.Fatalf("elapsed after restore: got %v want 60s", got)
	}
}

func TestSnapshotRestorePaused(t *testing.T) {
	s, clk := newTestSession()
	s.Start("u1", "p1", nil)
	clk.advance(30 * time.Second)
	s.Pause()

	snap := s.Snapshot()
	if snap == nil || !snap.IsPaused || snap.StartTime != nil {
		t.Fatalf("paused snapshot malformed: %+v", snap)
	}

	restored := NewWithClock(clk.now)
	if !restored.Restore(snap, nil) {
		t.Fatal("restore rejected")
	}
	if restored.State() != Paused {
		t.Fatalf("state: got %v want paused", restored.State())
	}
	if got := restored.Elapsed(); got != 30*time.Second {
		t.Fatalf("elapsed: got %v want 30s", got)
	}
}

func TestRestoreRejectsMissingProject(t *testing.T) {
	s, clk := newTestSession()
	s.Start("u1", "p1", nil)
	clk.advance(time.Minute)
	snap := s.Snapshot()

	restored := NewWithClock(clk.now)
	ok := restored.Restore(snap, func(userID, projectID string) bool {
		return false // project was deleted meanwhile
	})
	if ok {
		t.Fatal("restore must reject a snapshot whose project is gone")
	}
	if restored.State() != Idle {
		t.Fatal("rejected restore must leave the session idle")
	}
}

func TestRestoreIntoActiveSession(t *testing.T) {
	s, _ := newTestSession()
	s.Start("u1", "p1", nil)
	snap := &store.TimerSnapshot{UserID: "u2", ProjectID: "p9", IsPaused: true}

	if s.Restore(snap, nil) {
		t.Fatal("restore must not clobber an active session")
	}
	if s.UserID() != "u1" {
		t.Fatal("active session changed")
	}
}
