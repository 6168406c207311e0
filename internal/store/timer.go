package store

import (
	"encoding/json"
	"time"
)

const stateTimer = "persistent_timer"

// TimerSnapshot is the persisted form of an in-progress timer session, so
// a session survives a restart. One snapshot exists at most, for the user
// who was active when it was written.
type TimerSnapshot struct {
	UserID             string     `json:"userId"`
	ProjectID          string     `json:"projectId"`
	StartTime          *time.Time `json:"startTime"` // nil while paused
	AccumulatedSeconds float64    `json:"accumulatedSeconds"`
	IsPaused           bool       `json:"isPaused"`
}

// SaveTimerSnapshot persists the in-progress session. Failures are logged
// and swallowed: in-memory state stays authoritative, only reload
// resilience is lost.
func (s *Store) SaveTimerSnapshot(snap TimerSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal timer snapshot")
		return
	}
	if err := s.setState(stateTimer, string(data)); err != nil {
		s.log.Error().Err(err).Msg("save timer snapshot")
	}
}

// LoadTimerSnapshot returns the persisted session, or nil when there is
// none or it cannot be decoded.
func (s *Store) LoadTimerSnapshot() *TimerSnapshot {
	value, ok, err := s.getState(stateTimer)
	if err != nil {
		s.log.Error().Err(err).Msg("load timer snapshot")
		return nil
	}
	if !ok {
		return nil
	}
	var snap TimerSnapshot
	if err := json.Unmarshal([]byte(value), &snap); err != nil {
		s.log.Error().Err(err).Msg("decode timer snapshot")
		return nil
	}
	return &snap
}

// ClearTimerSnapshot removes the persisted session.
func (s *Store) ClearTimerSnapshot() {
	if err := s.clearState(stateTimer); err != nil {
		s.log.Error().Err(err).Msg("clear timer snapshot")
	}
}

// LogStorageError records a non-fatal persistence failure. The UI keeps
// running from in-memory state after calling this.
func (s *Store) LogStorageError(op string, err error) {
	if err == nil {
		return
	}
	s.log.Error().Err(err).Str("op", op).Msg("storage error")
}
