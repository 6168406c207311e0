package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the export/import document for one user's data. The wire
// format mirrors the app's backup files: camelCase keys, a "type" tag on
// each work entry, RFC 3339 timestamps.
type Snapshot struct {
	Projects []SnapshotProject `json:"projects"`
	Entries  []SnapshotEntry   `json:"workEntries"`
	Tasks    []SnapshotTask    `json:"tasks,omitempty"`
	Settings *Settings         `json:"settings,omitempty"`
}

type SnapshotProject struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

type SnapshotTask struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"userId,omitempty"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
}

type SnapshotEntry struct {
	Type      EntryKind `json:"type"`
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	ProjectID string    `json:"projectId"`
	TaskID    *string   `json:"taskId,omitempty"`
	Notes     string    `json:"notes,omitempty"`

	// hourly
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	Duration  int64  `json:"duration,omitempty"`

	// panels
	Date  string `json:"date,omitempty"`
	Count int    `json:"count,omitempty"`
}

// ImportResult reports what an import applied.
type ImportResult struct {
	Projects int
	Tasks    int
	Entries  int
	// Skipped counts entries whose project was missing from the document.
	Skipped int
}

// ExportSnapshot serializes userID's projects, work entries, tasks and
// settings into one document.
func (s *Store) ExportSnapshot(userID string) (*Snapshot, error) {
	projects, err := s.ListProjects(userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ListEntries(userID, EntryFilter{})
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Projects: []SnapshotProject{},
		Entries:  []SnapshotEntry{},
		Settings: &settings,
	}
	for _, p := range projects {
		snap.Projects = append(snap.Projects, SnapshotProject{
			ID: p.ID, UserID: p.UserID, Name: p.Name, Color: p.Color,
		})

		tasks, err := s.ListTasks(userID, p.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			snap.Tasks = append(snap.Tasks, SnapshotTask{
				ID: t.ID, UserID: t.UserID, ProjectID: t.ProjectID, Name: t.Name,
			})
		}
	}
	for _, e := range entries {
		snap.Entries = append(snap.Entries, toSnapshotEntry(e))
	}
	return snap, nil
}

func toSnapshotEntry(e WorkEntry) SnapshotEntry {
	meta := e.Meta()
	out := SnapshotEntry{
		Type:      e.Kind(),
		ID:        meta.ID,
		UserID:    meta.UserID,
		ProjectID: meta.ProjectID,
		TaskID:    meta.TaskID,
		Notes:     meta.Notes,
	}
	switch e := e.(type) {
	case TimeEntry:
		out.StartTime = formatTime(e.StartTime)
		out.EndTime = formatTime(e.EndTime)
		out.Duration = e.Duration
	case PanelEntry:
		out.Date = formatTime(e.Date)
		out.Count = e.Count
	}
	return out
}

// ParseSnapshot decodes an export document. Accepts the legacy key
// aliases "installations" and "timeEntries". Returns ErrBadSnapshot when
// none of the expected collections are present.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	pick := func(keys ...string) (json.RawMessage, bool) {
		for _, k := range keys {
			if v, ok := raw[k]; ok {
				return v, true
			}
		}
		return nil, false
	}

	projectsRaw, haveProjects := pick("projects", "installations")
	entriesRaw, haveEntries := pick("workEntries", "timeEntries")
	if !haveProjects && !haveEntries {
		return nil, ErrBadSnapshot
	}

	snap := &Snapshot{}
	if haveProjects {
		if err := json.Unmarshal(projectsRaw, &snap.Projects); err != nil {
			return nil, fmt.Errorf("%w: projects: %v", ErrBadSnapshot, err)
		}
	}
	if haveEntries {
		if err := json.Unmarshal(entriesRaw, &snap.Entries); err != nil {
			return nil, fmt.Errorf("%w: entries: %v", ErrBadSnapshot, err)
		}
	}
	if tasksRaw, ok := raw["tasks"]; ok {
		if err := json.Unmarshal(tasksRaw, &snap.Tasks); err != nil {
			return nil, fmt.Errorf("%w: tasks: %v", ErrBadSnapshot, err)
		}
	}
	if settingsRaw, ok := raw["settings"]; ok {
		var cfg struct {
			HourlyRate float64 `json:"hourlyRate"`
			PanelRate  float64 `json:"panelRate"`
			Currency   string  `json:"currency"`
		}
		if err := json.Unmarshal(settingsRaw, &cfg); err != nil {
			return nil, fmt.Errorf("%w: settings: %v", ErrBadSnapshot, err)
		}
		snap.Settings = &Settings{
			HourlyRate: cfg.HourlyRate,
			PanelRate:  cfg.PanelRate,
			Currency:   cfg.Currency,
		}
	}
	return snap, nil
}

// EncodeSnapshot renders the document for a backup file.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// ImportSnapshot appends the document's records to userID's data. Every
// incoming record is re-owned to userID and given a fresh id; references
// between records are remapped accordingly, whatever ownership the
// document claimed. Applied in one transaction: a validation failure
// leaves existing data untouched. Entries referencing a project missing
// from the document are skipped and counted.
func (s *Store) ImportSnapshot(userID string, snap *Snapshot) (ImportResult, error) {
	var res ImportResult

	if _, err := s.GetUser(userID); err != nil {
		return res, err
	}

	// Validate before touching the database.
	for _, e := range snap.Entries {
		switch e.Type {
		case KindHourly:
			start, end := parseTime(e.StartTime), parseTime(e.EndTime)
			if !end.After(start) {
				return res, fmt.Errorf("%w: entry %q", ErrNonPositiveDuration, e.ID)
			}
		case KindPanels:
			if e.Count <= 0 {
				return res, fmt.Errorf("%w: entry %q", ErrInvalidUnitCount, e.ID)
			}
		default:
			return res, fmt.Errorf("%w: entry type %q", ErrBadSnapshot, e.Type)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return res, fmt.Errorf("import: begin: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())

	projectIDs := make(map[string]string, len(snap.Projects))
	for _, p := range snap.Projects {
		id := uuid.NewString()
		if p.ID != "" {
			projectIDs[p.ID] = id
		}
		if _, err := tx.Exec(
			`INSERT INTO projects (id, user_id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, userID, p.Name, p.Color, now, now,
		); err != nil {
			return res, fmt.Errorf("import project %q: %w", p.Name, err)
		}
		res.Projects++
	}

	taskIDs := make(map[string]string, len(snap.Tasks))
	for _, t := range snap.Tasks {
		projectID, ok := projectIDs[t.ProjectID]
		if !ok {
			res.Skipped++
			continue
		}
		id := uuid.NewString()
		if t.ID != "" {
			taskIDs[t.ID] = id
		}
		if _, err := tx.Exec(
			`INSERT INTO tasks (id, user_id, project_id, name, created_at) VALUES (?, ?, ?, ?, ?)`,
			id, userID, projectID, t.Name, now,
		); err != nil {
			return res, fmt.Errorf("import task %q: %w", t.Name, err)
		}
		res.Tasks++
	}

	for _, e := range snap.Entries {
		projectID, ok := projectIDs[e.ProjectID]
		if !ok {
			res.Skipped++
			continue
		}
		var taskID any
		if e.TaskID != nil {
			if mapped, ok := taskIDs[*e.TaskID]; ok {
				taskID = mapped
			}
		}

		var startStr, endStr, dateStr any
		var duration int64
		var count int
		switch e.Type {
		case KindHourly:
			start, end := parseTime(e.StartTime), parseTime(e.EndTime)
			startStr = formatTime(start)
			endStr = formatTime(end)
			duration = int64(end.Sub(start).Seconds())
		case KindPanels:
			dateStr = formatTime(parseTime(e.Date))
			count = e.Count
		}

		if _, err := tx.Exec(
			`INSERT INTO work_entries (id, user_id, project_id, task_id, kind, notes, start_time, end_time, duration, entry_date, panel_count, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), userID, projectID, taskID, string(e.Type), e.Notes,
			startStr, endStr, duration, dateStr, count, now,
		); err != nil {
			return res, fmt.Errorf("import entry: %w", err)
		}
		res.Entries++
	}

	if snap.Settings != nil {
		cfg := *snap.Settings
		if cfg.Currency == "" {
			cfg.Currency = DefaultCurrency
		}
		if cfg.HourlyRate == 0 {
			cfg.HourlyRate = DefaultHourlyRate
		}
		if cfg.PanelRate == 0 {
			cfg.PanelRate = DefaultPanelRate
		}
		for key, value := range map[string]string{
			settingHourlyRate: fmt.Sprintf("%g", cfg.HourlyRate),
			settingPanelRate:  fmt.Sprintf("%g", cfg.PanelRate),
			settingCurrency:   cfg.Currency,
		} {
			if _, err := tx.Exec(
				`INSERT INTO settings (user_id, key, value) VALUES (?, ?, ?)
				 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`,
				userID, key, value,
			); err != nil {
				return res, fmt.Errorf("import settings: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("import: commit: %w", err)
	}
	return res, nil
}
