package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const entryColumns = `id, user_id, project_id, task_id, kind, notes, start_time, end_time, duration, entry_date, panel_count, created_at`

// SaveEntry validates and persists a work entry. A blank ID means insert;
// otherwise the entry with that ID is replaced, provided it is owned by the
// entry's user. Returns the persisted entry with its final ID and, for
// timed entries, the duration recomputed from the start/end pair.
func (s *Store) SaveEntry(entry WorkEntry) (WorkEntry, error) {
	meta := entry.Meta()
	if meta.ProjectID == "" {
		return nil, ErrNoProjectSelected
	}
	if _, err := s.GetProject(meta.UserID, meta.ProjectID); err != nil {
		return nil, fmt.Errorf("save entry: project: %w", err)
	}
	if meta.TaskID != nil {
		if _, err := s.GetTask(meta.UserID, *meta.TaskID); err != nil {
			return nil, fmt.Errorf("save entry: task: %w", err)
		}
	}

	var startStr, endStr, dateStr sql.NullString
	var duration int64
	var panelCount int

	switch e := entry.(type) {
	case TimeEntry:
		if !e.EndTime.After(e.StartTime) {
			return nil, ErrNonPositiveDuration
		}
		e.Duration = int64(e.EndTime.Sub(e.StartTime).Seconds())
		startStr = sql.NullString{String: formatTime(e.StartTime), Valid: true}
		endStr = sql.NullString{String: formatTime(e.EndTime), Valid: true}
		duration = e.Duration
		entry = e
	case PanelEntry:
		if e.Count <= 0 {
			return nil, ErrInvalidUnitCount
		}
		dateStr = sql.NullString{String: formatTime(e.Date), Valid: true}
		panelCount = e.Count
	default:
		return nil, fmt.Errorf("save entry: unknown kind %q", entry.Kind())
	}

	if meta.ID == "" {
		id := uuid.NewString()
		_, err := s.db.Exec(
			`INSERT INTO work_entries (id, user_id, project_id, task_id, kind, notes, start_time, end_time, duration, entry_date, panel_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, meta.UserID, meta.ProjectID, meta.TaskID, string(entry.Kind()), meta.Notes,
			startStr, endStr, duration, dateStr, panelCount,
		)
		if err != nil {
			return nil, fmt.Errorf("insert entry: %w", err)
		}
		return s.GetEntry(meta.UserID, id)
	}

	res, err := s.db.Exec(
		`UPDATE work_entries SET project_id = ?, task_id = ?, notes = ?, start_time = ?, end_time = ?, duration = ?, entry_date = ?, panel_count = ?
		 WHERE id = ? AND user_id = ? AND kind = ?`,
		meta.ProjectID, meta.TaskID, meta.Notes,
		startStr, endStr, duration, dateStr, panelCount,
		meta.ID, meta.UserID, string(entry.Kind()),
	)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetEntry(meta.UserID, meta.ID)
}

// GetEntry returns the work entry only if it belongs to userID.
func (s *Store) GetEntry(userID, id string) (WorkEntry, error) {
	row := s.db.QueryRow(
		`SELECT `+entryColumns+` FROM work_entries WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return entry, nil
}

// DeleteEntry removes a single work entry owned by userID.
func (s *Store) DeleteEntry(userID, id string) error {
	res, err := s.db.Exec(`DELETE FROM work_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEntries returns userID's work entries, newest first.
func (s *Store) ListEntries(userID string, f EntryFilter) ([]WorkEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM work_entries WHERE user_id = ?`
	args := []any{userID}

	if f.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, *f.ProjectID)
	}
	if f.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *f.TaskID)
	}
	if f.Kind != nil {
		query += ` AND kind = ?`
		args = append(args, string(*f.Kind))
	}
	if f.From != nil {
		query += ` AND COALESCE(start_time, entry_date) >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND COALESCE(start_time, entry_date) < ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY COALESCE(start_time, entry_date) DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (WorkEntry, error) {
	var meta EntryMeta
	var taskID, startTime, endTime, entryDate sql.NullString
	var kind, notes, createdAt string
	var duration int64
	var panelCount int

	err := row.Scan(
		&meta.ID, &meta.UserID, &meta.ProjectID, &taskID, &kind, &notes,
		&startTime, &endTime, &duration, &entryDate, &panelCount, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if taskID.Valid {
		meta.TaskID = &taskID.String
	}
	meta.Notes = notes
	meta.CreatedAt = parseTime(createdAt)

	switch EntryKind(kind) {
	case KindHourly:
		e := TimeEntry{EntryMeta: meta, Duration: duration}
		if startTime.Valid {
			e.StartTime = parseTime(startTime.String)
		}
		if endTime.Valid {
			e.EndTime = parseTime(endTime.String)
		}
		return e, nil
	case KindPanels:
		e := PanelEntry{EntryMeta: meta, Count: panelCount}
		if entryDate.Valid {
			e.Date = parseTime(entryDate.String)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown entry kind %q", kind)
	}
}

func scanEntries(rows *sql.Rows) ([]WorkEntry, error) {
	var entries []WorkEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetDailySummary aggregates timed work per project per day for one user.
func (s *Store) GetDailySummary(userID string, from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT date(e.start_time) AS day, e.project_id, p.name, p.color,
		       COALESCE(SUM(e.duration), 0), COUNT(*)
		FROM work_entries e
		JOIN projects p ON p.id = e.project_id
		WHERE e.user_id = ? AND e.kind = 'hourly'
		  AND e.start_time >= ? AND e.start_time < ?
		GROUP BY day, e.project_id
		ORDER BY day, p.name`,
		userID, formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]DailySummary, error) {
	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.ProjectID, &ds.ProjectName, &ds.ProjectColor, &ds.TotalSeconds, &ds.EntryCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// GetTodayTotal returns the seconds of timed work recorded today.
func (s *Store) GetTodayTotal(userID string) (int64, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var total sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(duration), 0)
		FROM work_entries
		WHERE user_id = ? AND kind = 'hourly' AND date(start_time) = ?`,
		userID, today,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// RangeTotals returns the timed seconds and panel units logged by userID
// within [from, to).
func (s *Store) RangeTotals(userID string, from, to time.Time) (int64, int, error) {
	var seconds sql.NullInt64
	var panels sql.NullInt64
	err := s.db.QueryRow(`
		SELECT
		  COALESCE(SUM(CASE WHEN kind = 'hourly' THEN duration ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN kind = 'panels' THEN panel_count ELSE 0 END), 0)
		FROM work_entries
		WHERE user_id = ? AND COALESCE(start_time, entry_date) >= ? AND COALESCE(start_time, entry_date) < ?`,
		userID, formatTime(from), formatTime(to),
	).Scan(&seconds, &panels)
	if err != nil {
		return 0, 0, fmt.Errorf("range totals: %w", err)
	}
	return seconds.Int64, int(panels.Int64), nil
}
