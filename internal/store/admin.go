package store

import (
	"fmt"
	"time"
)

// ViewAll selects the full union over every non-admin user in the
// admin aggregate.
const ViewAll = "all"

// Aggregate is the read-only cross-user view available to admins. Every
// record keeps its owning UserID so views can narrow by user. It is a
// full recompute over the store, not a maintained index; record counts
// in a single-operator tool stay small enough for that.
type Aggregate struct {
	Users    []User
	Projects []Project
	Tasks    []Task
	Entries  []WorkEntry
}

// AdminAggregate builds the aggregate view. Fails with ErrNotAdmin when
// the requesting user is not flagged admin. Admin users own no projects
// or entries themselves, so the union covers non-admin users only.
func (s *Store) AdminAggregate(requesterID string) (*Aggregate, error) {
	requester, err := s.GetUser(requesterID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin {
		return nil, ErrNotAdmin
	}

	agg := &Aggregate{}

	all, err := s.ListUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range all {
		if !u.IsAdmin {
			agg.Users = append(agg.Users, u)
		}
	}

	rows, err := s.db.Query(`
		SELECT p.id, p.user_id, p.name, p.color, p.created_at, p.updated_at
		FROM projects p JOIN users u ON u.id = p.user_id
		WHERE u.is_admin = 0
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("aggregate projects: %w", err)
	}
	agg.Projects, err = scanProjects(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
		SELECT t.id, t.user_id, t.project_id, t.name, t.created_at
		FROM tasks t JOIN users u ON u.id = t.user_id
		WHERE u.is_admin = 0
		ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("aggregate tasks: %w", err)
	}
	agg.Tasks, err = scanTasks(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
		SELECT ` + entryColumnsPrefixed + `
		FROM work_entries e JOIN users u ON u.id = e.user_id
		WHERE u.is_admin = 0
		ORDER BY COALESCE(e.start_time, e.entry_date) DESC`)
	if err != nil {
		return nil, fmt.Errorf("aggregate entries: %w", err)
	}
	agg.Entries, err = scanEntries(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	return agg, nil
}

const entryColumnsPrefixed = `e.id, e.user_id, e.project_id, e.task_id, e.kind, e.notes, e.start_time, e.end_time, e.duration, e.entry_date, e.panel_count, e.created_at`

// PerUserView narrows the aggregate to a single owning user. The ViewAll
// sentinel returns the aggregate unchanged.
func (a *Aggregate) PerUserView(userID string) *Aggregate {
	if userID == ViewAll {
		return a
	}

	out := &Aggregate{}
	for _, u := range a.Users {
		if u.ID == userID {
			out.Users = append(out.Users, u)
		}
	}
	for _, p := range a.Projects {
		if p.UserID == userID {
			out.Projects = append(out.Projects, p)
		}
	}
	for _, t := range a.Tasks {
		if t.UserID == userID {
			out.Tasks = append(out.Tasks, t)
		}
	}
	for _, e := range a.Entries {
		if e.Meta().UserID == userID {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// AdminDailySummary is the cross-user variant of GetDailySummary, for the
// report chart when an admin is viewing aggregate data. userID may be a
// concrete user id or ViewAll.
func (s *Store) AdminDailySummary(requesterID, userID string, from, to time.Time) ([]DailySummary, error) {
	requester, err := s.GetUser(requesterID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin {
		return nil, ErrNotAdmin
	}

	query := `
		SELECT date(e.start_time) AS day, e.project_id, p.name, p.color,
		       COALESCE(SUM(e.duration), 0), COUNT(*)
		FROM work_entries e
		JOIN projects p ON p.id = e.project_id
		JOIN users u ON u.id = e.user_id
		WHERE u.is_admin = 0 AND e.kind = 'hourly'
		  AND e.start_time >= ? AND e.start_time < ?`
	args := []any{formatTime(from), formatTime(to)}
	if userID != ViewAll {
		query += ` AND e.user_id = ?`
		args = append(args, userID)
	}
	query += ` GROUP BY day, e.project_id ORDER BY day, p.name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("admin daily summary: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}
