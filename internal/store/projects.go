package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateProject creates a project owned by userID.
func (s *Store) CreateProject(userID, name, color string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	id := uuid.NewString()
	now := formatTime(time.Now())
	_, err := s.db.Exec(
		`INSERT INTO projects (id, user_id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, name, color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(userID, id)
}

// GetProject returns the project only if it belongs to userID.
func (s *Store) GetProject(userID, id string) (*Project, error) {
	p := &Project{}
	var createdAt, updatedAt string
	err := s.db.QueryRow(
		`SELECT id, user_id, name, color, created_at, updated_at FROM projects WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Color, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (s *Store) ListProjects(userID string) ([]Project, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, color, created_at, updated_at FROM projects WHERE user_id = ? ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

func scanProjects(rows *sql.Rows) ([]Project, error) {
	var projects []Project
	for rows.Next() {
		var p Project
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Color, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(userID, id, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	now := formatTime(time.Now())
	_, err := s.db.Exec(
		`UPDATE projects SET name = ?, color = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		name, color, now, id, userID,
	)
	return err
}

// EntryCountForProject reports how many work entries reference the project,
// for the delete confirmation prompt.
func (s *Store) EntryCountForProject(userID, projectID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM work_entries WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries for project: %w", err)
	}
	return n, nil
}

// DeleteProject removes the project and cascades to everything that
// references it: work entries are deleted, tasks are deleted. The caller
// is expected to have confirmed with the user already. Deleting a project
// that does not belong to userID is a no-op.
func (s *Store) DeleteProject(userID, projectID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete project: begin: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM work_entries WHERE project_id = ? AND user_id = ?`,
		`DELETE FROM tasks WHERE project_id = ? AND user_id = ?`,
		`DELETE FROM projects WHERE id = ? AND user_id = ?`,
	} {
		if _, err := tx.Exec(q, projectID, userID); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
	}
	return tx.Commit()
}
