package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateTask creates a task under one of userID's projects. The parent
// project must exist and belong to the same user.
func (s *Store) CreateTask(userID, projectID, name string) (*Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, err := s.GetProject(userID, projectID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, user_id, project_id, name) VALUES (?, ?, ?, ?)`,
		id, userID, projectID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(userID, id)
}

func (s *Store) GetTask(userID, id string) (*Task, error) {
	t := &Task{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, user_id, project_id, name, created_at FROM tasks WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&t.ID, &t.UserID, &t.ProjectID, &t.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func (s *Store) ListTasks(userID, projectID string) ([]Task, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, project_id, name, created_at FROM tasks WHERE project_id = ? AND user_id = ? ORDER BY name`,
		projectID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	var tasks []Task
	for rows.Next() {
		var t Task
		var createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.ProjectID, &t.Name, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// DeleteTask removes the task and clears the reference from any work
// entries that pointed at it; the entries themselves are kept.
func (s *Store) DeleteTask(userID, taskID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete task: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE work_entries SET task_id = NULL WHERE task_id = ? AND user_id = ?`,
		taskID, userID,
	); err != nil {
		return fmt.Errorf("detach task from entries: %w", err)
	}
	if _, err := tx.Exec(
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`,
		taskID, userID,
	); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return tx.Commit()
}
