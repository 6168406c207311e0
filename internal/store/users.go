package store

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

const stateCurrentUser = "current_user"

// defaultAdminSecret gates the admin aggregate view. A static shared
// secret compared for equality; override with TIMETRACKING_ADMIN_SECRET.
const defaultAdminSecret = "mst2024"

// AdminSecret returns the configured admin password.
func AdminSecret() string {
	if v := os.Getenv("TIMETRACKING_ADMIN_SECRET"); v != "" {
		return v
	}
	return defaultAdminSecret
}

// VerifyAdminPassword checks the shared admin secret.
func VerifyAdminPassword(password string) error {
	if subtle.ConstantTimeCompare([]byte(password), []byte(AdminSecret())) != 1 {
		return ErrWrongPassword
	}
	return nil
}

// CreateUser registers a new user. The first user created becomes admin.
func (s *Store) CreateUser(name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	id := uuid.NewString()
	isAdmin := 0
	if count == 0 {
		isAdmin = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO users (id, name, is_admin) VALUES (?, ?, ?)`,
		id, name, isAdmin,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUser(id)
}

func (s *Store) GetUser(id string) (*User, error) {
	u := &User{}
	var isAdmin int
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, name, is_admin, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &isAdmin, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	u.IsAdmin = isAdmin == 1
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`SELECT id, name, is_admin, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var isAdmin int
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &isAdmin, &createdAt); err != nil {
			return nil, err
		}
		u.IsAdmin = isAdmin == 1
		u.CreatedAt = parseTime(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// CurrentUserID returns the selected user id, or "" when no user is
// selected (the selection screen is shown in that case).
func (s *Store) CurrentUserID() (string, error) {
	v, ok, err := s.getState(stateCurrentUser)
	if err != nil || !ok {
		return "", err
	}
	return v, nil
}

func (s *Store) SetCurrentUser(id string) error {
	if _, err := s.GetUser(id); err != nil {
		return err
	}
	return s.setState(stateCurrentUser, id)
}

// ClearCurrentUser returns the app to the user selection screen.
func (s *Store) ClearCurrentUser() error {
	return s.clearState(stateCurrentUser)
}

// ResetUser deletes all projects, tasks and work entries owned by userID.
// Settings survive unless keepSettings is false; rates and currency are
// treated as profile configuration, not data.
func (s *Store) ResetUser(userID string, keepSettings bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("reset user: begin: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM work_entries WHERE user_id = ?`,
		`DELETE FROM tasks WHERE user_id = ?`,
		`DELETE FROM projects WHERE user_id = ?`,
	}
	if !keepSettings {
		stmts = append(stmts, `DELETE FROM settings WHERE user_id = ?`)
	}
	for _, q := range stmts {
		if _, err := tx.Exec(q, userID); err != nil {
			return fmt.Errorf("reset user: %w", err)
		}
	}
	return tx.Commit()
}
