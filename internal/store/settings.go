package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const (
	settingHourlyRate = "hourly_rate"
	settingPanelRate  = "panel_rate"
	settingCurrency   = "currency"
)

// GetSetting returns the raw value for key scoped to userID, or fallback
// if the user has never set it.
func (s *Store) GetSetting(userID, key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM settings WHERE user_id = ? AND key = ?`, userID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(userID, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`,
		userID, key, value,
	)
	return err
}

// GetSettings returns the user's billing configuration with defaults
// filled in for anything never set.
func (s *Store) GetSettings(userID string) (Settings, error) {
	out := Settings{
		HourlyRate: DefaultHourlyRate,
		PanelRate:  DefaultPanelRate,
		Currency:   DefaultCurrency,
	}

	rows, err := s.db.Query(`SELECT key, value FROM settings WHERE user_id = ?`, userID)
	if err != nil {
		return out, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return out, err
		}
		switch key {
		case settingHourlyRate:
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				out.HourlyRate = v
			}
		case settingPanelRate:
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				out.PanelRate = v
			}
		case settingCurrency:
			out.Currency = value
		}
	}
	return out, rows.Err()
}

func (s *Store) SaveSettings(userID string, cfg Settings) error {
	if err := s.SetSetting(userID, settingHourlyRate, strconv.FormatFloat(cfg.HourlyRate, 'f', -1, 64)); err != nil {
		return err
	}
	if err := s.SetSetting(userID, settingPanelRate, strconv.FormatFloat(cfg.PanelRate, 'f', -1, 64)); err != nil {
		return err
	}
	return s.SetSetting(userID, settingCurrency, cfg.Currency)
}
