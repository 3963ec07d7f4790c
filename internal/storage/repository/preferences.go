package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// parseOffsets converts the array_to_string form of reminder_offsets back to
// a slice of days. Malformed entries are skipped.
func parseOffsets(raw string) []int {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	offsets := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		offsets = append(offsets, n)
	}
	return offsets
}

// joinOffsets renders offsets for a string_to_array(...)::int[] parameter.
func joinOffsets(offsets []int) string {
	parts := make([]string, len(offsets))
	for i, n := range offsets {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// GetPreference returns one user's notification preference record.
func (s *Storage) GetPreference(ctx context.Context, userUID string) (*models.NotificationPreference, error) {
	const op = "repository.GetPreference"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, email, name, email_reminders_enabled,
				array_to_string(reminder_offsets, ',')
			  FROM notification_preferences WHERE user_uid = $1`
	row := s.DB.QueryRowContext(ctx, query, userUID)

	var result models.NotificationPreference
	var rawOffsets string
	err := row.Scan(&result.UserUID, &result.Email, &result.Name,
		&result.EmailRemindersEnabled, &rawOffsets)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result.ReminderOffsets = parseOffsets(rawOffsets)
	return &result, nil
}

// UpsertPreference inserts or replaces one user's preference record.
func (s *Storage) UpsertPreference(ctx context.Context, pref models.NotificationPreference) error {
	const op = "repository.UpsertPreference"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO notification_preferences
				(user_uid, email, name, email_reminders_enabled, reminder_offsets)
			  VALUES ($1, $2, $3, $4, string_to_array($5, ',')::int[])
			  ON CONFLICT (user_uid) DO UPDATE
			  SET email = EXCLUDED.email,
			      name = EXCLUDED.name,
			      email_reminders_enabled = EXCLUDED.email_reminders_enabled,
			      reminder_offsets = EXCLUDED.reminder_offsets`
	_, err := s.DB.ExecContext(ctx, query,
		pref.UserUID, pref.Email, pref.Name, pref.EmailRemindersEnabled,
		joinOffsets(pref.ReminderOffsets))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
