package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// AttemptExists reports whether a reminder attempt has already been recorded
// for the given vehicle and offset label.
func (s *Storage) AttemptExists(ctx context.Context, vehicleID int, offsetLabel string) (bool, error) {
	const op = "repository.AttemptExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
				SELECT 1 FROM reminder_attempts
				WHERE vehicle_id = $1 AND offset_label = $2
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, vehicleID, offsetLabel).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CreateAttempt inserts a ledger row. The unique (vehicle_id, offset_label)
// constraint makes the insert the source of truth for "already sent":
// a violation is mapped to ErrDuplicateAttempt.
func (s *Storage) CreateAttempt(ctx context.Context, attempt models.ReminderAttempt) error {
	const op = "repository.CreateAttempt"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO reminder_attempts
				(id, vehicle_id, offset_label, sent_at, recipient_name,
				 recipient_email, plate, nickname)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.DB.ExecContext(ctx, query,
		attempt.ID, attempt.VehicleID, attempt.OffsetLabel, attempt.SentAt,
		attempt.RecipientName, attempt.RecipientEmail, attempt.Plate,
		attempt.Nickname)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, ErrDuplicateAttempt)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetAttempt returns one ledger row by its opaque id.
func (s *Storage) GetAttempt(ctx context.Context, id uuid.UUID) (*models.ReminderAttempt, error) {
	const op = "repository.GetAttempt"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, vehicle_id, offset_label, sent_at, recipient_name,
				recipient_email, plate, nickname, opened, link_clicked,
				callback_requested, offer_requested
			  FROM reminder_attempts WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.ReminderAttempt
	err := row.Scan(&result.ID, &result.VehicleID, &result.OffsetLabel,
		&result.SentAt, &result.RecipientName, &result.RecipientEmail,
		&result.Plate, &result.Nickname, &result.Opened, &result.LinkClicked,
		&result.CallbackRequested, &result.OfferRequested)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListAttemptsByVehicle returns the delivery log of one vehicle, newest first.
func (s *Storage) ListAttemptsByVehicle(ctx context.Context, vehicleID int) ([]models.ReminderAttempt, error) {
	const op = "repository.ListAttemptsByVehicle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, vehicle_id, offset_label, sent_at, recipient_name,
				recipient_email, plate, nickname, opened, link_clicked,
				callback_requested, offer_requested
			  FROM reminder_attempts WHERE vehicle_id = $1
			  ORDER BY sent_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var results []models.ReminderAttempt
	for rows.Next() {
		var a models.ReminderAttempt
		if err := rows.Scan(&a.ID, &a.VehicleID, &a.OffsetLabel, &a.SentAt,
			&a.RecipientName, &a.RecipientEmail, &a.Plate, &a.Nickname,
			&a.Opened, &a.LinkClicked, &a.CallbackRequested,
			&a.OfferRequested); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return results, nil
}

// Tracking flag updates. Each one sets its column to TRUE and never back:
// repeated events for the same attempt are absorbed by idempotent SQL, so
// the tracking worker needs no locking. The affected row count reports
// whether the id resolved.

// MarkOpened records that the reminder email was opened.
func (s *Storage) MarkOpened(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.setTrackingFlag(ctx, "repository.MarkOpened", "opened", id)
}

// MarkLinkClicked records that a tracked link in the email was followed.
func (s *Storage) MarkLinkClicked(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.setTrackingFlag(ctx, "repository.MarkLinkClicked", "link_clicked", id)
}

// MarkCallbackRequested records that the recipient asked to be called back.
func (s *Storage) MarkCallbackRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.setTrackingFlag(ctx, "repository.MarkCallbackRequested", "callback_requested", id)
}

// MarkOfferRequested records that the recipient asked for an offer.
func (s *Storage) MarkOfferRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.setTrackingFlag(ctx, "repository.MarkOfferRequested", "offer_requested", id)
}

func (s *Storage) setTrackingFlag(ctx context.Context, op, column string, id uuid.UUID) (bool, error) {
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	// column is one of four fixed names passed by the wrappers above.
	query := fmt.Sprintf(`UPDATE reminder_attempts SET %s = TRUE WHERE id = $1`, column)
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected > 0, nil
}
