package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// CreateVehicle inserts a new vehicle and returns its ID.
func (s *Storage) CreateVehicle(ctx context.Context, vehicle models.Vehicle) (int, error) {
	const op = "repository.CreateVehicle"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO vehicles (user_uid, plate, nickname, renewal_date, current_annual_fee)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		vehicle.UserUID, vehicle.Plate, vehicle.Nickname, vehicle.RenewalDate,
		vehicle.CurrentAnnualFee).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadVehicle returns one vehicle by ID.
func (s *Storage) ReadVehicle(ctx context.Context, id int) (*models.Vehicle, error) {
	const op = "repository.ReadVehicle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plate, nickname, renewal_date, current_annual_fee,
				created_at, updated_at
			  FROM vehicles WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Vehicle
	err := row.Scan(&result.ID, &result.UserUID, &result.Plate, &result.Nickname,
		&result.RenewalDate, &result.CurrentAnnualFee, &result.CreatedAt, &result.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListVehiclesByUser returns all vehicles owned by one user.
func (s *Storage) ListVehiclesByUser(ctx context.Context, userUID string) ([]models.Vehicle, error) {
	const op = "repository.ListVehiclesByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plate, nickname, renewal_date, current_annual_fee,
				created_at, updated_at
			  FROM vehicles WHERE user_uid = $1
			  ORDER BY renewal_date`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var results []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.UserUID, &v.Plate, &v.Nickname,
			&v.RenewalDate, &v.CurrentAnnualFee, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		results = append(results, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return results, nil
}

// UpdateVehicle updates a vehicle by ID and returns the number of changed rows.
func (s *Storage) UpdateVehicle(ctx context.Context, vehicle models.Vehicle, id int) (int, error) {
	const op = "repository.UpdateVehicle"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE vehicles
			  SET plate = $1, nickname = $2, renewal_date = $3,
			      current_annual_fee = $4, updated_at = $5
			  WHERE id = $6`
	result, err := s.DB.ExecContext(ctx, query,
		vehicle.Plate, vehicle.Nickname, vehicle.RenewalDate,
		vehicle.CurrentAnnualFee, time.Now().UTC(), id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveVehicle deletes a vehicle by ID and returns the number of deleted
// rows. Reminder attempts cascade via the foreign key.
func (s *Storage) RemoveVehicle(ctx context.Context, id int) (int, error) {
	const op = "repository.RemoveVehicle"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM vehicles WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListCandidatesDueOn returns every vehicle whose renewal date equals
// targetDate, joined with the owner's notification preference. A vehicle
// whose owner has no preference row is returned with a nil Preference so the
// orchestrator can log and skip it.
func (s *Storage) ListCandidatesDueOn(ctx context.Context, targetDate time.Time) ([]models.ReminderCandidate, error) {
	const op = "repository.ListCandidatesDueOn"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT v.id, v.user_uid, v.plate, v.nickname, v.renewal_date,
				v.current_annual_fee, v.created_at, v.updated_at,
				p.user_uid, p.email, p.name, p.email_reminders_enabled,
				array_to_string(p.reminder_offsets, ',')
			  FROM vehicles v
			  LEFT JOIN notification_preferences p ON p.user_uid = v.user_uid
			  WHERE v.renewal_date = $1`
	rows, err := s.DB.QueryContext(ctx, query, targetDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var results []models.ReminderCandidate
	for rows.Next() {
		var c models.ReminderCandidate
		var prefUID, prefEmail, prefName, prefOffsets sql.NullString
		var prefEnabled sql.NullBool
		err := rows.Scan(&c.Vehicle.ID, &c.Vehicle.UserUID, &c.Vehicle.Plate,
			&c.Vehicle.Nickname, &c.Vehicle.RenewalDate, &c.Vehicle.CurrentAnnualFee,
			&c.Vehicle.CreatedAt, &c.Vehicle.UpdatedAt,
			&prefUID, &prefEmail, &prefName, &prefEnabled, &prefOffsets)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if prefUID.Valid {
			c.Preference = &models.NotificationPreference{
				UserUID:               prefUID.String,
				Email:                 prefEmail.String,
				Name:                  prefName.String,
				EmailRemindersEnabled: prefEnabled.Bool,
				ReminderOffsets:       parseOffsets(prefOffsets.String),
			}
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return results, nil
}
