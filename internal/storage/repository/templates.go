package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// GetTemplate returns one email template by its key.
func (s *Storage) GetTemplate(ctx context.Context, key string) (*models.EmailTemplate, error) {
	const op = "repository.GetTemplate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT template_key, subject, body, updated_at
			  FROM email_templates WHERE template_key = $1`
	row := s.DB.QueryRowContext(ctx, query, key)

	var result models.EmailTemplate
	err := row.Scan(&result.TemplateKey, &result.Subject, &result.Body, &result.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// UpsertTemplate inserts or replaces one email template.
func (s *Storage) UpsertTemplate(ctx context.Context, tmpl models.EmailTemplate) error {
	const op = "repository.UpsertTemplate"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO email_templates (template_key, subject, body, updated_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (template_key) DO UPDATE
			  SET subject = EXCLUDED.subject,
			      body = EXCLUDED.body,
			      updated_at = EXCLUDED.updated_at`
	_, err := s.DB.ExecContext(ctx, query, tmpl.TemplateKey, tmpl.Subject, tmpl.Body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
