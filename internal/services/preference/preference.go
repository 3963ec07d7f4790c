// Package preference manages notification preference records.
package preference

import (
	"context"
	"log/slog"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// Repository defines the storage methods the service needs.
type Repository interface {
	GetPreference(ctx context.Context, userUID string) (*models.NotificationPreference, error)
	UpsertPreference(ctx context.Context, pref models.NotificationPreference) error
}

// Service implements preference business logic.
type Service struct {
	repo           Repository
	defaultOffsets []int
	log            *slog.Logger
}

// New creates a preference Service. defaultOffsets fill in records that
// carry no explicit schedule.
func New(repo Repository, defaultOffsets []int, log *slog.Logger) *Service {
	return &Service{repo: repo, defaultOffsets: defaultOffsets, log: log}
}

// Get returns the preference record of one user. The returned record always
// has a concrete offset list so clients never see the empty fallback state.
func (s *Service) Get(ctx context.Context, userUID string) (*models.NotificationPreference, error) {
	pref, err := s.repo.GetPreference(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if len(pref.ReminderOffsets) == 0 {
		pref.ReminderOffsets = s.defaultOffsets
	}
	return pref, nil
}

// Update stores the preference record of one user, creating it on first
// write.
func (s *Service) Update(ctx context.Context, userUID string, req models.DummyPreference) error {
	pref := models.NotificationPreference{
		UserUID:               userUID,
		Email:                 req.Email,
		Name:                  req.Name,
		EmailRemindersEnabled: req.EmailRemindersEnabled,
		ReminderOffsets:       req.ReminderOffsets,
	}
	if len(pref.ReminderOffsets) == 0 {
		pref.ReminderOffsets = s.defaultOffsets
	}

	if err := s.repo.UpsertPreference(ctx, pref); err != nil {
		return err
	}
	s.log.Info("updated notification preference",
		slog.String("user_uid", userUID),
		slog.Bool("enabled", pref.EmailRemindersEnabled))
	return nil
}
