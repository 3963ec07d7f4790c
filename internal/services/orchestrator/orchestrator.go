// Package orchestrator implements the daily reminder batch. One run walks
// the configured offsets, finds vehicles due at each offset, gates them
// through the policy and the attempt ledger, and delivers exactly one
// reminder per (vehicle, offset) pair across all runs ever.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/email"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/renewal"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/metrics"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/policy"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/renderer"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/repository"
)

// ErrRunInProgress is returned when another orchestrator instance holds the
// run lock. The caller retries later; nothing was attempted.
var ErrRunInProgress = errors.New("a reminder run is already in progress")

// Repository is the storage surface of one run.
type Repository interface {
	ListCandidatesDueOn(ctx context.Context, targetDate time.Time) ([]models.ReminderCandidate, error)
	AttemptExists(ctx context.Context, vehicleID int, offsetLabel string) (bool, error)
	CreateAttempt(ctx context.Context, attempt models.ReminderAttempt) error
	ReadVehicle(ctx context.Context, id int) (*models.Vehicle, error)
	GetPreference(ctx context.Context, userUID string) (*models.NotificationPreference, error)
}

// Renderer produces the reminder email for one candidate.
type Renderer interface {
	Render(ctx context.Context, templateKey string, data renderer.ReminderData, attemptID uuid.UUID) (string, string, error)
	CheckTemplate(ctx context.Context, templateKey string) error
}

// Locker serialises runs across instances. A nil Locker disables locking
// (tests, single-instance deployments).
type Locker interface {
	AcquireRunLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseRunLock(ctx context.Context) error
}

// Service runs reminder batches.
type Service struct {
	repo     Repository
	renderer Renderer
	provider email.Provider
	policy   *policy.Policy
	locker   Locker
	cfg      config.Reminders
	emailCfg config.Email
	log      *slog.Logger
}

// New creates an orchestrator Service.
func New(repo Repository, rend Renderer, provider email.Provider, pol *policy.Policy,
	locker Locker, cfg config.Reminders, emailCfg config.Email, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		renderer: rend,
		provider: provider,
		policy:   pol,
		locker:   locker,
		cfg:      cfg,
		emailCfg: emailCfg,
		log:      log,
	}
}

// Run executes one orchestration pass for the given reference day and
// returns per-offset results. Re-running for the same day is safe: the
// attempt ledger guarantees at most one delivery per (vehicle, offset).
func (s *Service) Run(ctx context.Context, today time.Time) ([]models.OffsetResult, error) {
	const op = "orchestrator.Run"
	today = renewal.Truncate(today)

	if s.locker != nil {
		ok, err := s.locker.AcquireRunLock(ctx, s.cfg.RunLockTTL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, ErrRunInProgress
		}
		defer func() {
			if err := s.locker.ReleaseRunLock(ctx); err != nil {
				s.log.Error("failed to release run lock", sl.Err(err))
			}
		}()
	}

	s.log.Info("starting reminder run",
		slog.String("today", today.Format("2006-01-02")),
		slog.Any("offsets", s.cfg.Offsets))

	results := make([]models.OffsetResult, 0, len(s.cfg.Offsets))
	for _, offset := range s.cfg.Offsets {
		results = append(results, s.runOffset(ctx, today, offset))
	}
	return results, nil
}

// runOffset processes one offset batch. A data-read or template failure
// aborts only this offset; per-vehicle failures are isolated inside it.
func (s *Service) runOffset(ctx context.Context, today time.Time, offset int) models.OffsetResult {
	result := models.OffsetResult{Offset: offset, Errors: []string{}}
	log := s.log.With(slog.Int("offset", offset))
	label := strconv.Itoa(offset)

	if err := s.renderer.CheckTemplate(ctx, renderer.TemplateKey(offset)); err != nil {
		log.Error("offset batch aborted: template missing", sl.Err(err))
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	targetDate := today.AddDate(0, 0, offset)
	candidates, err := s.repo.ListCandidatesDueOn(ctx, targetDate)
	if err != nil {
		log.Error("offset batch aborted: candidate query failed", sl.Err(err))
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if len(candidates) == 0 {
		log.Info("no vehicles due", slog.String("target_date", targetDate.Format("2006-01-02")))
		return result
	}
	log.Info("found due vehicles", slog.Int("count", len(candidates)))

	concurrency := s.cfg.SendConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, candidate := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(c models.ReminderCandidate) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, err := s.processCandidate(ctx, today, c, offset, label)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSent:
				result.SentCount++
			case outcomeDeduped:
				result.DedupedCount++
			case outcomeSkipped:
				result.SkippedCount++
			case outcomeFailed:
				result.Errors = append(result.Errors, err.Error())
			}
		}(candidate)
	}
	wg.Wait()

	log.Info("offset batch finished",
		slog.Int("sent", result.SentCount),
		slog.Int("deduped", result.DedupedCount),
		slog.Int("skipped", result.SkippedCount),
		slog.Int("errors", len(result.Errors)))
	return result
}

type candidateOutcome int

const (
	outcomeSent candidateOutcome = iota
	outcomeDeduped
	outcomeSkipped
	outcomeFailed
)

// processCandidate takes one vehicle through policy, ledger, render and
// delivery. The ledger row is written only after confirmed delivery; its
// unique constraint is the final word on "already sent".
func (s *Service) processCandidate(ctx context.Context, today time.Time, c models.ReminderCandidate, offset int, label string) (candidateOutcome, error) {
	log := s.log.With(slog.Int("offset", offset), slog.Int("vehicle_id", c.Vehicle.ID))

	if c.Preference == nil {
		log.Warn("vehicle owner has no preference record, skipping",
			slog.String("user_uid", c.Vehicle.UserUID))
		metrics.RemindersFailed.WithLabelValues(label, "data").Inc()
		return outcomeSkipped, nil
	}

	if !s.policy.Allow(*c.Preference, offset) {
		// denial is not recorded: a later preference change can still
		// enable this offset
		return outcomeSkipped, nil
	}

	exists, err := s.repo.AttemptExists(ctx, c.Vehicle.ID, label)
	if err != nil {
		log.Error("ledger check failed", sl.Err(err))
		metrics.RemindersFailed.WithLabelValues(label, "ledger").Inc()
		return outcomeFailed, err
	}
	if exists {
		return outcomeDeduped, nil
	}

	attemptID := uuid.New()
	status := renewal.Calculate(c.Vehicle.RenewalDate, today)
	data := renderer.ReminderData{
		Name:             c.Preference.Name,
		Nickname:         c.Vehicle.Nickname,
		Plate:            c.Vehicle.Plate,
		RenewalDate:      c.Vehicle.RenewalDate,
		DaysRemaining:    status.DaysRemaining,
		CurrentAnnualFee: c.Vehicle.CurrentAnnualFee,
	}

	subject, body, err := s.renderer.Render(ctx, renderer.TemplateKey(offset), data, attemptID)
	if err != nil {
		log.Error("render failed", sl.Err(err))
		metrics.RemindersFailed.WithLabelValues(label, "render").Inc()
		return outcomeFailed, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.emailCfg.SendTimeout)
	defer cancel()
	messageID, err := s.provider.Send(sendCtx, email.Message{
		From:     s.emailCfg.From,
		FromName: s.emailCfg.FromName,
		To:       c.Preference.Email,
		ToName:   c.Preference.Name,
		Subject:  subject,
		HTML:     body,
	})
	if err != nil {
		// no ledger row: tomorrow's run may retry if still eligible
		log.Error("delivery failed", sl.Err(err))
		metrics.RemindersFailed.WithLabelValues(label, "delivery").Inc()
		return outcomeFailed, err
	}

	attempt := models.ReminderAttempt{
		ID:             attemptID,
		VehicleID:      c.Vehicle.ID,
		OffsetLabel:    label,
		SentAt:         time.Now().UTC(),
		RecipientName:  c.Preference.Name,
		RecipientEmail: c.Preference.Email,
		Plate:          c.Vehicle.Plate,
		Nickname:       c.Vehicle.Nickname,
	}
	if err := s.repo.CreateAttempt(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrDuplicateAttempt) {
			// lost a race with an overlapping run; the mail went out
			// twice but the ledger stays consistent
			log.Warn("attempt already recorded by a concurrent run")
			return outcomeDeduped, nil
		}
		log.Error("failed to record attempt after delivery", sl.Err(err),
			slog.String("message_id", messageID))
		metrics.RemindersFailed.WithLabelValues(label, "ledger").Inc()
		return outcomeFailed, err
	}

	metrics.RemindersSent.WithLabelValues(label).Inc()
	log.Info("reminder sent",
		slog.String("attempt_id", attemptID.String()),
		slog.String("message_id", messageID))
	return outcomeSent, nil
}

// SendTest delivers one reminder for one vehicle on demand, bypassing the
// policy and the dedup ledger. The subject is tagged so recipients and
// provider logs can tell test traffic apart.
func (s *Service) SendTest(ctx context.Context, vehicleID, offset int) (string, error) {
	const op = "orchestrator.SendTest"

	vehicle, err := s.repo.ReadVehicle(ctx, vehicleID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	pref, err := s.repo.GetPreference(ctx, vehicle.UserUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	attemptID := uuid.New()
	status := renewal.Calculate(vehicle.RenewalDate, time.Now())
	data := renderer.ReminderData{
		Name:             pref.Name,
		Nickname:         vehicle.Nickname,
		Plate:            vehicle.Plate,
		RenewalDate:      vehicle.RenewalDate,
		DaysRemaining:    status.DaysRemaining,
		CurrentAnnualFee: vehicle.CurrentAnnualFee,
	}

	subject, body, err := s.renderer.Render(ctx, renderer.TemplateKey(offset), data, attemptID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.emailCfg.SendTimeout)
	defer cancel()
	messageID, err := s.provider.Send(sendCtx, email.Message{
		From:     s.emailCfg.From,
		FromName: s.emailCfg.FromName,
		To:       pref.Email,
		ToName:   pref.Name,
		Subject:  "[TESZT] " + subject,
		HTML:     body,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("test reminder sent",
		slog.Int("vehicle_id", vehicleID),
		slog.Int("offset", offset),
		slog.String("message_id", messageID))
	return messageID, nil
}
