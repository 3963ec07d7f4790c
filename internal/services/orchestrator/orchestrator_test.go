package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/email"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/policy"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/renderer"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListCandidatesDueOn(ctx context.Context, targetDate time.Time) ([]models.ReminderCandidate, error) {
	args := m.Called(ctx, targetDate)
	return args.Get(0).([]models.ReminderCandidate), args.Error(1)
}

func (m *MockRepository) AttemptExists(ctx context.Context, vehicleID int, offsetLabel string) (bool, error) {
	args := m.Called(ctx, vehicleID, offsetLabel)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CreateAttempt(ctx context.Context, attempt models.ReminderAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockRepository) ReadVehicle(ctx context.Context, id int) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockRepository) GetPreference(ctx context.Context, userUID string) (*models.NotificationPreference, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationPreference), args.Error(1)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, templateKey string, data renderer.ReminderData, attemptID uuid.UUID) (string, string, error) {
	args := m.Called(ctx, templateKey, data, attemptID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockRenderer) CheckTemplate(ctx context.Context, templateKey string) error {
	args := m.Called(ctx, templateKey)
	return args.Error(0)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Send(ctx context.Context, msg email.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireRunLock(ctx context.Context, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) ReleaseRunLock(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testConfig(offsets []int) (config.Reminders, config.Email) {
	return config.Reminders{
			Offsets:         offsets,
			SavingsRate:     0.18,
			BaseURL:         "https://legolcsobbkotelezo.hu",
			RunLockTTL:      10 * time.Minute,
			SendConcurrency: 2,
		}, config.Email{
			From:        "ertesito@legolcsobbkotelezo.hu",
			FromName:    "Legolcsóbb Kötelező",
			SendTimeout: time.Second,
		}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCandidate(vehicleID int, renewalDate time.Time) models.ReminderCandidate {
	fee := 68900
	return models.ReminderCandidate{
		Vehicle: models.Vehicle{
			ID:               vehicleID,
			UserUID:          "user-1",
			Plate:            "ABC123",
			Nickname:         "Suzuki",
			RenewalDate:      renewalDate,
			CurrentAnnualFee: &fee,
		},
		Preference: &models.NotificationPreference{
			UserUID:               "user-1",
			Email:                 "kiss.janos@example.hu",
			Name:                  "Kiss János",
			EmailRemindersEnabled: true,
			ReminderOffsets:       []int{50, 30, 7},
		},
	}
}

func TestRun_SendsOneReminderAtMatchingOffset(t *testing.T) {
	today := time.Date(2026, 3, 1, 13, 45, 0, 0, time.UTC)
	midnight := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	renewalDate := midnight.AddDate(0, 0, 50)

	repo := new(MockRepository)
	rend := new(MockRenderer)
	provider := new(MockProvider)
	cfg, emailCfg := testConfig([]int{50, 30, 7})

	rend.On("CheckTemplate", mock.Anything, mock.Anything).Return(nil)
	repo.On("ListCandidatesDueOn", mock.Anything, renewalDate).
		Return([]models.ReminderCandidate{testCandidate(1, renewalDate)}, nil)
	repo.On("ListCandidatesDueOn", mock.Anything, midnight.AddDate(0, 0, 30)).
		Return([]models.ReminderCandidate{}, nil)
	repo.On("ListCandidatesDueOn", mock.Anything, midnight.AddDate(0, 0, 7)).
		Return([]models.ReminderCandidate{}, nil)
	repo.On("AttemptExists", mock.Anything, 1, "50").Return(false, nil)
	rend.On("Render", mock.Anything, "reminder_50", mock.Anything, mock.Anything).
		Return("tárgy", "<html>törzs</html>", nil)
	provider.On("Send", mock.Anything, mock.Anything).Return("msg-1", nil)
	repo.On("CreateAttempt", mock.Anything, mock.MatchedBy(func(a models.ReminderAttempt) bool {
		return a.VehicleID == 1 && a.OffsetLabel == "50" &&
			a.RecipientEmail == "kiss.janos@example.hu"
	})).Return(nil)

	svc := New(repo, rend, provider, policy.New(cfg.Offsets), nil, cfg, emailCfg, testLogger())
	results, err := svc.Run(context.Background(), today)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 50, results[0].Offset)
	assert.Equal(t, 1, results[0].SentCount)
	assert.Empty(t, results[0].Errors)
	assert.Equal(t, 0, results[1].SentCount)
	assert.Equal(t, 0, results[2].SentCount)
	repo.AssertExpectations(t)
	rend.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	midnight := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	renewalDate := midnight.AddDate(0, 0, 50)

	repo := new(MockRepository)
	rend := new(MockRenderer)
	provider := new(MockProvider)
	cfg, emailCfg := testConfig([]int{50})

	rend.On("CheckTemplate", mock.Anything, "reminder_50").Return(nil)
	repo.On("ListCandidatesDueOn", mock.Anything, renewalDate).
		Return([]models.ReminderCandidate{testCandidate(1, renewalDate)}, nil)
	repo.On("AttemptExists", mock.Anything, 1, "50").Return(true, nil)

	svc := New(repo, rend, provider, policy.New(cfg.Offsets), nil, cfg, emailCfg, testLogger())
	results, err := svc.Run(context.Background(), midnight)

	require.NoError(t, err)
	assert.Equal(t, 0, results[0].SentCount)
	assert.Equal(t, 1, results[0].DedupedCount)
	provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CreateAttempt", mock.Anything, mock.Anything)
}

func TestRun_DisabledPreferenceIsSkippedSilently(t *testing.T) {
	midnight := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	renewalDate := midnight.AddDate(0, 0, 50)

	candidate := testCandidate(1, renewalDate)
	candidate.Preference.EmailRemindersEnabled = false

	repo := new(MockRepository)
	rend := new(MockRenderer)
	provider := new(MockProvider)
	cfg, emailCfg := testConfig([]int{50})

	rend.On("CheckTemplate", mock.Anything, "reminder_50").Return(nil)
	repo.On("ListCandidatesDueOn", mock.Anything, renewalDate).
		Return([]models.ReminderCandidate{candidate}, nil)

	svc := New(repo, rend, provider, policy.New(cfg.Offsets), nil, cfg, emailCfg, testLogger())
	results, err := svc.Run(context.Background(), midnight)

	require.NoError(t, err)
	assert.Equal(t, 0, results[0].SentCount)
	assert.Equal(t, 1, results[0].SkippedCount)
	assert.Empty(t, results[0].Errors)
	repo.AssertNotCalled(t, "AttemptExists", mock.Anything, mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRun_MissingPreferenceIsSkipped(t *testing.T) {
	midnight := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	renewalDate := midnight.AddDate(0, 0, 50)

	candidate := testCandidate(1, renewalDate)
	candidate.Preference = nil

	repo := new(MockRepository)
	rend := new(MockRenderer)
	provider := new(MockProvider)
	cfg, emailCfg := testConfig([]int{50})

	rend.On("CheckTemplate", mock.Anything, "reminder_50").Return(nil)
	repo.On("ListCandidatesDueOn", mock.Anything, renewalDate).
		Return([]models.ReminderCandidate{candidate}, nil)

	svc := New(repo, rend, provider, policy.New(cfg.Offsets), nil, cfg, emailCfg, testLogger())
	results, err := svc.Run(context.Background(), midnight)

	require.NoError(t, err)
	assert.Equal(t, 1, results[0].SkippedCount)
	provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRun_DeliveryFailureDoesNotStopOthers(t *testing.T) {
	midnight := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	renewalDate := midnight.AddDate(0, 0, 50)

	good := testCandidate(1, renewalDate)
	bad := testCandidate(2, renewalDate)
	bad.Preference = &models.NotificationPreference{
		UserUID:               "user-2",
		Email:                 "bounce@example.hu",
		Name:                  "Nagy Éva",
		EmailRemindersEnabled: true,
	}

	repo := new(MockRepository)
	rend := new(MockRenderer)
	provider := new(MockProvider)
	cfg, emailCfg := testConfig([]int{50})

	rend.On("CheckTemplate", mock.Anything, "reminder_50").Return(nil)
	repo.On("ListCandidatesDueOn", mock.Anything, renewalDate).
		Return([]models.ReminderCandidate{good, bad}, nil)
	repo.On("AttemptExists", mock.Anything, mock.Anything, "50").Return(false, nil)
	rend.On("Render", mock.Anything, "reminder_50", mock.Anything, mock.Anything).
		Return("tárgy", "törzs", nil)
	provider.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.To == "kiss.janos@example.hu"
	})).Return("msg-1", nil)
	provider.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.To == "bounce@example.hu"
	})).Return("", errors.New("550 mailbox unavailable"))
	repo.On("CreateAttempt", mock.Anything, mock.MatchedBy(func(a models.ReminderAttempt) bool {
		return a.VehicleID == 1
	})).Return(nil)

	svc := New(repo, rend, provider, policy.New(cfg.Offsets), nil, cfg, emailCfg, testLogger())
	results, err := svc.Run(context.Background(), midnight)

	require.NoError(t, err)
	assert.Equal(t, 1, results[0].SentCount)
	require.Len(t, results[0].Errors, 1)
	assert.Contains(t, results[0].Errors[0], "550")
	// the failed vehicle left no ledger row, so a later run can retry it
	repo.AssertNotCalled(t, "CreateAttempt", mock.Anything, mock.MatchedBy(func(a models.ReminderAttempt) bool {
		return a.VehicleID == 2
	}))
}

func TestRun_OffsetQueryFailureIsIsolated(t *testing.T) {
	midnight := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	repo := new(MockRepository)
	rend := new(MockRenderer)
	provider := new(MockProvider)
	cfg, emailCfg := testConfig([]int{50, 7})

	rend.On("CheckTemplate", mock.Anything, mock.Anything).Return(nil)
	repo.On("ListCandidatesDueOn", mock.Anything, midnight.AddDate(0, 0, 50)).
		Return([]models.ReminderCandidate(nil), errors.New("connection reset"))
	repo.On("ListCandidatesDueOn", mock.Anything, midnight.AddDate(0, 0, 7)).
		Return([]models.ReminderCandidate{}, nil)

	svc := New(repo, rend, provider, policy.New(cfg.Offsets), nil, cfg, emailCfg, testLogger())
	results, err := svc.Run(context.Background(), midnight)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, results[0].Errors, 1)
	assert.Empty(t, results[1].Errors)
}

func TestRun_MissingTemplateAbortsOffset(t *testing.T) {
	midnight := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	repo := new(MockRepository)
	rend := new(MockRenderer)
	provider := new(MockProvider)
	cfg, emailCfg := testConfig([]int{50})

	rend.On("CheckTemplate", mock.Anything, "reminder_50").
		Return(renderer.ErrTemplateNotFound)

	svc := New(repo, rend, provider, policy.New(cfg.Offsets), nil, cfg, emailCfg, testLogger())
	results, err := svc.Run(context.Background(), midnight)

	require.NoError(t, err)
	assert.Equal(t, 0, results[0].SentCount)
	require.Len(t, results[0].Errors, 1)
	repo.AssertNotCalled(t, "ListCandidatesDueOn", mock.Anything, mock.Anything)
}

func TestRun_LockHeldReturnsErrRunInProgress(t *testing.T) {
	repo := new(MockRepository)
	rend := new(MockRenderer)
	provider := new(MockProvider)
	locker := new(MockLocker)
	cfg, emailCfg := testConfig([]int{50})

	locker.On("AcquireRunLock", mock.Anything, cfg.RunLockTTL).Return(false, nil)

	svc := New(repo, rend, provider, policy.New(cfg.Offsets), locker, cfg, emailCfg, testLogger())
	_, err := svc.Run(context.Background(), time.Now())

	require.ErrorIs(t, err, ErrRunInProgress)
	locker.AssertNotCalled(t, "ReleaseRunLock", mock.Anything)
	repo.AssertNotCalled(t, "ListCandidatesDueOn", mock.Anything, mock.Anything)
}

func TestRun_DuplicateInsertCountsAsDeduped(t *testing.T) {
	midnight := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	renewalDate := midnight.AddDate(0, 0, 50)

	repo := new(MockRepository)
	rend := new(MockRenderer)
	provider := new(MockProvider)
	cfg, emailCfg := testConfig([]int{50})

	rend.On("CheckTemplate", mock.Anything, "reminder_50").Return(nil)
	repo.On("ListCandidatesDueOn", mock.Anything, renewalDate).
		Return([]models.ReminderCandidate{testCandidate(1, renewalDate)}, nil)
	repo.On("AttemptExists", mock.Anything, 1, "50").Return(false, nil)
	rend.On("Render", mock.Anything, "reminder_50", mock.Anything, mock.Anything).
		Return("tárgy", "törzs", nil)
	provider.On("Send", mock.Anything, mock.Anything).Return("msg-1", nil)
	repo.On("CreateAttempt", mock.Anything, mock.Anything).
		Return(repository.ErrDuplicateAttempt)

	svc := New(repo, rend, provider, policy.New(cfg.Offsets), nil, cfg, emailCfg, testLogger())
	results, err := svc.Run(context.Background(), midnight)

	require.NoError(t, err)
	assert.Equal(t, 0, results[0].SentCount)
	assert.Equal(t, 1, results[0].DedupedCount)
	assert.Empty(t, results[0].Errors)
}

func TestSendTest_LeavesNoLedgerRow(t *testing.T) {
	fee := 68900
	vehicle := &models.Vehicle{
		ID:               7,
		UserUID:          "user-1",
		Plate:            "ABC123",
		Nickname:         "Suzuki",
		RenewalDate:      time.Now().AddDate(0, 0, 40),
		CurrentAnnualFee: &fee,
	}
	pref := &models.NotificationPreference{
		UserUID: "user-1",
		Email:   "kiss.janos@example.hu",
		Name:    "Kiss János",
	}

	repo := new(MockRepository)
	rend := new(MockRenderer)
	provider := new(MockProvider)
	cfg, emailCfg := testConfig([]int{50, 30, 7})

	repo.On("ReadVehicle", mock.Anything, 7).Return(vehicle, nil)
	repo.On("GetPreference", mock.Anything, "user-1").Return(pref, nil)
	rend.On("Render", mock.Anything, "reminder_30", mock.Anything, mock.Anything).
		Return("tárgy", "törzs", nil)
	provider.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.Subject == "[TESZT] tárgy" && m.To == "kiss.janos@example.hu"
	})).Return("msg-test", nil)

	svc := New(repo, rend, provider, policy.New(cfg.Offsets), nil, cfg, emailCfg, testLogger())
	messageID, err := svc.SendTest(context.Background(), 7, 30)

	require.NoError(t, err)
	assert.Equal(t, "msg-test", messageID)
	repo.AssertNotCalled(t, "CreateAttempt", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "AttemptExists", mock.Anything, mock.Anything, mock.Anything)
}
