package tracking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) MarkOpened(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) MarkLinkClicked(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) MarkCallbackRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) MarkOfferRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestApply(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name      string
		kind      string
		setupMock func(*MockAttemptRepository)
		wantErr   bool
	}{
		{
			name: "open resolves",
			kind: models.TrackingOpen,
			setupMock: func(m *MockAttemptRepository) {
				m.On("MarkOpened", mock.Anything, id).Return(true, nil).Once()
			},
		},
		{
			name: "click resolves",
			kind: models.TrackingClick,
			setupMock: func(m *MockAttemptRepository) {
				m.On("MarkLinkClicked", mock.Anything, id).Return(true, nil).Once()
			},
		},
		{
			name: "callback resolves",
			kind: models.TrackingCallback,
			setupMock: func(m *MockAttemptRepository) {
				m.On("MarkCallbackRequested", mock.Anything, id).Return(true, nil).Once()
			},
		},
		{
			name: "offer resolves",
			kind: models.TrackingOffer,
			setupMock: func(m *MockAttemptRepository) {
				m.On("MarkOfferRequested", mock.Anything, id).Return(true, nil).Once()
			},
		},
		{
			name: "unknown id is absorbed",
			kind: models.TrackingOpen,
			setupMock: func(m *MockAttemptRepository) {
				m.On("MarkOpened", mock.Anything, id).Return(false, nil).Once()
			},
		},
		{
			name:      "unknown kind is absorbed",
			kind:      "forwarded",
			setupMock: func(_ *MockAttemptRepository) {},
		},
		{
			name: "repository error propagates for retry",
			kind: models.TrackingOpen,
			setupMock: func(m *MockAttemptRepository) {
				m.On("MarkOpened", mock.Anything, id).Return(false, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAttemptRepository)
			tt.setupMock(repo)
			svc := New(repo, newNoopLogger())

			err := svc.Apply(context.Background(), models.TrackingEvent{AttemptID: id, Kind: tt.kind})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestApply_RepeatedOpenIsIdempotent(t *testing.T) {
	id := uuid.New()
	repo := new(MockAttemptRepository)
	repo.On("MarkOpened", mock.Anything, id).Return(true, nil).Twice()
	svc := New(repo, newNoopLogger())

	event := models.TrackingEvent{AttemptID: id, Kind: models.TrackingOpen}
	assert.NoError(t, svc.Apply(context.Background(), event))
	assert.NoError(t, svc.Apply(context.Background(), event))
	repo.AssertExpectations(t)
}

func TestHandleMessage_MalformedBodyIsDropped(t *testing.T) {
	repo := new(MockAttemptRepository)
	svc := New(repo, newNoopLogger())

	assert.NoError(t, svc.HandleMessage([]byte("not json")))
	repo.AssertExpectations(t)
}
