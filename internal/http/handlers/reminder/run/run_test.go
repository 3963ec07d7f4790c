package run

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/orchestrator"
)

// MockService implements run.Service.
type MockService struct {
	mock.Mock
}

func (m *MockService) Run(ctx context.Context, today time.Time) ([]models.OffsetResult, error) {
	args := m.Called(ctx, today)
	if res := args.Get(0); res != nil {
		return res.([]models.OffsetResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRunHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "successful run returns per-offset results",
			setupMock: func(m *MockService) {
				results := []models.OffsetResult{
					{Offset: 50, SentCount: 3, Errors: []string{}},
					{Offset: 30, SentCount: 0, Errors: []string{}},
					{Offset: 7, SentCount: 1, Errors: []string{}},
				}
				m.On("Run", mock.Anything, mock.Anything).Return(results, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"sentCount":3`,
		},
		{
			name: "run already in progress",
			setupMock: func(m *MockService) {
				m.On("Run", mock.Anything, mock.Anything).
					Return(nil, orchestrator.ErrRunInProgress)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"a reminder run is already in progress"`,
		},
		{
			name: "run failed",
			setupMock: func(m *MockService) {
				m.On("Run", mock.Anything, mock.Anything).
					Return(nil, errors.New("lock backend down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not run reminders"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/run-reminders", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
