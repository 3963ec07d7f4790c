package status

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/renewal"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/vehicle"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/repository"
)

// MockService implements status.Service.
type MockService struct {
	mock.Mock
}

func (m *MockService) Status(ctx context.Context, id int, today time.Time) (*vehicle.StatusView, error) {
	args := m.Called(ctx, id, today)
	if res := args.Get(0); res != nil {
		return res.(*vehicle.StatusView), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStatusHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "switching period vehicle",
			url:  "/vehicles/5/status",
			setupMock: func(m *MockService) {
				view := &vehicle.StatusView{
					Vehicle: models.Vehicle{
						ID:          5,
						Plate:       "ABC123",
						RenewalDate: time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC),
					},
					DaysRemaining: 12,
					State:         renewal.StateSwitchingPeriod,
					Label:         "Váltási időszak",
					Progress:      80,
					CanSwitch:     true,
					NextRenewalIn: 12,
				}
				m.On("Status", mock.Anything, 5, mock.Anything).Return(view, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"label":"Váltási időszak"`,
		},
		{
			name:           "invalid id in url",
			url:            "/vehicles/abc/status",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"failed to decode id from url"`,
		},
		{
			name: "unknown vehicle",
			url:  "/vehicles/999/status",
			setupMock: func(m *MockService) {
				m.On("Status", mock.Anything, 999, mock.Anything).
					Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"vehicle not found"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rctx := chi.NewRouteContext()
			id := strings.TrimSuffix(strings.TrimPrefix(tt.url, "/vehicles/"), "/status")
			rctx.URLParams.Add("id", id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
