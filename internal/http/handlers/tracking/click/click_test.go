package click

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockChannel implements rabbitmq.Channel.
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

const fallback = "https://legolcsobbkotelezo.hu"

func TestClickHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	destination := "https://example.hu/ajanlat?plate=ABC123"

	tests := []struct {
		name             string
		url              string
		setupMock        func(*MockChannel)
		expectedLocation string
	}{
		{
			name: "valid click publishes and redirects to destination",
			url: "/track/click?id=" + uuid.NewString() +
				"&url=" + url.QueryEscape(destination),
			setupMock: func(m *MockChannel) {
				m.On("Publish", mock.Anything, mock.Anything, mock.Anything,
					mock.Anything, mock.Anything).Return(nil)
			},
			expectedLocation: destination,
		},
		{
			name: "invalid id still redirects",
			url:  "/track/click?id=bogus&url=" + url.QueryEscape(destination),
			setupMock: func(_ *MockChannel) {
			},
			expectedLocation: destination,
		},
		{
			name: "missing destination falls back",
			url:  "/track/click?id=" + uuid.NewString(),
			setupMock: func(m *MockChannel) {
				m.On("Publish", mock.Anything, mock.Anything, mock.Anything,
					mock.Anything, mock.Anything).Return(nil)
			},
			expectedLocation: fallback,
		},
		{
			name: "publish failure still redirects",
			url: "/track/click?id=" + uuid.NewString() +
				"&url=" + url.QueryEscape(destination),
			setupMock: func(m *MockChannel) {
				m.On("Publish", mock.Anything, mock.Anything, mock.Anything,
					mock.Anything, mock.Anything).Return(errors.New("broker down"))
			},
			expectedLocation: destination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockChannel := new(MockChannel)
			tt.setupMock(mockChannel)

			handler := New(logger, mockChannel, fallback)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.expectedLocation, w.Header().Get("Location"))
		})
	}
}
