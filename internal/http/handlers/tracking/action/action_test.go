package action

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
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

const confirmURL = "https://legolcsobbkotelezo.hu/koszonjuk"

func TestActionHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name          string
		url           string
		expectPublish bool
	}{
		{
			name:          "callback request publishes and redirects",
			url:           "/track/action?id=" + uuid.NewString() + "&action=callback",
			expectPublish: true,
		},
		{
			name:          "offer request publishes and redirects",
			url:           "/track/action?id=" + uuid.NewString() + "&action=offer",
			expectPublish: true,
		},
		{
			name:          "unknown action still redirects",
			url:           "/track/action?id=" + uuid.NewString() + "&action=unsubscribe",
			expectPublish: false,
		},
		{
			name:          "invalid id still redirects",
			url:           "/track/action?id=bogus&action=callback",
			expectPublish: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockChannel := new(MockChannel)
			if tt.expectPublish {
				mockChannel.On("Publish", mock.Anything, mock.Anything, mock.Anything,
					mock.Anything, mock.Anything).Return(nil)
			}

			handler := New(logger, mockChannel, confirmURL)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, confirmURL, w.Header().Get("Location"))

			if tt.expectPublish {
				mockChannel.AssertExpectations(t)
			} else {
				mockChannel.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything,
					mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
