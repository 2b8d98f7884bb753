package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	services "github.com/magabrotheeeer/course-membership/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		setupMocks     func(*AuthServiceMock)
		wantStatusCode int
		wantBody       string
	}{
		{
			name:        "successful login",
			requestBody: Request{Username: "student@gmail.com", Password: "password123"},
			setupMocks: func(m *AuthServiceMock) {
				m.On("Login", mock.Anything, "student@gmail.com", "password123").Return("signed.token", nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `{"status":"OK","data":{"token":"signed.token"}}`,
		},
		{
			name:           "invalid json",
			requestBody:    "{",
			setupMocks:     func(*AuthServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "missing password",
			requestBody:    Request{Username: "student@gmail.com"},
			setupMocks:     func(*AuthServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantBody:       `{"status":"Error","error":"field Password is a required field"}`,
		},
		{
			name:        "invalid credentials",
			requestBody: Request{Username: "student@gmail.com", Password: "wrong"},
			setupMocks: func(m *AuthServiceMock) {
				m.On("Login", mock.Anything, "student@gmail.com", "wrong").
					Return("", fmt.Errorf("services.auth.Login: %w", services.ErrInvalidCredentials)).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"status":"Error","error":"invalid username or password"}`,
		},
		{
			name:        "service failure",
			requestBody: Request{Username: "student@gmail.com", Password: "password123"},
			setupMocks: func(m *AuthServiceMock) {
				m.On("Login", mock.Anything, "student@gmail.com", "password123").Return("", errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"status":"Error","error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			tt.setupMocks(svc)
			handler := New(newNoopLogger(), svc)

			var body []byte
			if s, ok := tt.requestBody.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.requestBody)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body)))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
