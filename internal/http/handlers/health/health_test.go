package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		db             Pinger
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no database",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"status":"ok"}}`,
		},
		{
			name:           "database up",
			db:             pingerFunc(func(context.Context) error { return nil }),
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"status":"ok"}}`,
		},
		{
			name:           "database down",
			db:             pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"status":"Error","error":"database unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(logger, tt.db).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.JSONEq(t, tt.expectedBody, rec.Body.String())
		})
	}
}
