package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-membership/internal/news"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Feed(ctx context.Context) ([]news.Article, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]news.Article), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestFeedHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	published := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "articles returned",
			setupMock: func(m *MockService) {
				m.On("Feed", mock.Anything).Return([]news.Article{{
					Source:      news.Source{Name: "Reuters"},
					Title:       "Dollar steadies",
					URL:         "https://example.com/a",
					PublishedAt: published,
				}}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"status":"OK","data":{"articles":[{"source":{"id":"","name":"Reuters"},"author":"","title":"Dollar steadies",` +
				`"description":"","url":"https://example.com/a","urlToImage":"","publishedAt":"2025-03-01T09:30:00Z"}]}}`,
		},
		{
			name: "empty feed",
			setupMock: func(m *MockService) {
				m.On("Feed", mock.Anything).Return(nil, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"articles":[]}}`,
		},
		{
			name: "upstream failure",
			setupMock: func(m *MockService) {
				m.On("Feed", mock.Anything).Return(nil, news.ErrNotConfigured).Once()
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"status":"Error","error":"unable to load forex news at this time"}`,
		},
		{
			name: "network error",
			setupMock: func(m *MockService) {
				m.On("Feed", mock.Anything).Return(nil, errors.New("timeout")).Once()
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"status":"Error","error":"unable to load forex news at this time"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/news", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
