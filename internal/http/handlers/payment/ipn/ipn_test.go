package ipn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-membership/internal/lib/signature"
	"github.com/magabrotheeeer/course-membership/internal/metrics"
	"github.com/magabrotheeeer/course-membership/internal/models"
	"github.com/magabrotheeeer/course-membership/internal/services/payment"
	"github.com/magabrotheeeer/course-membership/internal/storage/repository"
)

const testSecret = "ipn-test-secret"

type MockApplier struct {
	mock.Mock
}

func (m *MockApplier) Apply(ctx context.Context, userID int64, plan models.Plan) (payment.Result, error) {
	args := m.Called(ctx, userID, plan)
	return args.Get(0).(payment.Result), args.Error(1)
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *recordingMetrics) Observe(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(body string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/ipn", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func signed(body string) map[string]string {
	return map[string]string{DefaultSignatureHeader: signature.Sign(testSecret, []byte(body))}
}

func TestHandler_ServeHTTP(t *testing.T) {
	finished := `{"payment_id":5077125051,"payment_status":"finished","order_id":"1:smc","price_amount":119}`

	tests := []struct {
		name            string
		secret          string
		body            string
		headers         map[string]string
		setupMocks      func(*MockApplier)
		expectedStatus  int
		expectedOutcome string
	}{
		{
			name:            "finished payment is applied",
			secret:          testSecret,
			body:            finished,
			headers:         signed(finished),
			setupMocks:      func(a *MockApplier) { a.On("Apply", mock.Anything, int64(1), models.PlanSMC).Return(payment.Applied, nil).Once() },
			expectedStatus:  http.StatusOK,
			expectedOutcome: metrics.OutcomeApplied,
		},
		{
			name:            "repeated notification",
			secret:          testSecret,
			body:            finished,
			headers:         signed(finished),
			setupMocks:      func(a *MockApplier) { a.On("Apply", mock.Anything, int64(1), models.PlanSMC).Return(payment.AlreadyApplied, nil).Once() },
			expectedStatus:  http.StatusOK,
			expectedOutcome: metrics.OutcomeAlready,
		},
		{
			name:            "uppercase hex signature in fallback header",
			secret:          testSecret,
			body:            finished,
			headers:         map[string]string{FallbackSignatureHeader: strings.ToUpper(signature.Sign(testSecret, []byte(finished)))},
			setupMocks:      func(a *MockApplier) { a.On("Apply", mock.Anything, int64(1), models.PlanSMC).Return(payment.Applied, nil).Once() },
			expectedStatus:  http.StatusOK,
			expectedOutcome: metrics.OutcomeApplied,
		},
		{
			name:            "pending payment is ignored",
			secret:          testSecret,
			body:            `{"payment_status":"waiting","order_id":"1:smc"}`,
			headers:         signed(`{"payment_status":"waiting","order_id":"1:smc"}`),
			setupMocks:      func(*MockApplier) {},
			expectedStatus:  http.StatusOK,
			expectedOutcome: metrics.OutcomeIgnored,
		},
		{
			name:            "finished without order_id is ignored",
			secret:          testSecret,
			body:            `{"payment_status":"finished"}`,
			headers:         signed(`{"payment_status":"finished"}`),
			setupMocks:      func(*MockApplier) {},
			expectedStatus:  http.StatusOK,
			expectedOutcome: metrics.OutcomeIgnored,
		},
		{
			name:            "signed body that is not json is ignored",
			secret:          testSecret,
			body:            `payment_status=finished`,
			headers:         signed(`payment_status=finished`),
			setupMocks:      func(*MockApplier) {},
			expectedStatus:  http.StatusOK,
			expectedOutcome: metrics.OutcomeIgnored,
		},
		{
			name:            "missing signature",
			secret:          testSecret,
			body:            finished,
			setupMocks:      func(*MockApplier) {},
			expectedStatus:  http.StatusBadRequest,
			expectedOutcome: metrics.OutcomeRejected,
		},
		{
			name:            "secret not configured",
			secret:          "",
			body:            finished,
			headers:         signed(finished),
			setupMocks:      func(*MockApplier) {},
			expectedStatus:  http.StatusBadRequest,
			expectedOutcome: metrics.OutcomeRejected,
		},
		{
			name:            "signature of another body",
			secret:          testSecret,
			body:            finished,
			headers:         signed(`{"payment_status":"finished","order_id":"2:wave_smc"}`),
			setupMocks:      func(*MockApplier) {},
			expectedStatus:  http.StatusBadRequest,
			expectedOutcome: metrics.OutcomeRejected,
		},
		{
			name:            "malformed order_id",
			secret:          testSecret,
			body:            `{"payment_status":"finished","order_id":"abc:smc"}`,
			headers:         signed(`{"payment_status":"finished","order_id":"abc:smc"}`),
			setupMocks:      func(*MockApplier) {},
			expectedStatus:  http.StatusBadRequest,
			expectedOutcome: metrics.OutcomeRejected,
		},
		{
			name:            "unknown plan in order_id",
			secret:          testSecret,
			body:            `{"payment_status":"finished","order_id":"1:gold"}`,
			headers:         signed(`{"payment_status":"finished","order_id":"1:gold"}`),
			setupMocks:      func(*MockApplier) {},
			expectedStatus:  http.StatusBadRequest,
			expectedOutcome: metrics.OutcomeRejected,
		},
		{
			name:            "unknown user",
			secret:          testSecret,
			body:            finished,
			headers:         signed(finished),
			setupMocks:      func(a *MockApplier) { a.On("Apply", mock.Anything, int64(1), models.PlanSMC).Return(payment.Result(0), payment.ErrSubjectNotFound).Once() },
			expectedStatus:  http.StatusBadRequest,
			expectedOutcome: metrics.OutcomeNotFound,
		},
		{
			name:            "store unavailable",
			secret:          testSecret,
			body:            finished,
			headers:         signed(finished),
			setupMocks:      func(a *MockApplier) { a.On("Apply", mock.Anything, int64(1), models.PlanSMC).Return(payment.Result(0), payment.ErrPersistence).Once() },
			expectedStatus:  http.StatusInternalServerError,
			expectedOutcome: metrics.OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applier := new(MockApplier)
			tt.setupMocks(applier)
			m := &recordingMetrics{}
			h := New(newNoopLogger(), applier, m, tt.secret, "")

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, newRequest(tt.body, tt.headers))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Empty(t, rec.Body.String())
			assert.Equal(t, []string{tt.expectedOutcome}, m.outcomes)
			applier.AssertExpectations(t)
		})
	}
}

func TestHandler_BodyTooLarge(t *testing.T) {
	applier := new(MockApplier)
	body := `{"payment_status":"finished","order_id":"1:smc","pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	h := New(newNoopLogger(), applier, nil, testSecret, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newRequest(body, signed(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	applier.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_CustomHeader(t *testing.T) {
	body := `{"payment_status":"finished","order_id":"9:wave_smc"}`
	applier := new(MockApplier)
	applier.On("Apply", mock.Anything, int64(9), models.PlanWaveSMC).Return(payment.Applied, nil).Once()
	h := New(newNoopLogger(), applier, nil, testSecret, "x-signature")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newRequest(body, map[string]string{"x-signature": signature.Sign(testSecret, []byte(body))}))

	assert.Equal(t, http.StatusOK, rec.Code)
	applier.AssertExpectations(t)
}

// userStore хранит пользователей в памяти и обновляет их условно, как PostgreSQL.
type userStore struct {
	mu    sync.Mutex
	users map[int64]*models.User
	err   error
}

func (s *userStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("storage.GetUser: %w", repository.ErrUserNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) MarkPaid(_ context.Context, id int64, plan models.Plan) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	u, ok := s.users[id]
	if !ok || u.Paid {
		return false, nil
	}
	p := plan
	u.Paid, u.Plan = true, &p
	return true, nil
}

func TestHandler_EndToEnd(t *testing.T) {
	send := func(t *testing.T, store *userStore, body string, headers map[string]string) int {
		t.Helper()
		h := New(newNoopLogger(), payment.NewApplier(store, nil, newNoopLogger()), nil, testSecret, "")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(body, headers))
		return rec.Code
	}

	t.Run("pending leaves user unpaid", func(t *testing.T) {
		store := &userStore{users: map[int64]*models.User{1: {ID: 1}}}
		body := `{"payment_status":"waiting","order_id":"1:smc"}`

		assert.Equal(t, http.StatusOK, send(t, store, body, signed(body)))
		assert.False(t, store.users[1].Paid)
	})

	t.Run("finished marks user paid once", func(t *testing.T) {
		store := &userStore{users: map[int64]*models.User{1: {ID: 1}}}
		body := `{"payment_status":"finished","order_id":"1:smc"}`

		assert.Equal(t, http.StatusOK, send(t, store, body, signed(body)))
		require.True(t, store.users[1].Paid)
		assert.Equal(t, models.PlanSMC, *store.users[1].Plan)

		other := `{"payment_status":"finished","order_id":"1:wave_smc"}`
		assert.Equal(t, http.StatusOK, send(t, store, other, signed(other)))
		assert.Equal(t, models.PlanSMC, *store.users[1].Plan)
	})

	t.Run("unsigned finished notification changes nothing", func(t *testing.T) {
		store := &userStore{users: map[int64]*models.User{1: {ID: 1}}}
		body := `{"payment_status":"finished","order_id":"1:smc"}`

		assert.Equal(t, http.StatusBadRequest, send(t, store, body, nil))
		assert.False(t, store.users[1].Paid)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := &userStore{users: map[int64]*models.User{}}
		body := `{"payment_status":"finished","order_id":"1:smc"}`

		assert.Equal(t, http.StatusBadRequest, send(t, store, body, signed(body)))
	})

	t.Run("store down", func(t *testing.T) {
		store := &userStore{err: errors.New("connection refused")}
		body := `{"payment_status":"finished","order_id":"1:smc"}`

		assert.Equal(t, http.StatusInternalServerError, send(t, store, body, signed(body)))
	})

	t.Run("concurrent notifications apply once", func(t *testing.T) {
		store := &userStore{users: map[int64]*models.User{1: {ID: 1}}}
		body := `{"payment_status":"finished","order_id":"1:wave_smc"}`
		m := &recordingMetrics{}
		h := New(newNoopLogger(), payment.NewApplier(store, nil, newNoopLogger()), m, testSecret, "")

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.ServeHTTP(httptest.NewRecorder(), newRequest(body, signed(body)))
			}()
		}
		wg.Wait()

		applied := 0
		for _, o := range m.outcomes {
			if o == metrics.OutcomeApplied {
				applied++
			}
		}
		assert.Equal(t, 1, applied)
		assert.Len(t, m.outcomes, 20)
	})
}
