package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/compound-health-monitor/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAlertService struct{ mock.Mock }

func (m *mockAlertService) Dispatch(ctx context.Context, u *domain.User, healthFactor, volatility float64) error {
	return m.Called(ctx, u, healthFactor, volatility).Error(0)
}

func (m *mockAlertService) Send(ctx context.Context, req domain.SendRequest) (map[string]interface{}, error) {
	args := m.Called(ctx, req)
	data, _ := args.Get(0).(map[string]interface{})
	return data, args.Error(1)
}

func notifyRouter(svc *mockAlertService) http.Handler {
	h := NewNotifyHandler(svc)
	r := chi.NewRouter()
	r.Get("/api/notify/health", h.Health)
	r.Post("/api/notify", h.Send)
	r.Post("/api/notify/test", h.SendTest)
	return r
}

func TestNotifyHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/notify/health", nil)
	rec := httptest.NewRecorder()
	notifyRouter(&mockAlertService{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UP", body["status"])
	assert.Equal(t, "notification", body["service"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestNotifySend_OK(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("Send", mock.Anything, mock.Anything).
		Return(map[string]interface{}{"trackingId": "t1"}, nil)

	body := `{"type":"alert","to":{"email":"a@b.co"},"parameters":{"message":"hi"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/notify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	notifyRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env SendEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Timestamp)
}

func TestNotifySend_MissingRecipientIs400(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("Send", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("email or phone number is required: %w", domain.ErrBadRequest))

	req := httptest.NewRequest(http.MethodPost, "/api/notify", strings.NewReader(`{"type":"alert"}`))
	rec := httptest.NewRecorder()
	notifyRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env SendEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestNotifySend_ProviderErrorIs500(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("Send", mock.Anything, mock.Anything).Return(nil, errors.New("provider down"))

	body := `{"to":{"email":"a@b.co"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/notify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	notifyRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNotifySendTest_UsesCannedPayload(t *testing.T) {
	svc := &mockAlertService{}
	var sent domain.SendRequest
	svc.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(domain.SendRequest) }).
		Return(map[string]interface{}{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/notify/test", nil)
	rec := httptest.NewRecorder()
	notifyRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alert", sent.Type)
	assert.Equal(t, "+15005550006", sent.To.Number)
	assert.NotEmpty(t, sent.Parameters["message"])
}
