package handler

import (
	"context"
	"encoding/json"
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

type mockSettingsService struct{ mock.Mock }

func (m *mockSettingsService) Save(ctx context.Context, req domain.SaveSettingsRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockSettingsService) History(ctx context.Context, address string) ([]domain.NotificationRecord, error) {
	args := m.Called(ctx, address)
	records, _ := args.Get(0).([]domain.NotificationRecord)
	return records, args.Error(1)
}

func settingsRouter(svc *mockSettingsService) http.Handler {
	h := NewSettingsHandler(svc)
	r := chi.NewRouter()
	r.Post("/save-settings", h.Save)
	r.Get("/notifications/{address}", h.History)
	return r
}

func TestSave_OKWithEmptyBody(t *testing.T) {
	svc := &mockSettingsService{}
	svc.On("Save", mock.Anything, mock.Anything).Return(&domain.User{}, nil)

	body := `{"address":"0x6B175474E89094C44Da98b954EedeAC495271d0F","threshold":1.5,"email":"a@b.co"}`
	req := httptest.NewRequest(http.MethodPost, "/save-settings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	settingsRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestSave_MalformedJSON(t *testing.T) {
	svc := &mockSettingsService{}
	req := httptest.NewRequest(http.MethodPost, "/save-settings", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	settingsRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSave_ValidationErrorIs400(t *testing.T) {
	svc := &mockSettingsService{}
	svc.On("Save", mock.Anything, mock.Anything).Return(nil, domain.ErrBadRequest)

	req := httptest.NewRequest(http.MethodPost, "/save-settings", strings.NewReader(`{"address":"bad"}`))
	rec := httptest.NewRecorder()
	settingsRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_ReturnsArray(t *testing.T) {
	svc := &mockSettingsService{}
	svc.On("History", mock.Anything, "0xabc").Return([]domain.NotificationRecord{
		{NotificationID: "n1", Address: "0xabc", Message: "alert", Timestamp: 1},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/notifications/0xabc", nil)
	rec := httptest.NewRecorder()
	settingsRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var records []domain.NotificationRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "n1", records[0].NotificationID)
}

func TestHistory_UnknownAddressIsEmptyArrayNot404(t *testing.T) {
	svc := &mockSettingsService{}
	svc.On("History", mock.Anything, "0xnobody").Return([]domain.NotificationRecord{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/notifications/0xnobody", nil)
	rec := httptest.NewRecorder()
	settingsRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
