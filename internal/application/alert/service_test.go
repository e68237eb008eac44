package alert

import (
	"context"
	"errors"
	"testing"

	"github.com/compound-health-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Append(ctx context.Context, n *domain.NotificationRecord) error {
	return m.Called(ctx, n).Error(0)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, req domain.SendRequest) (map[string]interface{}, error) {
	args := m.Called(ctx, req)
	data, _ := args.Get(0).(map[string]interface{})
	return data, args.Error(1)
}

func testUser() *domain.User {
	return &domain.User{
		RecordID:    "r1",
		Address:     "0xabc",
		Threshold:   1.5,
		Email:       "alice@example.com",
		Phone:       "+15005550006",
		BorrowValue: 1000,
	}
}

// --- Dispatch tests ---

func TestDispatch_MessageFormat(t *testing.T) {
	ns := &mockNotificationStore{}
	var rec *domain.NotificationRecord
	ns.On("Append", mock.Anything, mock.AnythingOfType("*domain.NotificationRecord")).
		Run(func(args mock.Arguments) { rec = args.Get(1).(*domain.NotificationRecord) }).
		Return(nil)
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(map[string]interface{}{}, nil)

	svc := NewService(ns, sender, 1.5)
	require.NoError(t, svc.Dispatch(context.Background(), testUser(), 1.2, 0.08))

	require.NotNil(t, rec)
	assert.Equal(t, "0xabc", rec.Address)
	assert.NotZero(t, rec.Timestamp)
	// Health factor to exactly 2 decimals, collateral = (1.5-1.2)*1000,
	// volatility as a percentage to 2 decimals.
	assert.Contains(t, rec.Message, "1.20")
	assert.Contains(t, rec.Message, "$300.00")
	assert.Contains(t, rec.Message, "8.00%")
}

func TestDispatch_CollateralClampedAtZero(t *testing.T) {
	ns := &mockNotificationStore{}
	var rec *domain.NotificationRecord
	ns.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { rec = args.Get(1).(*domain.NotificationRecord) }).
		Return(nil)
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(nil, nil)

	u := testUser()
	u.BorrowValue = 0

	svc := NewService(ns, sender, 1.5)
	require.NoError(t, svc.Dispatch(context.Background(), u, 0.4, 0.08))
	assert.Contains(t, rec.Message, "$0.00")
}

func TestDispatch_RecipientChannelsFromUser(t *testing.T) {
	ns := &mockNotificationStore{}
	ns.On("Append", mock.Anything, mock.Anything).Return(nil)
	sender := &mockSender{}
	var sent domain.SendRequest
	sender.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(domain.SendRequest) }).
		Return(nil, nil)

	svc := NewService(ns, sender, 1.5)
	require.NoError(t, svc.Dispatch(context.Background(), testUser(), 1.2, 0.08))

	assert.Equal(t, "alert", sent.Type)
	assert.Equal(t, "alice@example.com", sent.To.Email)
	assert.Equal(t, "+15005550006", sent.To.Number)
	assert.Equal(t, "1.20", sent.Parameters["healthFactor"])
	assert.Equal(t, "8.00%", sent.Parameters["volatility"])
}

// Delivery failure is swallowed: the record is already written and there is
// no retry.
func TestDispatch_DeliveryFailureKeepsRecord(t *testing.T) {
	ns := &mockNotificationStore{}
	ns.On("Append", mock.Anything, mock.Anything).Return(nil)
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(nil, errors.New("provider down"))

	svc := NewService(ns, sender, 1.5)
	err := svc.Dispatch(context.Background(), testUser(), 1.2, 0.08)

	assert.NoError(t, err)
	ns.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestDispatch_StoreFailureAbortsBeforeSend(t *testing.T) {
	ns := &mockNotificationStore{}
	ns.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	sender := &mockSender{}

	svc := NewService(ns, sender, 1.5)
	err := svc.Dispatch(context.Background(), testUser(), 1.2, 0.08)

	require.Error(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

// --- direct Send tests ---

func TestSend_MissingRecipient(t *testing.T) {
	svc := NewService(&mockNotificationStore{}, &mockSender{}, 1.5)
	_, err := svc.Send(context.Background(), domain.SendRequest{Type: "alert"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSend_PassesThrough(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(map[string]interface{}{"trackingId": "t1"}, nil)

	svc := NewService(&mockNotificationStore{}, sender, 1.5)
	data, err := svc.Send(context.Background(), domain.SendRequest{
		To: domain.Recipient{Email: "bob@example.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, "t1", data["trackingId"])
}
