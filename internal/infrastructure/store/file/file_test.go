package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/compound-health-monitor/internal/domain"
	"github.com/compound-health-monitor/internal/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func testUser(address string) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		RecordID:  id.New(),
		Address:   address,
		Threshold: 1.5,
		Email:     "alice@example.com",
		History:   []domain.HealthSnapshot{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOpen_MissingFile_EmptyCollections(t *testing.T) {
	s, _ := newStore(t)
	users, err := s.Users().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)

	records, err := s.Notifications().ListByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppendUser_DuplicateAddressCreatesSecondRow(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Users().Append(ctx, testUser("0xabc")))
	require.NoError(t, s.Users().Append(ctx, testUser("0xabc")))

	users, err := s.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestFindByAddress(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Users().Append(ctx, testUser("0xabc")))

	u, err := s.Users().FindByAddress(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", u.Address)

	_, err = s.Users().FindByAddress(ctx, "0xdef")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateUser_MergesFields(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	u := testUser("0xabc")
	require.NoError(t, s.Users().Append(ctx, u))

	history := []domain.HealthSnapshot{{HealthFactor: 1.2, Timestamp: 1000}}
	err := s.Users().Update(ctx, u.RecordID, map[string]interface{}{
		"borrow_value": 250.0,
		"history":      history,
	})
	require.NoError(t, err)

	got, err := s.Users().FindByAddress(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 250.0, got.BorrowValue)
	assert.Equal(t, history, got.History)
	assert.Equal(t, 1.5, got.Threshold) // untouched field survives the merge
}

func TestUpdateUser_UnknownRecord(t *testing.T) {
	s, _ := newStore(t)
	err := s.Users().Update(context.Background(), "nope", map[string]interface{}{"borrow_value": 1.0})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotifications_FilterByAddress(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for _, addr := range []string{"0xaaa", "0xbbb", "0xaaa"} {
		require.NoError(t, s.Notifications().Append(ctx, &domain.NotificationRecord{
			NotificationID: id.New(),
			Address:        addr,
			Message:        "alert",
			Timestamp:      time.Now().UnixMilli(),
		}))
	}

	records, err := s.Notifications().ListByAddress(ctx, "0xaaa")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = s.Notifications().ListByAddress(ctx, "0xccc")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestDeleteOlderThan(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	old := &domain.NotificationRecord{NotificationID: id.New(), Address: "0xaaa", Timestamp: 1000}
	fresh := &domain.NotificationRecord{NotificationID: id.New(), Address: "0xaaa", Timestamp: 9000}
	require.NoError(t, s.Notifications().Append(ctx, old))
	require.NoError(t, s.Notifications().Append(ctx, fresh))

	removed, err := s.Notifications().DeleteOlderThan(ctx, 5000)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, old.NotificationID, removed[0].NotificationID)

	records, err := s.Notifications().ListByAddress(ctx, "0xaaa")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, fresh.NotificationID, records[0].NotificationID)
}

func TestReopen_PersistsData(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Users().Append(ctx, testUser("0xabc")))

	reopened, err := Open(path)
	require.NoError(t, err)
	users, err := reopened.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "0xabc", users[0].Address)
}
