package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/compound-health-monitor/internal/domain"
	"github.com/compound-health-monitor/internal/pkg/id"
	"github.com/compound-health-monitor/internal/pkg/validate"
)

type Service interface {
	// Save registers monitoring settings for an address. Saving the same
	// address again appends a second row; the monitor will track both.
	Save(ctx context.Context, req domain.SaveSettingsRequest) (*domain.User, error)
	// History returns every notification record for the address, empty slice
	// when there are none.
	History(ctx context.Context, address string) ([]domain.NotificationRecord, error)
}

type userStore interface {
	Append(ctx context.Context, u *domain.User) error
}

type notificationStore interface {
	ListByAddress(ctx context.Context, address string) ([]domain.NotificationRecord, error)
}

type service struct {
	users         userStore
	notifications notificationStore
}

func NewService(users userStore, notifications notificationStore) Service {
	return &service{users: users, notifications: notifications}
}

func (s *service) Save(ctx context.Context, req domain.SaveSettingsRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	// The dispatcher assumes at least one delivery channel exists; enforce it
	// here, at save time.
	if req.Email == "" && req.Phone == "" {
		return nil, fmt.Errorf("email or phone number is required: %w", domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	u := &domain.User{
		RecordID:  id.New(),
		Address:   req.Address,
		Threshold: req.Threshold,
		Email:     req.Email,
		Phone:     req.Phone,
		History:   []domain.HealthSnapshot{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Append(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) History(ctx context.Context, address string) ([]domain.NotificationRecord, error) {
	records, err := s.notifications.ListByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.NotificationRecord{}
	}
	return records, nil
}
