package http

import (
	"context"

	"github.com/compound-health-monitor/internal/application/alert"
	"github.com/compound-health-monitor/internal/domain"
)

// UserRepository is the minimal interface the router requires from the user store.
type UserRepository interface {
	Append(ctx context.Context, u *domain.User) error
}

// NotificationRepository is the minimal interface the router requires from the
// notification store.
type NotificationRepository interface {
	Append(ctx context.Context, n *domain.NotificationRecord) error
	ListByAddress(ctx context.Context, address string) ([]domain.NotificationRecord, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Users         UserRepository
	Notifications NotificationRepository
	Sender        alert.Sender
	// TargetRatio is the health ratio the alert message's collateral
	// suggestion aims to restore.
	TargetRatio float64
}
