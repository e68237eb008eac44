// Package store defines the persistence contracts shared by the file and
// DynamoDB backends. Both collections are append-oriented: users are never
// deleted and notification records are immutable once written.
package store

import (
	"context"

	"github.com/compound-health-monitor/internal/domain"
)

// UserStore persists monitored accounts and their settings.
type UserStore interface {
	// Append adds a new row. No upsert: a second row for the same address is
	// a duplicate, matching the legacy settings-save behavior.
	Append(ctx context.Context, u *domain.User) error
	List(ctx context.Context) ([]domain.User, error)
	// FindByAddress returns the first row matching the address or a
	// domain.ErrNotFound-wrapped error.
	FindByAddress(ctx context.Context, address string) (*domain.User, error)
	// Update merge-updates the named fields of the row with the given record id.
	Update(ctx context.Context, recordID string, updates map[string]interface{}) error
}

// NotificationStore persists sent-alert records.
type NotificationStore interface {
	Append(ctx context.Context, n *domain.NotificationRecord) error
	// ListByAddress returns all records for the address in insertion order.
	// An unknown address yields an empty slice, not an error.
	ListByAddress(ctx context.Context, address string) ([]domain.NotificationRecord, error)
	// DeleteOlderThan removes records with Timestamp below cutoff (epoch ms)
	// and returns the removed rows so callers can archive them.
	DeleteOlderThan(ctx context.Context, cutoff int64) ([]domain.NotificationRecord, error)
}
