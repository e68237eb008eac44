// Package file implements the default store backend: a single JSON document
// with two flat collections, mirroring the layout the original flat-file
// database used. All access is serialized through one mutex so the HTTP
// surface and the monitoring cycle cannot interleave writes.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/compound-health-monitor/internal/domain"
)

// document is the on-disk envelope. Both collections default-initialize to
// empty arrays when the file is absent.
type document struct {
	Users         []domain.User               `json:"users"`
	Notifications []domain.NotificationRecord `json:"notifications"`
}

// Store owns the backing file and the in-memory copy of its contents.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
}

// Open loads the database file, creating an empty document when the file does
// not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		doc: document{
			Users:         []domain.User{},
			Notifications: []domain.NotificationRecord{},
		},
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.doc); err != nil {
		return nil, fmt.Errorf("parse store file %s: %w", path, err)
	}
	if s.doc.Users == nil {
		s.doc.Users = []domain.User{}
	}
	if s.doc.Notifications == nil {
		s.doc.Notifications = []domain.NotificationRecord{}
	}
	return s, nil
}

// flushLocked writes the document atomically (tmp file + rename).
// Callers must hold s.mu.
func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store document: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(s.path), fmt.Sprintf(".%s.tmp", filepath.Base(s.path)))
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Users returns the user-collection view of the store.
func (s *Store) Users() *UserCollection { return &UserCollection{s: s} }

// Notifications returns the notification-collection view of the store.
func (s *Store) Notifications() *NotificationCollection { return &NotificationCollection{s: s} }

// UserCollection implements store.UserStore over the shared document.
type UserCollection struct {
	s *Store
}

func (c *UserCollection) Append(_ context.Context, u *domain.User) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.doc.Users = append(c.s.doc.Users, *u)
	return c.s.flushLocked()
}

func (c *UserCollection) List(_ context.Context) ([]domain.User, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]domain.User, len(c.s.doc.Users))
	copy(out, c.s.doc.Users)
	return out, nil
}

func (c *UserCollection) FindByAddress(_ context.Context, address string) (*domain.User, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for i := range c.s.doc.Users {
		if c.s.doc.Users[i].Address == address {
			u := c.s.doc.Users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", address, domain.ErrNotFound)
}

// Update merge-updates the named fields on the row with the given record id.
// Field names match the dynamodbav tags so both backends accept the same maps.
func (c *UserCollection) Update(_ context.Context, recordID string, updates map[string]interface{}) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for i := range c.s.doc.Users {
		if c.s.doc.Users[i].RecordID != recordID {
			continue
		}
		if err := applyUserUpdates(&c.s.doc.Users[i], updates); err != nil {
			return err
		}
		c.s.doc.Users[i].UpdatedAt = time.Now().UTC()
		return c.s.flushLocked()
	}
	return fmt.Errorf("user record %s: %w", recordID, domain.ErrNotFound)
}

func applyUserUpdates(u *domain.User, updates map[string]interface{}) error {
	for k, v := range updates {
		switch k {
		case "threshold":
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("field %s: expected float64: %w", k, domain.ErrBadRequest)
			}
			u.Threshold = f
		case "borrow_value":
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("field %s: expected float64: %w", k, domain.ErrBadRequest)
			}
			u.BorrowValue = f
		case "email":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("field %s: expected string: %w", k, domain.ErrBadRequest)
			}
			u.Email = s
		case "phone":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("field %s: expected string: %w", k, domain.ErrBadRequest)
			}
			u.Phone = s
		case "history":
			h, ok := v.([]domain.HealthSnapshot)
			if !ok {
				return fmt.Errorf("field %s: expected []HealthSnapshot: %w", k, domain.ErrBadRequest)
			}
			u.History = h
		default:
			return fmt.Errorf("unknown field %s: %w", k, domain.ErrBadRequest)
		}
	}
	return nil
}

// NotificationCollection implements store.NotificationStore over the shared document.
type NotificationCollection struct {
	s *Store
}

func (c *NotificationCollection) Append(_ context.Context, n *domain.NotificationRecord) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.doc.Notifications = append(c.s.doc.Notifications, *n)
	return c.s.flushLocked()
}

func (c *NotificationCollection) ListByAddress(_ context.Context, address string) ([]domain.NotificationRecord, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := []domain.NotificationRecord{}
	for _, n := range c.s.doc.Notifications {
		if n.Address == address {
			out = append(out, n)
		}
	}
	return out, nil
}

func (c *NotificationCollection) DeleteOlderThan(_ context.Context, cutoff int64) ([]domain.NotificationRecord, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	kept := c.s.doc.Notifications[:0]
	var removed []domain.NotificationRecord
	for _, n := range c.s.doc.Notifications {
		if n.Timestamp < cutoff {
			removed = append(removed, n)
		} else {
			kept = append(kept, n)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	c.s.doc.Notifications = kept
	if err := c.s.flushLocked(); err != nil {
		return nil, err
	}
	return removed, nil
}
