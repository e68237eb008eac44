package alert

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/compound-health-monitor/internal/domain"
	"github.com/compound-health-monitor/internal/pkg/id"
)

// Sender is the delivery provider: the hosted notification API or the direct
// SNS/SMTP channel fan-out.
type Sender interface {
	Send(ctx context.Context, req domain.SendRequest) (map[string]interface{}, error)
}

type notificationStore interface {
	Append(ctx context.Context, n *domain.NotificationRecord) error
}

type Service interface {
	// Dispatch records and delivers a liquidation-risk alert for one user.
	// The record is written before delivery is attempted and survives a
	// delivery failure; delivery is never retried.
	Dispatch(ctx context.Context, u *domain.User, healthFactor, volatility float64) error
	// Send delivers an arbitrary notification for the request surface.
	Send(ctx context.Context, req domain.SendRequest) (map[string]interface{}, error)
}

type service struct {
	records notificationStore
	sender  Sender
	target  float64
}

// NewService builds the dispatcher. target is the health ratio the collateral
// suggestion in the message aims to restore.
func NewService(records notificationStore, sender Sender, target float64) Service {
	return &service{records: records, sender: sender, target: target}
}

func (s *service) Dispatch(ctx context.Context, u *domain.User, healthFactor, volatility float64) error {
	msg := message(healthFactor, volatility, u.BorrowValue, s.target)

	rec := &domain.NotificationRecord{
		NotificationID: id.New(),
		Address:        u.Address,
		Message:        msg,
		Timestamp:      time.Now().UnixMilli(),
	}
	if err := s.records.Append(ctx, rec); err != nil {
		return fmt.Errorf("append notification record: %w", err)
	}

	_, err := s.sender.Send(ctx, domain.SendRequest{
		Type: "alert",
		To:   domain.Recipient{Email: u.Email, Number: u.Phone},
		Parameters: map[string]string{
			"message":      msg,
			"address":      u.Address,
			"healthFactor": fmt.Sprintf("%.2f", healthFactor),
			"volatility":   fmt.Sprintf("%.2f%%", volatility*100),
		},
	})
	if err != nil {
		// Best effort: the record above stays, and the next cycle below
		// threshold will produce a fresh alert anyway.
		log.Printf("alert: delivery for %s failed: %v", u.Address, err)
	}
	return nil
}

func (s *service) Send(ctx context.Context, req domain.SendRequest) (map[string]interface{}, error) {
	if req.To.Empty() {
		return nil, fmt.Errorf("email or phone number is required: %w", domain.ErrBadRequest)
	}
	return s.sender.Send(ctx, req)
}

// message renders the alert body: health factor to 2 decimals, the dollar
// collateral top-up that would restore the target ratio (clamped at zero),
// and volatility as a percentage to 2 decimals.
func message(healthFactor, volatility, borrowValue, target float64) string {
	needed := (target - healthFactor) * borrowValue
	if needed < 0 {
		needed = 0
	}
	return fmt.Sprintf(
		"Compound health alert: your position's health factor is %.2f. "+
			"Add ~$%.2f of collateral to restore a %.2f ratio. "+
			"Current market volatility: %.2f%%.",
		healthFactor, needed, target, volatility*100)
}
