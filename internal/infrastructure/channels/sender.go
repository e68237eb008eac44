// Package channels adapts the raw SNS and SMTP clients to the provider Send
// shape, for deployments that deliver alerts directly over AWS instead of a
// hosted notification API.
package channels

import (
	"context"
	"errors"
	"fmt"

	"github.com/compound-health-monitor/internal/domain"
	"github.com/compound-health-monitor/internal/infrastructure/smtp"
	"github.com/compound-health-monitor/internal/infrastructure/sns"
)

const emailSubject = "Compound position health alert"

// Sender fans one SendRequest out to every recipient channel that is set.
// Either client may be nil when the deployment does not configure it.
type Sender struct {
	SMS  sns.SMSSender
	Mail smtp.Mailer
}

// Send delivers the message parameter to each configured channel. It fails
// only when every attempted channel fails; partial delivery counts as
// success, matching the best-effort semantics of the hosted provider.
func (s *Sender) Send(ctx context.Context, req domain.SendRequest) (map[string]interface{}, error) {
	message := req.Parameters["message"]
	if message == "" {
		message = "Your Compound position needs attention."
	}

	result := map[string]interface{}{}
	var errs []error

	if req.To.Number != "" {
		if s.SMS == nil {
			errs = append(errs, errors.New("sms channel not configured"))
		} else if err := s.SMS.SendSMS(ctx, req.To.Number, message); err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		} else {
			result["sms"] = "sent"
		}
	}
	if req.To.Email != "" {
		if s.Mail == nil {
			errs = append(errs, errors.New("email channel not configured"))
		} else if err := s.Mail.SendEmail(req.To.Email, emailSubject, message); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			result["email"] = "sent"
		}
	}

	if len(result) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, errors.Join(errs...))
	}
	return result, nil
}
