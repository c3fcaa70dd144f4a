// Package mail simulates email delivery. Swap for SMTP or a provider API
// without touching the use case.
package mail

import (
	"context"
	"time"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
)

type Sender struct {
	latency time.Duration
	logger  logger.Interface
}

func NewSender(latency time.Duration, l logger.Interface) *Sender {
	return &Sender{
		latency: latency,
		logger:  l,
	}
}

func (s *Sender) Send(ctx context.Context, email *entity.EmailLog) error {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.logger.Info("mail - Sender - delivered %s email to %s", email.EmailType, email.RecipientEmail)

	return nil
}
