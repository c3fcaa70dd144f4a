package kafka

import (
	"context"
	"fmt"

	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/internal/usecase"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
)

type NotificationHandler struct {
	notification usecase.NotificationUseCase
}

func NewNotificationHandler(notification usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{notification: notification}
}

func (h *NotificationHandler) Topics() []string {
	return []string{
		event.TopicSendWelcomeEmail,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, topic string, payload []byte) error {
	kind, err := event.KindFromTopic(topic)
	if err != nil {
		return fmt.Errorf("NotificationHandler - Handle: %w", err)
	}

	switch kind {
	case event.KindSendWelcomeEmail:
		cmd, err := event.Decode[event.SendWelcomeEmail](payload)
		if err != nil {
			return fmt.Errorf("NotificationHandler - Handle - event.Decode: %w", err)
		}

		return h.notification.HandleSendWelcomeEmail(ctx, cmd)
	default:
		return fmt.Errorf("NotificationHandler - Handle - topic %s: %w", topic, errs.ErrUnknownTopic)
	}
}
