package kafka

import (
	"context"
	"fmt"

	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/internal/usecase"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
)

type BillingHandler struct {
	billing usecase.BillingUseCase
}

func NewBillingHandler(billing usecase.BillingUseCase) *BillingHandler {
	return &BillingHandler{billing: billing}
}

func (h *BillingHandler) Topics() []string {
	return []string{
		event.TopicCreateSubscription,
		event.TopicCancelSubscription,
	}
}

func (h *BillingHandler) Handle(ctx context.Context, topic string, payload []byte) error {
	kind, err := event.KindFromTopic(topic)
	if err != nil {
		return fmt.Errorf("BillingHandler - Handle: %w", err)
	}

	switch kind {
	case event.KindCreateSubscription:
		cmd, err := event.Decode[event.CreateSubscription](payload)
		if err != nil {
			return fmt.Errorf("BillingHandler - Handle - event.Decode: %w", err)
		}

		return h.billing.HandleCreateSubscription(ctx, cmd)
	case event.KindCancelSubscription:
		cmd, err := event.Decode[event.CancelSubscription](payload)
		if err != nil {
			return fmt.Errorf("BillingHandler - Handle - event.Decode: %w", err)
		}

		return h.billing.HandleCancelSubscription(ctx, cmd)
	default:
		return fmt.Errorf("BillingHandler - Handle - topic %s: %w", topic, errs.ErrUnknownTopic)
	}
}
