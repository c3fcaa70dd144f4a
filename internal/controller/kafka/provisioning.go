package kafka

import (
	"context"
	"fmt"

	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/internal/usecase"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
)

type ProvisioningHandler struct {
	provisioning usecase.ProvisioningUseCase
}

func NewProvisioningHandler(provisioning usecase.ProvisioningUseCase) *ProvisioningHandler {
	return &ProvisioningHandler{provisioning: provisioning}
}

func (h *ProvisioningHandler) Topics() []string {
	return []string{
		event.TopicProvisionTenant,
		event.TopicDeprovisionTenant,
	}
}

func (h *ProvisioningHandler) Handle(ctx context.Context, topic string, payload []byte) error {
	kind, err := event.KindFromTopic(topic)
	if err != nil {
		return fmt.Errorf("ProvisioningHandler - Handle: %w", err)
	}

	switch kind {
	case event.KindProvisionTenant:
		cmd, err := event.Decode[event.ProvisionTenant](payload)
		if err != nil {
			return fmt.Errorf("ProvisioningHandler - Handle - event.Decode: %w", err)
		}

		return h.provisioning.HandleProvisionTenant(ctx, cmd)
	case event.KindDeprovisionTenant:
		cmd, err := event.Decode[event.DeprovisionTenant](payload)
		if err != nil {
			return fmt.Errorf("ProvisioningHandler - Handle - event.Decode: %w", err)
		}

		return h.provisioning.HandleDeprovisionTenant(ctx, cmd)
	default:
		return fmt.Errorf("ProvisioningHandler - Handle - topic %s: %w", topic, errs.ErrUnknownTopic)
	}
}
