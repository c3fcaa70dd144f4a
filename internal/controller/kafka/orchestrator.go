package kafka

import (
	"context"
	"fmt"

	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/internal/usecase"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
)

// OrchestratorHandler feeds participant events into the saga state machine.
type OrchestratorHandler struct {
	saga usecase.SagaUseCase
}

func NewOrchestratorHandler(saga usecase.SagaUseCase) *OrchestratorHandler {
	return &OrchestratorHandler{saga: saga}
}

func (h *OrchestratorHandler) Topics() []string {
	return []string{
		event.TopicSubscriptionCreated,
		event.TopicTenantProvisioned,
		event.TopicTenantProvisioningFailed,
		event.TopicEmailSent,
	}
}

func (h *OrchestratorHandler) Handle(ctx context.Context, topic string, payload []byte) error {
	kind, err := event.KindFromTopic(topic)
	if err != nil {
		return fmt.Errorf("OrchestratorHandler - Handle: %w", err)
	}

	switch kind {
	case event.KindSubscriptionCreated:
		e, err := event.Decode[event.SubscriptionCreated](payload)
		if err != nil {
			return fmt.Errorf("OrchestratorHandler - Handle - event.Decode: %w", err)
		}

		return h.saga.HandleSubscriptionCreated(ctx, e)
	case event.KindTenantProvisioned:
		e, err := event.Decode[event.TenantProvisioned](payload)
		if err != nil {
			return fmt.Errorf("OrchestratorHandler - Handle - event.Decode: %w", err)
		}

		return h.saga.HandleTenantProvisioned(ctx, e)
	case event.KindTenantProvisioningFailed:
		e, err := event.Decode[event.TenantProvisioningFailed](payload)
		if err != nil {
			return fmt.Errorf("OrchestratorHandler - Handle - event.Decode: %w", err)
		}

		return h.saga.HandleTenantProvisioningFailed(ctx, e)
	case event.KindEmailSent:
		e, err := event.Decode[event.EmailSent](payload)
		if err != nil {
			return fmt.Errorf("OrchestratorHandler - Handle - event.Decode: %w", err)
		}

		return h.saga.HandleEmailSent(ctx, e)
	default:
		return fmt.Errorf("OrchestratorHandler - Handle - topic %s: %w", topic, errs.ErrUnknownTopic)
	}
}
