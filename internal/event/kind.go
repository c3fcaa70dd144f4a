// Package event defines the closed set of message kinds exchanged between
// the onboarding services, their topic mapping and payload schemas.
package event

import (
	"fmt"

	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
)

// Topic names are a stable contract across all participants.
const (
	// Commands, emitted by the orchestrator.
	TopicCreateSubscription = "create-subscription"
	TopicProvisionTenant    = "provision-tenant"
	TopicSendWelcomeEmail   = "send-welcome-email"
	TopicCancelSubscription = "cancel-subscription"
	TopicDeprovisionTenant  = "deprovision-tenant"

	// Domain events, emitted by the participants.
	TopicSubscriptionCreated      = "subscription-created"
	TopicSubscriptionCancelled    = "subscription-cancelled"
	TopicTenantProvisioned        = "tenant-provisioned"
	TopicTenantProvisioningFailed = "tenant-provisioning-failed"
	TopicTenantDeprovisioned      = "tenant-deprovisioned"
	TopicEmailSent                = "email-sent"
)

// Kind enumerates every message type. Dispatch switches over Kind instead of
// raw topic strings, so adding a message type is a compile-checked change.
type Kind int

const (
	KindUnknown Kind = iota

	KindCreateSubscription
	KindProvisionTenant
	KindSendWelcomeEmail
	KindCancelSubscription
	KindDeprovisionTenant

	KindSubscriptionCreated
	KindSubscriptionCancelled
	KindTenantProvisioned
	KindTenantProvisioningFailed
	KindTenantDeprovisioned
	KindEmailSent
)

func (k Kind) Topic() string {
	switch k {
	case KindCreateSubscription:
		return TopicCreateSubscription
	case KindProvisionTenant:
		return TopicProvisionTenant
	case KindSendWelcomeEmail:
		return TopicSendWelcomeEmail
	case KindCancelSubscription:
		return TopicCancelSubscription
	case KindDeprovisionTenant:
		return TopicDeprovisionTenant
	case KindSubscriptionCreated:
		return TopicSubscriptionCreated
	case KindSubscriptionCancelled:
		return TopicSubscriptionCancelled
	case KindTenantProvisioned:
		return TopicTenantProvisioned
	case KindTenantProvisioningFailed:
		return TopicTenantProvisioningFailed
	case KindTenantDeprovisioned:
		return TopicTenantDeprovisioned
	case KindEmailSent:
		return TopicEmailSent
	case KindUnknown:
		return ""
	}

	return ""
}

func KindFromTopic(topic string) (Kind, error) {
	switch topic {
	case TopicCreateSubscription:
		return KindCreateSubscription, nil
	case TopicProvisionTenant:
		return KindProvisionTenant, nil
	case TopicSendWelcomeEmail:
		return KindSendWelcomeEmail, nil
	case TopicCancelSubscription:
		return KindCancelSubscription, nil
	case TopicDeprovisionTenant:
		return KindDeprovisionTenant, nil
	case TopicSubscriptionCreated:
		return KindSubscriptionCreated, nil
	case TopicSubscriptionCancelled:
		return KindSubscriptionCancelled, nil
	case TopicTenantProvisioned:
		return KindTenantProvisioned, nil
	case TopicTenantProvisioningFailed:
		return KindTenantProvisioningFailed, nil
	case TopicTenantDeprovisioned:
		return KindTenantDeprovisioned, nil
	case TopicEmailSent:
		return KindEmailSent, nil
	}

	return KindUnknown, fmt.Errorf("event - KindFromTopic - %q: %w", topic, errs.ErrUnknownTopic)
}
