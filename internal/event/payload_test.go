package event_test

import (
	"testing"

	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindTopicRoundTrip(t *testing.T) {
	kinds := []event.Kind{
		event.KindCreateSubscription,
		event.KindProvisionTenant,
		event.KindSendWelcomeEmail,
		event.KindCancelSubscription,
		event.KindDeprovisionTenant,
		event.KindSubscriptionCreated,
		event.KindSubscriptionCancelled,
		event.KindTenantProvisioned,
		event.KindTenantProvisioningFailed,
		event.KindTenantDeprovisioned,
		event.KindEmailSent,
	}

	for _, kind := range kinds {
		topic := kind.Topic()
		require.NotEmpty(t, topic)

		got, err := event.KindFromTopic(topic)
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}
}

func TestKindFromTopicUnknown(t *testing.T) {
	_, err := event.KindFromTopic("image-processed")
	require.ErrorIs(t, err, errs.ErrUnknownTopic)
}

func TestDecode(t *testing.T) {
	sagaID := uuid.New()
	customerID := uuid.New()

	t.Run("valid payload", func(t *testing.T) {
		raw := []byte(`{"saga_id":"` + sagaID.String() + `","customer_id":"` + customerID.String() + `","plan_id":"pro-monthly"}`)

		cmd, err := event.Decode[event.CreateSubscription](raw)
		require.NoError(t, err)
		assert.Equal(t, sagaID, cmd.SagaID)
		assert.Equal(t, customerID, cmd.CustomerID)
		assert.Equal(t, "pro-monthly", cmd.PlanID)
	})

	t.Run("extra fields tolerated", func(t *testing.T) {
		raw := []byte(`{"saga_id":"` + sagaID.String() + `","customer_id":"` + customerID.String() + `","plan_id":"pro","trace_id":"abc"}`)

		_, err := event.Decode[event.CreateSubscription](raw)
		require.NoError(t, err)
	})

	t.Run("invalid json is poison", func(t *testing.T) {
		_, err := event.Decode[event.CreateSubscription]([]byte(`{not json`))
		require.ErrorIs(t, err, errs.ErrMalformedPayload)
	})

	t.Run("missing saga id is poison", func(t *testing.T) {
		raw := []byte(`{"customer_id":"` + customerID.String() + `","plan_id":"pro"}`)

		_, err := event.Decode[event.CreateSubscription](raw)
		require.ErrorIs(t, err, errs.ErrMalformedPayload)
	})

	t.Run("missing error message is poison", func(t *testing.T) {
		raw := []byte(`{"saga_id":"` + sagaID.String() + `","subscription_id":"` + customerID.String() + `"}`)

		_, err := event.Decode[event.TenantProvisioningFailed](raw)
		require.ErrorIs(t, err, errs.ErrMalformedPayload)
	})
}
