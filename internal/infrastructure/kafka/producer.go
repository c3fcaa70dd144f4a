package kafka

import (
	"context"
	"fmt"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/event"
	"github.com/dnsokolov/saas-onboarding/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

type EventProducer struct {
	*producer.Producer
}

func NewEventProducer(producer *producer.Producer) *EventProducer {
	return &EventProducer{producer}
}

// SendMessages publishes each outbox row to the topic named by its event
// type, keyed by aggregate id so one aggregate's events stay on one
// partition. A row with an unknown event type fails the batch before any
// write happens.
func (ep *EventProducer) SendMessages(ctx context.Context, msgs []*entity.OutboxMessage) error {
	var msgsToSend []kafka.Message

	for _, msg := range msgs {
		kind, err := event.KindFromTopic(msg.EventType)
		if err != nil {
			return fmt.Errorf("EventProducer - SendMessages: %w", err)
		}

		msgsToSend = append(msgsToSend, kafka.Message{
			Topic: kind.Topic(),
			Key:   []byte(msg.AggregateID.String()),
			Value: msg.Payload,
			Headers: []kafka.Header{
				{Key: "message_id", Value: []byte(msg.ID.String())},
			},
		})
	}

	if len(msgsToSend) == 0 {
		return nil
	}

	err := ep.Writer.WriteMessages(ctx, msgsToSend...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendMessages - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}
