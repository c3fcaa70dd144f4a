package consumer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	_defaultConnAttempts    = 10
	_defaultConnBackoffBase = 2 * time.Second
)

type Consumer struct {
	connAttempts    int
	connBackoffBase time.Duration

	brokers []string
	groupID string
	topics  []string

	Reader *kafka.Reader
}

// New builds a group consumer over a fixed topic set. Topics may not exist
// yet when a service starts before its producers, so the broker ping is
// retried with exponential backoff before giving up.
func New(ctx context.Context, brokers []string, groupID string, topics []string, opts ...Option) (*Consumer, error) {
	c := &Consumer{
		connAttempts:    _defaultConnAttempts,
		connBackoffBase: _defaultConnBackoffBase,
		brokers:         brokers,
		groupID:         groupID,
		topics:          topics,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.brokers,
		GroupID:     c.groupID,
		GroupTopics: c.topics,
		MinBytes:    10e3,
		MaxBytes:    10e6,
	})

	var err error

	delay := c.connBackoffBase
	for c.connAttempts > 0 {
		err = c.ping(ctx)
		if err == nil {
			break
		}

		log.Printf("Kafka consumer is trying to connect, attempts left: %d", c.connAttempts)

		time.Sleep(delay)

		delay *= 2
		c.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("Kafka Consumer - New - connAttempts == 0: %w", err)
	}

	return c, nil
}

func (c *Consumer) ping(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", c.brokers[0])
	if err != nil {
		return fmt.Errorf("Kafka Consumer - kafka.DialContext: %w", err)
	}
	defer conn.Close()

	_, err = conn.Brokers()
	if err != nil {
		return fmt.Errorf("Kafka Consumer - conn.Brokers: %w", err)
	}

	return nil
}

func (c *Consumer) Close() error {
	if c.Reader != nil {
		return c.Reader.Close()
	}
	return nil
}
