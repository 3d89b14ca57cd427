// Package events publishes order-completed notifications for the
// establishment's ops tooling. Delivery is best effort; the storefront never
// waits on the broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// OrderCompleted is the payload emitted after a successful handoff. It is a
// summary, not an order record: order storage is out of scope here.
type OrderCompleted struct {
	CustomerName string    `json:"customer_name"`
	City         string    `json:"city"`
	Method       string    `json:"payment_method"`
	Total        string    `json:"total"`
	ItemCount    int       `json:"item_count"`
	Scheduled    bool      `json:"scheduled"`
	CompletedAt  time.Time `json:"completed_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev OrderCompleted) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev OrderCompleted) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: value}); err != nil {
		return fmt.Errorf("write order event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
