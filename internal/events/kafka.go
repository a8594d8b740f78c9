// README: Publishes ride events to Kafka, keyed by ride so each ride's events stay ordered.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ridepool/internal/modules/ride"
)

const publishTimeout = 2 * time.Second

// Message is the wire shape of a ride event.
type Message struct {
	RideID     string    `json:"ride_id"`
	Kind       string    `json:"kind"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorType  string    `json:"actor_type"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e ride.Event) error {
	msg, err := encode(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return k.writer.WriteMessages(ctx, msg)
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

func encode(e ride.Event) (kafka.Message, error) {
	m := Message{
		RideID:     string(e.RideID),
		Kind:       string(e.Kind),
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		ActorType:  e.ActorType,
		OccurredAt: e.CreatedAt.UTC(),
	}
	if e.ActorID != nil {
		m.ActorID = string(*e.ActorID)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode ride event: %w", err)
	}
	return kafka.Message{Key: []byte(e.RideID), Value: b, Time: m.OccurredAt}, nil
}
