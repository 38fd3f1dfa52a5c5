package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"idportal/internal/observability"

	"github.com/twmb/franz-go/pkg/kgo"
)

// producer is the subset of *kgo.Client the publisher needs.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaPublisher writes status events to a Kafka topic keyed by tracking number.
type KafkaPublisher struct {
	client producer
	topic  string
}

// NewKafkaPublisher connects to brokers and produces to topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

func (k *KafkaPublisher) PublishStatus(ctx context.Context, ev StatusEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	record := &kgo.Record{Topic: k.topic, Key: []byte(ev.Number), Value: value}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		observability.EventsPublished.WithLabelValues("kafka", "error").Inc()
		return fmt.Errorf("produce status event: %w", err)
	}
	observability.EventsPublished.WithLabelValues("kafka", "ok").Inc()
	return nil
}

// Close flushes and closes the underlying client.
func (k *KafkaPublisher) Close() {
	k.client.Close()
}
