package events

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// KafkaPublisher writes events to a single topic, waiting for every in-sync
// replica to acknowledge each message.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducerConfig returns the producer settings used for event publishing.
func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "shelfkeep"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3
	return cfg
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to kafka")
	}
	return NewKafkaPublisherWithProducer(producer, topic), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer, topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}
	if event.Key != "" {
		msg.Key = sarama.StringEncoder(event.Key)
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return errors.Wrapf(err, "failed to publish %s event", event.Type)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return errors.WithStack(p.producer.Close())
}
