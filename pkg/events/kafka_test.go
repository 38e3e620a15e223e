package events

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, NewProducerConfig())
	occurred := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "fines", msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "fine-7", string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(value, &decoded))
		assert.Equal(t, TypeFinePaid, decoded["type"])
		assert.Equal(t, "2024-05-01T12:00:00Z", decoded["occurred_at"])
		assert.Equal(t, "12.50", decoded["data"].(map[string]any)["amount"])
		assert.NotContains(t, decoded, "Key")
		return nil
	})

	p := NewKafkaPublisherWithProducer(producer, "fines")
	err := p.Publish(context.Background(), Event{
		Type:       TypeFinePaid,
		OccurredAt: occurred,
		Key:        "fine-7",
		Data:       map[string]any{"fine_id": 7, "amount": "12.50"},
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestKafkaPublisher_PublishFailure(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, NewProducerConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	p := NewKafkaPublisherWithProducer(producer, "fines")
	err := p.Publish(context.Background(), Event{Type: TypeFinePaid, OccurredAt: time.Now()})
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	require.NoError(t, p.Close())
}

func TestNoopPublisher(t *testing.T) {
	t.Parallel()

	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeFinePaid}))
	assert.NoError(t, p.Close())
}
