package kafka

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Producer publishes keyed messages to Kafka topics.
type Producer struct {
	w writer
}

func NewProducer(brokers []string) *Producer {
	return newProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	})
}

func newProducerWithWriter(w writer) *Producer {
	return &Producer{w: w}
}

// Publish writes one message. Messages sharing a key land on the same
// partition, so events of a mail item stay ordered.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

func (p *Producer) Close() error {
	if c, ok := p.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
