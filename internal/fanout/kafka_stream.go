package fanout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the stream needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaStream exports every envelope to a topic, keyed by channel so one
// board's events stay ordered within a partition.
type KafkaStream struct {
	writer Writer
}

var _ Stream = (*KafkaStream)(nil)

func NewKafkaStream(brokers []string, topic string) *KafkaStream {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return &KafkaStream{writer: w}
}

func NewKafkaStreamWithWriter(w Writer) *KafkaStream {
	return &KafkaStream{writer: w}
}

func (k *KafkaStream) Send(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(env.Channel),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(env.Event)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", env.Event, err)
	}
	return nil
}

func (k *KafkaStream) Close() error {
	return k.writer.Close()
}
