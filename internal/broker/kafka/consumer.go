package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is what handlers see of a Kafka record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
}

type Handler func(ctx context.Context, msg Message) error

// Stats is a snapshot of the consumer counters.
type Stats struct {
	Consumed   int64 `json:"consumed"`
	Failed     int64 `json:"failed"`
	LastOffset int64 `json:"last_offset"`
}

type Consumer struct {
	r messageReader

	consumed   atomic.Int64
	failed     atomic.Int64
	lastOffset atomic.Int64
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		MaxWait:           time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return newConsumerWithReader(kafka.NewReader(cfg))
}

func newConsumerWithReader(r messageReader) *Consumer {
	c := &Consumer{r: r}
	c.lastOffset.Store(-1)
	return c
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

func (c *Consumer) Stats() Stats {
	return Stats{
		Consumed:   c.consumed.Load(),
		Failed:     c.failed.Load(),
		LastOffset: c.lastOffset.Load(),
	}
}

// Consume читает сообщения по одному до отмены ctx или первой ошибки.
// Commit делаем только после успешного handler, иначе потеряем сообщение.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "fetch message")
		}

		if err := handler(ctx, toMessage(msg)); err != nil {
			c.failed.Add(1)
			return err
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit message")
		}
		c.consumed.Add(1)
		c.lastOffset.Store(msg.Offset)
	}
}

func toMessage(m kafka.Message) Message {
	out := Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
	}
	if len(m.Headers) > 0 {
		out.Headers = make(map[string]string, len(m.Headers))
		for _, h := range m.Headers {
			out.Headers[h.Key] = string(h.Value)
		}
	}
	return out
}
