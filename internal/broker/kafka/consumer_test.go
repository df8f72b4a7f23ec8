package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs      []kafka.Message
	err       error
	i         int
	committed []kafka.Message
	commitErr error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.i < len(r.msgs) {
		m := r.msgs[r.i]
		r.i++
		return m, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	return kafka.Message{}, errors.New("eof")
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if r.commitErr != nil {
		return r.commitErr
	}
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_Consume_CallsHandlerAndCommits(t *testing.T) {
	fr := &fakeReader{
		msgs: []kafka.Message{{
			Topic:   "n",
			Offset:  7,
			Key:     []byte("k"),
			Value:   []byte("v"),
			Headers: []kafka.Header{{Key: "correlation_id", Value: []byte("c1")}},
		}},
		err: errors.New("stop"),
	}
	c := newConsumerWithReader(fr)

	var got Message
	err := c.Consume(context.Background(), func(_ context.Context, m Message) error {
		got = m
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch message")
	require.Equal(t, []byte("k"), got.Key)
	require.Equal(t, []byte("v"), got.Value)
	require.Equal(t, "c1", got.Headers["correlation_id"])
	require.Len(t, fr.committed, 1)
	require.Equal(t, Stats{Consumed: 1, LastOffset: 7}, c.Stats())
}

func TestConsumer_Consume_HandlerErrorStopsWithoutCommit(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{{Key: []byte("k"), Value: []byte("v")}}}
	c := newConsumerWithReader(fr)

	want := errors.New("handler failed")
	err := c.Consume(context.Background(), func(context.Context, Message) error { return want })
	require.ErrorIs(t, err, want)
	require.Empty(t, fr.committed)
	require.Equal(t, int64(1), c.Stats().Failed)
	require.Equal(t, int64(-1), c.Stats().LastOffset)
}

func TestConsumer_Consume_CommitError(t *testing.T) {
	fr := &fakeReader{
		msgs:      []kafka.Message{{Key: []byte("k")}},
		commitErr: errors.New("rebalance"),
	}
	c := newConsumerWithReader(fr)

	err := c.Consume(context.Background(), func(context.Context, Message) error { return nil })
	require.Error(t, err)
	require.Contains(t, err.Error(), "commit message")
}

func TestConsumer_Consume_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fr := &fakeReader{err: context.Canceled}
	c := newConsumerWithReader(fr)

	err := c.Consume(ctx, func(context.Context, Message) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewConsumer_Close(t *testing.T) {
	c := NewConsumer([]string{"localhost:0"}, "t", "g")
	require.NotNil(t, c)
	require.NoError(t, c.Close())
}
