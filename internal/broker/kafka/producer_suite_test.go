package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/BearBump/TrackHook/internal/broker/messages"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type recordingWriter struct {
	mock.Mock
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return w.Called(msgs).Error(0)
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

type ProducerSuite struct {
	suite.Suite
	w *recordingWriter
	p *Producer
}

func (s *ProducerSuite) SetupTest() {
	s.w = &recordingWriter{}
	s.p = newProducerWithWriter(s.w)
}

func (s *ProducerSuite) TestPublishNotification() {
	n := messages.ShipmentNotification{
		NotificationID:   "n1",
		CorrelationID:    "corr-1",
		ShipmentID:       "s1",
		Status:           "delivered",
		NotificationType: "delivered",
	}
	value, err := json.Marshal(n)
	s.Require().NoError(err)

	var sent kafka.Message
	s.w.On("WriteMessages", mock.AnythingOfType("[]kafka.Message")).
		Run(func(args mock.Arguments) { sent = args.Get(0).([]kafka.Message)[0] }).
		Return(nil).
		Once()

	err = s.p.Publish(context.Background(), "trackhook.notifications", []byte(n.ShipmentID), value, map[string]string{
		"notification_type": n.NotificationType,
		"correlation_id":    n.CorrelationID,
	})
	s.Require().NoError(err)

	s.Equal("trackhook.notifications", sent.Topic)
	s.Equal("s1", string(sent.Key))
	s.Require().Len(sent.Headers, 2)
	s.Equal(kafka.Header{Key: "correlation_id", Value: []byte("corr-1")}, sent.Headers[0])
	s.Equal(kafka.Header{Key: "notification_type", Value: []byte("delivered")}, sent.Headers[1])

	var got messages.ShipmentNotification
	s.Require().NoError(json.Unmarshal(sent.Value, &got))
	s.Equal(n.CorrelationID, got.CorrelationID)
	s.w.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestPublishWithoutHeaders() {
	s.w.On("WriteMessages", mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 && msgs[0].Headers == nil
	})).Return(nil).Once()

	s.Require().NoError(s.p.Publish(context.Background(), "t", nil, []byte("{}"), nil))
	s.w.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestPublishBrokerDown() {
	down := errors.New("dial tcp: connection refused")
	s.w.On("WriteMessages", mock.Anything).Return(down).Once()

	err := s.p.Publish(context.Background(), "trackhook.notifications", []byte("s1"), []byte("{}"), nil)
	s.Require().ErrorIs(err, down)
	s.Contains(err.Error(), "kafka publish to trackhook.notifications")
}

func (s *ProducerSuite) TestCloseReachesWriter() {
	s.Require().NoError(s.p.Close())
	s.True(s.w.closed)
}

func TestProducerSuite(t *testing.T) {
	suite.Run(t, new(ProducerSuite))
}
