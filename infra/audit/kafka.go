package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/pkg/audit"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes audit entries as JSON messages keyed by target.
type KafkaSink struct {
	writer  messageWriter
	logger  *slog.Logger
	timeout time.Duration
}

// NewKafkaSink creates an asynchronous kafka writer for topic. Delivery
// failures are logged by the writer's completion callback.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka audit sink: brokers are required")
	}
	logger = logger.With("sink", "kafka", "topic", topic)
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		Async:                  true,
		WriteTimeout:           10 * time.Second,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Error("audit delivery failed", "messages", len(msgs), "error", err)
			}
		},
	}
	return newKafkaSink(writer, logger), nil
}

func newKafkaSink(w messageWriter, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{writer: w, logger: logger, timeout: 5 * time.Second}
}

// Record implements audit.Sink.
func (s *KafkaSink) Record(ctx context.Context, e audit.Entry) {
	value, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("audit marshal failed", "action", e.Action, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Target),
		Value: value,
		Time:  e.At,
	})
	if err != nil {
		s.logger.Error("audit publish failed", "action", e.Action, "error", err)
	}
}

// Close flushes pending messages.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
