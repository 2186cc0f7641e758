package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/backoffice/pkg/audit"
	amqp "github.com/rabbitmq/amqp091-go"
)

// publisher is the subset of *amqp.Channel the sink uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes audit entries to a topic exchange from a single worker
// goroutine. Entries are dropped when the buffer is full.
type AMQPSink struct {
	pub        publisher
	exchange   string
	routingKey string
	logger     *slog.Logger
	queue      chan audit.Entry
	done       chan struct{}
	closeOnce  sync.Once
	closers    []func() error
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewAMQPSink dials the broker and declares a durable topic exchange.
func NewAMQPSink(amqpURL, exchange, routingKey string, logger *slog.Logger) (*AMQPSink, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	conn, err := amqp.Dial(cleanURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	s := newAMQPSink(ch, exchange, routingKey, logger)
	s.closers = []func() error{ch.Close, conn.Close}
	return s, nil
}

func newAMQPSink(pub publisher, exchange, routingKey string, logger *slog.Logger) *AMQPSink {
	s := &AMQPSink{
		pub:        pub,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger.With("sink", "amqp", "exchange", exchange),
		queue:      make(chan audit.Entry, 256),
		done:       make(chan struct{}),
	}
	go s.run()
	return s
}

// Record implements audit.Sink.
func (s *AMQPSink) Record(_ context.Context, e audit.Entry) {
	select {
	case s.queue <- e:
	default:
		s.logger.Warn("audit buffer full, dropping entry", "action", e.Action)
	}
}

func (s *AMQPSink) run() {
	defer close(s.done)
	for e := range s.queue {
		body, err := json.Marshal(e)
		if err != nil {
			s.logger.Error("audit marshal failed", "action", e.Action, "error", err)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = s.pub.PublishWithContext(ctx, s.exchange, s.routingKey+"."+e.Action, false, false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    e.At,
				Body:         body,
			})
		cancel()
		if err != nil {
			s.logger.Error("audit publish failed", "action", e.Action, "error", err)
		}
	}
}

// Close drains the buffer, then closes the channel and connection.
func (s *AMQPSink) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		close(s.queue)
		<-s.done
		for _, c := range s.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
