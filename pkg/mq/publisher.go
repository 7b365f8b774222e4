package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type session struct {
	conn io.Closer
	ch   channel
}

// Publisher sends JSON messages to a durable topic exchange. A session closed
// by the broker is replaced on the next publish.
type Publisher struct {
	mu       sync.Mutex
	dial     func() (*session, error)
	sess     *session
	exchange string
	log      *zap.Logger
}

func NewPublisher(url, exchange string, log *zap.Logger) (*Publisher, error) {
	return newPublisher(func() (*session, error) { return dialSession(url, exchange) }, exchange, log)
}

func newPublisher(dial func() (*session, error), exchange string, log *zap.Logger) (*Publisher, error) {
	sess, err := dial()
	if err != nil {
		return nil, err
	}
	return &Publisher{
		dial:     dial,
		sess:     sess,
		exchange: exchange,
		log:      log.With(zap.String("component", "mq_publisher")),
	}, nil
}

func dialSession(url, exchange string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &session{conn: conn, ch: ch}, nil
}

// PublishJSON publishes v under routing key.
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	msg, err := NewJSONMessage(v, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err == nil {
		err = ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
		if errors.Is(err, amqp.ErrClosed) {
			// koneksi putus di tengah jalan, coba sekali lagi dengan sesi baru
			p.drop()
			if ch, err = p.channel(); err == nil {
				err = ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", key, p.exchange, err)
	}

	p.log.Debug("Message published", zap.String("routing_key", key), zap.String("message_id", msg.MessageId))
	return nil
}

// channel returns the open channel, dialing a new session when the broker
// closed the previous one. Callers hold p.mu.
func (p *Publisher) channel() (channel, error) {
	if p.sess != nil && !p.sess.ch.IsClosed() {
		return p.sess.ch, nil
	}
	p.drop()

	sess, err := p.dial()
	if err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}
	p.sess = sess
	p.log.Info("RabbitMQ session re-established", zap.String("exchange", p.exchange))
	return sess.ch, nil
}

func (p *Publisher) drop() {
	if p.sess == nil {
		return
	}
	_ = p.sess.ch.Close()
	_ = p.sess.conn.Close()
	p.sess = nil
}

// NewJSONMessage builds a persistent JSON publishing.
func NewJSONMessage(v any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now,
		Body:         body,
	}, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sess == nil {
		return nil
	}
	_ = p.sess.ch.Close()
	err := p.sess.conn.Close()
	p.sess = nil
	return err
}
