package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/cardworks/loyalty-cards-be/internal/consumer"
	"github.com/cardworks/loyalty-cards-be/internal/domain"
	"github.com/cardworks/loyalty-cards-be/pkg/logger"
)

const (
	natsWorkerGroup = "loyalty-cards-workers"
	natsStreamName  = "LOYALTY_CARDS"
)

func ConnectNats(url, token string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("loyalty-cards-be"),
	}

	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return conn, nil
}

// NatsQueue publishes each entry as one JetStream message on the configured
// subject and drains them through a queue-group subscription with explicit
// acks. A failed delivery is nak'd and redelivered by the broker. The message
// id header carries the card number so the broker can drop duplicate
// publishes.
type NatsQueue struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
	logger  *logger.Logger
	sub     *nats.Subscription
}

func NewNatsQueue(conn *nats.Conn, subject string, log *logger.Logger) (*NatsQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("open jetstream context: %w", err)
	}

	q := &NatsQueue{
		conn:    conn,
		js:      js,
		subject: subject,
		logger:  log,
	}

	if err := q.ensureStream(); err != nil {
		return nil, err
	}

	return q, nil
}

// ensureStream provisions the stream backing the subject so published
// messages are retained until acked.
func (q *NatsQueue) ensureStream() error {
	_, err := q.js.AddStream(&nats.StreamConfig{
		Name:     natsStreamName,
		Subjects: []string{q.subject},
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("ensure stream %s: %w", natsStreamName, err)
	}

	return nil
}

func (q *NatsQueue) SendBatch(ctx context.Context, entries []domain.Entry) (bool, error) {
	failed := 0
	for _, entry := range entries {
		msg := &nats.Msg{
			Subject: q.subject,
			Data:    entry.Body,
			Header:  nats.Header{"Nats-Msg-Id": []string{entry.ID}},
		}

		if _, err := q.js.PublishMsg(msg); err != nil {
			failed++
			q.logger.Error(ctx, "Failed to publish entry",
				"entry_id", entry.ID,
				"error", err,
			)
		}
	}

	q.logger.Debug(ctx, "Batch published",
		"entries", len(entries),
		"failed", failed,
	)

	return failed == 0, nil
}

func (q *NatsQueue) Start(ctx context.Context, handler Handler) error {
	sub, err := q.js.QueueSubscribe(q.subject, natsWorkerGroup, func(m *nats.Msg) {
		q.dispatch(ctx, handler, consumer.Message{
			ID:   m.Header.Get("Nats-Msg-Id"),
			Body: m.Data,
		}, m)
	}, nats.ManualAck())
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", q.subject, err)
	}

	q.sub = sub
	q.logger.Info(ctx, "NATS queue started",
		"subject", q.subject,
		"group", natsWorkerGroup,
	)

	return nil
}

// acknowledger is the ack surface of one delivered message.
type acknowledger interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
}

// dispatch hands one delivery to the handler. A handler error naks the
// message so the broker brings it around again; success acks it.
func (q *NatsQueue) dispatch(ctx context.Context, handler Handler, msg consumer.Message, ack acknowledger) {
	if err := handler.HandleBatch(ctx, []consumer.Message{msg}); err != nil {
		q.logger.Error(ctx, "Failed to handle delivery",
			"subject", q.subject,
			"message_id", msg.ID,
			"error", err,
		)

		if nakErr := ack.Nak(); nakErr != nil {
			q.logger.Error(ctx, "Failed to nak delivery",
				"message_id", msg.ID,
				"error", nakErr,
			)
		}
		return
	}

	if err := ack.Ack(); err != nil {
		q.logger.Warn(ctx, "Failed to ack delivery",
			"message_id", msg.ID,
			"error", err,
		)
	}
}

func (q *NatsQueue) Shutdown(ctx context.Context) error {
	q.logger.Info(ctx, "Shutting down NATS queue")

	if q.sub != nil {
		if err := q.sub.Unsubscribe(); err != nil {
			return fmt.Errorf("unsubscribe from %s: %w", q.subject, err)
		}
	}

	return q.conn.Drain()
}
