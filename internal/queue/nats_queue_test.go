package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardworks/loyalty-cards-be/internal/consumer"
	"github.com/cardworks/loyalty-cards-be/pkg/logger"
)

type fakeAck struct {
	acks int
	naks int
}

func (a *fakeAck) Ack(opts ...nats.AckOpt) error { a.acks++; return nil }
func (a *fakeAck) Nak(opts ...nats.AckOpt) error { a.naks++; return nil }

type stubHandler struct {
	err      error
	received []consumer.Message
}

func (h *stubHandler) HandleBatch(ctx context.Context, msgs []consumer.Message) error {
	h.received = append(h.received, msgs...)
	return h.err
}

func TestNatsDispatch_AcksOnSuccess(t *testing.T) {
	q := &NatsQueue{subject: "loyalty-cards.create", logger: logger.NewNop()}
	handler := &stubHandler{}
	ack := &fakeAck{}

	q.dispatch(context.Background(), handler, consumer.Message{
		ID:   "1111-2222-3333-4444",
		Body: []byte(`{"cardNumber":"1111-2222-3333-4444"}`),
	}, ack)

	require.Len(t, handler.received, 1)
	assert.Equal(t, "1111-2222-3333-4444", handler.received[0].ID)
	assert.Equal(t, 1, ack.acks)
	assert.Equal(t, 0, ack.naks)
}

func TestNatsDispatch_NaksOnHandlerFailure(t *testing.T) {
	q := &NatsQueue{subject: "loyalty-cards.create", logger: logger.NewNop()}
	handler := &stubHandler{err: errors.New("store unavailable")}
	ack := &fakeAck{}

	q.dispatch(context.Background(), handler, consumer.Message{ID: "1111-2222-3333-4444"}, ack)

	// The failed delivery goes back to the broker for redelivery.
	assert.Equal(t, 0, ack.acks)
	assert.Equal(t, 1, ack.naks)
}
