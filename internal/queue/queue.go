package queue

import (
	"context"

	"github.com/cardworks/loyalty-cards-be/internal/consumer"
	"github.com/cardworks/loyalty-cards-be/internal/domain"
)

// Handler receives delivered batches. An error tells the transport the
// failed subset should come around again.
type Handler interface {
	HandleBatch(ctx context.Context, msgs []consumer.Message) error
}

// Transport is a batch queue seen from both ends: producers enqueue through
// SendBatch, Start attaches the handler that drains deliveries.
type Transport interface {
	domain.BatchSender
	Start(ctx context.Context, handler Handler) error
	Shutdown(ctx context.Context) error
}
