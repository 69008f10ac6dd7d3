package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cardworks/loyalty-cards-be/internal/domain"
	"github.com/cardworks/loyalty-cards-be/internal/registry"
	"github.com/cardworks/loyalty-cards-be/pkg/logger"
)

// Message is one delivered creation request.
type Message struct {
	ID   string
	Body []byte
}

// CardConsumer drains enqueued creation requests, tolerating duplicate
// deliveries.
type CardConsumer struct {
	registry registry.CardRegistry
	logger   *logger.Logger
}

func New(reg registry.CardRegistry, log *logger.Logger) *CardConsumer {
	return &CardConsumer{
		registry: reg,
		logger:   log,
	}
}

// HandleBatch processes the delivered messages concurrently and
// independently; one message's failure does not stop the others. Failures
// are joined and returned so the transport can redeliver the failed subset.
func (c *CardConsumer) HandleBatch(ctx context.Context, msgs []Message) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, msg := range msgs {
		wg.Add(1)
		go func(msg Message) {
			defer wg.Done()

			if err := c.handle(ctx, msg); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(msg)
	}

	wg.Wait()

	return errors.Join(errs...)
}

// handle creates one card. AlreadyExists is absorbed: the transport is
// at-least-once, so a duplicate delivery means the work is already done.
func (c *CardConsumer) handle(ctx context.Context, msg Message) error {
	var req domain.CreateCardRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		c.logger.Error(ctx, "Failed to decode queued message",
			"message_id", msg.ID,
			"error", err,
		)
		return fmt.Errorf("decode message %s: %w", msg.ID, err)
	}

	ctx = logger.WithCardNumber(ctx, req.CardNumber)

	if _, err := c.registry.Create(ctx, req); err != nil {
		if domain.IsAlreadyExists(err) {
			c.logger.Debug(ctx, "Card already exists, ignoring delivery",
				"message_id", msg.ID,
			)
			return nil
		}

		c.logger.Error(ctx, "Failed to create card from queue",
			"message_id", msg.ID,
			"error", err,
		)
		return fmt.Errorf("message %s: %w", msg.ID, err)
	}

	c.logger.Debug(ctx, "Card created from queue",
		"message_id", msg.ID,
	)

	return nil
}
