package queue

import (
	"context"
	"sync"
	"time"

	"github.com/cardworks/loyalty-cards-be/internal/consumer"
	"github.com/cardworks/loyalty-cards-be/internal/domain"
	"github.com/cardworks/loyalty-cards-be/pkg/logger"
	"github.com/cardworks/loyalty-cards-be/pkg/retry"
)

type MemoryQueueConfig struct {
	ChannelBuffer int
	WorkerCount   int
	MaxRetries    int
	RetryBase     time.Duration
}

// MemoryQueue is the in-process transport: a buffered channel of batches
// drained by a worker pool. Redelivery on handler failure is retry with
// backoff; at-least-once within the process lifetime.
type MemoryQueue struct {
	ch      chan []domain.Entry
	handler Handler
	logger  *logger.Logger
	cfg     MemoryQueueConfig
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
}

func NewMemoryQueue(cfg MemoryQueueConfig, log *logger.Logger) *MemoryQueue {
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 1000
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 10
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 1 * time.Second
	}

	return &MemoryQueue{
		ch:     make(chan []domain.Entry, cfg.ChannelBuffer),
		logger: log,
		cfg:    cfg,
	}
}

// SendBatch is non-blocking: a full queue drops the batch with a warning
// rather than stalling the producer.
func (q *MemoryQueue) SendBatch(ctx context.Context, entries []domain.Entry) (bool, error) {
	select {
	case q.ch <- entries:
		q.logger.Debug(ctx, "Batch enqueued",
			"entries", len(entries),
		)
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	default:
		q.logger.Warn(ctx, "Queue full, batch dropped",
			"entries", len(entries),
		)
		return false, nil
	}
}

func (q *MemoryQueue) Start(ctx context.Context, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.handler = handler

	for i := 0; i < q.cfg.WorkerCount; i++ {
		q.wg.Add(1)
		go q.worker(workerCtx, i)
	}

	q.started = true
	q.logger.Info(ctx, "Memory queue started",
		"worker_count", q.cfg.WorkerCount,
	)

	return nil
}

func (q *MemoryQueue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	q.logger.Debug(ctx, "Queue worker started", "worker_id", workerID)

	for {
		select {
		case <-ctx.Done():
			q.logger.Debug(ctx, "Queue worker stopping", "worker_id", workerID)
			return
		case entries, ok := <-q.ch:
			if !ok {
				return
			}
			q.deliver(ctx, entries, workerID)
		}
	}
}

func (q *MemoryQueue) deliver(ctx context.Context, entries []domain.Entry, workerID int) {
	msgs := make([]consumer.Message, 0, len(entries))
	for _, entry := range entries {
		msgs = append(msgs, consumer.Message{ID: entry.ID, Body: entry.Body})
	}

	err := retry.Do(ctx, func() error {
		return q.handler.HandleBatch(ctx, msgs)
	},
		retry.WithMaxAttempts(q.cfg.MaxRetries),
		retry.WithBaseDelay(q.cfg.RetryBase),
	)

	if err != nil {
		q.logger.Error(ctx, "Batch parked after redelivery attempts",
			"worker_id", workerID,
			"entries", len(msgs),
			"error", err,
		)
	} else {
		q.logger.Debug(ctx, "Batch delivered",
			"worker_id", workerID,
			"entries", len(msgs),
		)
	}
}

func (q *MemoryQueue) Shutdown(ctx context.Context) error {
	q.logger.Info(ctx, "Shutting down memory queue")

	q.mu.Lock()
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info(ctx, "Memory queue shutdown complete")
		return nil
	case <-ctx.Done():
		q.logger.Warn(ctx, "Memory queue shutdown timeout")
		return ctx.Err()
	}
}
