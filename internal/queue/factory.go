package queue

import (
	"fmt"

	"github.com/cardworks/loyalty-cards-be/internal/config"
	"github.com/cardworks/loyalty-cards-be/pkg/logger"
)

const (
	ProviderMemory = "memory"
	ProviderNats   = "nats"
)

func NewFromConfig(cfg config.QueueConfig, log *logger.Logger) (Transport, error) {
	switch cfg.Provider {
	case ProviderMemory:
		return NewMemoryQueue(MemoryQueueConfig{
			ChannelBuffer: cfg.ChannelBuffer,
			WorkerCount:   cfg.WorkerCount,
			MaxRetries:    cfg.MaxRetries,
		}, log), nil

	case ProviderNats:
		conn, err := ConnectNats(cfg.NatsURL, cfg.NatsToken)
		if err != nil {
			return nil, err
		}
		return NewNatsQueue(conn, cfg.Destination, log)

	default:
		return nil, fmt.Errorf("unknown queue provider: %s", cfg.Provider)
	}
}
