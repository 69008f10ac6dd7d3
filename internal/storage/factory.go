package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cardworks/loyalty-cards-be/internal/config"
	"github.com/cardworks/loyalty-cards-be/internal/domain"
)

const (
	ProviderMemory = "memory"
	ProviderMongo  = "mongo"
)

// NewFromConfig builds the configured RecordStore. The returned close func
// releases any underlying connection.
func NewFromConfig(ctx context.Context, cfg config.StoreConfig) (domain.RecordStore, func(context.Context) error, error) {
	switch cfg.Provider {
	case ProviderMemory:
		return NewMemoryStore(), func(context.Context) error { return nil }, nil

	case ProviderMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
		}

		if err := client.Ping(connectCtx, nil); err != nil {
			return nil, nil, fmt.Errorf("ping mongodb: %w", err)
		}

		store := NewMongoStore(client.Database(cfg.Database), cfg.TableName)
		if err := store.EnsureIndexes(connectCtx); err != nil {
			return nil, nil, err
		}

		return store, client.Disconnect, nil

	default:
		return nil, nil, fmt.Errorf("unknown store provider: %s", cfg.Provider)
	}
}
