package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cardworks/loyalty-cards-be/internal/domain"
)

// MongoStore is the production RecordStore. Scan is a keyset walk over the
// unique card_number index.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{coll: db.Collection(collection)}
}

// EnsureIndexes creates the unique card_number index backing lookups and
// scans.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "card_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create card_number index: %w", err)
	}

	return nil
}

func (s *MongoStore) Put(ctx context.Context, card domain.LoyaltyCard) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"card_number": card.CardNumber},
		card,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put card %s: %w", card.CardNumber, err)
	}

	return nil
}

func (s *MongoStore) GetByCardNumber(ctx context.Context, cardNumber string) (*domain.LoyaltyCard, error) {
	var card domain.LoyaltyCard
	err := s.coll.FindOne(ctx, bson.M{"card_number": cardNumber}).Decode(&card)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card %s: %w", cardNumber, err)
	}

	return &card, nil
}

func (s *MongoStore) Scan(ctx context.Context, limit int, cursor string) ([]domain.LoyaltyCard, string, error) {
	filter := bson.M{}
	if cursor != "" {
		last, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", domain.NewInvalidData("invalid pagination cursor")
		}
		filter = bson.M{"card_number": bson.M{"$gt": last}}
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "card_number", Value: 1}})
	if limit > 0 {
		// One extra row to detect whether a further page exists.
		findOpts = findOpts.SetLimit(int64(limit + 1))
	}

	result, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, "", fmt.Errorf("scan cards: %w", err)
	}

	var cards []domain.LoyaltyCard
	if err := result.All(ctx, &cards); err != nil {
		return nil, "", fmt.Errorf("scan cards: %w", err)
	}

	nextCursor := ""
	if limit > 0 && len(cards) > limit {
		cards = cards[:limit]
		nextCursor = encodeCursor(cards[limit-1].CardNumber)
	}

	return cards, nextCursor, nil
}
