package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/cardworks/loyalty-cards-be/internal/domain"
)

// MemoryStore is an in-process RecordStore. Scan walks cards in card-number
// order so cursors stay stable across calls.
type MemoryStore struct {
	cards map[string]domain.LoyaltyCard
	order []string
	mu    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cards: make(map[string]domain.LoyaltyCard),
	}
}

func (s *MemoryStore) Put(ctx context.Context, card domain.LoyaltyCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cards[card.CardNumber]; !exists {
		i := sort.SearchStrings(s.order, card.CardNumber)
		s.order = append(s.order, "")
		copy(s.order[i+1:], s.order[i:])
		s.order[i] = card.CardNumber
	}

	s.cards[card.CardNumber] = card

	return nil
}

func (s *MemoryStore) GetByCardNumber(ctx context.Context, cardNumber string) (*domain.LoyaltyCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, exists := s.cards[cardNumber]
	if !exists {
		return nil, nil
	}

	return &card, nil
}

func (s *MemoryStore) Scan(ctx context.Context, limit int, cursor string) ([]domain.LoyaltyCard, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if cursor != "" {
		last, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", domain.NewInvalidData("invalid pagination cursor")
		}

		start = sort.SearchStrings(s.order, last)
		if start < len(s.order) && s.order[start] == last {
			start++
		}
	}

	if limit <= 0 {
		limit = len(s.order)
	}

	end := start + limit
	if end > len(s.order) {
		end = len(s.order)
	}

	cards := make([]domain.LoyaltyCard, 0, end-start)
	for _, cardNumber := range s.order[start:end] {
		cards = append(cards, s.cards[cardNumber])
	}

	nextCursor := ""
	if end < len(s.order) && len(cards) > 0 {
		nextCursor = encodeCursor(cards[len(cards)-1].CardNumber)
	}

	return cards, nextCursor, nil
}
