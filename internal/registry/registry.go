package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/cardworks/loyalty-cards-be/internal/domain"
	"github.com/cardworks/loyalty-cards-be/internal/validate"
	"github.com/cardworks/loyalty-cards-be/pkg/logger"
)

// CardRegistry owns create/find/list semantics for loyalty cards.
type CardRegistry interface {
	Create(ctx context.Context, req domain.CreateCardRequest) (*domain.LoyaltyCard, error)
	Find(ctx context.Context, cardNumber string) (*domain.LoyaltyCard, error)
	List(ctx context.Context, limit int, cursor string) (*domain.CardPage, error)
}

type cardRegistry struct {
	store     domain.RecordStore
	validator *validate.RowValidator
	logger    *logger.Logger
}

func New(store domain.RecordStore, validator *validate.RowValidator, log *logger.Logger) CardRegistry {
	return &cardRegistry{
		store:     store,
		validator: validator,
		logger:    log,
	}
}

// Create validates the request, rejects duplicates, persists the card and
// returns the re-read record. The store, not the in-memory value, is the
// source of truth for the response.
func (r *cardRegistry) Create(ctx context.Context, req domain.CreateCardRequest) (*domain.LoyaltyCard, error) {
	ctx = logger.WithCardNumber(ctx, req.CardNumber)

	if result := r.validator.Validate(req.Candidate()); !result.Valid {
		r.logger.Warn(ctx, "Create rejected: invalid request",
			"reason", result.ErrorMessage,
		)
		return nil, domain.NewInvalidData(result.ErrorMessage)
	}

	existing, err := r.store.GetByCardNumber(ctx, req.CardNumber)
	if err != nil {
		r.logger.Error(ctx, "Failed to check for existing card",
			"error", err,
		)
		return nil, err
	}

	if existing != nil {
		r.logger.Warn(ctx, "Create rejected: card already exists")
		return nil, domain.NewAlreadyExists("loyalty card already exists")
	}

	now := time.Now().UTC()
	card := domain.LoyaltyCard{
		CardNumber:    req.CardNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Points:        req.PointsOrDefault(),
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if err := r.store.Put(ctx, card); err != nil {
		r.logger.Error(ctx, "Failed to persist card",
			"error", err,
		)
		return nil, err
	}

	created, err := r.store.GetByCardNumber(ctx, req.CardNumber)
	if err != nil {
		r.logger.Error(ctx, "Failed to read back created card",
			"error", err,
		)
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("card %s not visible after write", req.CardNumber)
	}

	r.logger.Info(ctx, "Card created",
		"points", created.Points,
	)

	return created, nil
}

func (r *cardRegistry) Find(ctx context.Context, cardNumber string) (*domain.LoyaltyCard, error) {
	ctx = logger.WithCardNumber(ctx, cardNumber)

	card, err := r.store.GetByCardNumber(ctx, cardNumber)
	if err != nil {
		r.logger.Error(ctx, "Failed to look up card",
			"error", err,
		)
		return nil, err
	}

	if card == nil {
		return nil, domain.NewNotFound(fmt.Sprintf("loyalty card with number %s not found", cardNumber))
	}

	return card, nil
}

// List delegates pagination to the store; the cursor is passed through
// untouched in both directions.
func (r *cardRegistry) List(ctx context.Context, limit int, cursor string) (*domain.CardPage, error) {
	cards, nextCursor, err := r.store.Scan(ctx, limit, cursor)
	if err != nil {
		r.logger.Error(ctx, "Failed to scan cards",
			"error", err,
		)
		return nil, err
	}

	r.logger.Debug(ctx, "Cards listed",
		"returned", len(cards),
		"has_more", nextCursor != "",
	)

	return &domain.CardPage{Cards: cards, NextCursor: nextCursor}, nil
}
