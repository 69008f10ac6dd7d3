package domain

import "context"

// RecordStore is the key-value card store. GetByCardNumber returns (nil, nil)
// on a miss. Scan cursors are store-native opaque strings; callers thread
// them back unchanged.
type RecordStore interface {
	Put(ctx context.Context, card LoyaltyCard) error
	GetByCardNumber(ctx context.Context, cardNumber string) (*LoyaltyCard, error)
	Scan(ctx context.Context, limit int, cursor string) ([]LoyaltyCard, string, error)
}

// BlobStore retrieves whole-file text content by object key and container.
type BlobStore interface {
	Fetch(ctx context.Context, objectKey, containerName string) (string, error)
}

// Entry is one queued creation request; ID is the card number, Body the
// serialized request.
type Entry struct {
	ID   string
	Body []byte
}

// BatchSender enqueues one bounded batch. allAccepted reports whether the
// transport accepted every entry; a false return is not an error.
type BatchSender interface {
	SendBatch(ctx context.Context, entries []Entry) (bool, error)
}
