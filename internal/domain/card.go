package domain

import "time"

// CardNumberPattern is the canonical loyalty card number format.
const CardNumberPattern = `^[0-9]{4}-[0-9]{4}-[0-9]{4}-[0-9]{4}$`

// LoyaltyCard is keyed by CardNumber; immutable once created.
type LoyaltyCard struct {
	CardNumber    string    `json:"cardNumber" bson:"card_number"`
	FirstName     string    `json:"firstName" bson:"first_name"`
	LastName      string    `json:"lastName" bson:"last_name"`
	Points        int       `json:"points" bson:"points"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt" bson:"last_updated_at"`
}

// CreateCardRequest is the transient creation payload. Points is optional
// and defaults to zero.
type CreateCardRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	CardNumber string `json:"cardNumber"`
	Points     *int   `json:"points,omitempty"`
}

func (r CreateCardRequest) PointsOrDefault() int {
	if r.Points == nil {
		return 0
	}
	return *r.Points
}

// Candidate flattens the request into the shape the row validator checks.
func (r CreateCardRequest) Candidate() map[string]interface{} {
	candidate := map[string]interface{}{
		"firstName":  r.FirstName,
		"lastName":   r.LastName,
		"cardNumber": r.CardNumber,
	}
	if r.Points != nil {
		candidate["points"] = *r.Points
	}
	return candidate
}

// CardPage is one page of a scan plus the resume position. NextCursor is
// empty at the end of data.
type CardPage struct {
	Cards      []LoyaltyCard
	NextCursor string
}
