package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// position is the store-native resume point behind the opaque cursor string.
// Encoded as base64(JSON) so callers can thread it through untouched.
type position struct {
	CardNumber string `json:"cardNumber"`
}

func encodeCursor(lastCardNumber string) string {
	raw, _ := json.Marshal(position{CardNumber: lastCardNumber})
	return base64.StdEncoding.EncodeToString(raw)
}

func decodeCursor(cursor string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("decode cursor: %w", err)
	}

	var pos position
	if err := json.Unmarshal(raw, &pos); err != nil {
		return "", fmt.Errorf("decode cursor: %w", err)
	}

	return pos.CardNumber, nil
}
