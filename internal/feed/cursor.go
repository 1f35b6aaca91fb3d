package feed

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor encodes a position in the (created_at DESC, id DESC) total order.
// The token is opaque to clients: base64 over a small JSON document.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// Encode serializes the cursor into an opaque token
func (c Cursor) Encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a token produced by Encode
func DecodeCursor(token string) (Cursor, error) {
	var c Cursor
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, fmt.Errorf("malformed cursor: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("malformed cursor: %w", err)
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return c, fmt.Errorf("malformed cursor: missing fields")
	}
	return c, nil
}
