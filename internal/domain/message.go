package domain

import (
	"encoding/json"
	"time"
)

type (
	MessageID   string
	MessageKind string
)

const (
	KindText   MessageKind = "text"
	KindSystem MessageKind = "system"
)

// Message is relayed and forgotten. Payload is opaque ciphertext; the
// server never looks inside it.
type Message struct {
	ID         MessageID       `json:"id"`
	RoomID     RoomID          `json:"roomId"`
	SenderID   UserID          `json:"senderId"`
	SenderName string          `json:"senderName"`
	Payload    json.RawMessage `json:"payload"`
	TTL        int             `json:"ttl"`
	Kind       MessageKind     `json:"kind"`
	SentAt     time.Time       `json:"sentAt"`
}

// ParseKind maps the client-declared discriminator, defaulting to text.
// KindSystem is reserved for notices the server itself emits.
func ParseKind(raw string) (MessageKind, error) {
	switch MessageKind(raw) {
	case "", KindText:
		return KindText, nil
	}
	return "", ErrInvalidMessage
}
