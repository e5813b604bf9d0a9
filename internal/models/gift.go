package models

import (
	"time"

	"github.com/google/uuid"
)

// GiftDefinition is one entry of the gift catalog.
type GiftDefinition struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	IconURL   string    `json:"icon_url"`
	S3Key     string    `json:"-"`
	Category  string    `json:"category"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// GiftEvent is an ephemeral gift notification: it drives the client-side
// animation and the ledger update, then is discarded.
type GiftEvent struct {
	ID        string         `json:"id"`
	Gift      GiftDefinition `json:"gift"`
	SenderID  uuid.UUID      `json:"sender_id"`
	Sender    string         `json:"sender"`
	SessionID uuid.UUID      `json:"session_id"`
	SentAt    time.Time      `json:"sent_at"`
}

// TopGifter is a ranked entry of a session's gift leaderboard.
type TopGifter struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Amount   int64     `json:"amount"`
}
