package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry in a session's chat transcript.
type ChatMessage struct {
	ID       string    `json:"id"`
	SenderID uuid.UUID `json:"sender_id"`
	Sender   string    `json:"sender"`
	Text     string    `json:"text"`
	ImageURL string    `json:"image_url,omitempty"`
	Read     bool      `json:"read"`
	SentAt   time.Time `json:"sent_at"`
}
