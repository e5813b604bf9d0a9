package live

import (
	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// DefaultTranscriptCap bounds the chat transcript so render cost stays constant.
const DefaultTranscriptCap = 18

// Transcript is the append-only, capacity-bounded chat window of a session.
// Eviction is FIFO: once the cap is exceeded the oldest entries are dropped.
// Not safe for concurrent use; the owning Session serializes access.
type Transcript struct {
	cap  int
	msgs []models.ChatMessage
}

// NewTranscript creates a transcript bounded to capacity entries.
func NewTranscript(capacity int) *Transcript {
	if capacity <= 0 {
		capacity = DefaultTranscriptCap
	}
	return &Transcript{cap: capacity, msgs: make([]models.ChatMessage, 0, capacity)}
}

// Append adds a message, evicting the oldest entry when full.
func (t *Transcript) Append(msg models.ChatMessage) {
	if len(t.msgs) >= t.cap {
		drop := len(t.msgs) - t.cap + 1
		t.msgs = append(t.msgs[:0], t.msgs[drop:]...)
	}
	t.msgs = append(t.msgs, msg)
}

// Messages returns a copy of the current window in generation order.
func (t *Transcript) Messages() []models.ChatMessage {
	out := make([]models.ChatMessage, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of messages currently retained.
func (t *Transcript) Len() int {
	return len(t.msgs)
}
