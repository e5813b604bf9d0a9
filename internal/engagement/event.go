package engagement

import (
	"time"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// Category identifies an engagement event kind.
type Category string

const (
	CategoryChat     Category = "chat"
	CategoryFollow   Category = "follow"
	CategoryGift     Category = "gift"
	CategoryPollVote Category = "poll_vote"
)

// Event is one engagement event attributed to a viewer of a live session.
// Exactly one downstream store consumes it: chat -> transcript, gift ->
// ledger + transcript, follow -> event log, poll_vote -> poll engine.
type Event struct {
	ID       string                 `json:"id"`
	Category Category               `json:"category"`
	Viewer   models.Viewer          `json:"viewer"`
	Text     string                 `json:"text,omitempty"`
	Gift     *models.GiftDefinition `json:"gift,omitempty"`
	OptionID string                 `json:"option_id,omitempty"`
	At       time.Time              `json:"at"`
}

// Stream is the session surface the generator draws from and projects into.
// Viewers returns the non-banned roster; moderation filtering of the emitted
// event happens inside Apply, never before the draw, so muting changes which
// events surface without disturbing the generator's draw sequence.
type Stream interface {
	Viewers() []models.Viewer
	PollOptionIDs() []string
	GiftChoices() []models.GiftDefinition
	Apply(Event)
}
