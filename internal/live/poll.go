package live

import (
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// PollState is the lifecycle state of the session poll slot.
type PollState int

const (
	NoPoll PollState = iota
	PollActive
	PollEnded
)

// PollEngine is the single-poll state machine of a session: at most one poll
// is active at a time, and ending a poll is terminal for that poll instance.
// Not safe for concurrent use; the owning Session serializes access.
type PollEngine struct {
	state    PollState
	question string
	options  []models.PollOption
	byID     map[string]int
	total    int
}

// NewPollEngine creates the engine in the NoPoll state.
func NewPollEngine() *PollEngine {
	return &PollEngine{state: NoPoll}
}

// Launch starts a new poll. Fails with ErrPollAlreadyActive while a poll is
// active; the existing poll is untouched. A new poll may be launched after
// the previous one ended.
func (p *PollEngine) Launch(question string, options []string) (models.PollSnapshot, error) {
	if p.state == PollActive {
		return models.PollSnapshot{}, ErrPollAlreadyActive
	}
	p.state = PollActive
	p.question = question
	p.options = make([]models.PollOption, 0, len(options))
	p.byID = make(map[string]int, len(options))
	p.total = 0
	for _, text := range options {
		id := gonanoid.Must(8)
		p.byID[id] = len(p.options)
		p.options = append(p.options, models.PollOption{ID: id, Text: text})
	}
	return p.Snapshot(), nil
}

// Vote increments the option's count and the total. Votes for an unknown
// option or a poll that is not active are dropped silently, not queued.
func (p *PollEngine) Vote(optionID string) {
	if p.state != PollActive {
		return
	}
	idx, ok := p.byID[optionID]
	if !ok {
		return
	}
	p.options[idx].Votes++
	p.total++
}

// End transitions the active poll to Ended. A no-op in any other state.
func (p *PollEngine) End() {
	if p.state == PollActive {
		p.state = PollEnded
	}
}

// State returns the current poll state.
func (p *PollEngine) State() PollState {
	return p.state
}

// OptionIDs returns the active poll's option ids, or nil when no poll is active.
func (p *PollEngine) OptionIDs() []string {
	if p.state != PollActive {
		return nil
	}
	ids := make([]string, 0, len(p.options))
	for _, o := range p.options {
		ids = append(ids, o.ID)
	}
	return ids
}

// Percent returns the option's share of the total vote, 0 when no votes were cast.
func (p *PollEngine) Percent(optionID string) float64 {
	idx, ok := p.byID[optionID]
	if !ok || p.total == 0 {
		return 0
	}
	return float64(p.options[idx].Votes) / float64(p.total)
}

// Snapshot returns a read-only copy of the current poll.
func (p *PollEngine) Snapshot() models.PollSnapshot {
	opts := make([]models.PollOption, len(p.options))
	copy(opts, p.options)
	return models.PollSnapshot{
		Question:   p.question,
		Options:    opts,
		TotalVotes: p.total,
		Active:     p.state == PollActive,
		Ended:      p.state == PollEnded,
	}
}
