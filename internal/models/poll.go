package models

// PollOption is one selectable answer of a session poll.
type PollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// PollSnapshot is a read-only projection of the active (or last) poll.
type PollSnapshot struct {
	Question   string       `json:"question"`
	Options    []PollOption `json:"options"`
	TotalVotes int          `json:"total_votes"`
	Active     bool         `json:"active"`
	Ended      bool         `json:"ended"`
}
