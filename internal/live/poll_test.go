package live

import (
	"errors"
	"math"
	"testing"
)

func TestPollLaunchWhileActiveFails(t *testing.T) {
	p := NewPollEngine()
	first, err := p.Launch("favorite color?", []string{"red", "blue"})
	if err != nil {
		t.Fatalf("first launch failed: %v", err)
	}
	if !first.Active || len(first.Options) != 2 {
		t.Fatalf("unexpected first snapshot: %+v", first)
	}

	_, err = p.Launch("second?", []string{"a", "b"})
	if !errors.Is(err, ErrPollAlreadyActive) {
		t.Fatalf("expected ErrPollAlreadyActive, got %v", err)
	}
	// the running poll is untouched
	if snap := p.Snapshot(); snap.Question != "favorite color?" {
		t.Fatalf("running poll perturbed: %q", snap.Question)
	}
}

func TestPollVoteCounting(t *testing.T) {
	p := NewPollEngine()
	snap, err := p.Launch("q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	optA := snap.Options[0].ID
	optB := snap.Options[1].ID

	p.Vote(optA)
	p.Vote(optA)
	p.Vote(optB)
	p.Vote("nonexistent") // dropped

	got := p.Snapshot()
	if got.TotalVotes != 3 {
		t.Fatalf("unexpected total: got=%d want=3", got.TotalVotes)
	}
	if got.Options[0].Votes != 2 || got.Options[1].Votes != 1 {
		t.Fatalf("unexpected counts: %+v", got.Options)
	}
	if pct := p.Percent(optA); math.Abs(pct-2.0/3.0) > 1e-9 {
		t.Fatalf("unexpected percent: got=%f", pct)
	}
}

func TestPollPercentZeroWhenNoVotes(t *testing.T) {
	p := NewPollEngine()
	snap, _ := p.Launch("q", []string{"a"})
	if pct := p.Percent(snap.Options[0].ID); pct != 0 {
		t.Fatalf("expected 0 percent with no votes, got %f", pct)
	}
}

func TestPollEndIsTerminalForInstance(t *testing.T) {
	p := NewPollEngine()
	snap, _ := p.Launch("q", []string{"a", "b"})
	opt := snap.Options[0].ID

	p.Vote(opt)
	p.End()
	p.Vote(opt) // late vote dropped

	got := p.Snapshot()
	if got.TotalVotes != 1 {
		t.Fatalf("late vote was counted: total=%d", got.TotalVotes)
	}
	if !got.Ended || got.Active {
		t.Fatalf("unexpected state: %+v", got)
	}
	if p.OptionIDs() != nil {
		t.Fatal("OptionIDs should be nil when poll is not active")
	}

	// a fresh poll may start after the previous one ended
	if _, err := p.Launch("next", []string{"x", "y"}); err != nil {
		t.Fatalf("relaunch after end failed: %v", err)
	}
	if got := p.Snapshot(); got.TotalVotes != 0 || got.Question != "next" {
		t.Fatalf("relaunch carried old state: %+v", got)
	}
}

func TestPollVoteBeforeLaunchIsDropped(t *testing.T) {
	p := NewPollEngine()
	p.Vote("anything")
	if got := p.Snapshot(); got.TotalVotes != 0 {
		t.Fatalf("vote before launch counted: %d", got.TotalVotes)
	}
}
