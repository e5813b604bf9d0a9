package live

import (
	"testing"

	"github.com/google/uuid"
)

func TestLedgerAccumulatesPerUser(t *testing.T) {
	l := NewGiftLedger()
	alice := uuid.New()
	l.Record(alice, "alice", 10)
	l.Record(alice, "alice", 25)
	if got := l.Total(alice); got != 35 {
		t.Fatalf("unexpected total: got=%d want=35", got)
	}
	if got := l.Total(uuid.New()); got != 0 {
		t.Fatalf("unknown user total: got=%d want=0", got)
	}
}

func TestLedgerTopOrdering(t *testing.T) {
	l := NewGiftLedger()
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	l.Record(a, "a", 50)
	l.Record(b, "b", 200)
	l.Record(c, "c", 100)
	l.Record(d, "d", 10)

	top := l.Top(3)
	if len(top) != 3 {
		t.Fatalf("unexpected top length: got=%d want=3", len(top))
	}
	if top[0].UserID != b || top[1].UserID != c || top[2].UserID != a {
		t.Fatalf("unexpected order: got=%s,%s,%s", top[0].Username, top[1].Username, top[2].Username)
	}
}

func TestLedgerTopTieBreakByFirstContribution(t *testing.T) {
	l := NewGiftLedger()
	first, second := uuid.New(), uuid.New()
	l.Record(first, "first", 100)
	l.Record(second, "second", 100)

	top := l.Top(2)
	if top[0].UserID != first || top[1].UserID != second {
		t.Fatalf("tie-break broken: got=%s,%s want=first,second", top[0].Username, top[1].Username)
	}
}

func TestLedgerTopDefaultsToThree(t *testing.T) {
	l := NewGiftLedger()
	for i := 0; i < 5; i++ {
		l.Record(uuid.New(), "u", int64(i+1))
	}
	if got := len(l.Top(0)); got != DefaultTopGifters {
		t.Fatalf("unexpected default top length: got=%d want=%d", got, DefaultTopGifters)
	}
}

func TestLedgerKeepsExactTotalsBeyondTopN(t *testing.T) {
	l := NewGiftLedger()
	small := uuid.New()
	l.Record(small, "small", 1)
	for i := 0; i < 3; i++ {
		l.Record(uuid.New(), "big", 1000)
	}
	// small is outside the leaderboard but its exact total survives
	if got := l.Total(small); got != 1 {
		t.Fatalf("exact total lost: got=%d want=1", got)
	}
}
