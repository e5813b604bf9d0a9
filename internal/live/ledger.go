package live

import (
	"sort"

	"github.com/google/uuid"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// DefaultTopGifters is how many leaderboard entries the UI shows.
const DefaultTopGifters = 3

// GiftLedger accumulates gift value per contributing user for one session.
// Exact totals are kept for every contributor; the top-N ranking is a view,
// not a truncation of storage. Not safe for concurrent use; the owning
// Session serializes access.
type GiftLedger struct {
	totals map[uuid.UUID]*ledgerEntry
	seq    int
}

type ledgerEntry struct {
	userID   uuid.UUID
	username string
	amount   int64
	seq      int // first-contribution order, used as the stable tie-break
}

// NewGiftLedger creates an empty ledger.
func NewGiftLedger() *GiftLedger {
	return &GiftLedger{totals: make(map[uuid.UUID]*ledgerEntry)}
}

// Record adds amount to the user's running total, creating an entry on first
// contribution. The ledger never rejects; balance checks happen before Record.
func (l *GiftLedger) Record(userID uuid.UUID, username string, amount int64) {
	if e, ok := l.totals[userID]; ok {
		e.amount += amount
		return
	}
	l.totals[userID] = &ledgerEntry{userID: userID, username: username, amount: amount, seq: l.seq}
	l.seq++
}

// Total returns the cumulative amount contributed by the user.
func (l *GiftLedger) Total(userID uuid.UUID) int64 {
	if e, ok := l.totals[userID]; ok {
		return e.amount
	}
	return 0
}

// Top returns a read-only snapshot of the n highest contributors, sorted
// descending by cumulative amount; ties break by first-contribution order.
func (l *GiftLedger) Top(n int) []models.TopGifter {
	if n <= 0 {
		n = DefaultTopGifters
	}
	entries := make([]*ledgerEntry, 0, len(l.totals))
	for _, e := range l.totals {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].amount != entries[j].amount {
			return entries[i].amount > entries[j].amount
		}
		return entries[i].seq < entries[j].seq
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]models.TopGifter, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.TopGifter{UserID: e.userID, Username: e.username, Amount: e.amount})
	}
	return out
}
