package live

import (
	"github.com/google/uuid"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// Roster is the ordered set of viewers currently in a session room.
// Banned viewers are removed and cannot rejoin. Not safe for concurrent use;
// the owning Session serializes access.
type Roster struct {
	byID  map[uuid.UUID]int
	order []models.Viewer
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{byID: make(map[uuid.UUID]int)}
}

// Add inserts a viewer; re-adding an existing viewer refreshes their entry.
func (r *Roster) Add(v models.Viewer) {
	if idx, ok := r.byID[v.ID]; ok {
		r.order[idx] = v
		return
	}
	r.byID[v.ID] = len(r.order)
	r.order = append(r.order, v)
}

// Remove drops a viewer from the roster.
func (r *Roster) Remove(userID uuid.UUID) {
	idx, ok := r.byID[userID]
	if !ok {
		return
	}
	delete(r.byID, userID)
	r.order = append(r.order[:idx], r.order[idx+1:]...)
	for i := idx; i < len(r.order); i++ {
		r.byID[r.order[i].ID] = i
	}
}

// Contains reports whether the viewer is in the roster.
func (r *Roster) Contains(userID uuid.UUID) bool {
	_, ok := r.byID[userID]
	return ok
}

// Get returns the viewer entry for an ID.
func (r *Roster) Get(userID uuid.UUID) (models.Viewer, bool) {
	idx, ok := r.byID[userID]
	if !ok {
		return models.Viewer{}, false
	}
	return r.order[idx], true
}

// List returns a copy of the roster in join order.
func (r *Roster) List() []models.Viewer {
	out := make([]models.Viewer, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of viewers present.
func (r *Roster) Count() int {
	return len(r.order)
}
