package live

import (
	"testing"

	"github.com/google/uuid"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

func TestRosterAddRemove(t *testing.T) {
	r := NewRoster()
	a := models.Viewer{ID: uuid.New(), Username: "a"}
	b := models.Viewer{ID: uuid.New(), Username: "b"}
	c := models.Viewer{ID: uuid.New(), Username: "c"}

	r.Add(a)
	r.Add(b)
	r.Add(c)
	r.Add(b) // duplicate join does not grow the roster
	if r.Count() != 3 {
		t.Fatalf("unexpected count: got=%d want=3", r.Count())
	}

	r.Remove(b.ID)
	if r.Contains(b.ID) {
		t.Fatal("removed viewer still present")
	}
	// index stays consistent after the middle removal
	if v, ok := r.Get(c.ID); !ok || v.Username != "c" {
		t.Fatalf("lookup after removal broken: %+v ok=%v", v, ok)
	}

	list := r.List()
	if len(list) != 2 || list[0].Username != "a" || list[1].Username != "c" {
		t.Fatalf("unexpected join order: %+v", list)
	}
}

func TestRosterRemoveUnknownIsNoop(t *testing.T) {
	r := NewRoster()
	r.Add(models.Viewer{ID: uuid.New(), Username: "a"})
	r.Remove(uuid.New())
	if r.Count() != 1 {
		t.Fatalf("unexpected count: got=%d want=1", r.Count())
	}
}
