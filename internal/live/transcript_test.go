package live

import (
	"strconv"
	"testing"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

func TestTranscriptEvictsOldestAtCap(t *testing.T) {
	tr := NewTranscript(3)
	for i := 0; i < 5; i++ {
		tr.Append(models.ChatMessage{ID: strconv.Itoa(i)})
	}
	if tr.Len() != 3 {
		t.Fatalf("unexpected length: got=%d want=3", tr.Len())
	}
	msgs := tr.Messages()
	for i, want := range []string{"2", "3", "4"} {
		if msgs[i].ID != want {
			t.Fatalf("unexpected message at %d: got=%s want=%s", i, msgs[i].ID, want)
		}
	}
}

func TestTranscriptKeepsGenerationOrder(t *testing.T) {
	tr := NewTranscript(10)
	for i := 0; i < 4; i++ {
		tr.Append(models.ChatMessage{ID: strconv.Itoa(i)})
	}
	msgs := tr.Messages()
	for i := range msgs {
		if msgs[i].ID != strconv.Itoa(i) {
			t.Fatalf("order broken at %d: got=%s", i, msgs[i].ID)
		}
	}
}

func TestTranscriptZeroCapUsesDefault(t *testing.T) {
	tr := NewTranscript(0)
	for i := 0; i < DefaultTranscriptCap+5; i++ {
		tr.Append(models.ChatMessage{ID: strconv.Itoa(i)})
	}
	if tr.Len() != DefaultTranscriptCap {
		t.Fatalf("unexpected length: got=%d want=%d", tr.Len(), DefaultTranscriptCap)
	}
}

func TestTranscriptMessagesReturnsCopy(t *testing.T) {
	tr := NewTranscript(5)
	tr.Append(models.ChatMessage{ID: "a"})
	msgs := tr.Messages()
	msgs[0].ID = "mutated"
	if tr.Messages()[0].ID != "a" {
		t.Fatal("Messages returned a live reference, expected a copy")
	}
}
