package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/CraftAlchemy/Vidora-sub000/internal/live"
	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

func postVote(t *testing.T, router *gin.Engine, sessionID uuid.UUID, optionID string) *httptest.ResponseRecorder {
	t.Helper()
	body := strings.NewReader(`{"option_id":"` + optionID + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID.String()+"/polls/vote", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestVoteRespondsNoContentEitherWay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := live.NewManager(live.Config{Seed: 1}, nil, nil, nil, live.Callbacks{}, nil)
	host := models.User{ID: uuid.New(), Username: "host", Role: models.RoleBroadcaster}
	s, err := m.Start(context.Background(), host, "vote test", models.SourceFile, "clip.mp4")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Shutdown()

	h := NewHandler(m, nil, nil, nil, nil)
	router := gin.New()
	router.POST("/sessions/:id/polls/vote", h.Vote)

	// No active poll: the vote is dropped, the status does not reveal it.
	w := postVote(t, router, s.ID(), "opt-0")
	if w.Code != http.StatusNoContent {
		t.Fatalf("vote without poll: status got=%d want=%d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("vote without poll leaked a body: %q", w.Body.String())
	}

	if _, err := s.LaunchPoll("best gift?", []string{"rose", "rocket"}); err != nil {
		t.Fatalf("LaunchPoll failed: %v", err)
	}
	optionID := s.Poll().Options[0].ID

	w = postVote(t, router, s.ID(), optionID)
	if w.Code != http.StatusNoContent {
		t.Fatalf("vote with poll: status got=%d want=%d", w.Code, http.StatusNoContent)
	}
	if got := s.Poll().Options[0].Votes; got != 1 {
		t.Fatalf("vote not counted: got=%d want=1", got)
	}

	// Unknown option on an active poll is indistinguishable from a valid one.
	w = postVote(t, router, s.ID(), "bogus")
	if w.Code != http.StatusNoContent {
		t.Fatalf("unknown option: status got=%d want=%d", w.Code, http.StatusNoContent)
	}
	if got := s.Poll().TotalVotes; got != 1 {
		t.Fatalf("unknown option counted: total=%d want=1", got)
	}
}
