package live

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

type fakeMedia struct {
	acquired int
	released int
	fail     error
}

func (f *fakeMedia) AcquirePublisher(uuid.UUID) (func(), error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.acquired++
	return func() { f.released++ }, nil
}

type fakeCatalog struct {
	gifts []models.GiftDefinition
	err   error
}

func (f *fakeCatalog) ActiveGifts(context.Context) ([]models.GiftDefinition, error) {
	return f.gifts, f.err
}

func testManager(t *testing.T, media MediaAcquirer, catalog CatalogSource, cb Callbacks) *Manager {
	t.Helper()
	return NewManager(Config{Seed: 1}, media, catalog, &recordingHub{}, cb, zap.NewNop())
}

func testUser(name string) models.User {
	return models.User{ID: uuid.New(), Username: name, Role: models.RoleBroadcaster}
}

func TestManagerStartEndLifecycle(t *testing.T) {
	media := &fakeMedia{}
	var endedSessions []uuid.UUID
	cb := Callbacks{OnSessionEnded: func(final models.BroadcastSession) {
		endedSessions = append(endedSessions, final.ID)
	}}
	m := testManager(t, media, nil, cb)

	s, err := m.Start(context.Background(), testUser("host"), "my stream", models.SourceCamera, "")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if media.acquired != 1 {
		t.Fatalf("publisher not acquired: %d", media.acquired)
	}
	if got := len(m.Live()); got != 1 {
		t.Fatalf("live registry: got=%d want=1", got)
	}

	final, err := m.End(s.ID())
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if final.Status != models.SessionEnded || final.EndedAt == nil {
		t.Fatalf("final model not closed: %+v", final)
	}
	if media.released != 1 {
		t.Fatalf("publisher not released: %d", media.released)
	}
	if len(endedSessions) != 1 || endedSessions[0] != s.ID() {
		t.Fatalf("OnSessionEnded mismatch: %v", endedSessions)
	}
	if got := len(m.Live()); got != 0 {
		t.Fatalf("session still live after End: %d", got)
	}

	if _, err := m.End(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second End: expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerSingleLiveSessionPerUser(t *testing.T) {
	m := testManager(t, &fakeMedia{}, nil, Callbacks{})
	user := testUser("host")

	first, err := m.Start(context.Background(), user, "first", models.SourceFile, "clip.mp4")
	if err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	second, err := m.Start(context.Background(), user, "second", models.SourceFile, "clip2.mp4")
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	if got := len(m.Live()); got != 1 {
		t.Fatalf("expected one live session, got %d", got)
	}
	if _, ok := m.Get(first.ID()); ok {
		t.Fatal("first session should have been ended")
	}
	if s, ok := m.GetByUser(user.ID); !ok || s.ID() != second.ID() {
		t.Fatal("byUser registry should point at the replacement session")
	}
}

func TestManagerURLSourceRequiresData(t *testing.T) {
	m := testManager(t, &fakeMedia{}, nil, Callbacks{})
	_, err := m.Start(context.Background(), testUser("host"), "t", models.SourceURL, "")
	if !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
	if got := len(m.Live()); got != 0 {
		t.Fatalf("no session should exist, got %d", got)
	}
}

func TestManagerCameraFailureAbortsStart(t *testing.T) {
	media := &fakeMedia{fail: errors.New("device busy")}
	m := testManager(t, media, nil, Callbacks{})

	_, err := m.Start(context.Background(), testUser("host"), "t", models.SourceCamera, "")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if got := len(m.Live()); got != 0 {
		t.Fatalf("no session should exist after failed acquire, got %d", got)
	}
}

func TestManagerLoadsGiftCatalog(t *testing.T) {
	catalog := &fakeCatalog{gifts: []models.GiftDefinition{{ID: uuid.New(), Name: "Rose", Price: 10}}}
	m := testManager(t, &fakeMedia{}, catalog, Callbacks{})

	s, err := m.Start(context.Background(), testUser("host"), "t", models.SourceFile, "clip.mp4")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.End(s.ID())

	if got := s.GiftChoices(); len(got) != 1 || got[0].Name != "Rose" {
		t.Fatalf("catalog not wired into session: %+v", got)
	}
}

func TestManagerCatalogFailureDegrades(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("db down")}
	m := testManager(t, &fakeMedia{}, catalog, Callbacks{})

	s, err := m.Start(context.Background(), testUser("host"), "t", models.SourceFile, "clip.mp4")
	if err != nil {
		t.Fatalf("Start should survive catalog failure: %v", err)
	}
	defer m.End(s.ID())

	if got := s.GiftChoices(); len(got) != 0 {
		t.Fatalf("expected empty gift choices, got %+v", got)
	}
}

func TestManagerNoMutationAfterEnd(t *testing.T) {
	m := testManager(t, &fakeMedia{}, nil, Callbacks{})
	s, err := m.Start(context.Background(), testUser("host"), "t", models.SourceFile, "clip.mp4")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	viewer := models.Viewer{ID: uuid.New(), Username: "v"}
	s.AddViewer(viewer)

	if _, err := m.End(s.ID()); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	// the retained handle is inert after End returns
	if _, delivered := s.PostChat(viewer, "late", ""); delivered {
		t.Fatal("chat accepted after End")
	}
	if s.AddViewer(models.Viewer{ID: uuid.New(), Username: "new"}) {
		t.Fatal("viewer admitted after End")
	}
	if len(s.Transcript()) != 0 {
		t.Fatal("transcript mutated after End")
	}
}

func TestManagerShutdownEndsEverything(t *testing.T) {
	m := testManager(t, &fakeMedia{}, nil, Callbacks{})
	for i := 0; i < 3; i++ {
		if _, err := m.Start(context.Background(), testUser("host"), "t", models.SourceFile, "clip.mp4"); err != nil {
			t.Fatalf("Start %d failed: %v", i, err)
		}
	}
	m.Shutdown()
	if got := len(m.Live()); got != 0 {
		t.Fatalf("sessions still live after Shutdown: %d", got)
	}
}

// gatedMedia holds both acquisitions open so two Starts for the same
// broadcaster can pass the prior-session check before either registers.
type gatedMedia struct {
	gate    chan struct{}
	entered chan struct{}

	mu       sync.Mutex
	acquired int
	released int
}

func (g *gatedMedia) AcquirePublisher(uuid.UUID) (func(), error) {
	g.entered <- struct{}{}
	<-g.gate
	g.mu.Lock()
	g.acquired++
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		g.released++
		g.mu.Unlock()
	}, nil
}

func TestManagerConcurrentStartsKeepOneLiveSession(t *testing.T) {
	media := &gatedMedia{gate: make(chan struct{}), entered: make(chan struct{}, 2)}
	var cbMu sync.Mutex
	var ended []uuid.UUID
	cb := Callbacks{OnSessionEnded: func(final models.BroadcastSession) {
		cbMu.Lock()
		ended = append(ended, final.ID)
		cbMu.Unlock()
	}}
	m := testManager(t, media, nil, cb)
	user := testUser("host")

	var wg sync.WaitGroup
	started := make(chan *Session, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Start(context.Background(), user, "race", models.SourceCamera, "")
			if err != nil {
				t.Errorf("Start failed: %v", err)
				return
			}
			started <- s
		}()
	}
	<-media.entered
	<-media.entered
	close(media.gate)
	wg.Wait()
	close(started)

	live := m.Live()
	if len(live) != 1 {
		t.Fatalf("live sessions for one broadcaster: got=%d want=1", len(live))
	}
	survivor, ok := m.GetByUser(user.ID)
	if !ok || survivor.ID() != live[0].ID {
		t.Fatalf("user slot does not point at the live session")
	}
	cbMu.Lock()
	endedCount := len(ended)
	cbMu.Unlock()
	if endedCount != 1 {
		t.Fatalf("displaced sessions ended: got=%d want=1", endedCount)
	}
	for s := range started {
		if s.ID() == survivor.ID() {
			continue
		}
		if s.Model().Status != models.SessionEnded {
			t.Fatalf("displaced session still open: %+v", s.Model())
		}
	}
	media.mu.Lock()
	acquired, released := media.acquired, media.released
	media.mu.Unlock()
	if acquired != 2 || released != 1 {
		t.Fatalf("media handles: acquired=%d released=%d want 2/1", acquired, released)
	}
	if _, err := m.End(survivor.ID()); err != nil {
		t.Fatalf("End survivor: %v", err)
	}
}
