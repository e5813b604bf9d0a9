package live

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CraftAlchemy/Vidora-sub000/internal/engagement"
	"github.com/CraftAlchemy/Vidora-sub000/internal/health"
	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// MediaAcquirer claims the camera/microphone publisher slot for a session.
// The returned release function must be safe to call exactly once on every
// exit path. Implemented by realtime.SFU.
type MediaAcquirer interface {
	AcquirePublisher(sessionID uuid.UUID) (release func(), err error)
}

// CatalogSource provides the gift catalog the synthetic generator draws from.
type CatalogSource interface {
	ActiveGifts(ctx context.Context) ([]models.GiftDefinition, error)
}

// Config tunes the per-session engine.
type Config struct {
	TranscriptCap int
	TopGifters    int
	Engagement    engagement.Config
	Health        health.Bounds
	Seed          int64 // 0 means time-seeded
}

// runner bundles a session with its timers and media handle.
type runner struct {
	session   *Session
	generator *engagement.Generator
	monitor   *health.Monitor
	release   func()
}

// Manager owns the live-session registry and the lifecycle of every active
// outgoing session: at most one per broadcaster, timers started on Start and
// deterministically stopped on End.
type Manager struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*runner
	byUser map[uuid.UUID]uuid.UUID // broadcaster -> live session id

	cfg       Config
	media     MediaAcquirer
	catalog   CatalogSource
	hub       Broadcaster
	callbacks Callbacks
	logger    *zap.Logger
}

// NewManager creates the session manager.
func NewManager(cfg Config, media MediaAcquirer, catalog CatalogSource, hub Broadcaster, cb Callbacks, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		byID:      make(map[uuid.UUID]*runner),
		byUser:    make(map[uuid.UUID]uuid.UUID),
		cfg:       cfg,
		media:     media,
		catalog:   catalog,
		hub:       hub,
		callbacks: cb,
		logger:    logger,
	}
}

// Start creates a live session for the broadcaster. A url source without a
// payload fails with ErrInvalidSource; camera acquisition failure surfaces as
// ErrPermissionDenied and no partial session is published. Any prior live
// session of the same broadcaster is ended first.
func (m *Manager) Start(ctx context.Context, user models.User, title string, kind models.SourceKind, sourceData string) (*Session, error) {
	if kind == models.SourceURL && sourceData == "" {
		return nil, ErrInvalidSource
	}

	m.mu.Lock()
	priorID, hasPrior := m.byUser[user.ID]
	m.mu.Unlock()
	if hasPrior {
		if _, err := m.End(priorID); err != nil && err != ErrSessionNotFound {
			return nil, fmt.Errorf("end prior session: %w", err)
		}
	}

	sessionID := uuid.New()
	release := func() {}
	if kind == models.SourceCamera && m.media != nil {
		var err error
		release, err = m.media.AcquirePublisher(sessionID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}

	model := models.BroadcastSession{
		ID:         sessionID,
		UserID:     user.ID,
		Username:   user.Username,
		Title:      title,
		Source:     kind,
		SourceData: sourceData,
		Status:     models.SessionLive,
		StartedAt:  time.Now(),
	}
	session := newSession(model, m.cfg.TranscriptCap, m.cfg.TopGifters, m.hub, m.callbacks, m.logger)

	if m.catalog != nil {
		gifts, err := m.catalog.ActiveGifts(ctx)
		if err != nil {
			m.logger.Warn("gift catalog unavailable, synthetic gifts disabled", zap.Error(err))
		} else {
			session.SetGiftChoices(gifts)
		}
	}

	gen := engagement.NewGenerator(m.cfg.Engagement, session, m.newRand(), m.logger)
	mon := health.NewMonitor(m.cfg.Health, model.StartedAt, func(sample models.HealthSample) {
		if m.hub != nil {
			m.hub.BroadcastToSessionAndPublish(sessionID, "stream_health", sample)
		}
	}, m.newRand(), m.logger)

	// Timers must be running before the session is registered, so a
	// concurrent End always finds loops it can stop.
	gen.Start()
	mon.Start()

	// Re-check the per-user slot under the lock: a concurrent Start for the
	// same broadcaster may have registered between the prior-session check
	// above and this insert. The newest session wins the slot; any session
	// found in it is ended below.
	m.mu.Lock()
	staleID, hasStale := m.byUser[user.ID]
	m.byID[sessionID] = &runner{session: session, generator: gen, monitor: mon, release: release}
	m.byUser[user.ID] = sessionID
	m.mu.Unlock()
	if hasStale {
		if _, err := m.End(staleID); err != nil && err != ErrSessionNotFound {
			m.logger.Warn("ending displaced session failed",
				zap.String("session_id", staleID.String()), zap.Error(err))
		}
	}
	m.logger.Info("session started",
		zap.String("session_id", sessionID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("source", string(kind)),
	)
	return session, nil
}

// End stops the session's timers, releases the media handle and removes the
// session from the live registry. No timer fires and no store mutates after
// End returns.
func (m *Manager) End(sessionID uuid.UUID) (models.BroadcastSession, error) {
	m.mu.Lock()
	r, ok := m.byID[sessionID]
	if !ok {
		m.mu.Unlock()
		return models.BroadcastSession{}, ErrSessionNotFound
	}
	delete(m.byID, sessionID)
	// The slot may already point at a replacement session; only clear it if
	// it is still ours.
	if owner := r.session.Model().UserID; m.byUser[owner] == sessionID {
		delete(m.byUser, owner)
	}
	m.mu.Unlock()

	// close first so an in-flight tick is dropped, then wait the loops out
	model := r.session.close(time.Now())
	r.generator.Stop()
	r.monitor.Stop()
	if r.release != nil {
		r.release()
	}

	if m.hub != nil {
		m.hub.BroadcastToSessionAndPublish(sessionID, "session_ended", map[string]string{"session_id": sessionID.String()})
	}
	if m.callbacks.OnSessionEnded != nil {
		m.callbacks.OnSessionEnded(model)
	}
	m.logger.Info("session ended", zap.String("session_id", sessionID.String()))
	return model, nil
}

// Get returns the live session by id.
func (m *Manager) Get(sessionID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[sessionID]
	if !ok {
		return nil, false
	}
	return r.session, true
}

// GetByUser returns the broadcaster's live session, if any.
func (m *Manager) GetByUser(userID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byUser[userID]
	if !ok {
		return nil, false
	}
	r, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return r.session, true
}

// Live returns metadata for every session currently live.
func (m *Manager) Live() []models.BroadcastSession {
	m.mu.Lock()
	runners := make([]*runner, 0, len(m.byID))
	for _, r := range m.byID {
		runners = append(runners, r)
	}
	m.mu.Unlock()

	out := make([]models.BroadcastSession, 0, len(runners))
	for _, r := range runners {
		out = append(out, r.session.Model())
	}
	return out
}

// Shutdown ends every live session (server shutdown path).
func (m *Manager) Shutdown() {
	for _, s := range m.Live() {
		_, _ = m.End(s.ID)
	}
}

func (m *Manager) newRand() *rand.Rand {
	seed := m.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
