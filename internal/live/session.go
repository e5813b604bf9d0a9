package live

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/CraftAlchemy/Vidora-sub000/internal/engagement"
	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// Broadcaster fans an event out to every client in a session room.
// Implemented by realtime.Hub.
type Broadcaster interface {
	BroadcastToSessionAndPublish(sessionID uuid.UUID, event string, payload interface{})
}

// Callbacks are the outbound hooks the host app registers on the manager.
// All are optional.
type Callbacks struct {
	OnSessionEnded     func(final models.BroadcastSession)
	OnModerationAction func(kind models.ModerationKind, sessionID, actorID, targetID uuid.UUID)
	OnShareSession     func(sessionID uuid.UUID)
	OnViewProfile      func(viewer models.Viewer)
	OnToastMessage     func(text string)
}

// Session is one active broadcast session and everything it owns: transcript,
// gift ledger, poll, moderation state, roster and pinned message. The stores
// live and die with the session. All mutation is serialized by the session
// mutex, preserving the transcript's generation-order guarantee.
type Session struct {
	mu sync.Mutex

	model      models.BroadcastSession
	transcript *Transcript
	ledger     *GiftLedger
	poll       *PollEngine
	moderation *ModerationStore
	roster     *Roster
	pinned     string
	closed     bool

	giftChoices []models.GiftDefinition
	topN        int

	hub       Broadcaster
	callbacks Callbacks
	logger    *zap.Logger
}

func newSession(model models.BroadcastSession, transcriptCap, topN int, hub Broadcaster, cb Callbacks, logger *zap.Logger) *Session {
	return &Session{
		model:      model,
		transcript: NewTranscript(transcriptCap),
		ledger:     NewGiftLedger(),
		poll:       NewPollEngine(),
		moderation: NewModerationStore(),
		roster:     NewRoster(),
		topN:       topN,
		hub:        hub,
		callbacks:  cb,
		logger:     logger.With(zap.String("session_id", model.ID.String())),
	}
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	return s.model.ID
}

// Model returns a copy of the session metadata.
func (s *Session) Model() models.BroadcastSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetGiftChoices sets the catalog slice the synthetic generator draws gifts from.
func (s *Session) SetGiftChoices(gifts []models.GiftDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.giftChoices = gifts
}

// close marks the session ended; every mutation after close is dropped.
func (s *Session) close(endedAt time.Time) models.BroadcastSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.model.Status = models.SessionEnded
	s.model.EndedAt = &endedAt
	return s.model
}

// Viewers returns the non-banned roster snapshot (engagement.Stream).
func (s *Session) Viewers() []models.Viewer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.List()
}

// PollOptionIDs returns the active poll's option ids (engagement.Stream).
func (s *Session) PollOptionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poll.OptionIDs()
}

// GiftChoices returns the catalog slice for synthetic gift draws (engagement.Stream).
func (s *Session) GiftChoices() []models.GiftDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.giftChoices
}

// Apply projects one engagement event into the session stores
// (engagement.Stream). Events from muted viewers are generated upstream but
// suppressed here, so moderation changes what surfaces without touching the
// generator's draw sequence. Events arriving after close are dropped.
func (s *Session) Apply(ev engagement.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	switch ev.Category {
	case engagement.CategoryChat:
		if s.suppressed(ev.Viewer.ID) {
			return
		}
		msg := models.ChatMessage{
			ID:       ev.ID,
			SenderID: ev.Viewer.ID,
			Sender:   ev.Viewer.Username,
			Text:     ev.Text,
			SentAt:   ev.At,
		}
		s.transcript.Append(msg)
		s.broadcast("chat_message", msg)

	case engagement.CategoryGift:
		if ev.Gift == nil || s.suppressed(ev.Viewer.ID) {
			return
		}
		s.recordGift(ev.Viewer, *ev.Gift, ev.ID, ev.At)

	case engagement.CategoryFollow:
		// no store mutation, just the event log and the room notification
		s.logger.Info("viewer followed", zap.String("viewer", ev.Viewer.Username))
		s.broadcast("follow", map[string]interface{}{"viewer": ev.Viewer})

	case engagement.CategoryPollVote:
		s.poll.Vote(ev.OptionID)
		s.broadcast("poll_update", s.poll.Snapshot())
	}
}

func (s *Session) suppressed(userID uuid.UUID) bool {
	return s.moderation.IsMuted(userID) || s.moderation.IsBanned(userID)
}

// recordGift updates ledger + transcript and emits the ephemeral gift event.
// Callers hold s.mu.
func (s *Session) recordGift(sender models.Viewer, gift models.GiftDefinition, eventID string, at time.Time) {
	s.ledger.Record(sender.ID, sender.Username, gift.Price)
	s.transcript.Append(models.ChatMessage{
		ID:       eventID,
		SenderID: sender.ID,
		Sender:   sender.Username,
		Text:     "sent a " + gift.Name,
		SentAt:   at,
	})
	s.broadcast("gift_sent", models.GiftEvent{
		ID:        eventID,
		Gift:      gift,
		SenderID:  sender.ID,
		Sender:    sender.Username,
		SessionID: s.model.ID,
		SentAt:    at,
	})
	s.broadcast("top_gifters", s.ledger.Top(s.topN))
}

// PostChat runs a real viewer's message through the same filter -> project
// path as synthetic events. Returns false when the message was suppressed.
func (s *Session) PostChat(sender models.Viewer, text, imageURL string) (models.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.suppressed(sender.ID) {
		return models.ChatMessage{}, false
	}
	msg := models.ChatMessage{
		ID:       gonanoid.Must(12),
		SenderID: sender.ID,
		Sender:   sender.Username,
		Text:     text,
		ImageURL: imageURL,
		SentAt:   time.Now(),
	}
	s.transcript.Append(msg)
	s.broadcast("chat_message", msg)
	return msg, true
}

// SendGift records a confirmed outgoing gift. The wallet balance check and
// deduction happen before this call; the ledger never rejects.
func (s *Session) SendGift(sender models.Viewer, gift models.GiftDefinition) (models.GiftEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.GiftEvent{}, ErrSessionEnded
	}
	id := gonanoid.Must(12)
	at := time.Now()
	s.recordGift(sender, gift, id, at)
	return models.GiftEvent{
		ID:        id,
		Gift:      gift,
		SenderID:  sender.ID,
		Sender:    sender.Username,
		SessionID: s.model.ID,
		SentAt:    at,
	}, nil
}

// LaunchPoll starts a new poll and announces it to the room.
func (s *Session) LaunchPoll(question string, options []string) (models.PollSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.PollSnapshot{}, ErrSessionEnded
	}
	snap, err := s.poll.Launch(question, options)
	if err != nil {
		return models.PollSnapshot{}, err
	}
	s.broadcast("poll_launched", snap)
	return snap, nil
}

// EndPoll closes the active poll; late votes are dropped by the engine.
func (s *Session) EndPoll() models.PollSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poll.End()
	snap := s.poll.Snapshot()
	s.broadcast("poll_ended", snap)
	return snap
}

// VotePoll casts one vote. Unknown options and inactive polls are silent no-ops.
func (s *Session) VotePoll(optionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.poll.Vote(optionID)
	s.broadcast("poll_update", s.poll.Snapshot())
}

// Poll returns the current poll snapshot.
func (s *Session) Poll() models.PollSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poll.Snapshot()
}

// Mute suppresses a viewer's future chat and gift events. Unknown targets are
// logged and ignored.
func (s *Session) Mute(actorID, targetID uuid.UUID) {
	s.mu.Lock()
	if !s.roster.Contains(targetID) {
		s.mu.Unlock()
		s.logger.Warn("mute for unknown viewer ignored", zap.String("target_id", targetID.String()))
		return
	}
	s.moderation.Mute(targetID)
	s.mu.Unlock()
	s.fireModeration(models.ModerationMute, actorID, targetID)
}

// Unmute lifts a viewer's mute. Idempotent.
func (s *Session) Unmute(actorID, targetID uuid.UUID) {
	s.mu.Lock()
	s.moderation.Unmute(targetID)
	s.mu.Unlock()
	s.fireModeration(models.ModerationUnmute, actorID, targetID)
}

// Ban removes a viewer for the rest of the session: mute state is cleared,
// the viewer leaves the roster and cannot rejoin. There is no unban.
func (s *Session) Ban(actorID, targetID uuid.UUID) {
	s.mu.Lock()
	if !s.roster.Contains(targetID) && !s.moderation.IsMuted(targetID) {
		s.mu.Unlock()
		s.logger.Warn("ban for unknown viewer ignored", zap.String("target_id", targetID.String()))
		return
	}
	s.moderation.Ban(targetID)
	s.roster.Remove(targetID)
	count := s.roster.Count()
	s.mu.Unlock()

	s.broadcastUnlocked("viewer_banned", map[string]interface{}{"user_id": targetID})
	s.broadcastUnlocked("audience_count", map[string]int{"count": count})
	s.fireModeration(models.ModerationBan, actorID, targetID)
}

// IsMuted reports the viewer's mute state.
func (s *Session) IsMuted(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moderation.IsMuted(userID)
}

// IsBanned reports the viewer's ban state.
func (s *Session) IsBanned(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moderation.IsBanned(userID)
}

// Pin broadcasts a single host-authored message to all viewers; the empty
// string clears it.
func (s *Session) Pin(actorID uuid.UUID, text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pinned = text
	s.mu.Unlock()
	s.broadcastUnlocked("pinned_message", map[string]string{"text": text})
	s.fireModeration(models.ModerationPin, actorID, s.model.UserID)
}

// Pinned returns the current pinned message, empty when none.
func (s *Session) Pinned() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pinned
}

// AddViewer admits a viewer into the room. Banned viewers cannot rejoin.
func (s *Session) AddViewer(v models.Viewer) bool {
	s.mu.Lock()
	if s.closed || s.moderation.IsBanned(v.ID) {
		s.mu.Unlock()
		return false
	}
	s.roster.Add(v)
	count := s.roster.Count()
	if count > s.model.PeakViewers {
		s.model.PeakViewers = count
	}
	s.mu.Unlock()
	s.broadcastUnlocked("audience_count", map[string]int{"count": count})
	return true
}

// RemoveViewer drops a viewer from the roster (e.g. socket closed).
func (s *Session) RemoveViewer(userID uuid.UUID) {
	s.mu.Lock()
	s.roster.Remove(userID)
	count := s.roster.Count()
	s.mu.Unlock()
	s.broadcastUnlocked("audience_count", map[string]int{"count": count})
}

// Share fires the share hook and surfaces a confirmation toast.
func (s *Session) Share() {
	if s.callbacks.OnShareSession != nil {
		s.callbacks.OnShareSession(s.model.ID)
	}
	if s.callbacks.OnToastMessage != nil {
		s.callbacks.OnToastMessage("Link copied")
	}
}

// ViewProfile resolves a roster member and fires the profile hook.
func (s *Session) ViewProfile(userID uuid.UUID) (models.Viewer, bool) {
	s.mu.Lock()
	v, ok := s.roster.Get(userID)
	s.mu.Unlock()
	if !ok {
		return models.Viewer{}, false
	}
	if s.callbacks.OnViewProfile != nil {
		s.callbacks.OnViewProfile(v)
	}
	return v, true
}

// AudienceCount returns the number of viewers in the room.
func (s *Session) AudienceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Count()
}

// Transcript returns a copy of the bounded chat window.
func (s *Session) Transcript() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Messages()
}

// TopGifters returns the leaderboard snapshot.
func (s *Session) TopGifters(n int) []models.TopGifter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Top(n)
}

// GiftTotal returns one viewer's exact cumulative contribution.
func (s *Session) GiftTotal(userID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Total(userID)
}

// broadcast sends while holding s.mu; the hub does its own synchronization
// and never calls back into the session.
func (s *Session) broadcast(event string, payload interface{}) {
	if s.hub != nil {
		s.hub.BroadcastToSessionAndPublish(s.model.ID, event, payload)
	}
}

func (s *Session) broadcastUnlocked(event string, payload interface{}) {
	if s.hub != nil {
		s.hub.BroadcastToSessionAndPublish(s.model.ID, event, payload)
	}
}

func (s *Session) fireModeration(kind models.ModerationKind, actorID, targetID uuid.UUID) {
	if s.callbacks.OnModerationAction != nil {
		s.callbacks.OnModerationAction(kind, s.model.ID, actorID, targetID)
	}
}
