package live

import (
	"github.com/google/uuid"
)

// ModerationStore tracks muted and banned viewer ids for one session.
// Banning supersedes muting and is terminal for the session: there is no unban.
// Not safe for concurrent use; the owning Session serializes access.
type ModerationStore struct {
	muted  map[uuid.UUID]struct{}
	banned map[uuid.UUID]struct{}
}

// NewModerationStore creates an empty moderation state.
func NewModerationStore() *ModerationStore {
	return &ModerationStore{
		muted:  make(map[uuid.UUID]struct{}),
		banned: make(map[uuid.UUID]struct{}),
	}
}

// Mute marks a viewer muted. Idempotent; muting a banned viewer is a no-op.
func (m *ModerationStore) Mute(userID uuid.UUID) {
	if _, ok := m.banned[userID]; ok {
		return
	}
	m.muted[userID] = struct{}{}
}

// Unmute clears a viewer's mute. Idempotent.
func (m *ModerationStore) Unmute(userID uuid.UUID) {
	delete(m.muted, userID)
}

// Ban marks a viewer banned and clears any mute. The caller is responsible
// for removing the viewer from the roster.
func (m *ModerationStore) Ban(userID uuid.UUID) {
	delete(m.muted, userID)
	m.banned[userID] = struct{}{}
}

// IsMuted reports whether the viewer is muted.
func (m *ModerationStore) IsMuted(userID uuid.UUID) bool {
	_, ok := m.muted[userID]
	return ok
}

// IsBanned reports whether the viewer is banned.
func (m *ModerationStore) IsBanned(userID uuid.UUID) bool {
	_, ok := m.banned[userID]
	return ok
}
