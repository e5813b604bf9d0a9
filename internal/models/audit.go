package models

import (
	"time"

	"github.com/google/uuid"
)

// ModerationKind identifies a host moderation action.
type ModerationKind string

const (
	ModerationMute   ModerationKind = "mute"
	ModerationUnmute ModerationKind = "unmute"
	ModerationBan    ModerationKind = "ban"
	ModerationPin    ModerationKind = "pin"
)

// AuditEntry is one persisted moderation action for a session.
type AuditEntry struct {
	ID        uuid.UUID      `json:"id"`
	SessionID uuid.UUID      `json:"session_id"`
	ActorID   uuid.UUID      `json:"actor_id"`
	TargetID  uuid.UUID      `json:"target_id"`
	Kind      ModerationKind `json:"kind"`
	Detail    string         `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
