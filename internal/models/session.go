package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceKind is the broadcast input selected when going live.
type SourceKind string

const (
	SourceCamera SourceKind = "camera"
	SourceFile   SourceKind = "file"
	SourceURL    SourceKind = "url"
)

// SessionStatus is the lifecycle state of a broadcast session.
type SessionStatus string

const (
	SessionLive  SessionStatus = "live"
	SessionEnded SessionStatus = "ended"
)

// BroadcastSession is a single outgoing live-stream session.
// At most one live session exists per broadcaster at any time.
type BroadcastSession struct {
	ID          uuid.UUID     `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	Username    string        `json:"username"`
	Title       string        `json:"title"`
	Source      SourceKind    `json:"source"`
	SourceData  string        `json:"source_data,omitempty"`
	Status      SessionStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     *time.Time    `json:"ended_at,omitempty"`
	PeakViewers int           `json:"peak_viewers"`
}
