package live

import (
	"testing"

	"github.com/google/uuid"
)

func TestModerationMuteUnmute(t *testing.T) {
	m := NewModerationStore()
	v := uuid.New()

	m.Mute(v)
	if !m.IsMuted(v) {
		t.Fatal("expected viewer muted")
	}
	m.Mute(v) // idempotent
	m.Unmute(v)
	if m.IsMuted(v) {
		t.Fatal("expected viewer unmuted")
	}
	m.Unmute(v) // idempotent on not-muted
}

func TestModerationBanClearsMute(t *testing.T) {
	m := NewModerationStore()
	v := uuid.New()

	m.Mute(v)
	m.Ban(v)
	if m.IsMuted(v) {
		t.Fatal("ban should clear mute state")
	}
	if !m.IsBanned(v) {
		t.Fatal("expected viewer banned")
	}
}

func TestModerationMuteOnBannedIsNoop(t *testing.T) {
	m := NewModerationStore()
	v := uuid.New()

	m.Ban(v)
	m.Mute(v)
	if m.IsMuted(v) {
		t.Fatal("muting a banned viewer should be a no-op")
	}
	if !m.IsBanned(v) {
		t.Fatal("ban state must survive the mute attempt")
	}
}
