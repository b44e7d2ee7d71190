package session

import (
	"testing"
	"time"

	"german-bridge/internal/wire"
)

func TestSession_MarkAbsentStartsGraceWindow(t *testing.T) {
	s := newSession("s1", 7, "alice")
	s.state = Live // simulate a previously bound socket

	s.markAbsent(50 * time.Millisecond)
	if s.State() != Absent {
		t.Fatalf("expected Absent after markAbsent")
	}
	if s.expired(time.Now()) {
		t.Fatalf("should not be expired immediately")
	}
	if !s.expired(time.Now().Add(60 * time.Millisecond)) {
		t.Fatalf("expected expired once past the grace window")
	}
}

func TestSession_EnqueueDropsWhenAbsent(t *testing.T) {
	s := newSession("s1", 7, "alice")
	// state defaults to Absent; Enqueue must be a silent no-op.
	s.Enqueue(wire.Envelope{Type: wire.TypePing}, time.Second)
}

func TestSession_LobbyAndGameContextAreExclusiveFields(t *testing.T) {
	s := newSession("s1", 7, "alice")
	s.SetLobby("L1")
	if s.LobbyID() != "L1" {
		t.Fatalf("expected lobby id L1, got %s", s.LobbyID())
	}
	s.ClearLobby()
	s.SetGame("G1")
	if s.LobbyID() != "" || s.GameID() != "G1" {
		t.Fatalf("expected only game context set, got lobby=%s game=%s", s.LobbyID(), s.GameID())
	}
}
