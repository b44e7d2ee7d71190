package session

import (
	"testing"
	"time"
)

func TestManager_StatsCountsLiveAndAbsent(t *testing.T) {
	m := NewManager(nil)
	defer m.Stop()

	live := newSession("live", 1, "a")
	live.state = Live
	absent := newSession("absent", 2, "b")

	m.byID["live"] = live
	m.byUser[1] = "live"
	m.byID["absent"] = absent
	m.byUser[2] = "absent"

	st := m.Stats()
	if st.Total != 2 || st.Active != 1 || st.Inactive != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestManager_ClearGameOnlyClearsMatchingGame(t *testing.T) {
	m := NewManager(nil)
	defer m.Stop()

	s := newSession("s1", 1, "a")
	s.SetGame("G1")
	m.byID["s1"] = s
	m.byUser[1] = "s1"

	m.ClearGame("s1", "G2")
	if s.GameID() != "G1" {
		t.Fatalf("expected stale gameID to be ignored, got %q", s.GameID())
	}

	m.ClearGame("s1", "G1")
	if s.GameID() != "" {
		t.Fatalf("expected gameID cleared, got %q", s.GameID())
	}
}

func TestManager_SweepExpiredInvokesHook(t *testing.T) {
	var gotID, gotLobby, gotGame string
	m := NewManager(func(sessionID, lobbyID, gameID string) {
		gotID, gotLobby, gotGame = sessionID, lobbyID, gameID
	})
	defer m.Stop()

	s := newSession("s1", 1, "a")
	s.state = Live
	s.SetGame("G1")
	s.markAbsent(time.Nanosecond)
	time.Sleep(time.Millisecond)

	m.byID["s1"] = s
	m.byUser[1] = "s1"

	m.sweepExpired()

	if gotID != "s1" || gotGame != "G1" || gotLobby != "" {
		t.Fatalf("expected expire hook for s1/G1, got id=%s lobby=%s game=%s", gotID, gotLobby, gotGame)
	}
	if _, ok := m.Get("s1"); ok {
		t.Fatalf("expected session to be removed after sweep")
	}
}
