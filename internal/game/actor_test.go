package game

import (
	"sync"
	"testing"
	"time"

	"german-bridge/bridge"
	"german-bridge/internal/persistence"
	"german-bridge/internal/wire"
)

type fakeBroadcaster struct {
	mu  sync.Mutex
	msgs map[string][]wire.Envelope
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{msgs: make(map[string][]wire.Envelope)}
}

func (f *fakeBroadcaster) Send(sessionID string, env wire.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs[sessionID] = append(f.msgs[sessionID], env)
}

func (f *fakeBroadcaster) ClearGame(sessionID, gameID string) {}

func (f *fakeBroadcaster) last(sessionID string) (wire.Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.msgs[sessionID]
	if len(msgs) == 0 {
		return wire.Envelope{}, false
	}
	return msgs[len(msgs)-1], true
}

func (f *fakeBroadcaster) count(sessionID, msgType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.msgs[sessionID] {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func newTestActor(t *testing.T, timeout time.Duration) (*Actor, *fakeBroadcaster) {
	t.Helper()
	seating := []bridge.PlayerID{"A", "B", "C"}
	engine, err := bridge.NewGame("g1", seating, bridge.Settings{
		PlayerCount:     bridge.Three,
		TurnTimeoutSecs: 10,
		AllowReconnect:  true,
	})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	out := newFakeBroadcaster()
	a := NewActor("g1", engine, timeout, out, persistence.NewNoopService())
	t.Cleanup(a.Close)
	return a, out
}

func TestActor_StartSendsGameStartingAndYourTurn(t *testing.T) {
	_, out := newTestActor(t, time.Hour)

	// Dealer is seat 0 (A), so B bids first.
	waitFor(t, func() bool { return out.count("B", wire.TypeYourTurn) >= 1 })

	env, ok := out.last("B")
	if !ok || env.Type != wire.TypeYourTurn {
		t.Fatalf("expected first bidder to receive YourTurn, got %+v ok=%v", env, ok)
	}
	if out.count("B", wire.TypeGameStarting) != 1 {
		t.Fatalf("expected every seat to receive GameStarting")
	}
}

func TestActor_RejectsOutOfTurnBid(t *testing.T) {
	a, _ := newTestActor(t, time.Hour)

	if err := a.SubmitBid("A", 0); err != bridge.ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestActor_AcceptedBidBroadcastsPlayerActionAndAdvancesTurn(t *testing.T) {
	a, out := newTestActor(t, time.Hour)

	if err := a.SubmitBid("B", 0); err != nil {
		t.Fatalf("SubmitBid: %v", err)
	}

	waitFor(t, func() bool { return out.count("C", wire.TypePlayerAction) >= 1 })

	waitFor(t, func() bool {
		env, ok := out.last("C")
		return ok && env.Type == wire.TypeYourTurn
	})
}

func TestActor_TimeoutAppliesDefaultBid(t *testing.T) {
	a, out := newTestActor(t, 20*time.Millisecond)

	waitFor(t, func() bool { return out.count("B", wire.TypePlayerAction) >= 1 })
	_ = a
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
