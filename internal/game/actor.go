// Package game is the per-game actor and turn scheduler from spec.md §4.2
// and §4.3: one goroutine per game owns a bridge.Game and a single pending
// turn deadline, processing player actions off a buffered event channel the
// way the teacher's table actor processes poker events.
package game

import (
	"log"
	"time"

	"german-bridge/bridge"
	"german-bridge/card"
	"german-bridge/internal/persistence"
	"german-bridge/internal/wire"
)

type eventType int

const (
	eventBid eventType = iota
	eventPlay
	eventRequestState
	eventStartNextRound
)

type actorEvent struct {
	typ      eventType
	player   bridge.PlayerID
	bid      int
	card     card.Card
	respErr  chan error
	respState chan bridge.State
}

// Broadcaster is how an Actor reaches the outside world: one outbound
// envelope for one session. Supplied by the gateway so this package never
// imports the connection manager directly (spec.md §9: no shared mutable
// singletons, entities talk through public operations only).
type Broadcaster interface {
	Send(sessionID string, env wire.Envelope)
	ClearGame(sessionID, gameID string)
}

// Actor is the exclusive owner and sole mutator of one game's state.
type Actor struct {
	id       string
	engine   *bridge.Game
	seating  []bridge.PlayerID
	timeout  time.Duration
	events   chan actorEvent
	done     chan struct{}
	out      Broadcaster
	persist  persistence.Service
	onComplete func(gameID string)

	reconnectGrace time.Duration

	deadline   time.Time
	generation uint64
}

const eventQueueSize = 32

func NewActor(id string, engine *bridge.Game, timeout time.Duration, out Broadcaster, persist persistence.Service) *Actor {
	a := &Actor{
		id:             id,
		engine:         engine,
		seating:        engine.Seating(),
		timeout:        timeout,
		events:         make(chan actorEvent, eventQueueSize),
		done:           make(chan struct{}),
		out:            out,
		persist:        persist,
		reconnectGrace: timeout * 4,
	}
	go a.run()
	return a
}

// OnComplete registers a callback fired once, from the actor's own
// goroutine, when the game reaches GameComplete.
func (a *Actor) OnComplete(fn func(gameID string)) {
	a.onComplete = fn
}

func (a *Actor) ID() string { return a.id }

// Seating returns the game's seat order (its session/player ids).
func (a *Actor) Seating() []bridge.PlayerID { return a.seating }

// ReconnectGrace is how long an Absent player's seat is held before the
// connection manager destroys their session outright (spec.md §4.5:
// turn_timeout_secs * 4 while in a game).
func (a *Actor) ReconnectGrace() time.Duration { return a.reconnectGrace }

func (a *Actor) run() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	a.broadcastGameStarting()
	a.announceTurn()

	for {
		select {
		case ev := <-a.events:
			a.handle(ev)
		case <-ticker.C:
			a.checkTimeout()
		case <-a.done:
			return
		}
	}
}

func (a *Actor) Close() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

func (a *Actor) handle(ev actorEvent) {
	switch ev.typ {
	case eventBid:
		result, err := a.engine.SubmitBid(ev.player, ev.bid)
		a.respondAndBroadcast(ev.player, "Bid", err, result, ev.respErr)
	case eventPlay:
		result, err := a.engine.PlayCard(ev.player, ev.card)
		a.respondAndBroadcast(ev.player, "PlayCard", err, result, ev.respErr)
	case eventStartNextRound:
		result, err := a.engine.StartNextRound(ev.player)
		a.respondAndBroadcast(ev.player, "StartNextRound", err, result, ev.respErr)
	case eventRequestState:
		ev.respState <- a.engine.StateFor(ev.player)
	}
}

// SubmitBid, PlayCard, RequestState, and StartNextRound are the gateway's
// entry points into the actor; each blocks until the engine has processed
// the request, matching spec.md §5's ordering guarantee that a sender's own
// response is enqueued before any other party's action can mutate the game.
func (a *Actor) SubmitBid(player bridge.PlayerID, n int) error {
	resp := make(chan error, 1)
	a.events <- actorEvent{typ: eventBid, player: player, bid: n, respErr: resp}
	return <-resp
}

func (a *Actor) PlayCard(player bridge.PlayerID, c card.Card) error {
	resp := make(chan error, 1)
	a.events <- actorEvent{typ: eventPlay, player: player, card: c, respErr: resp}
	return <-resp
}

func (a *Actor) StartNextRound(player bridge.PlayerID) error {
	resp := make(chan error, 1)
	a.events <- actorEvent{typ: eventStartNextRound, player: player, respErr: resp}
	return <-resp
}

func (a *Actor) RequestState(player bridge.PlayerID) bridge.State {
	resp := make(chan bridge.State, 1)
	a.events <- actorEvent{typ: eventRequestState, player: player, respState: resp}
	return <-resp
}

func (a *Actor) respondAndBroadcast(actor bridge.PlayerID, actionLabel string, err error, result bridge.ActionResult, respErr chan error) {
	respErr <- err
	if err != nil {
		return
	}
	a.generation++
	a.broadcastAction(actor, actionLabel, result)
}

func (a *Actor) broadcastAction(actor bridge.PlayerID, actionLabel string, result bridge.ActionResult) {
	action := wire.PlayerActionPayload{
		PlayerID:   string(actor),
		Action:     actionLabel,
		NextPlayer: string(result.NextPlayer),
	}
	a.broadcastAll(wire.Encode(wire.TypePlayerAction, action))

	if result.TrickCompleted != nil {
		a.broadcastAll(wire.Encode(wire.TypeTrickComplete, wire.TrickCompletePayload{
			Winner: string(result.TrickCompleted.Winner),
		}))
	}
	if result.RoundCompleted != nil {
		a.broadcastState()
		if a.persist != nil {
			a.saveSnapshot()
		}
	}
	if actionLabel == "StartNextRound" {
		// Hands were just redealt; PlayerAction alone doesn't carry them.
		a.broadcastState()
	}
	if result.GameCompleted != nil {
		scores := make(map[string]int, len(result.GameCompleted.FinalScores))
		for pid, v := range result.GameCompleted.FinalScores {
			scores[string(pid)] = v
		}
		a.broadcastAll(wire.Encode(wire.TypeGameOver, wire.GameOverPayload{FinalScores: scores}))
		a.deadline = time.Time{}
		if a.onComplete != nil {
			a.onComplete(a.id)
		}
		return
	}

	a.announceTurn()
}

// announceTurn sends the current player a YourTurn envelope and arms the
// turn deadline; it is a no-op once the game is complete.
func (a *Actor) announceTurn() {
	current := a.engine.CurrentPlayer()
	if current == "" {
		a.deadline = time.Time{}
		return
	}
	actions := a.engine.ValidActions(current)
	if len(actions) > 0 {
		a.out.Send(string(current), wire.Encode(wire.TypeYourTurn, wire.YourTurnPayload{ValidActions: actions}))
	}
	a.deadline = time.Now().Add(a.timeout)
}

func (a *Actor) checkTimeout() {
	if a.deadline.IsZero() || time.Now().Before(a.deadline) {
		return
	}
	player := a.engine.CurrentPlayer()
	if player == "" {
		return
	}

	switch a.engine.Phase() {
	case bridge.PhaseBidding:
		n, err := a.engine.DefaultBid(player)
		if err != nil {
			return
		}
		result, err := a.engine.SubmitBid(player, n)
		if err != nil {
			log.Printf("[game %s] default bid for %s rejected: %v", a.id, player, err)
			return
		}
		a.generation++
		a.broadcastAction(player, "Bid", result)
	case bridge.PhasePlaying:
		c, err := a.engine.DefaultCard(player)
		if err != nil {
			return
		}
		result, err := a.engine.PlayCard(player, c)
		if err != nil {
			log.Printf("[game %s] default play for %s rejected: %v", a.id, player, err)
			return
		}
		a.generation++
		a.broadcastAction(player, "PlayCard", result)
	}
}

func (a *Actor) broadcastGameStarting() {
	a.broadcastAll(wire.Encode(wire.TypeGameStarting, wire.GameStartingPayload{GameID: a.id}))
}

func (a *Actor) broadcastState() {
	for _, pid := range a.seating {
		state := a.engine.StateFor(pid)
		a.out.Send(string(pid), wire.Encode(wire.TypeGameState, wire.GameStatePayload{State: state}))
	}
}

func (a *Actor) broadcastAll(env wire.Envelope) {
	for _, pid := range a.seating {
		a.out.Send(string(pid), env)
	}
}

func (a *Actor) saveSnapshot() {
	state := a.engine.StateFor("")
	payload, err := wire.EncodeState(state)
	if err != nil {
		log.Printf("[game %s] failed to encode snapshot: %v", a.id, err)
		return
	}
	a.persist.SaveSnapshot(persistence.Snapshot{
		GameID:      a.id,
		RoundNumber: state.RoundNumber,
		Phase:       state.Phase.String(),
		RecordedAt:  time.Now(),
		Payload:     payload,
	})
}
