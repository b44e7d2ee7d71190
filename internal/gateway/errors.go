package gateway

import (
	"errors"
	"unicode"
)

// Router-local error kinds from spec.md §7 that aren't already sentinel
// errors in bridge/lobby: missing context and malformed envelopes.
var (
	errBadMessage = errors.New("malformed message")
	errNotInLobby = errors.New("not in a lobby")
	errNotInGame  = errors.New("not in a game")
)

// errorMessage renders any engine/lobby/router error as the client-facing
// Error{message} text (spec.md §7): every kind's sentinel already reads as
// a natural-language sentence, so this just capitalizes it the way scenario
// 3's literal "Must follow suit" expects.
func errorMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	r := []rune(msg)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
