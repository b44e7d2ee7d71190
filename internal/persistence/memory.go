package persistence

import (
	"strconv"
	"sync"
)

// memoryService keeps snapshots in a process-local map. It exists for
// parity with auth's memory mode and for tests; it is lost on restart just
// like the game engine's own in-memory truth.
type memoryService struct {
	mu    sync.Mutex
	byKey map[string]Snapshot
}

func newMemoryService() *memoryService {
	return &memoryService{byKey: make(map[string]Snapshot)}
}

func (m *memoryService) SaveSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey[snapshotKey(s.GameID, s.RoundNumber)] = s
}

func (m *memoryService) Close() error { return nil }

func snapshotKey(gameID string, roundNumber int) string {
	return gameID + ":" + strconv.Itoa(roundNumber)
}
