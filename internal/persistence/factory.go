package persistence

import (
	"log"
	"os"
	"strings"
)

const (
	PersistModeDB     = "db"
	PersistModeLocal  = "local"
	PersistModeMemory = "memory"
	PersistModeOff    = "off"
)

func persistModeFromEnv() string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("PERSIST_MODE")))
	switch raw {
	case "", PersistModeDB, "postgres", "postgresql":
		return PersistModeDB
	case PersistModeLocal, "sqlite":
		return PersistModeLocal
	case PersistModeMemory, "mem":
		return PersistModeMemory
	case PersistModeOff, "none", "disabled":
		return PersistModeOff
	default:
		return raw
	}
}

// NewServiceFromEnv resolves PERSIST_MODE the same way auth resolves
// AUTH_MODE. Persistence is advisory, so a backend that fails to open
// degrades to the no-op service instead of failing server startup.
func NewServiceFromEnv() (Service, string) {
	mode := persistModeFromEnv()

	switch mode {
	case PersistModeDB:
		svc, err := NewPostgresServiceFromEnv()
		if err != nil {
			log.Printf("[persistence] db mode unavailable (%v); falling back to no-op", err)
			return NewNoopService(), PersistModeOff
		}
		return svc, mode
	case PersistModeLocal:
		svc, err := NewSQLiteServiceFromEnv()
		if err != nil {
			log.Printf("[persistence] local mode unavailable (%v); falling back to no-op", err)
			return NewNoopService(), PersistModeOff
		}
		return svc, mode
	case PersistModeMemory:
		return newMemoryService(), mode
	case PersistModeOff:
		return NewNoopService(), mode
	default:
		log.Printf("[persistence] unknown PERSIST_MODE %q; disabling persistence", mode)
		return NewNoopService(), PersistModeOff
	}
}
