package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "german_bridge_local.db"

// SQLiteService is the PERSIST_MODE=local backend: a single-file database
// suitable for a single server process, matching the auth package's own
// local-mode store.
type SQLiteService struct {
	db *sql.DB
}

func NewSQLiteServiceFromEnv() (*SQLiteService, error) {
	dbPath, err := localDatabasePathFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSQLiteService(dbPath)
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		if parent := filepath.Dir(dbPath); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS game_snapshots (
    game_id      TEXT NOT NULL,
    round_number INTEGER NOT NULL,
    phase        TEXT NOT NULL,
    recorded_at  INTEGER NOT NULL,
    payload      BLOB NOT NULL,
    PRIMARY KEY (game_id, round_number)
)`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{db: db}, nil
}

func (s *SQLiteService) SaveSnapshot(snap Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO game_snapshots (game_id, round_number, phase, recorded_at, payload)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (game_id, round_number) DO UPDATE SET
    phase = excluded.phase, recorded_at = excluded.recorded_at, payload = excluded.payload
`, snap.GameID, snap.RoundNumber, snap.Phase, snap.RecordedAt.UTC().UnixMilli(), snap.Payload)
	if err != nil {
		log.Printf("[persistence] sqlite: save snapshot for game %s failed: %v", snap.GameID, err)
	}
}

func (s *SQLiteService) Close() error { return s.db.Close() }

func localDatabasePathFromEnv() (string, error) {
	for _, key := range []string{"PERSIST_LOCAL_DATABASE_PATH", "LOCAL_DATABASE_PATH"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v, nil
		}
	}
	dir, err := os.UserCacheDir()
	if err != nil || strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return filepath.Join(dir, "german-bridge", defaultLocalDBName), nil
}
