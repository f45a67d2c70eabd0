package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

// SQLite journals scans into a local file. A mutex serializes writes
// since the driver allows one writer at a time.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

var sqliteMigrations = []string{
	`PRAGMA journal_mode=WAL`,
	`CREATE TABLE IF NOT EXISTS scans (
		id          TEXT PRIMARY KEY,
		symbol      TEXT NOT NULL,
		timeframe   TEXT NOT NULL,
		label       TEXT NOT NULL,
		score       REAL NOT NULL,
		reasons     TEXT NOT NULL,
		close_price REAL NOT NULL,
		narrative   INTEGER NOT NULL,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_symbol_created ON scans(symbol, created_at DESC)`,
}

// OpenSQLite opens (and migrates) a sqlite journal at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "scans.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite journal: %w", err)
	}

	for _, stmt := range sqliteMigrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating sqlite journal: %w", err)
		}
	}

	log.Debug().Str("component", "journal").Str("path", path).Msg("SQLite journal opened")
	return &SQLite{db: db}, nil
}

func (s *SQLite) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fillDefaults(&e)
	reasons, err := json.Marshal(e.Reasons)
	if err != nil {
		return fmt.Errorf("encoding reasons: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, symbol, timeframe, label, score, reasons, close_price, narrative, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Symbol, e.Timeframe, e.Label, e.Score, string(reasons), e.Price, e.Narrative,
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording scan: %w", err)
	}
	return nil
}

func (s *SQLite) Recent(ctx context.Context, symbol string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol, timeframe, label, score, reasons, close_price, narrative, created_at
		 FROM scans WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`,
		symbol, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var reasons, created string
		if err := rows.Scan(&e.ID, &e.Symbol, &e.Timeframe, &e.Label, &e.Score,
			&reasons, &e.Price, &e.Narrative, &created); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		if err := json.Unmarshal([]byte(reasons), &e.Reasons); err != nil {
			return nil, fmt.Errorf("decoding reasons: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func fillDefaults(e *Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
}
