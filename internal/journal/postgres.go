package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Postgres journals scans into a shared database, for deployments where
// several bot instances or the CLI report into one place.
type Postgres struct {
	db *sqlx.DB
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scans (
	id          UUID PRIMARY KEY,
	symbol      TEXT NOT NULL,
	timeframe   TEXT NOT NULL,
	label       TEXT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	reasons     TEXT NOT NULL,
	close_price DOUBLE PRECISION NOT NULL,
	narrative   BOOLEAN NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_symbol_created ON scans(symbol, created_at DESC);
`

type postgresRow struct {
	ID        string    `db:"id"`
	Symbol    string    `db:"symbol"`
	Timeframe string    `db:"timeframe"`
	Label     string    `db:"label"`
	Score     float64   `db:"score"`
	Reasons   string    `db:"reasons"`
	Price     float64   `db:"close_price"`
	Narrative bool      `db:"narrative"`
	CreatedAt time.Time `db:"created_at"`
}

// OpenPostgres connects to the database and ensures the schema exists.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres journal: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating postgres journal: %w", err)
	}

	log.Debug().Str("component", "journal").Msg("Postgres journal opened")
	return &Postgres{db: db}, nil
}

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	fillDefaults(&e)
	reasons, err := json.Marshal(e.Reasons)
	if err != nil {
		return fmt.Errorf("encoding reasons: %w", err)
	}

	_, err = p.db.NamedExecContext(ctx,
		`INSERT INTO scans (id, symbol, timeframe, label, score, reasons, close_price, narrative, created_at)
		 VALUES (:id, :symbol, :timeframe, :label, :score, :reasons, :close_price, :narrative, :created_at)`,
		postgresRow{
			ID:        e.ID,
			Symbol:    e.Symbol,
			Timeframe: e.Timeframe,
			Label:     e.Label,
			Score:     e.Score,
			Reasons:   string(reasons),
			Price:     e.Price,
			Narrative: e.Narrative,
			CreatedAt: e.CreatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("recording scan: %w", err)
	}
	return nil
}

func (p *Postgres) Recent(ctx context.Context, symbol string, limit int) ([]Entry, error) {
	var rows []postgresRow
	err := p.db.SelectContext(ctx, &rows,
		`SELECT id, symbol, timeframe, label, score, reasons, close_price, narrative, created_at
		 FROM scans WHERE symbol = $1 ORDER BY created_at DESC LIMIT $2`,
		symbol, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e := Entry{
			ID:        r.ID,
			Symbol:    r.Symbol,
			Timeframe: r.Timeframe,
			Label:     r.Label,
			Score:     r.Score,
			Price:     r.Price,
			Narrative: r.Narrative,
			CreatedAt: r.CreatedAt,
		}
		if err := json.Unmarshal([]byte(r.Reasons), &e.Reasons); err != nil {
			return nil, fmt.Errorf("decoding reasons: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
