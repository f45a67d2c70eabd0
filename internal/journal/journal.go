package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

// Entry is one recorded scan outcome.
type Entry struct {
	ID        string    `db:"id"`
	Symbol    string    `db:"symbol"`
	Timeframe string    `db:"timeframe"`
	Label     string    `db:"label"`
	Score     float64   `db:"score"`
	Reasons   []string  `db:"-"`
	Price     float64   `db:"close_price"`
	Narrative bool      `db:"narrative"`
	CreatedAt time.Time `db:"created_at"`
}

// Journal persists scan outcomes. Implementations are safe for
// concurrent use; a write failure is reported but scans never depend
// on it.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, symbol string, limit int) ([]Entry, error)
	Close() error
}

// Open selects a journal backend by driver name.
func Open(driver, dsn string) (Journal, error) {
	switch driver {
	case "", "off", "none":
		return Noop{}, nil
	case "sqlite":
		return OpenSQLite(dsn)
	case "postgres":
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("%w: unknown journal driver %q", models.ErrInvalidConfig, driver)
	}
}
