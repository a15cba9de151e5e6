package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresLedger persists surfaced pairs in the lead_ledger table. The
// (subject_key, title_number) primary key plus ON CONFLICT DO NOTHING gives
// the atomic insert-if-absent the dedup contract needs under concurrent runs.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger creates a Postgres-backed ledger.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) HasBeenSurfaced(ctx context.Context, subjectKey, titleNumber string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM lead_ledger
			WHERE subject_key = $1 AND title_number = $2
		)
	`, subjectKey, titleNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger: %w", err)
	}
	return exists, nil
}

func (l *PostgresLedger) RecordSurfaced(ctx context.Context, subjectKey, titleNumber string, at time.Time) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO lead_ledger (subject_key, title_number, first_surfaced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject_key, title_number) DO NOTHING
	`, subjectKey, titleNumber, at)
	if err != nil {
		return fmt.Errorf("record surfaced pair: %w", err)
	}
	return nil
}

// Count reports the number of ledgered pairs.
func (l *PostgresLedger) Count(ctx context.Context) (int, error) {
	var count int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lead_ledger`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return count, nil
}
