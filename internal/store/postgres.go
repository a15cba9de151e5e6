package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore persists property records in the ccod_property table and
// serves similarity queries through the pg_trgm GIN index.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed property store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const propertyColumns = `title_number, COALESCE(property_address, ''), COALESCE(postcode, ''),
	company_name, company_name_key, COALESCE(company_number, ''), COALESCE(tenure, 'Unknown'),
	date_proprietor_added, created_at, updated_at`

// UpsertAll writes a batch inside one transaction. The upsert merges on
// title_number with last-write-wins on mutable fields, so a source extract
// containing inconsistent duplicates never hard-fails the load. Invalid
// records are logged and skipped.
func (s *PostgresStore) UpsertAll(ctx context.Context, records []PropertyRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ccod_property (
			title_number, property_address, postcode, company_name,
			company_name_key, company_number, tenure, date_proprietor_added
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		ON CONFLICT (title_number) DO UPDATE SET
			property_address = EXCLUDED.property_address,
			postcode = EXCLUDED.postcode,
			company_name = EXCLUDED.company_name,
			company_name_key = EXCLUDED.company_name_key,
			company_number = EXCLUDED.company_number,
			tenure = EXCLUDED.tenure,
			date_proprietor_added = EXCLUDED.date_proprietor_added,
			updated_at = NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	written := 0
	for _, r := range records {
		if err := prepare(&r); err != nil {
			log.Printf("skipping record: %v", err)
			continue
		}
		if err := r.Validate(now); err != nil {
			log.Printf("skipping record: %v", err)
			continue
		}

		if _, err := stmt.ExecContext(ctx,
			r.TitleNumber, r.PropertyAddress, r.Postcode, r.CompanyName,
			r.CompanyNameKey, r.CompanyNumber, string(r.Tenure), r.DateProprietorAdded,
		); err != nil {
			return written, fmt.Errorf("upsert title %s: %w", r.TitleNumber, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("commit upsert transaction: %w", err)
	}
	return written, nil
}

func (s *PostgresStore) FindByCompanyNumber(ctx context.Context, number string) ([]PropertyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+propertyColumns+`
		FROM ccod_property
		WHERE company_number = $1
		ORDER BY title_number
	`, number)
	if err != nil {
		return nil, fmt.Errorf("query by company number: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SimilarByName uses the pg_trgm similarity operator against the normalized
// name column. The % filter engages the GIN index, but it compares against
// the session GUC pg_trgm.similarity_threshold (default 0.3), not the bind
// parameter, so the query runs in a transaction that pins the GUC to the
// caller's cut-off first. Without the SET LOCAL, a cut-off below 0.3 would
// silently lose every row scoring in [minScore, 0.3).
func (s *PostgresStore) SimilarByName(ctx context.Context, nameKey string, minScore float64) ([]ScoredRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin trigram query: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, similarityThresholdStmt(minScore)); err != nil {
		return nil, fmt.Errorf("set trigram threshold: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+propertyColumns+`,
		       similarity(company_name_key, $1) AS score
		FROM ccod_property
		WHERE company_name_key % $1
		  AND similarity(company_name_key, $1) >= $2
		ORDER BY score DESC, title_number ASC
		LIMIT 200
	`, nameKey, minScore)
	if err != nil {
		return nil, fmt.Errorf("trigram query: %w", err)
	}
	defer rows.Close()

	var out []ScoredRecord
	for rows.Next() {
		var sr ScoredRecord
		if err := scanInto(rows, &sr.Record, &sr.Score); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit trigram query: %w", err)
	}
	return out, nil
}

// similarityThresholdStmt builds the SET LOCAL pinning the % operator to the
// caller's cut-off. SET LOCAL takes no bind parameters, so the value is
// formatted in; it is a float, never user text.
func similarityThresholdStmt(minScore float64) string {
	return fmt.Sprintf("SET LOCAL pg_trgm.similarity_threshold = %.4f", minScore)
}

func (s *PostgresStore) FindByTitleNumber(ctx context.Context, titleNumber string) (*PropertyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+propertyColumns+`
		FROM ccod_property
		WHERE title_number = $1
	`, titleNumber)
	if err != nil {
		return nil, fmt.Errorf("query by title number: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ccod_property`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}
	return count, nil
}

func scanRecords(rows *sql.Rows) ([]PropertyRecord, error) {
	var out []PropertyRecord
	for rows.Next() {
		var r PropertyRecord
		if err := scanInto(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanInto(rows *sql.Rows, r *PropertyRecord, extra ...interface{}) error {
	var tenure string
	var added sql.NullTime
	dest := []interface{}{
		&r.TitleNumber, &r.PropertyAddress, &r.Postcode,
		&r.CompanyName, &r.CompanyNameKey, &r.CompanyNumber, &tenure,
		&added, &r.CreatedAt, &r.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := rows.Scan(dest...); err != nil {
		return fmt.Errorf("scan property record: %w", err)
	}
	r.Tenure = Tenure(tenure)
	if added.Valid {
		t := added.Time
		r.DateProprietorAdded = &t
	}
	return nil
}
