package db

import (
	"database/sql"
	"fmt"
)

// schemaStatements create the two durable tables and their indexes.
// ccod_property is the bulk-synced Land Registry extract; lead_ledger is
// the at-most-once record of surfaced (subject, title) pairs.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,

	`CREATE TABLE IF NOT EXISTS ccod_property (
		title_number TEXT PRIMARY KEY,
		property_address TEXT,
		postcode TEXT,
		company_name TEXT NOT NULL,
		company_name_key TEXT NOT NULL,
		company_number TEXT,
		tenure TEXT,
		date_proprietor_added DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// A company owns a given title at most once.
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_ccod_company_title
		ON ccod_property (company_number, title_number)
		WHERE company_number IS NOT NULL`,

	`CREATE INDEX IF NOT EXISTS ix_ccod_company_number
		ON ccod_property (company_number)`,

	`CREATE INDEX IF NOT EXISTS ix_ccod_name_key_trgm
		ON ccod_property USING GIN (company_name_key gin_trgm_ops)`,

	`CREATE TABLE IF NOT EXISTS lead_ledger (
		subject_key TEXT NOT NULL,
		title_number TEXT NOT NULL,
		first_surfaced_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (subject_key, title_number)
	)`,
}

// EnsureSchema creates tables, indexes and the pg_trgm extension if absent.
// Idempotent, safe to run on every start.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
