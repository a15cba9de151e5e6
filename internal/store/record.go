package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/distress-leads/internal/normalize"
)

// Tenure is the recorded tenure of a land title.
type Tenure string

const (
	TenureFreehold  Tenure = "Freehold"
	TenureLeasehold Tenure = "Leasehold"
	TenureUnknown   Tenure = "Unknown"
)

// ParseTenure maps free-text tenure values from the CCOD extract onto the
// enum, defaulting to Unknown.
func ParseTenure(s string) Tenure {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FREEHOLD":
		return TenureFreehold
	case "LEASEHOLD":
		return TenureLeasehold
	default:
		return TenureUnknown
	}
}

// PropertyRecord is one land title with its recorded corporate proprietor.
type PropertyRecord struct {
	TitleNumber         string
	PropertyAddress     string
	Postcode            string
	CompanyName         string
	CompanyNameKey      string
	CompanyNumber       string
	Tenure              Tenure
	DateProprietorAdded *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ScoredRecord is a property record with a name similarity score attached.
type ScoredRecord struct {
	Record PropertyRecord
	Score  float64
}

// PropertyIndex is the read side of the store used by the matcher.
type PropertyIndex interface {
	// FindByCompanyNumber returns all records registered to exactly that
	// company number, ordered by title number.
	FindByCompanyNumber(ctx context.Context, number string) ([]PropertyRecord, error)
	// SimilarByName returns records whose normalized company name scores at
	// least minScore against the probe key, ordered by score descending then
	// title number ascending.
	SimilarByName(ctx context.Context, nameKey string, minScore float64) ([]ScoredRecord, error)
}

// Store is the full property store interface: the bulk-sync write side plus
// the query side.
type Store interface {
	PropertyIndex
	// UpsertAll validates and upserts records, returning the number written.
	// Records failing validation are skipped, not fatal.
	UpsertAll(ctx context.Context, records []PropertyRecord) (int, error)
	FindByTitleNumber(ctx context.Context, titleNumber string) (*PropertyRecord, error)
	Count(ctx context.Context) (int, error)
}

// ValidationError reports a record that violates a format invariant. These
// are per-record recoverable: the sync layer logs and skips.
type ValidationError struct {
	TitleNumber string
	Field       string
	Reason      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid property record %q: %s %s", e.TitleNumber, e.Field, e.Reason)
}

var (
	reTitleNumber   = regexp.MustCompile(`^[A-Z]{1,4}[0-9]+$`)
	reCompanyNumber = regexp.MustCompile(`^[A-Z0-9]{6,8}$`)
)

// Validate enforces the schema invariants before any insert: title number and
// company number formats, non-empty company name, known tenure, and a
// proprietor date that is not in the future relative to now.
func (r *PropertyRecord) Validate(now time.Time) error {
	if !reTitleNumber.MatchString(r.TitleNumber) {
		return &ValidationError{TitleNumber: r.TitleNumber, Field: "titleNumber", Reason: "must match [A-Z]{1,4}[0-9]+"}
	}
	if strings.TrimSpace(r.CompanyName) == "" {
		return &ValidationError{TitleNumber: r.TitleNumber, Field: "companyName", Reason: "must not be empty"}
	}
	if r.CompanyNumber != "" && !reCompanyNumber.MatchString(r.CompanyNumber) {
		return &ValidationError{TitleNumber: r.TitleNumber, Field: "companyNumber", Reason: "must match [A-Z0-9]{6,8}"}
	}
	switch r.Tenure {
	case TenureFreehold, TenureLeasehold, TenureUnknown, "":
	default:
		return &ValidationError{TitleNumber: r.TitleNumber, Field: "tenure", Reason: "unknown value " + string(r.Tenure)}
	}
	if r.DateProprietorAdded != nil && r.DateProprietorAdded.After(now) {
		return &ValidationError{TitleNumber: r.TitleNumber, Field: "dateProprietorAdded", Reason: "must not be in the future"}
	}
	return nil
}

// prepare trims identity fields and derives the normalized name key.
func prepare(r *PropertyRecord) error {
	r.TitleNumber = strings.ToUpper(strings.TrimSpace(r.TitleNumber))
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.CompanyNumber = strings.ToUpper(strings.TrimSpace(r.CompanyNumber))
	if r.Tenure == "" {
		r.Tenure = TenureUnknown
	}

	key, err := normalize.CompanyKey(r.CompanyName)
	if err != nil {
		return &ValidationError{TitleNumber: r.TitleNumber, Field: "companyName", Reason: "must not be empty"}
	}
	r.CompanyNameKey = key
	return nil
}
