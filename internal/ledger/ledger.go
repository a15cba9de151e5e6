// Package ledger tracks which (subject, title) pairs have already been
// surfaced as leads, so repeated pipeline runs never report the same
// company-title relationship twice.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/distress-leads/internal/normalize"
)

// Ledger is the at-most-once delivery record. RecordSurfaced must be
// conflict-tolerant: two concurrent runs recording the same pair both succeed
// and the pair is stored once.
type Ledger interface {
	HasBeenSurfaced(ctx context.Context, subjectKey, titleNumber string) (bool, error)
	RecordSurfaced(ctx context.Context, subjectKey, titleNumber string, at time.Time) error
}

// SubjectKey derives the ledger key identifying an insolvency subject:
// normalized company name, a "|" separator, and the company number or empty.
// Notices for the same company at different times collapse onto the same key,
// since the underlying distress signal is the company itself.
func SubjectKey(companyName, companyNumber string) (string, error) {
	number := strings.ToUpper(strings.TrimSpace(companyNumber))

	key, err := normalize.CompanyKey(companyName)
	if err != nil {
		if number == "" {
			return "", err
		}
		// Number-only subjects are identified by the number alone.
		key = ""
	}
	return key + "|" + number, nil
}
