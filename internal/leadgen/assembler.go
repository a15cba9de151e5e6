// Package leadgen turns matched candidates into deliverable distress leads
// and owns the post-delivery ledger commit.
package leadgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/distress-leads/internal/gazette"
	"github.com/distress-leads/internal/ledger"
	"github.com/distress-leads/internal/matcher"
)

// ErrDeliveryNotConfirmed marks a lead whose delivery was not confirmed by
// the reporting layer. The lead stays out of the ledger and is retried on
// the next run.
var ErrDeliveryNotConfirmed = errors.New("leadgen: delivery not confirmed")

// LedgerKey is one (subjectKey, titleNumber) pair a lead will commit once
// its delivery is confirmed.
type LedgerKey struct {
	SubjectKey  string
	TitleNumber string
}

// Lead is the deliverable output: one subject with its unsurfaced titles.
type Lead struct {
	Subject    gazette.InsolvencySubject
	SubjectKey string
	Candidates []matcher.Candidate
	// Confidence aggregates the candidate scores as their maximum.
	Confidence float64
	LedgerKeys []LedgerKey
}

// Deliverer is the external reporting collaborator. A nil error confirms
// delivery and triggers the ledger commit for that lead.
type Deliverer interface {
	Deliver(ctx context.Context, lead Lead) error
}

// Assembler filters candidates against the ledger and assembles leads.
// It never writes the ledger during assembly; ConfirmDelivered is the
// commit point, after the delivery collaborator has confirmed.
type Assembler struct {
	ledger ledger.Ledger
	clock  func() time.Time
}

// NewAssembler creates an assembler over the given ledger.
func NewAssembler(l ledger.Ledger) *Assembler {
	return &Assembler{ledger: l, clock: time.Now}
}

// Assemble builds the lead for one subject, dropping candidates whose
// (subjectKey, titleNumber) pair is already ledgered. Returns nil when no
// candidate survives; a lead with zero titles is never emitted.
func (a *Assembler) Assemble(ctx context.Context, subject gazette.InsolvencySubject, candidates []matcher.Candidate) (*Lead, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	subjectKey, err := ledger.SubjectKey(subject.CompanyName, subject.CompanyNumber)
	if err != nil {
		return nil, fmt.Errorf("derive subject key: %w", err)
	}

	lead := &Lead{Subject: subject, SubjectKey: subjectKey}
	for _, c := range candidates {
		surfaced, err := a.ledger.HasBeenSurfaced(ctx, subjectKey, c.Record.TitleNumber)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup: %w", err)
		}
		if surfaced {
			continue
		}
		lead.Candidates = append(lead.Candidates, c)
		lead.LedgerKeys = append(lead.LedgerKeys, LedgerKey{SubjectKey: subjectKey, TitleNumber: c.Record.TitleNumber})
		if c.Score > lead.Confidence {
			lead.Confidence = c.Score
		}
	}

	if len(lead.Candidates) == 0 {
		return nil, nil
	}
	return lead, nil
}

// ConfirmDelivered records the lead's pairs in the ledger. Safe to call
// again for the same lead: the underlying insert is insert-if-absent, so
// at-least-once delivery retries upstream never double-book.
func (a *Assembler) ConfirmDelivered(ctx context.Context, lead *Lead) error {
	now := a.clock()
	for _, k := range lead.LedgerKeys {
		if err := a.ledger.RecordSurfaced(ctx, k.SubjectKey, k.TitleNumber, now); err != nil {
			return fmt.Errorf("record surfaced %s/%s: %w", k.SubjectKey, k.TitleNumber, err)
		}
	}
	return nil
}
