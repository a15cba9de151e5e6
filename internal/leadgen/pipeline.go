package leadgen

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/distress-leads/internal/gazette"
	"github.com/distress-leads/internal/matcher"
)

// Pipeline runs one watch-and-enrich batch: subjects in, delivered and
// ledgered leads out. Runs are independent; idempotence across overlapping
// runs comes from the ledger, not from any cross-run coordination.
type Pipeline struct {
	matcher   *matcher.Matcher
	assembler *Assembler
	deliverer Deliverer
}

// NewPipeline wires a matcher, an assembler and a delivery collaborator.
func NewPipeline(m *matcher.Matcher, a *Assembler, d Deliverer) *Pipeline {
	return &Pipeline{matcher: m, assembler: a, deliverer: d}
}

// RunSummary reports what one batch did.
type RunSummary struct {
	RunID     string
	Subjects  int
	Skipped   int
	Matched   int
	Delivered int
	Retained  int // leads assembled but not confirmed; retried next run
}

// Run processes subjects in input order. Per-subject input problems are
// logged and skipped; store failures abort the batch, leaving pairs already
// ledgered for earlier subjects valid. A cancelled context stops the batch
// between subjects.
func (p *Pipeline) Run(ctx context.Context, subjects []gazette.InsolvencySubject) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.NewString(), Subjects: len(subjects)}
	log.Printf("run %s: processing %d subjects", summary.RunID, len(subjects))

	for _, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("run %s aborted: %w", summary.RunID, err)
		}

		candidates, err := p.matcher.FindCandidates(ctx, subject)
		if errors.Is(err, matcher.ErrNoUsableSubject) {
			log.Printf("run %s: skipping unusable subject %q", summary.RunID, subject.CompanyName)
			summary.Skipped++
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("run %s: match %q: %w", summary.RunID, subject.CompanyName, err)
		}
		if len(candidates) == 0 {
			continue
		}
		summary.Matched++

		lead, err := p.assembler.Assemble(ctx, subject, candidates)
		if err != nil {
			return summary, fmt.Errorf("run %s: assemble %q: %w", summary.RunID, subject.CompanyName, err)
		}
		if lead == nil {
			continue
		}

		if err := p.deliverer.Deliver(ctx, *lead); err != nil {
			// Not confirmed: leave the pairs unledgered so the lead is
			// naturally retried on the next run.
			log.Printf("run %s: %v: %q: %v", summary.RunID, ErrDeliveryNotConfirmed, subject.CompanyName, err)
			summary.Retained++
			continue
		}

		if err := p.assembler.ConfirmDelivered(ctx, lead); err != nil {
			return summary, fmt.Errorf("run %s: confirm %q: %w", summary.RunID, subject.CompanyName, err)
		}
		summary.Delivered++
	}

	log.Printf("run %s complete: %d matched, %d delivered, %d retained, %d skipped",
		summary.RunID, summary.Matched, summary.Delivered, summary.Retained, summary.Skipped)
	return summary, nil
}
