// Package report renders assembled leads for the delivery layer. Email
// transport and formatting live outside this system; the CSV writer is the
// delivery collaborator used by the CLI.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/distress-leads/internal/leadgen"
)

var csvHeader = []string{
	"company_name", "company_number", "insolvency_type", "notice_date",
	"ip_name", "ip_firm",
	"confidence", "property_count", "title_numbers", "property_addresses",
}

// Written in place of a missing property address so title_numbers and
// property_addresses stay positionally aligned.
const noAddress = "(address not recorded)"

// CSVWriter streams leads to an io.Writer as CSV rows, one row per lead.
// A write failure counts as unconfirmed delivery: the pipeline leaves the
// lead out of the ledger and retries next run.
type CSVWriter struct {
	w          *csv.Writer
	headerDone bool
}

// NewCSVWriter creates a CSV deliverer writing to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Deliver writes one lead row and flushes it.
func (c *CSVWriter) Deliver(ctx context.Context, lead leadgen.Lead) error {
	if !c.headerDone {
		if err := c.w.Write(csvHeader); err != nil {
			return fmt.Errorf("write report header: %w", err)
		}
		c.headerDone = true
	}

	var titles, addresses []string
	for _, cand := range lead.Candidates {
		titles = append(titles, cand.Record.TitleNumber)
		address := cand.Record.PropertyAddress
		if address == "" {
			address = noAddress
		}
		addresses = append(addresses, address)
	}

	noticeDate := ""
	if lead.Subject.NoticeDate != nil {
		noticeDate = lead.Subject.NoticeDate.Format("2006-01-02")
	}

	row := []string{
		lead.Subject.CompanyName,
		lead.Subject.CompanyNumber,
		lead.Subject.InsolvencyType,
		noticeDate,
		lead.Subject.PractitionerName,
		lead.Subject.PractitionerFirm,
		strconv.FormatFloat(lead.Confidence, 'f', 3, 64),
		strconv.Itoa(len(lead.Candidates)),
		strings.Join(titles, "; "),
		strings.Join(addresses, "; "),
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("write report row: %w", err)
	}

	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}
