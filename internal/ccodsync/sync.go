// Package ccodsync bulk-loads the Land Registry "UK companies that own
// property" (CCOD) extract into the property store. It is the external
// sync collaborator made concrete: it owns nothing about matching, only the
// monthly refresh of property records.
package ccodsync

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/distress-leads/internal/store"
)

// CCOD header names we consume. The extract carries many more columns
// (overseas proprietors, additional proprietors 2-4); those are ignored.
const (
	colTitleNumber   = "title number"
	colAddress       = "property address"
	colCompanyName   = "proprietor name (1)"
	colCompanyNumber = "company registration no. (1)"
	colTenure        = "tenure"
	colDateAdded     = "date proprietor added"
)

// Syncer streams CCOD rows into the store in batches.
type Syncer struct {
	store     store.Store
	batchSize int
	// flushConcurrency bounds in-flight batch upserts. Batches touch
	// disjoint title sets in practice, and the store upsert is row-atomic,
	// so overlapping flushes are safe.
	flushConcurrency int
}

// NewSyncer creates a syncer with the bulk-load batch size used for the
// full multi-gigabyte extract.
func NewSyncer(s store.Store) *Syncer {
	return &Syncer{store: s, batchSize: 5000, flushConcurrency: 4}
}

// LoadZip opens a downloaded CCOD zip, finds the CSV inside and loads it.
func (s *Syncer) LoadZip(ctx context.Context, path string) (int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, fmt.Errorf("open ccod zip: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return 0, fmt.Errorf("open %s in ccod zip: %w", f.Name, err)
		}
		defer rc.Close()
		log.Printf("streaming %s from %s", f.Name, path)
		return s.LoadCSV(ctx, rc)
	}
	return 0, fmt.Errorf("no csv found in ccod zip %s", path)
}

// LoadCSV streams a CCOD CSV into the store. Rows that fail the store's
// format invariants are skipped by the store's upsert, not fatal; a store
// error aborts the load and the caller retries the whole sync later.
func (s *Syncer) LoadCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read ccod header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colTitleNumber, colCompanyName} {
		if _, ok := cols[required]; !ok {
			return 0, fmt.Errorf("ccod csv missing %q column", required)
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.flushConcurrency)

	var written int64
	flush := func(batch []store.PropertyRecord) {
		group.Go(func() error {
			n, err := s.store.UpsertAll(gctx, batch)
			if err != nil {
				return fmt.Errorf("upsert ccod batch: %w", err)
			}
			atomic.AddInt64(&written, int64(n))
			return nil
		})
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	batch := make([]store.PropertyRecord, 0, s.batchSize)
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("skipping malformed ccod row: %v", err)
			continue
		}
		rows++

		address := field(record, colAddress)
		batch = append(batch, store.PropertyRecord{
			TitleNumber:         field(record, colTitleNumber),
			PropertyAddress:     address,
			Postcode:            extractPostcode(address),
			CompanyName:         field(record, colCompanyName),
			CompanyNumber:       field(record, colCompanyNumber),
			Tenure:              store.ParseTenure(field(record, colTenure)),
			DateProprietorAdded: parseDate(field(record, colDateAdded)),
		})

		if len(batch) >= s.batchSize {
			flush(batch)
			batch = make([]store.PropertyRecord, 0, s.batchSize)
			if rows%100000 == 0 {
				log.Printf("ccod sync: %d rows read", rows)
			}
		}
	}
	if len(batch) > 0 {
		flush(batch)
	}

	if err := group.Wait(); err != nil {
		return int(atomic.LoadInt64(&written)), err
	}

	total := int(atomic.LoadInt64(&written))
	log.Printf("ccod sync complete: %d rows read, %d records written", rows, total)
	return total, nil
}

// Date formats seen across CCOD monthly extracts.
var ccodDateLayouts = []string{"02-01-2006", "2006-01-02", "02/01/2006"}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range ccodDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
