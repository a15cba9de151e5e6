package store

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/distress-leads/internal/trigram"
)

// MemoryStore keeps property records in a mutexed map. It mirrors the
// Postgres store's behaviour, including upsert-merge on title number, so the
// matcher and pipeline can be exercised without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]PropertyRecord
	clock   func() time.Time
}

// NewMemoryStore creates an empty in-memory property store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]PropertyRecord),
		clock:   time.Now,
	}
}

// UpsertAll validates and upserts records keyed by title number.
// Last write wins on mutable fields, matching the CCOD sync contract; invalid
// records are logged and skipped.
func (s *MemoryStore) UpsertAll(ctx context.Context, records []PropertyRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
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

		if existing, ok := s.records[r.TitleNumber]; ok {
			r.CreatedAt = existing.CreatedAt
		} else {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
		s.records[r.TitleNumber] = r
		written++
	}
	return written, nil
}

func (s *MemoryStore) FindByCompanyNumber(ctx context.Context, number string) ([]PropertyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []PropertyRecord
	for _, r := range s.records {
		if r.CompanyNumber != "" && r.CompanyNumber == number {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TitleNumber < out[j].TitleNumber })
	return out, nil
}

func (s *MemoryStore) SimilarByName(ctx context.Context, nameKey string, minScore float64) ([]ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	probe := trigram.Extract(nameKey)

	var out []ScoredRecord
	for _, r := range s.records {
		var score float64
		if r.CompanyNameKey == nameKey {
			score = 1.0
		} else {
			score = trigram.SetSimilarity(probe, trigram.Extract(r.CompanyNameKey))
		}
		if score >= minScore {
			out = append(out, ScoredRecord{Record: r, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Record.TitleNumber < out[j].Record.TitleNumber
	})
	return out, nil
}

func (s *MemoryStore) FindByTitleNumber(ctx context.Context, titleNumber string) (*PropertyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.records[titleNumber]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
