package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/distress-leads/internal/gazette"
	"github.com/distress-leads/internal/store"
)

func seedStore(t *testing.T, records ...store.PropertyRecord) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	written, err := s.UpsertAll(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, len(records), written)
	return s
}

func TestExactMatchPrimacy(t *testing.T) {
	// Name mismatch is irrelevant when the registered number matches.
	s := seedStore(t,
		store.PropertyRecord{TitleNumber: "DN12345", CompanyName: "Completely Different Name Ltd", CompanyNumber: "01234567"},
	)
	m := New(s, nil, DefaultThresholds())

	got, err := m.FindCandidates(context.Background(), gazette.InsolvencySubject{
		CompanyName:   "Acme Trading Ltd",
		CompanyNumber: "01234567",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, Exact, got[0].Strength)
	require.Equal(t, 1.0, got[0].Score)
	require.Equal(t, "companyNumber", got[0].Basis)
}

func TestExactSubsumesFuzzyOnSameTitle(t *testing.T) {
	s := seedStore(t,
		store.PropertyRecord{TitleNumber: "DN1", CompanyName: "Acme Trading Ltd", CompanyNumber: "01234567"},
		store.PropertyRecord{TitleNumber: "DN2", CompanyName: "Acme Trading Ltd"},
	)
	m := New(s, nil, DefaultThresholds())

	got, err := m.FindCandidates(context.Background(), gazette.InsolvencySubject{
		CompanyName:   "Acme Trading Limited",
		CompanyNumber: "01234567",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// DN1 matched both ways; the exact tag wins. DN2 only by name.
	require.Equal(t, "DN1", got[0].Record.TitleNumber)
	require.Equal(t, Exact, got[0].Strength)
	require.Equal(t, "companyNumber", got[0].Basis)
	require.Equal(t, "DN2", got[1].Record.TitleNumber)
	require.Equal(t, FuzzyHigh, got[1].Strength)
	require.Equal(t, "companyName", got[1].Basis)
}

func TestFuzzyTiers(t *testing.T) {
	s := seedStore(t,
		store.PropertyRecord{TitleNumber: "DN1", CompanyName: "Acme Trading Ltd"},
		store.PropertyRecord{TitleNumber: "DN2", CompanyName: "Acme Tradings Ltd"},
		store.PropertyRecord{TitleNumber: "DN3", CompanyName: "Zzyxquintar Nonexistent Corp"},
	)
	m := New(s, nil, DefaultThresholds())

	got, err := m.FindCandidates(context.Background(), gazette.InsolvencySubject{
		CompanyName: "Acme Trading Limited",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "DN1", got[0].Record.TitleNumber)
	require.Equal(t, FuzzyHigh, got[0].Strength)
	require.Equal(t, 1.0, got[0].Score)
	require.Equal(t, "DN2", got[1].Record.TitleNumber)
	require.Greater(t, got[1].Score, 0.5)
	require.Less(t, got[1].Score, 1.0)
}

func TestThresholdsAreConfiguration(t *testing.T) {
	s := seedStore(t,
		store.PropertyRecord{TitleNumber: "DN1", CompanyName: "Acme Trading Ltd"},
		store.PropertyRecord{TitleNumber: "DN2", CompanyName: "Acme Holdings Ltd"},
	)

	strict := New(s, nil, Thresholds{FuzzyHigh: 0.99, FuzzyLow: 0.9})
	got, err := strict.FindCandidates(context.Background(), gazette.InsolvencySubject{CompanyName: "Acme Trading Ltd"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, FuzzyHigh, got[0].Strength)

	loose := New(s, nil, Thresholds{FuzzyHigh: 0.8, FuzzyLow: 0.2})
	got, err = loose.FindCandidates(context.Background(), gazette.InsolvencySubject{CompanyName: "Acme Trading Ltd"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, FuzzyLow, got[1].Strength)
}

func TestNoMatchIsEmptyNotError(t *testing.T) {
	s := seedStore(t,
		store.PropertyRecord{TitleNumber: "DN1", CompanyName: "Unrelated Holdings Ltd"},
	)
	m := New(s, nil, DefaultThresholds())

	got, err := m.FindCandidates(context.Background(), gazette.InsolvencySubject{
		CompanyName: "Zzyxquintar Nonexistent Corp",
	})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestUnusableSubjectRejected(t *testing.T) {
	s := seedStore(t)
	m := New(s, nil, DefaultThresholds())

	_, err := m.FindCandidates(context.Background(), gazette.InsolvencySubject{CompanyName: "   "})
	require.ErrorIs(t, err, ErrNoUsableSubject)

	// A number alone is usable.
	got, err := m.FindCandidates(context.Background(), gazette.InsolvencySubject{CompanyNumber: "01234567"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDeterministicOrdering(t *testing.T) {
	s := seedStore(t,
		store.PropertyRecord{TitleNumber: "DN3", CompanyName: "Acme Trading Ltd", CompanyNumber: "01234567"},
		store.PropertyRecord{TitleNumber: "DN1", CompanyName: "Acme Trading Ltd", CompanyNumber: "01234567"},
		store.PropertyRecord{TitleNumber: "DN2", CompanyName: "Acme Trading Limited"},
		store.PropertyRecord{TitleNumber: "DN4", CompanyName: "Acme Tradings Ltd"},
	)
	m := New(s, nil, DefaultThresholds())

	subject := gazette.InsolvencySubject{CompanyName: "Acme Trading Ltd", CompanyNumber: "01234567"}

	first, err := m.FindCandidates(context.Background(), subject)
	require.NoError(t, err)
	second, err := m.FindCandidates(context.Background(), subject)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Exact before fuzzy-high before fuzzy-low, title ascending within ties.
	var titles []string
	for _, c := range first {
		titles = append(titles, c.Record.TitleNumber)
	}
	require.Equal(t, []string{"DN1", "DN3", "DN2", "DN4"}, titles)
}

type stubResolver struct {
	number string
	err    error
	calls  int
}

func (r *stubResolver) ResolveNumber(ctx context.Context, companyName string) (string, error) {
	r.calls++
	return r.number, r.err
}

func TestResolverBackfillsNumber(t *testing.T) {
	// The stored name is too different for a fuzzy hit; only the backfilled
	// number finds the title.
	s := seedStore(t,
		store.PropertyRecord{TitleNumber: "DN1", CompanyName: "AT Property Nominees Ltd", CompanyNumber: "01234567"},
	)
	resolver := &stubResolver{number: "01234567"}
	m := New(s, resolver, DefaultThresholds())

	got, err := m.FindCandidates(context.Background(), gazette.InsolvencySubject{CompanyName: "Acme Trading Ltd"})
	require.NoError(t, err)
	require.Equal(t, 1, resolver.calls)
	require.Len(t, got, 1)
	require.Equal(t, Exact, got[0].Strength)
}

func TestResolverNotCalledWhenNumberPresent(t *testing.T) {
	s := seedStore(t)
	resolver := &stubResolver{number: "09999999"}
	m := New(s, resolver, DefaultThresholds())

	_, err := m.FindCandidates(context.Background(), gazette.InsolvencySubject{
		CompanyName:   "Acme Trading Ltd",
		CompanyNumber: "01234567",
	})
	require.NoError(t, err)
	require.Zero(t, resolver.calls)
}

func TestResolverFailureIsNotFatal(t *testing.T) {
	s := seedStore(t,
		store.PropertyRecord{TitleNumber: "DN1", CompanyName: "Acme Trading Ltd"},
	)
	resolver := &stubResolver{err: errors.New("registry unavailable")}
	m := New(s, resolver, DefaultThresholds())

	got, err := m.FindCandidates(context.Background(), gazette.InsolvencySubject{CompanyName: "Acme Trading Ltd"})
	require.NoError(t, err)
	require.Len(t, got, 1)
}
