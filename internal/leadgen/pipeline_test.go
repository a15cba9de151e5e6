package leadgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/distress-leads/internal/gazette"
	"github.com/distress-leads/internal/ledger"
	"github.com/distress-leads/internal/matcher"
	"github.com/distress-leads/internal/store"
)

type captureDeliverer struct {
	leads []Lead
	err   error
}

func (d *captureDeliverer) Deliver(ctx context.Context, lead Lead) error {
	if d.err != nil {
		return d.err
	}
	d.leads = append(d.leads, lead)
	return nil
}

func newTestPipeline(t *testing.T, d Deliverer) (*Pipeline, *ledger.MemoryLedger) {
	t.Helper()
	s := store.NewMemoryStore()
	_, err := s.UpsertAll(context.Background(), []store.PropertyRecord{
		{TitleNumber: "DN12345", CompanyName: "Acme Trading Ltd", CompanyNumber: "01234567"},
		{TitleNumber: "DN67890", CompanyName: "Acme Trading Ltd", CompanyNumber: "01234567"},
		{TitleNumber: "SY100", CompanyName: "Meon Valley Brewing Ltd"},
	})
	require.NoError(t, err)

	led := ledger.NewMemoryLedger()
	m := matcher.New(s, nil, matcher.DefaultThresholds())
	return NewPipeline(m, NewAssembler(led), d), led
}

var testSubjects = []gazette.InsolvencySubject{
	{CompanyName: "Acme Trading Limited", CompanyNumber: "01234567", InsolvencyType: "liquidation"},
	{CompanyName: "Meon Valley Brewing Limited", InsolvencyType: "administration"},
	{CompanyName: "Zzyxquintar Nonexistent Corp"},
	{CompanyName: "   "},
}

func TestRunDeliversAndLedgers(t *testing.T) {
	d := &captureDeliverer{}
	p, led := newTestPipeline(t, d)

	summary, err := p.Run(context.Background(), testSubjects)
	require.NoError(t, err)
	require.Equal(t, 4, summary.Subjects)
	require.Equal(t, 2, summary.Matched)
	require.Equal(t, 2, summary.Delivered)
	require.Equal(t, 1, summary.Skipped)
	require.NotEmpty(t, summary.RunID)

	require.Len(t, d.leads, 2)
	require.Equal(t, "Acme Trading Limited", d.leads[0].Subject.CompanyName)
	require.Len(t, d.leads[0].Candidates, 2)
	require.Equal(t, 1.0, d.leads[0].Confidence)
	require.Equal(t, 3, led.Len())
}

func TestSecondRunProducesNoRepeats(t *testing.T) {
	d := &captureDeliverer{}
	p, led := newTestPipeline(t, d)

	_, err := p.Run(context.Background(), testSubjects)
	require.NoError(t, err)
	require.Len(t, d.leads, 2)

	// Identical re-run: everything already ledgered, nothing delivered.
	summary, err := p.Run(context.Background(), testSubjects)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Matched)
	require.Equal(t, 0, summary.Delivered)
	require.Len(t, d.leads, 2)
	require.Equal(t, 3, led.Len())
}

func TestNewTitleStillSurfacesAfterDedup(t *testing.T) {
	d := &captureDeliverer{}
	s := store.NewMemoryStore()
	_, err := s.UpsertAll(context.Background(), []store.PropertyRecord{
		{TitleNumber: "DN12345", CompanyName: "Acme Trading Ltd", CompanyNumber: "01234567"},
	})
	require.NoError(t, err)

	led := ledger.NewMemoryLedger()
	p := NewPipeline(matcher.New(s, nil, matcher.DefaultThresholds()), NewAssembler(led), d)

	subjects := []gazette.InsolvencySubject{{CompanyName: "Acme Trading Ltd", CompanyNumber: "01234567"}}
	_, err = p.Run(context.Background(), subjects)
	require.NoError(t, err)
	require.Len(t, d.leads, 1)

	// The company acquires a new title between runs.
	_, err = s.UpsertAll(context.Background(), []store.PropertyRecord{
		{TitleNumber: "HP777", CompanyName: "Acme Trading Ltd", CompanyNumber: "01234567"},
	})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), subjects)
	require.NoError(t, err)
	require.Len(t, d.leads, 2)

	// Only the new title appears in the second lead.
	second := d.leads[1]
	require.Len(t, second.Candidates, 1)
	require.Equal(t, "HP777", second.Candidates[0].Record.TitleNumber)
}

func TestUnconfirmedDeliveryIsRetriedNextRun(t *testing.T) {
	d := &captureDeliverer{err: errors.New("smtp timeout")}
	p, led := newTestPipeline(t, d)

	subjects := []gazette.InsolvencySubject{{CompanyName: "Acme Trading Ltd", CompanyNumber: "01234567"}}

	summary, err := p.Run(context.Background(), subjects)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Retained)
	require.Equal(t, 0, summary.Delivered)
	require.Equal(t, 0, led.Len())

	// Delivery recovers; the same lead goes out and is ledgered.
	d.err = nil
	summary, err = p.Run(context.Background(), subjects)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Delivered)
	require.Len(t, d.leads, 1)
	require.Equal(t, 2, led.Len())
}

func TestCancelledContextAbortsBetweenSubjects(t *testing.T) {
	d := &captureDeliverer{}
	p, _ := newTestPipeline(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := p.Run(ctx, testSubjects)
	require.Error(t, err)
	require.Equal(t, 0, summary.Delivered)
}
