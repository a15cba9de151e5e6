package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubjectKey(t *testing.T) {
	tests := []struct {
		name   string
		inName string
		inNum  string
		want   string
	}{
		{"name and number", "Acme Trading Ltd", "01234567", "ACME TRADING|01234567"},
		{"name only", "Acme Trading Limited", "", "ACME TRADING|"},
		{"number only", "", "01234567", "|01234567"},
		{"number is upper cased", "Acme Trading Ltd", "sc123456", "ACME TRADING|SC123456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SubjectKey(tt.inName, tt.inNum)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := SubjectKey("   ", "")
	require.Error(t, err)
}

func TestSubjectKeyCollapsesNotices(t *testing.T) {
	a, err := SubjectKey("Acme Trading Limited", "01234567")
	require.NoError(t, err)
	b, err := SubjectKey("ACME TRADING LTD", "01234567")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestRecordSurfacedIdempotent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	first := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	require.NoError(t, l.RecordSurfaced(ctx, "ACME TRADING|01234567", "DN12345", first))
	require.NoError(t, l.RecordSurfaced(ctx, "ACME TRADING|01234567", "DN12345", later))

	require.Equal(t, 1, l.Len())
	at, ok := l.FirstSurfacedAt("ACME TRADING|01234567", "DN12345")
	require.True(t, ok)
	require.Equal(t, first, at)
}

func TestHasBeenSurfaced(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	seen, err := l.HasBeenSurfaced(ctx, "ACME TRADING|", "DN12345")
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, l.RecordSurfaced(ctx, "ACME TRADING|", "DN12345", time.Now()))

	seen, err = l.HasBeenSurfaced(ctx, "ACME TRADING|", "DN12345")
	require.NoError(t, err)
	require.True(t, seen)

	// A different title for the same subject is still unsurfaced.
	seen, err = l.HasBeenSurfaced(ctx, "ACME TRADING|", "DN99999")
	require.NoError(t, err)
	require.False(t, seen)
}

func TestRecordSurfacedConcurrent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.RecordSurfaced(ctx, "ACME TRADING|01234567", "DN12345", time.Now())
		}()
	}
	wg.Wait()

	require.Equal(t, 1, l.Len())
}
