package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/ar"
)

func TestSnapshotIndexIsBuiltLazily(t *testing.T) {
	snap := &Snapshot{Buyers: []ar.Buyer{{ID: 1, FirstName: "Ana"}}}
	require.Equal(t, "Ana", snap.Index().Buyer(1).FullName())

	var nilSnap *Snapshot
	require.Nil(t, nilSnap.Index())
	require.Empty(t, nilSnap.Counts())
}

func TestEmptySnapshot(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := Empty(now)
	require.Equal(t, now, snap.LoadedAt)
	require.Equal(t, map[string]int{"buyers": 0, "units": 0, "projects": 0, "invoices": 0, "payments": 0}, snap.Counts())
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	doc := `{
		"buyers": [{"id": 1, "firstName": "Ana"}],
		"invoices": {"data": [{"id": 5, "buyerId": 1, "totalAmount": "1,500", "status": "PAID"}]},
		"payments": [{"id": 9, "invoiceId": 5, "amount": 1500, "status": "completed"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	snap, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "file", snap.Source)
	require.Len(t, snap.Buyers, 1)
	require.Empty(t, snap.Units)
	require.Equal(t, 1500.0, snap.Invoices[0].TotalAmount.Float())
	require.Equal(t, ar.InvoicePaid, snap.Invoices[0].Status)
	require.Len(t, snap.Payments, 1)
}

func TestFileLoaderMissingFile(t *testing.T) {
	_, err := NewFileLoader(filepath.Join(t.TempDir(), "missing.json")).Load(context.Background())
	require.ErrorIs(t, err, ErrUpstream)
}

func TestPostgresNullHelpers(t *testing.T) {
	require.Equal(t, int64(0), idFrom(pgtype.Int8{}))
	require.Equal(t, int64(4), idFrom(pgtype.Int8{Int64: 4, Valid: true}))

	require.True(t, dateFrom(pgtype.Timestamptz{}).IsZero())
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("WIB", 7*3600))
	got := dateFrom(pgtype.Timestamptz{Time: at, Valid: true})
	require.True(t, got.Equal(at))
	require.Equal(t, time.UTC, got.Location())
}

func TestSnapshotIDFollowsContent(t *testing.T) {
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	invoices := []ar.Invoice{{ID: 1, TotalAmount: ar.NewAmount(100), Status: ar.InvoicePending}}

	a := New("rest", at, nil, nil, nil, invoices, nil)
	b := New("postgres", at.Add(time.Hour), nil, nil, nil, invoices, nil)
	require.Equal(t, a.ID, b.ID)

	changed := New("rest", at, nil, nil, nil, []ar.Invoice{{ID: 1, TotalAmount: ar.NewAmount(101), Status: ar.InvoicePending}}, nil)
	require.NotEqual(t, a.ID, changed.ID)
}
