package archive_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticket-ledger/internal/archive"
	"ticket-ledger/internal/models"
)

func setupTestArchive(t *testing.T) *archive.Archive {
	t.Helper()

	// A named in-memory database per test keeps tests isolated while
	// still sharing the store across pooled connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	a := archive.New(bunDB)
	require.NoError(t, a.CreateTables(context.Background()))
	return a
}

func sampleEvent(id uint64) *models.Event {
	return &models.Event{
		ID:          id,
		Name:        "Archived Gig",
		Organizer:   "organizer",
		MaxSupply:   100,
		BasePrice:   1000,
		StartTime:   time.Date(2026, 7, 1, 19, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 7, 1, 23, 0, 0, 0, time.UTC),
		Active:      true,
		CreatedAt:   time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		MetadataURI: "ipfs://meta",
	}
}

func TestSaveEventUpserts(t *testing.T) {
	a := setupTestArchive(t)
	ctx := context.Background()

	ev := sampleEvent(1)
	require.NoError(t, a.SaveEvent(ctx, ev))

	// Saving again with changed mutable fields updates in place.
	ev.TotalMinted = 5
	ev.Active = false
	require.NoError(t, a.SaveEvent(ctx, ev))

	snap, err := a.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, uint64(5), snap.Events[0].TotalMinted)
	assert.False(t, snap.Events[0].Active)
}

func TestLoadAllRoundTrip(t *testing.T) {
	a := setupTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.SaveEvent(ctx, sampleEvent(1)))
	require.NoError(t, a.SaveProof(ctx, &models.TicketProof{
		TicketID:      1,
		EventID:       1,
		OriginalOwner: "alice",
		MintedAt:      time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC),
		ProofHash:     []byte{0xde, 0xad},
		IsValid:       true,
	}))
	require.NoError(t, a.SaveOwnership(ctx, &models.OwnershipRow{
		TicketID: 1, EventID: 1, Holder: "alice",
	}))
	require.NoError(t, a.SaveBlacklist(ctx, &models.BlacklistRow{Address: "scalper", Blocked: true}))

	// A later transfer overwrites the ownership row.
	require.NoError(t, a.SaveOwnership(ctx, &models.OwnershipRow{
		TicketID: 1, EventID: 1, Holder: "bob", TransferCount: 1,
	}))

	snap, err := a.LoadAll(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Proofs, 1)
	assert.Equal(t, "alice", snap.Proofs[0].OriginalOwner)
	assert.Equal(t, []byte{0xde, 0xad}, snap.Proofs[0].ProofHash)

	require.Len(t, snap.Ownership, 1)
	assert.Equal(t, "bob", snap.Ownership[0].Holder)
	assert.Equal(t, uint8(1), snap.Ownership[0].TransferCount)

	require.Len(t, snap.Blacklist, 1)
	assert.True(t, snap.Blacklist[0].Blocked)
}

func TestSignalsPerEvent(t *testing.T) {
	a := setupTestArchive(t)
	ctx := context.Background()

	sigs := []*models.Signal{
		{Type: models.SignalEventCreated, EventID: 1, Actor: "organizer", EmittedAt: time.Now().UTC()},
		{Type: models.SignalTicketMinted, EventID: 1, Actor: "alice", TicketIDs: []uint64{1, 2}, Amount: 2000, EmittedAt: time.Now().UTC()},
		{Type: models.SignalEventCreated, EventID: 2, Actor: "organizer", EmittedAt: time.Now().UTC()},
	}
	for _, sig := range sigs {
		require.NoError(t, a.AppendSignal(ctx, sig))
	}

	got, err := a.Signals(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.SignalEventCreated, got[0].Type)
	assert.Equal(t, models.SignalTicketMinted, got[1].Type)
	assert.Equal(t, []uint64{1, 2}, got[1].TicketIDs)
}
