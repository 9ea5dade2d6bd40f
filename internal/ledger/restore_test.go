package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-ledger/internal/assets"
	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/models"
	"ticket-ledger/internal/payment"
)

func TestRestoreRebuildsArena(t *testing.T) {
	env := newTestEnv(t)

	snap := ledger.Snapshot{
		Events: []*models.Event{{
			ID:           3,
			Name:         "Restored Gig",
			Organizer:    testOrganizer,
			MaxSupply:    50,
			TotalMinted:  2,
			BasePrice:    100,
			StartTime:    env.now.Add(time.Hour),
			EndTime:      env.now.Add(2 * time.Hour),
			Active:       true,
			Transferable: true,
		}},
		Proofs: []*models.TicketProof{
			{TicketID: 7, EventID: 3, OriginalOwner: testBuyer, MintedAt: env.now, ProofHash: []byte{1}, IsValid: true},
			{TicketID: 8, EventID: 3, OriginalOwner: testBuyer, MintedAt: env.now, ProofHash: []byte{2}, IsValid: true},
		},
		Ownership: []*models.OwnershipRow{
			{TicketID: 7, EventID: 3, Holder: testReseller, TransferCount: 1},
			{TicketID: 8, EventID: 3, Holder: "", Used: true}, // burned
		},
		Blacklist: []*models.BlacklistRow{{Address: "scalper", Blocked: true}},
	}
	require.NoError(t, env.ledger.Restore(context.Background(), snap))

	holder, err := env.ledger.HolderOf(7)
	require.NoError(t, err)
	assert.Equal(t, testReseller, holder)

	// The restored holding is re-minted into the asset bank; the burned
	// ticket is not.
	assert.Equal(t, uint64(1), env.bank.BalanceOf(testReseller, 3))
	assert.Equal(t, uint64(0), env.bank.BalanceOf(testBuyer, 3))

	count, err := env.ledger.TransferCount(7)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), count)

	used, err := env.ledger.IsTicketUsed(8)
	require.NoError(t, err)
	assert.True(t, used)
	_, err = env.ledger.HolderOf(8)
	assert.ErrorIs(t, err, ledger.ErrTicketNotFound)

	assert.True(t, env.ledger.IsAddressBlacklisted("scalper"))

	// Counters resume past the restored ids: the next event is 4, the
	// next ticket is 9.
	nextEvent, err := env.ledger.CreateEvent(testOrganizer, models.CreateEventRequest{
		Name:      "Next",
		MaxSupply: 10,
		StartTime: env.now.Add(time.Hour).Unix(),
		EndTime:   env.now.Add(2 * time.Hour).Unix(),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), nextEvent)

	ids, err := env.ledger.MintTicket(context.Background(), testBuyer, nextEvent, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{9}, ids)
}

func TestRestoreRejectsNonEmptyLedger(t *testing.T) {
	env := newTestEnv(t)
	env.createEvent(t, models.CreateEventRequest{})

	err := env.ledger.Restore(context.Background(), ledger.Snapshot{})
	assert.Error(t, err)
}

func TestRestoreRejectsDanglingReferences(t *testing.T) {
	l, err := ledger.New(ledger.Options{
		Admin:  testAdmin,
		Assets: assets.NewBank(),
		Payer:  payment.NewMemoryPayer(),
	})
	require.NoError(t, err)

	err = l.Restore(context.Background(), ledger.Snapshot{
		Proofs: []*models.TicketProof{{TicketID: 1, EventID: 99, IsValid: true}},
	})
	assert.Error(t, err, "proof referencing an unknown event must be rejected")
}

func TestRestoredTicketsStayUsable(t *testing.T) {
	env := newTestEnv(t)

	snap := ledger.Snapshot{
		Events: []*models.Event{{
			ID:           1,
			Name:         "Restored Gig",
			Organizer:    testOrganizer,
			MaxSupply:    50,
			TotalMinted:  2,
			StartTime:    env.now.Add(time.Hour),
			EndTime:      env.now.Add(2 * time.Hour),
			Active:       true,
			Transferable: true,
		}},
		Proofs: []*models.TicketProof{
			{TicketID: 1, EventID: 1, OriginalOwner: testBuyer, MintedAt: env.now, ProofHash: []byte{1}, IsValid: true},
			{TicketID: 2, EventID: 1, OriginalOwner: testBuyer, MintedAt: env.now, ProofHash: []byte{2}, IsValid: true},
		},
		Ownership: []*models.OwnershipRow{
			{TicketID: 1, EventID: 1, Holder: testBuyer},
			{TicketID: 2, EventID: 1, Holder: testBuyer},
		},
	}
	require.NoError(t, env.ledger.Restore(context.Background(), snap))
	require.Equal(t, uint64(2), env.bank.BalanceOf(testBuyer, 1))

	// A restored ticket transfers like a freshly minted one.
	require.NoError(t, env.ledger.SafeTransferWithRoyalty(context.Background(), testBuyer, models.TransferRequest{
		From:      testBuyer,
		To:        testReseller,
		EventID:   1,
		Quantity:  1,
		TicketIDs: []uint64{1},
	}))
	assert.Equal(t, uint64(1), env.bank.BalanceOf(testReseller, 1))

	// And burns like one.
	require.NoError(t, env.ledger.BurnTicket(context.Background(), testBuyer, 2))
	assert.Equal(t, uint64(0), env.bank.BalanceOf(testBuyer, 1))

	used, err := env.ledger.IsTicketUsed(2)
	require.NoError(t, err)
	assert.True(t, used)
}
