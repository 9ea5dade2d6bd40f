package ledger_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-ledger/internal/assets"
	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/models"
	"ticket-ledger/internal/payment"
)

func TestMintBatchIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 1000})

	ids := env.mint(t, testBuyer, id, 3, 3000)

	// Three distinct sequential ids with distinct proofs.
	assert.Equal(t, []uint64{1, 2, 3}, ids)
	seen := make(map[string]bool)
	for _, ticketID := range ids {
		proof, err := env.ledger.GetTicketProof(ticketID)
		require.NoError(t, err)
		assert.Equal(t, id, proof.EventID)
		assert.Equal(t, testBuyer, proof.OriginalOwner)
		assert.True(t, proof.IsValid)
		assert.False(t, seen[proof.ProofHashHex()], "proof hashes must be unique")
		seen[proof.ProofHashHex()] = true

		holder, err := env.ledger.HolderOf(ticketID)
		require.NoError(t, err)
		assert.Equal(t, testBuyer, holder)
	}

	ev, err := env.ledger.GetEvent(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), ev.TotalMinted)
	assert.Equal(t, uint64(3), env.bank.BalanceOf(testBuyer, id))

	minted := env.signals.ofType(models.SignalTicketMinted)
	require.Len(t, minted, 1)
	assert.Equal(t, ids, minted[0].TicketIDs)
	assert.Equal(t, int64(3000), minted[0].Amount)
}

func TestMintSplitsPayment(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 1000})

	// 2 tickets at 1000 with 2500 sent: 2000 price, 500 refund.
	// Platform fee at 250 bps of 2000 = 50; organizer gets the rest.
	env.mint(t, testBuyer, id, 2, 2500)

	assert.Equal(t, int64(50), env.payer.BalanceOf(testPlatform))
	assert.Equal(t, int64(1950), env.payer.BalanceOf(testOrganizer))
	assert.Equal(t, int64(500), env.payer.BalanceOf(testBuyer))

	// Each leg carries a reconciliation reference naming what it settled.
	records := env.payer.Records()
	require.Len(t, records, 3)
	assert.True(t, strings.HasPrefix(records[0].Reference, "fee-"))
	assert.True(t, strings.HasPrefix(records[1].Reference, "sale-"))
	assert.True(t, strings.HasPrefix(records[2].Reference, "refund-"))
}

func TestMintFreeEventSkipsPayment(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 0})

	env.mint(t, testBuyer, id, 1, 0)

	assert.Empty(t, env.payer.Records())
	assert.Equal(t, uint64(1), env.bank.BalanceOf(testBuyer, id))
}

func TestMintQuantityBounds(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 100})

	_, err := env.ledger.MintTicket(context.Background(), testBuyer, id, 0, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	_, err = env.ledger.MintTicket(context.Background(), testBuyer, id, 11, 1100)
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	env.mint(t, testBuyer, id, 10, 1000)
}

func TestMintRespectsMaxSupply(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 100, MaxSupply: 5})

	env.mint(t, testBuyer, id, 4, 400)

	// 4 of 5 sold; a batch of 2 would overshoot and must fail whole.
	_, err := env.ledger.MintTicket(context.Background(), testBuyer, id, 2, 200)
	assert.ErrorIs(t, err, ledger.ErrMaxSupplyExceeded)

	available, availErr := env.ledger.GetAvailableTickets(id)
	require.NoError(t, availErr)
	assert.Equal(t, uint64(1), available)

	env.mint(t, testBuyer, id, 1, 100)

	_, err = env.ledger.MintTicket(context.Background(), testBuyer, id, 1, 100)
	assert.ErrorIs(t, err, ledger.ErrMaxSupplyExceeded)
}

func TestMintRejectsInactiveAndUnknownEvents(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 100})
	require.NoError(t, env.ledger.SetEventStatus(testOrganizer, id, false))

	_, err := env.ledger.MintTicket(context.Background(), testBuyer, id, 1, 100)
	assert.ErrorIs(t, err, ledger.ErrEventInactive)

	_, err = env.ledger.MintTicket(context.Background(), testBuyer, 42, 1, 100)
	assert.ErrorIs(t, err, ledger.ErrEventNotFound)
}

func TestMintInsufficientPaymentLeavesStateUntouched(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 1000})

	_, err := env.ledger.MintTicket(context.Background(), testBuyer, id, 2, 1999)
	assert.ErrorIs(t, err, ledger.ErrInsufficientPayment)

	ev, getErr := env.ledger.GetEvent(id)
	require.NoError(t, getErr)
	assert.Equal(t, uint64(0), ev.TotalMinted)
	assert.Equal(t, uint64(0), env.bank.BalanceOf(testBuyer, id))
	assert.Empty(t, env.payer.Records())
	assert.Empty(t, env.signals.ofType(models.SignalTicketMinted))
}

func TestMintRollsBackOnPaymentFailure(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 1000})

	// The organizer leg fails; platform fee succeeded before it but the
	// whole call still fails closed.
	env.payer.SetRejecting(testOrganizer, true)

	_, err := env.ledger.MintTicket(context.Background(), testBuyer, id, 3, 3000)
	assert.ErrorIs(t, err, ledger.ErrPaymentFailed)

	ev, getErr := env.ledger.GetEvent(id)
	require.NoError(t, getErr)
	assert.Equal(t, uint64(0), ev.TotalMinted)
	assert.Equal(t, uint64(0), env.bank.BalanceOf(testBuyer, id))
	_, proofErr := env.ledger.GetTicketProof(1)
	assert.ErrorIs(t, proofErr, ledger.ErrTicketNotFound)
	assert.Empty(t, env.signals.ofType(models.SignalTicketMinted))

	// The rollback rewinds the ticket id counter, so the next successful
	// mint reuses the same ids as if the failed call never happened.
	env.payer.SetRejecting(testOrganizer, false)
	ids := env.mint(t, testBuyer, id, 2, 2000)
	assert.Equal(t, []uint64{1, 2}, ids)
}

func TestMintRollsBackOnRefundFailure(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 1000})

	// Overpaying buyer refuses the refund leg.
	env.payer.SetRejecting(testBuyer, true)

	_, err := env.ledger.MintTicket(context.Background(), testBuyer, id, 1, 1500)
	assert.ErrorIs(t, err, ledger.ErrRefundFailed)

	ev, getErr := env.ledger.GetEvent(id)
	require.NoError(t, getErr)
	assert.Equal(t, uint64(0), ev.TotalMinted)
	assert.Equal(t, uint64(0), env.bank.BalanceOf(testBuyer, id))
}

func TestMintBlockedForBlacklistedCaller(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 100})

	require.NoError(t, env.ledger.BlacklistAddress(testAdmin, testBuyer, true))

	_, err := env.ledger.MintTicket(context.Background(), testBuyer, id, 1, 100)
	assert.ErrorIs(t, err, ledger.ErrBlacklisted)

	// Unblocking restores access.
	require.NoError(t, env.ledger.BlacklistAddress(testAdmin, testBuyer, false))
	env.mint(t, testBuyer, id, 1, 100)
}

// reentrantPayer simulates a payee whose payment callback re-enters the
// ledger, the way a malicious receiver contract would.
type reentrantPayer struct {
	ledger   *ledger.Ledger
	eventID  uint64
	innerErr error
}

func (p *reentrantPayer) Pay(ctx context.Context, to string, amount int64, reference string) error {
	_, p.innerErr = p.ledger.MintTicket(ctx, "attacker", p.eventID, 1, 1000)
	return nil
}

func TestMintReentrancyBlocked(t *testing.T) {
	bank := assets.NewBank()
	payer := &reentrantPayer{}
	l, err := ledger.New(ledger.Options{
		Admin:          testAdmin,
		Platform:       testPlatform,
		PlatformFeeBps: 250,
		ProofKey:       "test-proof-secret",
		Assets:         bank,
		Payer:          payer,
		Now:            func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	id, err := l.CreateEvent(testOrganizer, models.CreateEventRequest{
		Name:      "Reentrancy Target",
		MaxSupply: 100,
		BasePrice: 1000,
		StartTime: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).Unix(),
		EndTime:   time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC).Unix(),
	})
	require.NoError(t, err)
	payer.ledger = l
	payer.eventID = id

	// The outer mint succeeds; the nested call from inside the payment
	// callback is rejected by the latch without deadlocking.
	ids, err := l.MintTicket(context.Background(), testBuyer, id, 1, 1000)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.ErrorIs(t, payer.innerErr, ledger.ErrReentrantCall)

	ev, err := l.GetEvent(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ev.TotalMinted, "only the outer mint lands")
}

func TestMintRollsBackWhenAssetMintFails(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 100})

	// A receiver that never acknowledges makes the bulk asset mint fail.
	env.bank.RegisterReceiver(testBuyer, rejectingReceiver{})

	_, err := env.ledger.MintTicket(context.Background(), testBuyer, id, 2, 200)
	assert.Error(t, err)

	ev, getErr := env.ledger.GetEvent(id)
	require.NoError(t, getErr)
	assert.Equal(t, uint64(0), ev.TotalMinted)
	assert.Empty(t, env.payer.Records(), "no payment may move when the asset mint fails")
}

type rejectingReceiver struct{}

func (rejectingReceiver) OnAssetsReceived(ctx context.Context, operator, from string, assetID, amount uint64) string {
	return "nope"
}

var _ assets.Receiver = rejectingReceiver{}
var _ ledger.Payer = (*payment.MemoryPayer)(nil)
