package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/models"
)

func TestVerifyTicketHappyPath(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 0})
	ids := env.mint(t, testBuyer, id, 1, 0)

	valid, hash := env.ledger.VerifyTicket(ids[0], testBuyer)
	assert.True(t, valid)

	proof, err := env.ledger.GetTicketProof(ids[0])
	require.NoError(t, err)
	assert.Equal(t, proof.ProofHash, hash)

	verified := env.signals.ofType(models.SignalTicketVerified)
	require.Len(t, verified, 1)
	assert.Equal(t, testBuyer, verified[0].Subject)
}

// A failed verification answers a bare false with no hash and no signal,
// whatever the reason.
func TestVerifyTicketLeaksNothingOnFailure(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 0})
	ids := env.mint(t, testBuyer, id, 1, 0)

	cases := []struct {
		name    string
		ticket  uint64
		claimed string
		setup   func()
	}{
		{"unknown ticket", 999, testBuyer, nil},
		{"wrong owner", ids[0], testReseller, nil},
		{"used ticket", ids[0], testBuyer, func() {
			require.NoError(t, env.ledger.UseTicket(testOrganizer, ids[0], testBuyer))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setup != nil {
				tc.setup()
			}
			before := len(env.signals.ofType(models.SignalTicketVerified))

			valid, hash := env.ledger.VerifyTicket(tc.ticket, tc.claimed)
			assert.False(t, valid)
			assert.Nil(t, hash)
			assert.Len(t, env.signals.ofType(models.SignalTicketVerified), before)
		})
	}
}

func TestInvalidateTicketAuthorization(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 0})
	ids := env.mint(t, testBuyer, id, 2, 0)

	assert.ErrorIs(t, env.ledger.InvalidateTicket(testBuyer, ids[0], "self-report"), ledger.ErrNotAdmin)

	// Both the admin and the event's organizer may invalidate.
	require.NoError(t, env.ledger.InvalidateTicket(testAdmin, ids[0], "stolen card"))
	require.NoError(t, env.ledger.InvalidateTicket(testOrganizer, ids[1], "chargeback"))

	for _, ticketID := range ids {
		proof, err := env.ledger.GetTicketProof(ticketID)
		require.NoError(t, err)
		assert.False(t, proof.IsValid)

		valid, _ := env.ledger.VerifyTicket(ticketID, testBuyer)
		assert.False(t, valid)
	}

	assert.Len(t, env.signals.ofType(models.SignalTicketInvalidated), 2)
	assert.Len(t, env.signals.ofType(models.SignalFraudDetected), 2)
}

func TestInvalidateTicketOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 0})
	ids := env.mint(t, testBuyer, id, 1, 0)

	require.NoError(t, env.ledger.InvalidateTicket(testAdmin, ids[0], "fraud"))
	assert.ErrorIs(t, env.ledger.InvalidateTicket(testAdmin, ids[0], "again"), ledger.ErrTicketInvalid)
}

func TestBlacklistAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	assert.ErrorIs(t, env.ledger.BlacklistAddress(testOrganizer, testBuyer, true), ledger.ErrNotAdmin)
	assert.ErrorIs(t, env.ledger.BlacklistAddress(testAdmin, "", true), ledger.ErrInvalidParams)

	require.NoError(t, env.ledger.BlacklistAddress(testAdmin, testBuyer, true))
	assert.True(t, env.ledger.IsAddressBlacklisted(testBuyer))

	require.NoError(t, env.ledger.BlacklistAddress(testAdmin, testBuyer, false))
	assert.False(t, env.ledger.IsAddressBlacklisted(testBuyer))
}

// Blacklisting does not retroactively touch tickets the address holds.
func TestBlacklistKeepsExistingTicketsValid(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 0})
	ids := env.mint(t, testBuyer, id, 1, 0)

	require.NoError(t, env.ledger.BlacklistAddress(testAdmin, testBuyer, true))

	valid, _ := env.ledger.VerifyTicket(ids[0], testBuyer)
	assert.True(t, valid)
}

func TestReportFraudEmitsSignalOnly(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, models.CreateEventRequest{BasePrice: 0})
	ids := env.mint(t, testBuyer, id, 1, 0)

	env.ledger.ReportFraud("watcher", ids[0], testReseller, "scalping ring")

	reports := env.signals.ofType(models.SignalFraudDetected)
	require.Len(t, reports, 1)
	assert.Equal(t, "watcher", reports[0].Actor)
	assert.Equal(t, testReseller, reports[0].Subject)
	assert.Equal(t, id, reports[0].EventID)

	// Nothing in the ledger changed.
	proof, err := env.ledger.GetTicketProof(ids[0])
	require.NoError(t, err)
	assert.True(t, proof.IsValid)
}
