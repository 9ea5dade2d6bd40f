package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ticket-ledger/internal/assets"
	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/models"
	"ticket-ledger/internal/payment"
)

const (
	testAdmin     = "admin"
	testPlatform  = "platform"
	testOrganizer = "organizer"
	testBuyer     = "alice"
	testReseller  = "bob"
)

// signalRecorder captures every published signal for assertions.
type signalRecorder struct {
	mu      sync.Mutex
	signals []models.Signal
}

func (r *signalRecorder) Publish(sig models.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sig)
	return nil
}

func (r *signalRecorder) ofType(sigType string) []models.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Signal
	for _, s := range r.signals {
		if s.Type == sigType {
			out = append(out, s)
		}
	}
	return out
}

type testEnv struct {
	ledger  *ledger.Ledger
	bank    *assets.Bank
	payer   *payment.MemoryPayer
	signals *signalRecorder
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		bank:    assets.NewBank(),
		payer:   payment.NewMemoryPayer(),
		signals: &signalRecorder{},
		now:     time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	l, err := ledger.New(ledger.Options{
		Admin:          testAdmin,
		Platform:       testPlatform,
		PlatformFeeBps: 250,
		ProofKey:       "test-proof-secret",
		Assets:         env.bank,
		Payer:          env.payer,
		Publisher:      env.signals,
		Now:            func() time.Time { return env.now },
	})
	require.NoError(t, err)

	env.ledger = l
	return env
}

func (env *testEnv) createEvent(t *testing.T, req models.CreateEventRequest) uint64 {
	t.Helper()
	if req.Name == "" {
		req.Name = "Test Concert"
	}
	if req.MaxSupply == 0 {
		req.MaxSupply = 100
	}
	if req.StartTime == 0 {
		req.StartTime = env.now.Add(24 * time.Hour).Unix()
	}
	if req.EndTime == 0 {
		req.EndTime = env.now.Add(48 * time.Hour).Unix()
	}
	id, err := env.ledger.CreateEvent(testOrganizer, req)
	require.NoError(t, err)
	return id
}

func (env *testEnv) mint(t *testing.T, caller string, eventID, quantity uint64, value int64) []uint64 {
	t.Helper()
	ids, err := env.ledger.MintTicket(context.Background(), caller, eventID, quantity, value)
	require.NoError(t, err)
	require.Len(t, ids, int(quantity))
	return ids
}
