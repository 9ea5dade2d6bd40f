package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ticket-ledger/internal/logger"
	"ticket-ledger/internal/models"
)

// AssetBank is the external fungible multi-asset primitive. It tracks how
// many units of an event id each holder owns; the ledger keeps it consistent
// with its own per-ticket state on every mutating call.
type AssetBank interface {
	Mint(ctx context.Context, holder string, assetID uint64, amount uint64) error
	Burn(ctx context.Context, holder string, assetID uint64, amount uint64) error
	Transfer(ctx context.Context, from, to string, assetID uint64, amount uint64) error
	BalanceOf(holder string, assetID uint64) uint64
	IsApprovedForAll(owner, operator string) bool
}

// Payer moves value to a payee. Implementations must either complete the
// payment or return an error; the ledger rolls the whole call back on failure.
type Payer interface {
	Pay(ctx context.Context, to string, amount int64, reference string) error
}

// Publisher receives every emitted signal. Publish errors never affect the
// committed state; signals are fire-and-forget past the commit point.
type Publisher interface {
	Publish(sig models.Signal) error
}

// Archive is the durable write-behind store for committed state.
type Archive interface {
	SaveEvent(ctx context.Context, ev *models.Event) error
	SaveProof(ctx context.Context, p *models.TicketProof) error
	SaveOwnership(ctx context.Context, row *models.OwnershipRow) error
	SaveBlacklist(ctx context.Context, row *models.BlacklistRow) error
	AppendSignal(ctx context.Context, sig *models.Signal) error
}

// Options wires a Ledger's collaborators. Assets is required; everything
// else degrades to in-process defaults when nil.
type Options struct {
	Admin          string
	Platform       string
	PlatformFeeBps int64
	ProofKey       string

	Assets    AssetBank
	Payer     Payer
	Publisher Publisher
	Archive   Archive
	Log       *logger.Logger
	Now       func() time.Time
}

// Ledger is the single owner of all ticketing state: event registry, proof
// ledger, ownership tracker, blacklist. All mutating entry points go through
// it; there is no shared mutable state outside this object.
type Ledger struct {
	admin          string
	platform       string
	platformFeeBps int64
	proofKey       [32]byte

	assets    AssetBank
	payer     Payer
	publisher Publisher
	archive   Archive
	log       *logger.Logger
	now       func() time.Time

	// guard is the reentrancy latch shared by every value-moving entry
	// point: 0 = idle, 1 = call in progress. A nested call arriving while
	// the latch is held fails immediately with ErrReentrantCall.
	guard atomic.Int32

	mu sync.RWMutex

	nextEventID  uint64
	nextTicketID uint64

	events        map[uint64]*models.Event
	proofs        map[uint64]*models.TicketProof
	holderOf      map[uint64]string
	holderTickets map[uint64]map[string][]uint64 // eventID -> holder -> ticket ids
	ticketPos     map[uint64]int                 // ticketID -> index in its holder's list
	used          map[uint64]bool
	transferCount map[uint64]uint8
	blacklist     map[string]bool
}

func New(opts Options) (*Ledger, error) {
	if opts.Assets == nil {
		return nil, fmt.Errorf("ledger: asset bank is required")
	}
	if opts.Admin == "" {
		return nil, fmt.Errorf("ledger: admin identity is required")
	}
	if opts.PlatformFeeBps < 0 || opts.PlatformFeeBps > 10000 {
		return nil, fmt.Errorf("ledger: platform fee out of range: %d", opts.PlatformFeeBps)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	l := &Ledger{
		admin:          opts.Admin,
		platform:       opts.Platform,
		platformFeeBps: opts.PlatformFeeBps,
		proofKey:       deriveProofKey(opts.ProofKey),
		assets:         opts.Assets,
		payer:          opts.Payer,
		publisher:      opts.Publisher,
		archive:        opts.Archive,
		log:            opts.Log,
		now:            now,
		nextEventID:    1,
		nextTicketID:   1,
		events:         make(map[uint64]*models.Event),
		proofs:         make(map[uint64]*models.TicketProof),
		holderOf:       make(map[uint64]string),
		holderTickets:  make(map[uint64]map[string][]uint64),
		ticketPos:      make(map[uint64]int),
		used:           make(map[uint64]bool),
		transferCount:  make(map[uint64]uint8),
		blacklist:      make(map[string]bool),
	}
	return l, nil
}

func (l *Ledger) logInfo(category, message string) {
	if l.log != nil {
		l.log.Info(category, message)
	}
}

func (l *Ledger) logError(category, message string) {
	if l.log != nil {
		l.log.Error(category, message)
	}
}

func (l *Ledger) logWarn(category, message string) {
	if l.log != nil {
		l.log.Warn(category, message)
	}
}

// ---------------- Read queries ----------------

func (l *Ledger) GetEvent(eventID uint64) (*models.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ev, ok := l.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return ev.Clone(), nil
}

func (l *Ledger) GetTicketProof(ticketID uint64) (*models.TicketProof, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.proofs[ticketID]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return p.Clone(), nil
}

// GetUserTickets returns the ticket ids a holder currently owns for an event.
func (l *Ledger) GetUserTickets(eventID uint64, holder string) ([]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.events[eventID]; !ok {
		return nil, ErrEventNotFound
	}
	list := l.holderTickets[eventID][holder]
	out := make([]uint64, len(list))
	copy(out, list)
	return out, nil
}

// GetAvailableTickets returns how many tickets remain mintable for an event.
func (l *Ledger) GetAvailableTickets(eventID uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ev, ok := l.events[eventID]
	if !ok {
		return 0, ErrEventNotFound
	}
	return ev.MaxSupply - ev.TotalMinted, nil
}

func (l *Ledger) IsTicketUsed(ticketID uint64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.proofs[ticketID]; !ok {
		return false, ErrTicketNotFound
	}
	return l.used[ticketID], nil
}

func (l *Ledger) IsAddressBlacklisted(addr string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blacklist[addr]
}

// HolderOf returns the current holder of a ticket id.
func (l *Ledger) HolderOf(ticketID uint64) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	holder, ok := l.holderOf[ticketID]
	if !ok {
		return "", ErrTicketNotFound
	}
	return holder, nil
}

// TransferCount returns how many times a ticket has changed hands. The
// counter saturates at its maximum and never wraps.
func (l *Ledger) TransferCount(ticketID uint64) (uint8, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.proofs[ticketID]; !ok {
		return 0, ErrTicketNotFound
	}
	return l.transferCount[ticketID], nil
}
