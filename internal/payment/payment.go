// Package payment implements the outbound value-transfer rail the ledger
// uses to settle mint fees, organizer shares, royalties and refunds.
package payment

import (
	"context"
	"fmt"
	"sync"
)

// Record is one settled payout.
type Record struct {
	To        string
	Amount    int64
	Reference string
}

// MemoryPayer keeps payouts in memory. Payees can be configured to reject
// payments, which exercises the ledger's fail-closed rollback paths.
type MemoryPayer struct {
	mu        sync.Mutex
	balances  map[string]int64
	rejecting map[string]bool
	records   []Record
}

func NewMemoryPayer() *MemoryPayer {
	return &MemoryPayer{
		balances:  make(map[string]int64),
		rejecting: make(map[string]bool),
	}
}

// SetRejecting makes a payee refuse payments, the way a reverting receiver
// contract would.
func (p *MemoryPayer) SetRejecting(addr string, rejecting bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejecting[addr] = rejecting
}

func (p *MemoryPayer) Pay(ctx context.Context, to string, amount int64, reference string) error {
	if amount <= 0 {
		return fmt.Errorf("payment: non-positive amount %d", amount)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rejecting[to] {
		return fmt.Errorf("payment: payee %s refused the transfer", to)
	}
	p.balances[to] += amount
	p.records = append(p.records, Record{To: to, Amount: amount, Reference: reference})
	return nil
}

func (p *MemoryPayer) BalanceOf(addr string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[addr]
}

// Records returns a copy of every settled payout, oldest first.
func (p *MemoryPayer) Records() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Record, len(p.records))
	copy(out, p.records)
	return out
}
