package assets

import (
	"context"
	"fmt"
	"sync"
)

// Bank is the in-memory reference implementation of the fungible balance
// primitive.
type Bank struct {
	mu        sync.RWMutex
	balances  map[string]map[uint64]uint64 // holder -> assetID -> amount
	approvals map[string]map[string]bool   // owner -> operator -> approved
	receivers map[string]Receiver          // contract-style recipients
}

func NewBank() *Bank {
	return &Bank{
		balances:  make(map[string]map[uint64]uint64),
		approvals: make(map[string]map[string]bool),
		receivers: make(map[string]Receiver),
	}
}

// RegisterReceiver marks an address as a contract recipient whose hook must
// acknowledge incoming transfers.
func (b *Bank) RegisterReceiver(addr string, r Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receivers[addr] = r
}

func (b *Bank) Mint(ctx context.Context, holder string, assetID uint64, amount uint64) error {
	if holder == "" {
		return fmt.Errorf("assets: mint to empty holder")
	}
	if err := b.notify(ctx, holder, holder, "", assetID, amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(holder, assetID, amount)
	return nil
}

func (b *Bank) Burn(ctx context.Context, holder string, assetID uint64, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.debit(holder, assetID, amount)
}

func (b *Bank) Transfer(ctx context.Context, from, to string, assetID uint64, amount uint64) error {
	if to == "" {
		return fmt.Errorf("assets: transfer to empty holder")
	}
	if err := b.notify(ctx, from, to, from, assetID, amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.debit(from, assetID, amount); err != nil {
		return err
	}
	b.credit(to, assetID, amount)
	return nil
}

func (b *Bank) BalanceOf(holder string, assetID uint64) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[holder][assetID]
}

func (b *Bank) SetApprovalForAll(owner, operator string, approved bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ops, ok := b.approvals[owner]
	if !ok {
		ops = make(map[string]bool)
		b.approvals[owner] = ops
	}
	ops[operator] = approved
}

func (b *Bank) IsApprovedForAll(owner, operator string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.approvals[owner][operator]
}

// notify runs the recipient hook, if one is registered, before any balance
// moves. The hook runs outside the bank lock so it can call back into
// queries.
func (b *Bank) notify(ctx context.Context, operator, to, from string, assetID, amount uint64) error {
	b.mu.RLock()
	r := b.receivers[to]
	b.mu.RUnlock()

	if r == nil {
		return nil
	}
	if ack := r.OnAssetsReceived(ctx, operator, from, assetID, amount); ack != ReceiveAck {
		return fmt.Errorf("assets: unsafe transfer to %s: receiver returned %q", to, ack)
	}
	return nil
}

// credit and debit assume b.mu is held.
func (b *Bank) credit(holder string, assetID uint64, amount uint64) {
	byAsset, ok := b.balances[holder]
	if !ok {
		byAsset = make(map[uint64]uint64)
		b.balances[holder] = byAsset
	}
	byAsset[assetID] += amount
}

func (b *Bank) debit(holder string, assetID uint64, amount uint64) error {
	if b.balances[holder][assetID] < amount {
		return fmt.Errorf("assets: insufficient balance for %s on asset %d", holder, assetID)
	}
	b.balances[holder][assetID] -= amount
	return nil
}
