package ledger

import (
	"context"
	"fmt"

	"ticket-ledger/internal/metrics"
	"ticket-ledger/internal/models"
	"ticket-ledger/internal/utils"
)

const maxMintQuantity = 10

// MintTicket mints quantity tickets of an event to the caller. value is the
// payment sent with the call; the quoted price is read once so the charged
// rate stays self-consistent within the call. State mutation completes
// before any outbound payment, and every failure rolls the call back to
// exactly the pre-call state.
func (l *Ledger) MintTicket(ctx context.Context, caller string, eventID, quantity uint64, value int64) ([]uint64, error) {
	if err := l.enter(); err != nil {
		metrics.RejectedCalls.WithLabelValues("reentrant").Inc()
		return nil, err
	}
	defer l.exit()

	l.mu.Lock()

	if l.blacklist[caller] {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("blacklisted").Inc()
		return nil, ErrBlacklisted
	}

	ev, ok := l.events[eventID]
	if !ok {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("not_found").Inc()
		return nil, ErrEventNotFound
	}
	if !ev.Active {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("inactive").Inc()
		return nil, ErrEventInactive
	}
	if quantity == 0 || quantity > maxMintQuantity {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("quantity").Inc()
		return nil, ErrInvalidQuantity
	}
	if ev.TotalMinted+quantity > ev.MaxSupply {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("supply").Inc()
		return nil, ErrMaxSupplyExceeded
	}

	// Price is read once, before any quantity-dependent effect.
	price := dynamicPrice(ev)
	totalPrice := price * int64(quantity)
	if value < totalPrice {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("payment").Inc()
		return nil, ErrInsufficientPayment
	}

	// All preconditions hold; apply the whole batch.
	mintedAt := l.now()
	ids := make([]uint64, 0, quantity)
	for i := uint64(0); i < quantity; i++ {
		id := l.nextTicketID
		l.nextTicketID++
		ids = append(ids, id)

		l.proofs[id] = &models.TicketProof{
			TicketID:      id,
			EventID:       eventID,
			OriginalOwner: caller,
			MintedAt:      mintedAt,
			ProofHash:     l.proofHash(eventID, id, caller, mintedAt),
			IsValid:       true,
		}
		l.appendTicket(eventID, caller, id)
	}
	ev.TotalMinted += quantity

	l.mu.Unlock()

	// One bulk balance update for the whole batch.
	if err := l.assets.Mint(ctx, caller, eventID, quantity); err != nil {
		l.rollbackMint(ev, caller, ids)
		l.logError("MINT", fmt.Sprintf("asset mint failed for event %d: %v", eventID, err))
		return nil, fmt.Errorf("asset mint: %w", err)
	}

	// State is consistent from here on; only the payment step remains, and
	// the reentrancy latch is still held across it.
	if err := l.splitMintPayment(ctx, caller, ev, totalPrice, value); err != nil {
		if burnErr := l.assets.Burn(ctx, caller, eventID, quantity); burnErr != nil {
			l.logError("MINT", fmt.Sprintf("asset compensation failed for event %d: %v", eventID, burnErr))
		}
		l.rollbackMint(ev, caller, ids)
		return nil, err
	}

	metrics.TicketsMinted.Add(float64(quantity))
	if l.log != nil {
		l.log.LogMint(eventID, caller, fmt.Sprintf("minted %d ticket(s) %v at price %d", quantity, ids, price))
	}

	l.mu.RLock()
	l.archiveEvent(ev)
	for _, id := range ids {
		l.archiveProof(l.proofs[id])
		l.archiveOwnership(l.ownershipRow(id))
	}
	l.mu.RUnlock()

	l.emit(models.Signal{
		Type:      models.SignalTicketMinted,
		EventID:   eventID,
		TicketIDs: ids,
		Actor:     caller,
		Amount:    totalPrice,
	})

	return ids, nil
}

// splitMintPayment routes the platform fee, the organizer's share and the
// caller's refund. Any failed leg fails the whole call.
func (l *Ledger) splitMintPayment(ctx context.Context, caller string, ev *models.Event, totalPrice, value int64) error {
	if l.payer == nil || (totalPrice == 0 && value == 0) {
		return nil
	}

	fee := totalPrice * l.platformFeeBps / 10000
	organizerShare := totalPrice - fee
	excess := value - totalPrice

	if fee > 0 {
		ref := utils.GeneratePayoutReference("fee")
		if err := l.payer.Pay(ctx, l.platform, fee, ref); err != nil {
			metrics.PaymentFailures.WithLabelValues("platform_fee").Inc()
			l.logError("PAYMENT", fmt.Sprintf("platform fee %d failed: %v", fee, err))
			return ErrPaymentFailed
		}
	}
	if organizerShare > 0 {
		ref := utils.GeneratePayoutReference("sale")
		if err := l.payer.Pay(ctx, ev.Organizer, organizerShare, ref); err != nil {
			metrics.PaymentFailures.WithLabelValues("organizer").Inc()
			l.logError("PAYMENT", fmt.Sprintf("organizer share %d failed: %v", organizerShare, err))
			return ErrPaymentFailed
		}
	}
	if excess > 0 {
		ref := utils.GeneratePayoutReference("refund")
		if err := l.payer.Pay(ctx, caller, excess, ref); err != nil {
			metrics.PaymentFailures.WithLabelValues("refund").Inc()
			l.logError("PAYMENT", fmt.Sprintf("refund %d to %s failed: %v", excess, caller, err))
			return ErrRefundFailed
		}
	}
	return nil
}

// rollbackMint undoes a mint batch as if it never started. Tickets were
// appended at the tail of the caller's list, so removing them in reverse
// order restores the list exactly; the id counter rewinds too.
func (l *Ledger) rollbackMint(ev *models.Event, caller string, ids []uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		l.removeTicket(ev.ID, caller, id)
		delete(l.proofs, id)
	}
	ev.TotalMinted -= uint64(len(ids))
	l.nextTicketID -= uint64(len(ids))
}
