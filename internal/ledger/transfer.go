package ledger

import (
	"context"
	"fmt"

	"ticket-ledger/internal/metrics"
	"ticket-ledger/internal/models"
	"ticket-ledger/internal/utils"
)

// SafeTransferWithRoyalty moves specific tickets from one holder to another.
// The batch is all-or-nothing: one bad ticket id aborts the whole call. When
// value is sent it is the negotiated resale price; the organizer's royalty
// cut is taken from it and the remainder goes to the seller. There is no
// refund leg here - the caller is expected to send the exact agreed price.
func (l *Ledger) SafeTransferWithRoyalty(ctx context.Context, caller string, req models.TransferRequest) error {
	if err := l.enter(); err != nil {
		metrics.RejectedCalls.WithLabelValues("reentrant").Inc()
		return err
	}
	defer l.exit()

	l.mu.Lock()

	if l.blacklist[req.From] || l.blacklist[req.To] || l.blacklist[caller] {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("blacklisted").Inc()
		return ErrBlacklisted
	}

	ev, ok := l.events[req.EventID]
	if !ok {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("not_found").Inc()
		return ErrEventNotFound
	}
	if !ev.Transferable {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("not_transferable").Inc()
		return ErrNotTransferable
	}
	if req.Quantity <= 0 || len(req.TicketIDs) != req.Quantity {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("quantity").Inc()
		return ErrBatchMismatch
	}
	if req.To == "" || req.From == "" {
		l.mu.Unlock()
		return ErrInvalidParams
	}
	if caller != req.From && !l.assets.IsApprovedForAll(req.From, caller) {
		l.mu.Unlock()
		metrics.RejectedCalls.WithLabelValues("not_approved").Inc()
		return ErrNotApproved
	}

	// Validate every ticket up front; nothing mutates until the whole
	// batch is known good. A repeated id would double-apply the swap-remove
	// below, so duplicates fail the batch here.
	seen := make(map[uint64]struct{}, len(req.TicketIDs))
	for _, id := range req.TicketIDs {
		if _, dup := seen[id]; dup {
			l.mu.Unlock()
			metrics.RejectedCalls.WithLabelValues("duplicate_id").Inc()
			return ErrBatchMismatch
		}
		seen[id] = struct{}{}
		if err := l.checkTransferable(id, req.EventID, req.From); err != nil {
			l.mu.Unlock()
			metrics.RejectedCalls.WithLabelValues("ticket_state").Inc()
			return err
		}
	}

	snap := l.snapshotHoldings(req.EventID, req.From, req.To)

	for _, id := range req.TicketIDs {
		l.removeTicket(req.EventID, req.From, id)
		l.appendTicket(req.EventID, req.To, id)
		l.bumpTransferCount(id)
	}

	l.mu.Unlock()

	// One bulk balance move for the whole batch.
	if err := l.assets.Transfer(ctx, req.From, req.To, req.EventID, uint64(req.Quantity)); err != nil {
		l.rollbackTransfer(snap)
		l.logError("TRANSFER", fmt.Sprintf("asset transfer failed for event %d: %v", req.EventID, err))
		return fmt.Errorf("asset transfer: %w", err)
	}

	royalty, err := l.splitResalePayment(ctx, ev, req)
	if err != nil {
		if backErr := l.assets.Transfer(ctx, req.To, req.From, req.EventID, uint64(req.Quantity)); backErr != nil {
			l.logError("TRANSFER", fmt.Sprintf("asset compensation failed for event %d: %v", req.EventID, backErr))
		}
		l.rollbackTransfer(snap)
		return err
	}

	metrics.TicketsTransferred.Add(float64(req.Quantity))
	if l.log != nil {
		l.log.LogTransfer(req.EventID, req.From, req.To, fmt.Sprintf("moved %d ticket(s) %v", req.Quantity, req.TicketIDs))
	}

	l.mu.RLock()
	for _, id := range req.TicketIDs {
		l.archiveOwnership(l.ownershipRow(id))
	}
	l.mu.RUnlock()

	if royalty > 0 {
		l.emit(models.Signal{
			Type:      models.SignalRoyaltyPaid,
			EventID:   req.EventID,
			TicketIDs: req.TicketIDs,
			Actor:     caller,
			Subject:   ev.Organizer,
			Amount:    royalty,
		})
	}

	return nil
}

// checkTransferable verifies one ticket of a batch: it must exist, belong to
// the event, be valid, unused and currently held by the stated sender.
// Caller holds l.mu.
func (l *Ledger) checkTransferable(ticketID, eventID uint64, from string) error {
	p, ok := l.proofs[ticketID]
	if !ok || p.EventID != eventID {
		return ErrTicketNotFound
	}
	if !p.IsValid {
		return ErrTicketInvalid
	}
	if l.used[ticketID] {
		return ErrTicketUsed
	}
	if l.holderOf[ticketID] != from {
		return ErrNotOwner
	}
	return nil
}

// splitResalePayment pays the organizer royalty and the seller remainder
// out of the value sent with the call. Returns the royalty amount paid.
func (l *Ledger) splitResalePayment(ctx context.Context, ev *models.Event, req models.TransferRequest) (int64, error) {
	if req.Value <= 0 || l.payer == nil {
		return 0, nil
	}

	royalty := req.Value * ev.RoyaltyBps / 10000
	sellerShare := req.Value - royalty

	if royalty > 0 {
		ref := utils.GeneratePayoutReference("royalty")
		if err := l.payer.Pay(ctx, ev.Organizer, royalty, ref); err != nil {
			metrics.PaymentFailures.WithLabelValues("royalty").Inc()
			l.logError("PAYMENT", fmt.Sprintf("royalty %d to %s failed: %v", royalty, ev.Organizer, err))
			return 0, ErrRoyaltyFailed
		}
	}
	if sellerShare > 0 {
		ref := utils.GeneratePayoutReference("resale")
		if err := l.payer.Pay(ctx, req.From, sellerShare, ref); err != nil {
			metrics.PaymentFailures.WithLabelValues("seller").Inc()
			l.logError("PAYMENT", fmt.Sprintf("seller share %d to %s failed: %v", sellerShare, req.From, err))
			return 0, ErrPaymentFailed
		}
	}
	return royalty, nil
}

func (l *Ledger) rollbackTransfer(snap *holdingSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.restoreHoldings(snap)
}
