package ledger

import (
	"context"
	"fmt"

	"ticket-ledger/internal/metrics"
	"ticket-ledger/internal/models"
)

// UseTicket marks a ticket as used at the gate. Only the event organizer may
// do this, and the ticket must be valid, unused and held by the claimed
// holder. used=true is permanent.
func (l *Ledger) UseTicket(caller string, ticketID uint64, holder string) error {
	l.mu.Lock()

	p, ok := l.proofs[ticketID]
	if !ok {
		l.mu.Unlock()
		return ErrTicketNotFound
	}
	ev := l.events[p.EventID]
	if ev.Organizer != caller {
		l.mu.Unlock()
		return ErrNotOrganizer
	}
	if !p.IsValid {
		l.mu.Unlock()
		return ErrTicketInvalid
	}
	if l.used[ticketID] {
		l.mu.Unlock()
		return ErrTicketUsed
	}
	if l.holderOf[ticketID] != holder {
		l.mu.Unlock()
		return ErrNotOwner
	}

	l.used[ticketID] = true
	row := l.ownershipRow(ticketID)

	l.mu.Unlock()

	metrics.TicketsUsed.Inc()
	l.logInfo("LEDGER", fmt.Sprintf("ticket %d used by holder %s", ticketID, holder))

	l.archiveOwnership(row)
	l.emit(models.Signal{
		Type:      models.SignalTicketUsed,
		EventID:   p.EventID,
		TicketIDs: []uint64{ticketID},
		Actor:     caller,
		Subject:   holder,
	})
	return nil
}

// BurnTicket consumes a ticket held by the caller: ownership is removed,
// the used flag set, and the fungible balance burned. The proof record
// itself stays in the ledger forever.
func (l *Ledger) BurnTicket(ctx context.Context, caller string, ticketID uint64) error {
	l.mu.Lock()

	p, ok := l.proofs[ticketID]
	if !ok {
		l.mu.Unlock()
		return ErrTicketNotFound
	}
	if !p.IsValid {
		l.mu.Unlock()
		return ErrTicketInvalid
	}
	if l.used[ticketID] {
		l.mu.Unlock()
		return ErrTicketUsed
	}
	if l.holderOf[ticketID] != caller {
		l.mu.Unlock()
		return ErrNotOwner
	}

	snap := l.snapshotHoldings(p.EventID, caller)
	wasUsed := l.used[ticketID]

	l.removeTicket(p.EventID, caller, ticketID)
	l.used[ticketID] = true

	l.mu.Unlock()

	if err := l.assets.Burn(ctx, caller, p.EventID, 1); err != nil {
		l.mu.Lock()
		l.restoreHoldings(snap)
		l.used[ticketID] = wasUsed
		l.mu.Unlock()
		l.logError("LEDGER", fmt.Sprintf("asset burn failed for ticket %d: %v", ticketID, err))
		return fmt.Errorf("asset burn: %w", err)
	}

	metrics.TicketsUsed.Inc()
	l.logInfo("LEDGER", fmt.Sprintf("ticket %d burned by %s", ticketID, caller))

	l.mu.RLock()
	row := &models.OwnershipRow{
		TicketID:      ticketID,
		EventID:       p.EventID,
		Holder:        "",
		Used:          true,
		TransferCount: l.transferCount[ticketID],
	}
	l.mu.RUnlock()

	l.archiveOwnership(row)
	l.emit(models.Signal{
		Type:      models.SignalTicketBurned,
		EventID:   p.EventID,
		TicketIDs: []uint64{ticketID},
		Actor:     caller,
	})
	return nil
}
