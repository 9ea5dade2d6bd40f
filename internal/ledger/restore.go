package ledger

import (
	"context"
	"fmt"

	"ticket-ledger/internal/models"
)

// Snapshot is the archived state handed back by the durable store at
// startup.
type Snapshot struct {
	Events    []*models.Event
	Proofs    []*models.TicketProof
	Ownership []*models.OwnershipRow
	Blacklist []*models.BlacklistRow
}

// Restore rehydrates the in-memory arena from an archive snapshot and
// re-mints every restored holding into the asset bank, which also starts
// empty at boot. Only valid on a freshly constructed ledger.
func (l *Ledger) Restore(ctx context.Context, snap Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.events) > 0 || len(l.proofs) > 0 {
		return fmt.Errorf("ledger: restore on a non-empty ledger")
	}

	for _, ev := range snap.Events {
		l.events[ev.ID] = ev.Clone()
		if ev.ID >= l.nextEventID {
			l.nextEventID = ev.ID + 1
		}
	}
	for _, p := range snap.Proofs {
		if _, ok := l.events[p.EventID]; !ok {
			return fmt.Errorf("ledger: proof %d references unknown event %d", p.TicketID, p.EventID)
		}
		l.proofs[p.TicketID] = p.Clone()
		if p.TicketID >= l.nextTicketID {
			l.nextTicketID = p.TicketID + 1
		}
	}
	for _, row := range snap.Ownership {
		if _, ok := l.proofs[row.TicketID]; !ok {
			return fmt.Errorf("ledger: ownership row %d has no proof", row.TicketID)
		}
		if row.Holder != "" {
			l.appendTicket(row.EventID, row.Holder, row.TicketID)
		}
		if row.Used {
			l.used[row.TicketID] = true
		}
		if row.TransferCount > 0 {
			l.transferCount[row.TicketID] = row.TransferCount
		}
	}
	for _, row := range snap.Blacklist {
		if row.Blocked {
			l.blacklist[row.Address] = true
		}
	}

	// Without this, the first burn or transfer after a restart would fail
	// at the asset leg against a zero balance.
	for eventID, byHolder := range l.holderTickets {
		for holder, list := range byHolder {
			if len(list) == 0 {
				continue
			}
			if err := l.assets.Mint(ctx, holder, eventID, uint64(len(list))); err != nil {
				return fmt.Errorf("ledger: restoring balance for %s on event %d: %w", holder, eventID, err)
			}
		}
	}

	l.logInfo("LEDGER", fmt.Sprintf("restored %d events, %d proofs, %d blacklist entries",
		len(snap.Events), len(snap.Proofs), len(snap.Blacklist)))
	return nil
}
