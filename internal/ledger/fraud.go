package ledger

import (
	"fmt"

	"ticket-ledger/internal/models"
)

// VerifyTicket reports whether a ticket is good for admission for the
// claimed owner. It deliberately returns a bare false without saying which
// check failed, so a forger cannot use it as an oracle.
func (l *Ledger) VerifyTicket(ticketID uint64, claimedOwner string) (bool, []byte) {
	l.mu.RLock()

	p, ok := l.proofs[ticketID]
	if !ok {
		l.mu.RUnlock()
		return false, nil
	}
	valid := p.IsValid && !l.used[ticketID] && l.holderOf[ticketID] == claimedOwner
	hash := append([]byte(nil), p.ProofHash...)
	eventID := p.EventID

	l.mu.RUnlock()

	if !valid {
		return false, nil
	}

	l.emit(models.Signal{
		Type:      models.SignalTicketVerified,
		EventID:   eventID,
		TicketIDs: []uint64{ticketID},
		Subject:   claimedOwner,
	})
	return true, hash
}

// BlacklistAddress sets or clears the deny-list flag for an address. Admin
// only. Tickets the address already holds stay valid.
func (l *Ledger) BlacklistAddress(caller, addr string, blocked bool) error {
	if caller != l.admin {
		return ErrNotAdmin
	}
	if addr == "" {
		return ErrInvalidParams
	}

	l.mu.Lock()
	if blocked {
		l.blacklist[addr] = true
	} else {
		delete(l.blacklist, addr)
	}
	l.mu.Unlock()

	if l.log != nil {
		l.log.LogFraud("BLACKLIST", fmt.Sprintf("%s blocked=%t by admin", addr, blocked))
	}
	l.archiveBlacklist(addr, blocked)
	return nil
}

// InvalidateTicket permanently revokes a ticket's validity. Admin or the
// event's organizer only; isValid transitions true -> false exactly once.
func (l *Ledger) InvalidateTicket(caller string, ticketID uint64, reason string) error {
	l.mu.Lock()

	p, ok := l.proofs[ticketID]
	if !ok {
		l.mu.Unlock()
		return ErrTicketNotFound
	}
	ev := l.events[p.EventID]
	if caller != l.admin && caller != ev.Organizer {
		l.mu.Unlock()
		return ErrNotAdmin
	}
	if !p.IsValid {
		l.mu.Unlock()
		return ErrTicketInvalid
	}

	p.IsValid = false

	l.mu.Unlock()

	if l.log != nil {
		l.log.LogFraud("INVALIDATE", fmt.Sprintf("ticket %d invalidated by %s: %s", ticketID, caller, reason))
	}
	l.archiveProof(p)
	l.emit(models.Signal{
		Type:      models.SignalTicketInvalidated,
		EventID:   p.EventID,
		TicketIDs: []uint64{ticketID},
		Actor:     caller,
		Reason:    reason,
	})
	l.emit(models.Signal{
		Type:      models.SignalFraudDetected,
		EventID:   p.EventID,
		TicketIDs: []uint64{ticketID},
		Actor:     caller,
		Reason:    reason,
	})
	return nil
}

// ReportFraud is a pure signal: any caller may flag a ticket or identity for
// off-chain review. Nothing in the ledger changes.
func (l *Ledger) ReportFraud(caller string, ticketID uint64, suspect, reason string) {
	var eventID uint64
	l.mu.RLock()
	if p, ok := l.proofs[ticketID]; ok {
		eventID = p.EventID
	}
	l.mu.RUnlock()

	if l.log != nil {
		l.log.LogFraud("REPORT", fmt.Sprintf("caller %s flagged ticket %d / %s: %s", caller, ticketID, suspect, reason))
	}
	l.emit(models.Signal{
		Type:      models.SignalFraudDetected,
		EventID:   eventID,
		TicketIDs: []uint64{ticketID},
		Actor:     caller,
		Subject:   suspect,
		Reason:    reason,
	})
}
