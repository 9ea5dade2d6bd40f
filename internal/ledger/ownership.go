package ledger

import "ticket-ledger/internal/models"

// Ownership tracker internals. Per-(event, holder) ticket lists use
// swap-remove so removal stays O(1); ticketPos tracks each ticket's index
// in its holder's list. Callers must hold l.mu for writing.

func (l *Ledger) appendTicket(eventID uint64, holder string, ticketID uint64) {
	byHolder, ok := l.holderTickets[eventID]
	if !ok {
		byHolder = make(map[string][]uint64)
		l.holderTickets[eventID] = byHolder
	}
	byHolder[holder] = append(byHolder[holder], ticketID)
	l.ticketPos[ticketID] = len(byHolder[holder]) - 1
	l.holderOf[ticketID] = holder
}

// removeTicket takes a ticket out of its holder's list by swapping the last
// element into its slot.
func (l *Ledger) removeTicket(eventID uint64, holder string, ticketID uint64) {
	list := l.holderTickets[eventID][holder]
	pos := l.ticketPos[ticketID]
	last := len(list) - 1

	if pos != last {
		moved := list[last]
		list[pos] = moved
		l.ticketPos[moved] = pos
	}
	l.holderTickets[eventID][holder] = list[:last]
	delete(l.ticketPos, ticketID)
	delete(l.holderOf, ticketID)
}

// bumpTransferCount increments a ticket's transfer counter, saturating at
// the maximum instead of wrapping.
func (l *Ledger) bumpTransferCount(ticketID uint64) {
	if l.transferCount[ticketID] < ^uint8(0) {
		l.transferCount[ticketID]++
	}
}

// holdingSnapshot captures everything needed to restore the ownership state
// touched by a batch, so a failed external call can roll the batch back to
// exactly the pre-call state.
type holdingSnapshot struct {
	eventID uint64
	lists   map[string][]uint64
	pos     map[uint64]int
	holders map[uint64]string
	counts  map[uint64]uint8
}

// snapshotHoldings copies the per-event lists of the given holders plus the
// per-ticket indexes of every ticket in those lists.
func (l *Ledger) snapshotHoldings(eventID uint64, holders ...string) *holdingSnapshot {
	snap := &holdingSnapshot{
		eventID: eventID,
		lists:   make(map[string][]uint64, len(holders)),
		pos:     make(map[uint64]int),
		holders: make(map[uint64]string),
		counts:  make(map[uint64]uint8),
	}
	for _, h := range holders {
		if _, seen := snap.lists[h]; seen {
			continue
		}
		list := l.holderTickets[eventID][h]
		cp := make([]uint64, len(list))
		copy(cp, list)
		snap.lists[h] = cp
		for _, id := range list {
			snap.pos[id] = l.ticketPos[id]
			snap.holders[id] = l.holderOf[id]
			snap.counts[id] = l.transferCount[id]
		}
	}
	return snap
}

func (l *Ledger) restoreHoldings(snap *holdingSnapshot) {
	byHolder := l.holderTickets[snap.eventID]
	if byHolder == nil {
		byHolder = make(map[string][]uint64)
		l.holderTickets[snap.eventID] = byHolder
	}
	for h, list := range snap.lists {
		byHolder[h] = list
	}
	for id, p := range snap.pos {
		l.ticketPos[id] = p
	}
	for id, h := range snap.holders {
		l.holderOf[id] = h
	}
	for id, c := range snap.counts {
		l.transferCount[id] = c
	}
}

func (l *Ledger) ownershipRow(ticketID uint64) *models.OwnershipRow {
	p := l.proofs[ticketID]
	return &models.OwnershipRow{
		TicketID:      ticketID,
		EventID:       p.EventID,
		Holder:        l.holderOf[ticketID],
		Used:          l.used[ticketID],
		TransferCount: l.transferCount[ticketID],
	}
}
