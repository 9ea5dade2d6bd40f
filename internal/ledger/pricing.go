package ledger

import "ticket-ledger/internal/models"

// GetDynamicPrice quotes the current mint price for an event.
func (l *Ledger) GetDynamicPrice(eventID uint64) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ev, ok := l.events[eventID]
	if !ok {
		return 0, ErrEventNotFound
	}
	return dynamicPrice(ev), nil
}

// dynamicPrice computes the demand-adjusted price. The markup scales
// linearly from 0% at zero demand to exactly 50% at full capacity; the
// formula caps itself, no explicit clamp on the result is needed. All
// arithmetic is integer-exact.
func dynamicPrice(ev *models.Event) int64 {
	if !ev.DynamicPricing || ev.MaxSupply == 0 || ev.TotalMinted == 0 {
		return ev.BasePrice
	}

	demandBps := ev.TotalMinted * 10000 / ev.MaxSupply
	if demandBps > 10000 {
		demandBps = 10000
	}

	increase := ev.BasePrice * int64(demandBps) / 20000
	return ev.BasePrice + increase
}
