package ledger

import (
	"context"
	"fmt"

	"ticket-ledger/internal/metrics"
	"ticket-ledger/internal/models"
)

// emit publishes one signal. Signals fire only after the corresponding state
// transition committed; publish or archive failures are logged, never rolled
// back into the call.
func (l *Ledger) emit(sig models.Signal) {
	sig.EmittedAt = l.now()

	metrics.SignalsEmitted.WithLabelValues(sig.Type).Inc()
	if sig.Type == models.SignalFraudDetected {
		metrics.FraudSignals.Inc()
	}

	if l.log != nil {
		l.log.LogSignal(sig.Type, fmt.Sprintf("event=%d tickets=%v actor=%s", sig.EventID, sig.TicketIDs, sig.Actor))
	}

	if l.publisher != nil {
		if err := l.publisher.Publish(sig); err != nil {
			l.logError("SIGNAL", fmt.Sprintf("publish %s failed: %v", sig.Type, err))
		}
	}
	if l.archive != nil {
		if err := l.archive.AppendSignal(context.Background(), &sig); err != nil {
			l.logError("ARCHIVE", fmt.Sprintf("append signal %s failed: %v", sig.Type, err))
		}
	}
}

// archiveEvent / archiveProof / archiveOwnership persist committed rows to
// the write-behind store. The in-memory arena stays authoritative; failures
// here are logged and surfaced through metrics only.
func (l *Ledger) archiveEvent(ev *models.Event) {
	if l.archive == nil {
		return
	}
	if err := l.archive.SaveEvent(context.Background(), ev.Clone()); err != nil {
		l.logError("ARCHIVE", fmt.Sprintf("save event %d failed: %v", ev.ID, err))
	}
}

func (l *Ledger) archiveProof(p *models.TicketProof) {
	if l.archive == nil {
		return
	}
	if err := l.archive.SaveProof(context.Background(), p.Clone()); err != nil {
		l.logError("ARCHIVE", fmt.Sprintf("save proof %d failed: %v", p.TicketID, err))
	}
}

func (l *Ledger) archiveOwnership(row *models.OwnershipRow) {
	if l.archive == nil {
		return
	}
	if err := l.archive.SaveOwnership(context.Background(), row); err != nil {
		l.logError("ARCHIVE", fmt.Sprintf("save ownership %d failed: %v", row.TicketID, err))
	}
}

func (l *Ledger) archiveBlacklist(addr string, blocked bool) {
	if l.archive == nil {
		return
	}
	row := &models.BlacklistRow{Address: addr, Blocked: blocked}
	if err := l.archive.SaveBlacklist(context.Background(), row); err != nil {
		l.logError("ARCHIVE", fmt.Sprintf("save blacklist %s failed: %v", addr, err))
	}
}
