package ledger

const (
	guardIdle int32 = iota
	guardInProgress
)

// enter acquires the reentrancy latch. It must be paired with exit at the
// single return path of every value-moving entry point. The latch stays held
// across outbound payment calls, so a payee calling back into the ledger
// fails here before touching any state.
func (l *Ledger) enter() error {
	if !l.guard.CompareAndSwap(guardIdle, guardInProgress) {
		l.logWarn("FRAUD", "reentrant call rejected while latch held")
		return ErrReentrantCall
	}
	return nil
}

func (l *Ledger) exit() {
	l.guard.Store(guardIdle)
}
