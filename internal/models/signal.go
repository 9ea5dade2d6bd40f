package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Signal types emitted by the ledger. Each successful state transition
// emits its signal exactly once.
const (
	SignalEventCreated       = "event_created"
	SignalEventStatusChanged = "event_status_changed"
	SignalEmergencyWithdraw  = "emergency_withdraw"
	SignalTicketMinted       = "ticket_minted"
	SignalTicketUsed         = "ticket_used"
	SignalTicketBurned       = "ticket_burned"
	SignalTicketVerified     = "ticket_verified"
	SignalTicketInvalidated  = "ticket_invalidated"
	SignalRoyaltyPaid        = "royalty_paid"
	SignalFraudDetected      = "fraud_detected"
)

// Signal is one entry of the append-only emission log.
type Signal struct {
	bun.BaseModel `bun:"table:signals"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Type      string    `bun:"type,notnull" json:"type"`
	EventID   uint64    `bun:"event_id" json:"event_id,omitempty"`
	TicketIDs []uint64  `bun:"ticket_ids" json:"ticket_ids,omitempty"`
	Actor     string    `bun:"actor" json:"actor,omitempty"`
	Subject   string    `bun:"subject" json:"subject,omitempty"`
	Amount    int64     `bun:"amount" json:"amount,omitempty"`
	Reason    string    `bun:"reason" json:"reason,omitempty"`
	EmittedAt time.Time `bun:"emitted_at,notnull" json:"emitted_at"`
}

// BlacklistRow archives the admin deny-list.
type BlacklistRow struct {
	bun.BaseModel `bun:"table:blacklist"`

	Address string `bun:"address,pk" json:"address"`
	Blocked bool   `bun:"blocked" json:"blocked"`
}
