package models

import (
	"github.com/uptrace/bun"
)

// OwnershipRow is the archived view of a ticket's current holder state.
// The in-memory tracker is authoritative; these rows exist for rehydration
// and reporting.
type OwnershipRow struct {
	bun.BaseModel `bun:"table:ticket_ownership"`

	TicketID      uint64 `bun:"ticket_id,pk" json:"ticket_id"`
	EventID       uint64 `bun:"event_id,notnull" json:"event_id"`
	Holder        string `bun:"holder" json:"holder"`
	Used          bool   `bun:"used" json:"used"`
	TransferCount uint8  `bun:"transfer_count" json:"transfer_count"`
}
