package models

import (
	"encoding/hex"
	"time"

	"github.com/uptrace/bun"
)

// TicketProof is the immutable fingerprint minted alongside every ticket.
// EventID, OriginalOwner and ProofHash never change after mint; IsValid
// only ever flips true -> false.
type TicketProof struct {
	bun.BaseModel `bun:"table:ticket_proofs"`

	TicketID      uint64    `bun:"ticket_id,pk" json:"ticket_id"`
	EventID       uint64    `bun:"event_id,notnull" json:"event_id"`
	OriginalOwner string    `bun:"original_owner,notnull" json:"original_owner"`
	MintedAt      time.Time `bun:"minted_at,notnull" json:"minted_at"`
	ProofHash     []byte    `bun:"proof_hash,notnull" json:"-"`
	IsValid       bool      `bun:"is_valid" json:"is_valid"`
}

func (p *TicketProof) ProofHashHex() string {
	return hex.EncodeToString(p.ProofHash)
}

func (p *TicketProof) Clone() *TicketProof {
	cp := *p
	cp.ProofHash = append([]byte(nil), p.ProofHash...)
	return &cp
}
