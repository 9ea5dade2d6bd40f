package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID             uint64    `bun:"id,pk" json:"id"`
	Name           string    `bun:"name,notnull" json:"name"`
	MetadataURI    string    `bun:"metadata_uri" json:"metadata_uri"`
	Organizer      string    `bun:"organizer,notnull" json:"organizer"`
	MaxSupply      uint64    `bun:"max_supply,notnull" json:"max_supply"`
	TotalMinted    uint64    `bun:"total_minted" json:"total_minted"`
	BasePrice      int64     `bun:"base_price,notnull" json:"base_price"`
	StartTime      time.Time `bun:"start_time,notnull" json:"start_time"`
	EndTime        time.Time `bun:"end_time,notnull" json:"end_time"`
	Active         bool      `bun:"active" json:"active"`
	Transferable   bool      `bun:"transferable" json:"transferable"`
	DynamicPricing bool      `bun:"dynamic_pricing" json:"dynamic_pricing"`
	RoyaltyBps     int64     `bun:"royalty_bps" json:"royalty_bps"`
	Verifier       string    `bun:"verifier" json:"verifier,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Clone returns a copy safe to hand out to callers without exposing
// the ledger's internal record.
func (e *Event) Clone() *Event {
	cp := *e
	return &cp
}
