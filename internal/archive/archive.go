// Package archive is the write-behind durable store for committed ledger
// state. The in-memory arena stays authoritative; the archive rehydrates it
// at startup and keeps an audit copy of every committed transition.
package archive

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/models"
)

type Archive struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *Archive {
	return &Archive{Bun: bunDB}
}

// CreateTables sets up the archive schema. Used for sqlite; postgres goes
// through the migration runner instead.
func (a *Archive) CreateTables(ctx context.Context) error {
	tables := []interface{}{
		(*models.Event)(nil),
		(*models.TicketProof)(nil),
		(*models.OwnershipRow)(nil),
		(*models.BlacklistRow)(nil),
		(*models.Signal)(nil),
	}
	for _, table := range tables {
		if _, err := a.Bun.NewCreateTable().Model(table).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", table, err)
		}
	}
	return nil
}

func (a *Archive) SaveEvent(ctx context.Context, ev *models.Event) error {
	_, err := a.Bun.NewInsert().
		Model(ev).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("metadata_uri = EXCLUDED.metadata_uri").
		Set("total_minted = EXCLUDED.total_minted").
		Set("active = EXCLUDED.active").
		Exec(ctx)
	return err
}

func (a *Archive) SaveProof(ctx context.Context, p *models.TicketProof) error {
	_, err := a.Bun.NewInsert().
		Model(p).
		On("CONFLICT (ticket_id) DO UPDATE").
		Set("is_valid = EXCLUDED.is_valid").
		Exec(ctx)
	return err
}

func (a *Archive) SaveOwnership(ctx context.Context, row *models.OwnershipRow) error {
	_, err := a.Bun.NewInsert().
		Model(row).
		On("CONFLICT (ticket_id) DO UPDATE").
		Set("holder = EXCLUDED.holder").
		Set("used = EXCLUDED.used").
		Set("transfer_count = EXCLUDED.transfer_count").
		Exec(ctx)
	return err
}

func (a *Archive) SaveBlacklist(ctx context.Context, row *models.BlacklistRow) error {
	_, err := a.Bun.NewInsert().
		Model(row).
		On("CONFLICT (address) DO UPDATE").
		Set("blocked = EXCLUDED.blocked").
		Exec(ctx)
	return err
}

func (a *Archive) AppendSignal(ctx context.Context, sig *models.Signal) error {
	_, err := a.Bun.NewInsert().Model(sig).Exec(ctx)
	return err
}

// LoadAll reads the full archived state back for ledger rehydration.
func (a *Archive) LoadAll(ctx context.Context) (ledger.Snapshot, error) {
	var snap ledger.Snapshot

	if err := a.Bun.NewSelect().Model(&snap.Events).Order("id ASC").Scan(ctx); err != nil && err != sql.ErrNoRows {
		return snap, fmt.Errorf("load events: %w", err)
	}
	if err := a.Bun.NewSelect().Model(&snap.Proofs).Order("ticket_id ASC").Scan(ctx); err != nil && err != sql.ErrNoRows {
		return snap, fmt.Errorf("load proofs: %w", err)
	}
	if err := a.Bun.NewSelect().Model(&snap.Ownership).Order("ticket_id ASC").Scan(ctx); err != nil && err != sql.ErrNoRows {
		return snap, fmt.Errorf("load ownership: %w", err)
	}
	if err := a.Bun.NewSelect().Model(&snap.Blacklist).Scan(ctx); err != nil && err != sql.ErrNoRows {
		return snap, fmt.Errorf("load blacklist: %w", err)
	}
	return snap, nil
}

// Signals returns archived signals for an event, oldest first.
func (a *Archive) Signals(ctx context.Context, eventID uint64) ([]models.Signal, error) {
	var signals []models.Signal
	err := a.Bun.NewSelect().
		Model(&signals).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return signals, nil
}
