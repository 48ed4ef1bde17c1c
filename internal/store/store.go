// Package store holds the durable event log: a uniqueness-keyed log of
// handled events, plus the keeper and supported-URL side tables that drive
// chain identity and handler construction at boot.
package store

import (
	"context"

	"github.com/oraclenet/orchestrator/internal/domain"
)

// Store is the abstract persistence engine the indexer loop and process
// wiring depend on. It has no schema beyond the domain types it stores.
type Store interface {
	// LatestCursor returns the highest eventSeq recorded for (chain, oracle),
	// or ok=false if no row exists yet.
	LatestCursor(ctx context.Context, chain, oracleAddress string) (seq uint64, ok bool, err error)

	// RecordAttempt inserts a handled-event row under its uniqueness key
	// (chain, oracleAddress, eventHandleId, eventSeq). A row is never
	// mutated once inserted; a duplicate insert is a no-op, not an error,
	// so restart-driven re-processing stays idempotent.
	RecordAttempt(ctx context.Context, row domain.EventRow) error

	// Keepers returns every persisted keeper for a chain.
	Keepers(ctx context.Context, chain string) ([]domain.Keeper, error)

	// PutKeeper upserts a keeper record for (chain, module).
	PutKeeper(ctx context.Context, keeper domain.Keeper) error

	// SupportedURLs returns the dynamic handler configuration table, if any.
	SupportedURLs(ctx context.Context) ([]domain.SupportedURL, error)
}
