// Package postgres implements store.Store backed by PostgreSQL, using
// sqlx over database/sql and lib/pq as the driver.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/oraclenet/orchestrator/internal/domain"
	"github.com/oraclenet/orchestrator/internal/store"
)

// Store implements store.Store backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to the given DSN and verifies connectivity.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// New wraps an already-connected handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return applyMigrations(ctx, s.db.DB)
}

// LatestCursor implements store.Store.
func (s *Store) LatestCursor(ctx context.Context, chain, oracleAddress string) (uint64, bool, error) {
	var seq *uint64
	err := s.db.GetContext(ctx, &seq, `
		SELECT MAX(event_seq)
		FROM orchestrator_events
		WHERE chain = $1 AND oracle_address = $2
	`, chain, oracleAddress)
	if err != nil {
		return 0, false, err
	}
	if seq == nil {
		return 0, false, nil
	}
	return *seq, true, nil
}

// RecordAttempt implements store.Store.
func (s *Store) RecordAttempt(ctx context.Context, row domain.EventRow) error {
	now := time.Now().UTC()
	if row.IndexedAt == 0 {
		row.IndexedAt = now.UnixMilli()
	}
	row.UpdatedAt = now.UnixMilli()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orchestrator_events
			(id, chain, oracle_address, event_handle_id, event_seq, event_index, event_type,
			 event_data, decoded_event_data, status, retries, response, indexed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (chain, oracle_address, event_handle_id, event_seq) DO NOTHING
	`,
		row.ID, row.Chain, row.OracleAddress, row.EventHandleID, row.EventSeq, row.EventIndex, row.EventType,
		row.EventData, row.DecodedEventData, row.Status, row.Retries, row.Response, row.IndexedAt, row.UpdatedAt,
	)
	return err
}

// Keepers implements store.Store.
func (s *Store) Keepers(ctx context.Context, chain string) ([]domain.Keeper, error) {
	var rows []domain.Keeper
	err := s.db.SelectContext(ctx, &rows, `
		SELECT chain, module, private_key FROM orchestrator_keepers WHERE chain = $1
	`, chain)
	return rows, err
}

// PutKeeper implements store.Store.
func (s *Store) PutKeeper(ctx context.Context, keeper domain.Keeper) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orchestrator_keepers (chain, module, private_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (chain, module) DO UPDATE SET private_key = EXCLUDED.private_key
	`, keeper.Chain, keeper.Module, keeper.PrivateKey)
	return err
}

// SupportedURLs implements store.Store.
func (s *Store) SupportedURLs(ctx context.Context) ([]domain.SupportedURL, error) {
	type row struct {
		Domain         string `db:"domain"`
		SupportedPaths []byte `db:"supported_paths"`
		AuthType       string `db:"auth_type"`
		AuthKey        string `db:"auth_key"`
		RequestRate    int    `db:"request_rate"`
	}
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT domain, supported_paths, auth_type, auth_key, request_rate FROM orchestrator_supported_urls
	`); err != nil {
		return nil, err
	}

	out := make([]domain.SupportedURL, 0, len(rows))
	for _, r := range rows {
		var paths []string
		if len(r.SupportedPaths) > 0 {
			if err := json.Unmarshal(r.SupportedPaths, &paths); err != nil {
				return nil, err
			}
		}
		out = append(out, domain.SupportedURL{
			Domain:         r.Domain,
			SupportedPaths: paths,
			AuthType:       domain.AuthType(r.AuthType),
			AuthKey:        r.AuthKey,
			RequestRate:    r.RequestRate,
		})
	}
	return out, nil
}
