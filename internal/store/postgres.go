// Package store persists the migration engine's state: the per-registry
// admitted set, per-actor statistics, the auxiliary origin index, the audit
// trail, and the withdrawable fee balance. Both implementations satisfy
// core.Store and core.OriginIndex.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokenforge/mintbridge/internal/core"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Schema creates the store tables. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS admitted_tags (
    registry_addr TEXT        NOT NULL,
    origin_tag    TEXT        NOT NULL,
    admitted_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (registry_addr, origin_tag)
);

CREATE TABLE IF NOT EXISTS actor_stats (
    actor          TEXT PRIMARY KEY,
    total_imported BIGINT      NOT NULL DEFAULT 0,
    total_failed   BIGINT      NOT NULL DEFAULT 0,
    last_import_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS origin_index (
    registry_addr TEXT   NOT NULL,
    tag_digest    TEXT   NOT NULL,
    token_id      BIGINT NOT NULL,
    PRIMARY KEY (registry_addr, tag_digest)
);

CREATE TABLE IF NOT EXISTS engine_balance (
    id      SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    balance BIGINT NOT NULL DEFAULT 0
);

INSERT INTO engine_balance (id, balance) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;

CREATE TABLE IF NOT EXISTS audit_log (
    id            UUID PRIMARY KEY,
    action        TEXT        NOT NULL,
    actor         TEXT        NOT NULL,
    registry_addr TEXT        NOT NULL,
    origin_tag    TEXT        NOT NULL DEFAULT '',
    batch_id      TEXT        NOT NULL DEFAULT '',
    reason        TEXT        NOT NULL DEFAULT '',
    affected      INTEGER     NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS audit_log_created_at_idx ON audit_log (created_at DESC);
`

// EnsureSchema creates the store tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure store schema: %w", err)
	}
	return nil
}

// Postgres is a core.Store backed by Postgres tables.
type Postgres struct {
	db DBTX
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// Admit inserts the tag if absent. ON CONFLICT DO NOTHING makes the
// check-and-insert a single atomic statement.
func (s *Postgres) Admit(ctx context.Context, registry core.Address, tag string) (bool, error) {
	ct, err := s.db.Exec(ctx, `
		INSERT INTO admitted_tags (registry_addr, origin_tag)
		VALUES ($1, $2)
		ON CONFLICT (registry_addr, origin_tag) DO NOTHING
	`, registry.String(), tag)
	if err != nil {
		return false, fmt.Errorf("admit tag: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// IsAdmitted reports whether the tag is in the admitted set.
func (s *Postgres) IsAdmitted(ctx context.Context, registry core.Address, tag string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM admitted_tags WHERE registry_addr = $1 AND origin_tag = $2
		)
	`, registry.String(), tag).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admitted tag: %w", err)
	}
	return exists, nil
}

// Clear removes a tag from the admitted set.
func (s *Postgres) Clear(ctx context.Context, registry core.Address, tag string) (bool, error) {
	ct, err := s.db.Exec(ctx, `
		DELETE FROM admitted_tags WHERE registry_addr = $1 AND origin_tag = $2
	`, registry.String(), tag)
	if err != nil {
		return false, fmt.Errorf("clear admitted tag: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// RecordImport increments TotalImported and stamps LastImportAt.
func (s *Postgres) RecordImport(ctx context.Context, actor core.Address, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO actor_stats (actor, total_imported, last_import_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (actor) DO UPDATE SET
			total_imported = actor_stats.total_imported + 1,
			last_import_at = EXCLUDED.last_import_at
	`, actor.String(), at)
	if err != nil {
		return fmt.Errorf("record import stat: %w", err)
	}
	return nil
}

// RecordFailure increments TotalFailed.
func (s *Postgres) RecordFailure(ctx context.Context, actor core.Address) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO actor_stats (actor, total_failed)
		VALUES ($1, 1)
		ON CONFLICT (actor) DO UPDATE SET
			total_failed = actor_stats.total_failed + 1
	`, actor.String())
	if err != nil {
		return fmt.Errorf("record failure stat: %w", err)
	}
	return nil
}

// StatsFor returns the actor's counters, zero-valued when never seen.
func (s *Postgres) StatsFor(ctx context.Context, actor core.Address) (core.ActorStats, error) {
	var stats core.ActorStats
	var last pgtype.Timestamptz
	err := s.db.QueryRow(ctx, `
		SELECT total_imported, total_failed, last_import_at
		FROM actor_stats WHERE actor = $1
	`, actor.String()).Scan(&stats.TotalImported, &stats.TotalFailed, &last)
	if err != nil {
		if err == pgx.ErrNoRows {
			return core.ActorStats{}, nil
		}
		return core.ActorStats{}, fmt.Errorf("read actor stats: %w", err)
	}
	if last.Valid {
		stats.LastImportAt = last.Time
	}
	return stats, nil
}

// CreditBalance adds amount to the engine balance.
func (s *Postgres) CreditBalance(ctx context.Context, amount uint64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE engine_balance SET balance = balance + $1 WHERE id = 1
	`, int64(amount))
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}

// Balance returns the current engine balance.
func (s *Postgres) Balance(ctx context.Context) (uint64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `
		SELECT balance FROM engine_balance WHERE id = 1
	`).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return uint64(balance), nil
}

// WithdrawBalance zeroes the balance and returns the prior amount in one statement.
func (s *Postgres) WithdrawBalance(ctx context.Context) (uint64, error) {
	var prior int64
	err := s.db.QueryRow(ctx, `
		WITH old AS (
			SELECT balance FROM engine_balance WHERE id = 1 FOR UPDATE
		)
		UPDATE engine_balance SET balance = 0
		FROM old
		WHERE engine_balance.id = 1
		RETURNING old.balance
	`).Scan(&prior)
	if err != nil {
		return 0, fmt.Errorf("withdraw balance: %w", err)
	}
	return uint64(prior), nil
}

// IndexOrigin records the tag digest -> token index mapping.
func (s *Postgres) IndexOrigin(ctx context.Context, registry core.Address, tagDigest string, index uint64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO origin_index (registry_addr, tag_digest, token_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (registry_addr, tag_digest) DO NOTHING
	`, registry.String(), tagDigest, index)
	if err != nil {
		return fmt.Errorf("index origin: %w", err)
	}
	return nil
}

// LookupOrigin returns the token index for a tag digest, if indexed.
func (s *Postgres) LookupOrigin(ctx context.Context, registry core.Address, tagDigest string) (uint64, bool, error) {
	var index uint64
	err := s.db.QueryRow(ctx, `
		SELECT token_id FROM origin_index
		WHERE registry_addr = $1 AND tag_digest = $2
	`, registry.String(), tagDigest).Scan(&index)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("lookup origin index: %w", err)
	}
	return index, true, nil
}

// AppendAudit records an audit entry.
func (s *Postgres) AppendAudit(ctx context.Context, e core.AuditEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO audit_log
			(id, action, actor, registry_addr, origin_tag, batch_id, reason, affected, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, string(e.Action), e.Actor.String(), e.Registry.String(),
		e.OriginTag, e.BatchID, e.Reason, e.Affected, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// RecentAudit returns up to limit entries, newest first.
func (s *Postgres) RecentAudit(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, action, actor, registry_addr, origin_tag, batch_id, reason, affected, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []core.AuditEntry
	for rows.Next() {
		var e core.AuditEntry
		var action, actor, registry string
		if err := rows.Scan(&e.ID, &action, &actor, &registry,
			&e.OriginTag, &e.BatchID, &e.Reason, &e.Affected, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = core.AuditAction(action)
		if a, err := core.ParseAddress(actor); err == nil {
			e.Actor = a
		}
		if a, err := core.ParseAddress(registry); err == nil {
			e.Registry = a
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
