// Package registry provides destination registry implementations: an
// append-only token store satisfying core.Registry. The Postgres variant is
// the reference destination; the in-memory variant backs tests and dry runs.
package registry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

// Schema creates the registry tables. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS registry_counter (
    registry_addr TEXT PRIMARY KEY,
    total         BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS registry_tokens (
    registry_addr TEXT        NOT NULL,
    token_id      BIGINT      NOT NULL,
    recipient     TEXT        NOT NULL,
    metadata_uri  TEXT        NOT NULL,
    royalty_rate  SMALLINT    NOT NULL,
    soul_bound    BOOLEAN     NOT NULL,
    creator       TEXT        NOT NULL,
    origin_tag    TEXT        NOT NULL,
    burned        BOOLEAN     NOT NULL DEFAULT FALSE,
    minted_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (registry_addr, token_id)
);
`

// EnsureSchema creates the registry tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure registry schema: %w", err)
	}
	return nil
}

// Postgres is a core.Registry backed by Postgres tables.
type Postgres struct {
	db       DBTX
	identity core.Address
}

// NewPostgres creates a Postgres registry with the given identity.
func NewPostgres(db DBTX, identity core.Address) *Postgres {
	return &Postgres{db: db, identity: identity}
}

// Identity returns the registry's address.
func (r *Postgres) Identity() core.Address {
	return r.identity
}

// Mint appends a new token and returns its index. Indices are allocated from
// a per-registry counter; a crash between counter bump and token insert
// leaves a gap, which scans tolerate by skipping unreadable indices.
func (r *Postgres) Mint(ctx context.Context, p core.MintParams) (uint64, error) {
	if p.OriginTag == "" {
		return 0, fmt.Errorf("mint rejected: empty origin tag")
	}
	if p.Recipient.IsZero() {
		return 0, fmt.Errorf("mint rejected: zero recipient")
	}

	var tokenID uint64
	err := r.db.QueryRow(ctx, `
		INSERT INTO registry_counter (registry_addr, total)
		VALUES ($1, 1)
		ON CONFLICT (registry_addr)
		DO UPDATE SET total = registry_counter.total + 1
		RETURNING total
	`, r.identity.String()).Scan(&tokenID)
	if err != nil {
		return 0, fmt.Errorf("allocate token id: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO registry_tokens
			(registry_addr, token_id, recipient, metadata_uri, royalty_rate, soul_bound, creator, origin_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.identity.String(), tokenID, p.Recipient.String(), p.MetadataURI,
		int16(p.RoyaltyRate), p.SoulBound, p.Creator.String(), p.OriginTag)
	if err != nil {
		return 0, fmt.Errorf("insert token %d: %w", tokenID, err)
	}

	return tokenID, nil
}

// OriginTag reads the stored origin tag at index. Burned or absent tokens
// return an error.
func (r *Postgres) OriginTag(ctx context.Context, index uint64) (string, error) {
	var tag string
	err := r.db.QueryRow(ctx, `
		SELECT origin_tag FROM registry_tokens
		WHERE registry_addr = $1 AND token_id = $2 AND NOT burned
	`, r.identity.String(), index).Scan(&tag)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("token %d not found", index)
		}
		return "", fmt.Errorf("read token %d: %w", index, err)
	}
	return tag, nil
}

// TotalCount returns the highest index ever minted for this registry.
func (r *Postgres) TotalCount(ctx context.Context) (uint64, error) {
	var total uint64
	err := r.db.QueryRow(ctx, `
		SELECT total FROM registry_counter WHERE registry_addr = $1
	`, r.identity.String()).Scan(&total)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("read registry counter: %w", err)
	}
	return total, nil
}
