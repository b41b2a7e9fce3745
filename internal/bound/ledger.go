package bound

import (
	"context"
	"fmt"
	"sync"

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

// Schema creates the bound account ledger table. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS bound_accounts (
    address        TEXT PRIMARY KEY,
    implementation TEXT        NOT NULL,
    chain_id       BIGINT      NOT NULL,
    token_contract TEXT        NOT NULL,
    token_id       BIGINT      NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the ledger table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure bound account schema: %w", err)
	}
	return nil
}

// PostgresLedger persists materialized accounts in Postgres.
// ON CONFLICT DO NOTHING makes repeated materialization a no-op.
type PostgresLedger struct {
	db DBTX
}

// NewPostgresLedger creates a Postgres-backed ledger.
func NewPostgresLedger(db DBTX) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Ensure records the account if absent.
func (l *PostgresLedger) Ensure(ctx context.Context, addr core.Address, p core.AccountParams) error {
	_, err := l.db.Exec(ctx, `
		INSERT INTO bound_accounts (address, implementation, chain_id, token_contract, token_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO NOTHING
	`, addr.String(), p.Implementation.String(), int64(p.ChainID), p.TokenContract.String(), int64(p.TokenID))
	if err != nil {
		return fmt.Errorf("ensure bound account %s: %w", addr, err)
	}
	return nil
}

// MemoryLedger tracks materialized accounts in memory for tests.
type MemoryLedger struct {
	mu       sync.Mutex
	accounts map[core.Address]core.AccountParams
	creates  int
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{accounts: make(map[core.Address]core.AccountParams)}
}

// Ensure records the account if absent.
func (l *MemoryLedger) Ensure(ctx context.Context, addr core.Address, p core.AccountParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[addr]; ok {
		return nil
	}
	l.accounts[addr] = p
	l.creates++
	return nil
}

// Creates returns how many distinct accounts have been materialized.
func (l *MemoryLedger) Creates() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creates
}

// Exists reports whether addr has been materialized.
func (l *MemoryLedger) Exists(addr core.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.accounts[addr]
	return ok
}
