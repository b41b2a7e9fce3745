// Package bound derives and materializes nested-ownership (token-bound)
// accounts: destination addresses owned by a token rather than an external
// actor.
//
// Derivation is a pure function of the account parameter tuple. The address
// is the last 20 bytes of a sha-256 over a fixed-width encoding of
// implementation, chain id, token contract, token id, and salt, so identical
// inputs always derive the identical address with no registry round-trip.
package bound

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/tokenforge/mintbridge/internal/core"
)

// Derive computes the deterministic account address for p.
func Derive(p core.AccountParams) core.Address {
	var buf [20 + 8 + 20 + 8 + 32]byte
	n := copy(buf[:], p.Implementation[:])
	binary.BigEndian.PutUint64(buf[n:], p.ChainID)
	n += 8
	n += copy(buf[n:], p.TokenContract[:])
	binary.BigEndian.PutUint64(buf[n:], p.TokenID)
	n += 8
	copy(buf[n:], p.Salt[:])

	sum := sha256.Sum256(buf[:])

	var addr core.Address
	copy(addr[:], sum[len(sum)-20:])
	return addr
}

// Resolver satisfies core.AccountResolver by pairing the pure derivation with
// a Ledger that tracks which accounts have been materialized.
type Resolver struct {
	ledger Ledger
}

// Ledger records materialized accounts. Ensure must be idempotent: recording
// an address that already exists is a no-op, not an error.
type Ledger interface {
	Ensure(ctx context.Context, addr core.Address, p core.AccountParams) error
}

// NewResolver creates a Resolver over the given ledger.
func NewResolver(ledger Ledger) *Resolver {
	return &Resolver{ledger: ledger}
}

// Derive computes the deterministic account address. Pure.
func (r *Resolver) Derive(p core.AccountParams) core.Address {
	return Derive(p)
}

// Materialize derives the address and ensures its backing account exists.
func (r *Resolver) Materialize(ctx context.Context, p core.AccountParams) (core.Address, error) {
	addr := Derive(p)
	if err := r.ledger.Ensure(ctx, addr, p); err != nil {
		return core.ZeroAddress, err
	}
	return addr, nil
}
