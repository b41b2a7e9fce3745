// Package core provides the business logic for token migration operations.
// This package has no transport dependencies and can be driven by any frontend.
package core

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Address is a 20-byte destination account identifier, rendered as 0x-prefixed hex.
type Address [20]byte

// ZeroAddress is the all-zero address. Records naming it fail validation.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed 40-digit hex string into an Address.
func ParseAddress(s string) (Address, error) {
	var a Address
	str := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(str) != 40 {
		return a, fmt.Errorf("address must be 40 hex digits, got %d", len(str))
	}
	b, err := hex.DecodeString(str)
	if err != nil {
		return a, fmt.Errorf("invalid hex address: %w", err)
	}
	copy(a[:], b)
	return a, nil
}

// String returns the 0x-prefixed lowercase hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// MarshalText implements encoding.TextMarshaler so Address round-trips in JSON.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ImportRecord describes one source token to re-create in the destination
// registry. Immutable once submitted.
type ImportRecord struct {
	// MetadataURI is the destination metadata location (must be non-empty).
	MetadataURI string `json:"metadataUri"`

	// Recipient receives the minted token unless NestedSourceTag overrides it.
	Recipient Address `json:"recipient"`

	// Creator is recorded as the token's creator (must be non-zero).
	Creator Address `json:"creator"`

	// SoulBound marks the minted token non-transferable.
	SoulBound bool `json:"soulBound"`

	// OriginTag is the canonical source identity, "<collection>/<tokenId>".
	// Globally unique by contract; used as the dedup key.
	OriginTag string `json:"originTag"`

	// RoyaltyRate is a percentage in [0,100].
	RoyaltyRate uint8 `json:"royaltyRate"`

	// NestedSourceTag, when non-empty, names a parent token already present in
	// the destination registry. The import is delivered to the parent's bound
	// account instead of Recipient.
	NestedSourceTag string `json:"nestedSourceTag,omitempty"`
}

// ImportResult is the outcome of importing one record.
// TokenID is 0 when no token was minted.
type ImportResult struct {
	OriginTag string `json:"originTag"`
	TokenID   uint64 `json:"tokenId,omitempty"`
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
}

// BatchResult aggregates the outcome of a batch import.
// Results preserves submission order, one entry per input record.
type BatchResult struct {
	BatchID   string         `json:"batchId"`
	Results   []ImportResult `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Duration  time.Duration  `json:"-"`
}

// ActorStats tracks per-actor import counters. Counters never decrease.
type ActorStats struct {
	TotalImported uint64    `json:"totalImported"`
	TotalFailed   uint64    `json:"totalFailed"`
	LastImportAt  time.Time `json:"lastImportAt,omitzero"`
}

// MintParams are the arguments to the destination registry's mint operation.
type MintParams struct {
	Recipient   Address
	MetadataURI string
	RoyaltyRate uint8
	SoulBound   bool
	Creator     Address
	OriginTag   string
}

// Registry is the destination registry collaborator: an append-only token
// store. Indices run 1..TotalCount in mint order.
type Registry interface {
	// Identity returns the registry's own address. Zero means unconfigured.
	Identity() Address

	// Mint creates a new token and returns its index. Rejections are returned
	// as errors whose message is the registry's verbatim reason.
	Mint(ctx context.Context, p MintParams) (uint64, error)

	// OriginTag reads the stored origin tag at an index. Absent or burned
	// tokens return an error; callers scanning the registry skip them.
	OriginTag(ctx context.Context, index uint64) (string, error)

	// TotalCount returns the highest index ever minted.
	TotalCount(ctx context.Context) (uint64, error)
}

// Store persists the engine's dedup set, per-actor statistics, audit trail,
// and withdrawable balance. Admissions are scoped per destination registry.
type Store interface {
	// Admit inserts the tag into the admitted set if absent. Returns true if
	// this call inserted it, false if it was already admitted. Atomic.
	Admit(ctx context.Context, registry Address, tag string) (bool, error)

	// IsAdmitted reports whether the tag is in the admitted set.
	IsAdmitted(ctx context.Context, registry Address, tag string) (bool, error)

	// Clear removes a tag from the admitted set, returning true if it was present.
	Clear(ctx context.Context, registry Address, tag string) (bool, error)

	// RecordImport increments the actor's TotalImported and sets LastImportAt.
	RecordImport(ctx context.Context, actor Address, at time.Time) error

	// RecordFailure increments the actor's TotalFailed.
	RecordFailure(ctx context.Context, actor Address) error

	// StatsFor returns the actor's counters (zero value if never seen).
	StatsFor(ctx context.Context, actor Address) (ActorStats, error)

	// CreditBalance adds amount to the engine's withdrawable balance.
	CreditBalance(ctx context.Context, amount uint64) error

	// Balance returns the current withdrawable balance.
	Balance(ctx context.Context) (uint64, error)

	// WithdrawBalance zeroes the balance and returns the prior amount. Atomic.
	WithdrawBalance(ctx context.Context) (uint64, error)

	// AppendAudit records an audit entry.
	AppendAudit(ctx context.Context, e AuditEntry) error

	// RecentAudit returns up to limit entries, newest first.
	RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}

// OriginIndex is an optional auxiliary index (origin tag digest -> token index)
// maintained alongside each mint, collapsing origin lookup to O(1). Stores that
// do not implement it leave the engine on the linear registry scan.
type OriginIndex interface {
	IndexOrigin(ctx context.Context, registry Address, tagDigest string, index uint64) error
	LookupOrigin(ctx context.Context, registry Address, tagDigest string) (uint64, bool, error)
}

// AccountParams is the fixed tuple from which a nested-ownership (token-bound)
// account address is derived. Identical params always derive the same address.
type AccountParams struct {
	Implementation Address
	ChainID        uint64
	TokenContract  Address
	TokenID        uint64
	Salt           [32]byte
}

// AccountResolver derives and materializes nested-ownership accounts.
type AccountResolver interface {
	// Derive computes the deterministic account address. Pure.
	Derive(p AccountParams) Address

	// Materialize ensures the account exists and returns its address.
	// Creating an account that already exists is a no-op, not an error.
	Materialize(ctx context.Context, p AccountParams) (Address, error)
}
