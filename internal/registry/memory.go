package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/tokenforge/mintbridge/internal/core"
)

// Token is one minted entry in the in-memory registry.
type Token struct {
	Recipient   core.Address
	MetadataURI string
	RoyaltyRate uint8
	SoulBound   bool
	Creator     core.Address
	OriginTag   string
}

// Memory is an in-memory core.Registry for tests and dry runs.
//
// Failure injection: set MintErr to make every mint fail with that reason,
// and CountErr to make TotalCount unreadable. Burn removes a token so reads
// at its index fail while the count stays put.
type Memory struct {
	mu       sync.Mutex
	identity core.Address
	tokens   map[uint64]Token
	count    uint64

	MintErr  error
	CountErr error
}

// NewMemory creates an empty in-memory registry with the given identity.
func NewMemory(identity core.Address) *Memory {
	return &Memory{identity: identity, tokens: make(map[uint64]Token)}
}

// Identity returns the registry's address.
func (r *Memory) Identity() core.Address {
	return r.identity
}

// Mint appends a token and returns its index, starting at 1.
func (r *Memory) Mint(ctx context.Context, p core.MintParams) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.MintErr != nil {
		return 0, r.MintErr
	}

	r.count++
	r.tokens[r.count] = Token{
		Recipient:   p.Recipient,
		MetadataURI: p.MetadataURI,
		RoyaltyRate: p.RoyaltyRate,
		SoulBound:   p.SoulBound,
		Creator:     p.Creator,
		OriginTag:   p.OriginTag,
	}
	return r.count, nil
}

// OriginTag reads the stored tag at index; burned or absent indices error.
func (r *Memory) OriginTag(ctx context.Context, index uint64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.tokens[index]
	if !ok {
		return "", fmt.Errorf("token %d not found", index)
	}
	return tok.OriginTag, nil
}

// TotalCount returns the highest index ever minted.
func (r *Memory) TotalCount(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CountErr != nil {
		return 0, r.CountErr
	}
	return r.count, nil
}

// Burn removes the token at index without decrementing the count.
func (r *Memory) Burn(index uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, index)
}

// TokenAt returns the stored token at index for assertions in tests.
func (r *Memory) TokenAt(index uint64) (Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[index]
	return tok, ok
}
