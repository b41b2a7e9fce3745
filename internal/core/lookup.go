package core

// lookup.go locates tokens in the destination registry by origin tag.
//
// The registry exposes no search primitive, only indexed reads, so the
// correctness baseline is a linear ascending scan over 1..TotalCount. When the
// store maintains the auxiliary origin index the scan collapses to a single
// keyed read; the index is written transactionally alongside each mint, so a
// hit can be trusted without re-reading the registry.

import (
	"context"

	"github.com/tokenforge/mintbridge/internal/tagutil"
)

// digestOf returns the canonical content digest of an origin tag.
func digestOf(tag string) string {
	return tagutil.Digest(tag)
}

// Lookup finds destination registry indices by origin tag.
type Lookup struct {
	reg   Registry
	index OriginIndex // nil when the store has no auxiliary index
}

// NewLookup creates a Lookup over the registry. index may be nil.
func NewLookup(reg Registry, index OriginIndex) *Lookup {
	return &Lookup{reg: reg, index: index}
}

// Find returns the first registry index whose stored origin tag is
// byte-identical to tag.
//
// Indices whose read fails (absent or burned tokens) are skipped. If the
// registry's total count cannot be read, Find returns a KindLookup error;
// duplicate checks treat that as "not found" while parent resolution treats
// it as a hard failure.
func (l *Lookup) Find(ctx context.Context, tag string) (uint64, bool, error) {
	digest := tagutil.Digest(tag)

	if l.index != nil {
		idx, ok, err := l.index.LookupOrigin(ctx, l.reg.Identity(), digest)
		if err != nil {
			return 0, false, internalErr("origin index lookup", err)
		}
		if ok {
			return idx, true, nil
		}
		// The index only misses for tokens minted outside this engine;
		// fall through to the scan against ground truth.
	}

	count, err := l.reg.TotalCount(ctx)
	if err != nil {
		return 0, false, lookupFailed("read registry total count", err)
	}

	for i := uint64(1); i <= count; i++ {
		stored, err := l.reg.OriginTag(ctx, i)
		if err != nil {
			continue
		}
		if len(stored) == len(tag) && tagutil.Digest(stored) == digest {
			return i, true, nil
		}
	}

	return 0, false, nil
}
