package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tokenforge/mintbridge/internal/core"
	"github.com/tokenforge/mintbridge/internal/registry"
	"github.com/tokenforge/mintbridge/internal/store"
	"github.com/tokenforge/mintbridge/internal/tagutil"
)

func mintTag(t *testing.T, reg *registry.Memory, tag string) uint64 {
	t.Helper()
	idx, err := reg.Mint(context.Background(), core.MintParams{
		Recipient:   addr(0x20),
		MetadataURI: "ipfs://meta",
		Creator:     addr(0x21),
		OriginTag:   tag,
	})
	if err != nil {
		t.Fatalf("mint %q: %v", tag, err)
	}
	return idx
}

func TestLookupScan(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewMemory(registryAddr)
	lookup := core.NewLookup(reg, nil)

	mintTag(t, reg, "legacy/1")
	mintTag(t, reg, "legacy/2")
	mintTag(t, reg, "legacy/3")

	idx, found, err := lookup.Find(ctx, "legacy/2")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !found || idx != 2 {
		t.Errorf("Find = (%d, %v), want (2, true)", idx, found)
	}

	_, found, err = lookup.Find(ctx, "legacy/99")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found {
		t.Error("found tag that was never minted")
	}
}

func TestLookupScanOnEmptyRegistry(t *testing.T) {
	reg := registry.NewMemory(registryAddr)
	lookup := core.NewLookup(reg, nil)

	_, found, err := lookup.Find(context.Background(), "legacy/1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found {
		t.Error("found tag in empty registry")
	}
}

func TestLookupSkipsBurnedTokens(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewMemory(registryAddr)
	lookup := core.NewLookup(reg, nil)

	mintTag(t, reg, "legacy/1")
	target := mintTag(t, reg, "legacy/2")
	reg.Burn(1)

	// The burned index fails its read but must not abort the scan.
	idx, found, err := lookup.Find(ctx, "legacy/2")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !found || idx != target {
		t.Errorf("Find = (%d, %v), want (%d, true)", idx, found, target)
	}

	_, found, err = lookup.Find(ctx, "legacy/1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found {
		t.Error("found burned token's tag")
	}
}

func TestLookupReturnsFirstMatch(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewMemory(registryAddr)
	lookup := core.NewLookup(reg, nil)

	// Duplicate stored tags can only arise from out-of-band registry writes;
	// the scan resolves to the lowest index.
	mintTag(t, reg, "legacy/dup")
	mintTag(t, reg, "legacy/dup")

	idx, found, err := lookup.Find(ctx, "legacy/dup")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !found || idx != 1 {
		t.Errorf("Find = (%d, %v), want (1, true)", idx, found)
	}
}

func TestLookupCountErrorSurfacesKind(t *testing.T) {
	reg := registry.NewMemory(registryAddr)
	reg.CountErr = errors.New("registry unavailable")
	lookup := core.NewLookup(reg, nil)

	_, _, err := lookup.Find(context.Background(), "legacy/1")
	if !core.IsKind(err, core.KindLookup) {
		t.Errorf("error = %v, want lookup kind", err)
	}
}

func TestLookupPrefersAuxiliaryIndex(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewMemory(registryAddr)
	st := store.NewMemory()
	lookup := core.NewLookup(reg, st)

	idx := mintTag(t, reg, "legacy/1")
	if err := st.IndexOrigin(ctx, registryAddr, tagutil.Digest("legacy/1"), idx); err != nil {
		t.Fatalf("IndexOrigin: %v", err)
	}

	// With an index hit the scan is never reached, so a broken count is
	// invisible.
	reg.CountErr = errors.New("registry unavailable")

	got, found, err := lookup.Find(ctx, "legacy/1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !found || got != idx {
		t.Errorf("Find = (%d, %v), want (%d, true)", got, found, idx)
	}
}

func TestLookupIndexMissFallsBackToScan(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewMemory(registryAddr)
	st := store.NewMemory()
	lookup := core.NewLookup(reg, st)

	// Minted outside the engine, so the index never saw it.
	idx := mintTag(t, reg, "legacy/external")

	got, found, err := lookup.Find(ctx, "legacy/external")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !found || got != idx {
		t.Errorf("Find = (%d, %v), want (%d, true)", got, found, idx)
	}
}
