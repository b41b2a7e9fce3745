package registry

import (
	"context"
	"testing"

	"github.com/tokenforge/mintbridge/internal/core"
)

func testIdentity() core.Address {
	var a core.Address
	a[19] = 0xAA
	return a
}

func mintParams(tag string) core.MintParams {
	var recipient, creator core.Address
	recipient[19] = 0x20
	creator[19] = 0x21
	return core.MintParams{
		Recipient:   recipient,
		MetadataURI: "ipfs://meta/" + tag,
		Creator:     creator,
		OriginTag:   tag,
	}
}

func TestMemoryMintAssignsSequentialIndices(t *testing.T) {
	ctx := context.Background()
	r := NewMemory(testIdentity())

	for want := uint64(1); want <= 3; want++ {
		idx, err := r.Mint(ctx, mintParams("legacy/tag"))
		if err != nil {
			t.Fatalf("Mint: %v", err)
		}
		if idx != want {
			t.Errorf("index = %d, want %d", idx, want)
		}
	}

	count, err := r.TotalCount(ctx)
	if err != nil {
		t.Fatalf("TotalCount: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestMemoryOriginTag(t *testing.T) {
	ctx := context.Background()
	r := NewMemory(testIdentity())

	idx, err := r.Mint(ctx, mintParams("legacy/1"))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	tag, err := r.OriginTag(ctx, idx)
	if err != nil {
		t.Fatalf("OriginTag: %v", err)
	}
	if tag != "legacy/1" {
		t.Errorf("tag = %q, want %q", tag, "legacy/1")
	}

	if _, err := r.OriginTag(ctx, 99); err == nil {
		t.Error("reading an absent index succeeded")
	}
}

func TestMemoryBurnKeepsCount(t *testing.T) {
	ctx := context.Background()
	r := NewMemory(testIdentity())

	if _, err := r.Mint(ctx, mintParams("legacy/1")); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	r.Burn(1)

	if _, err := r.OriginTag(ctx, 1); err == nil {
		t.Error("reading a burned index succeeded")
	}

	count, err := r.TotalCount(ctx)
	if err != nil {
		t.Fatalf("TotalCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d after burn, want 1", count)
	}
}
