package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenforge/mintbridge/internal/core"
)

func regA() core.Address {
	var a core.Address
	a[19] = 0xA1
	return a
}

func regB() core.Address {
	var a core.Address
	a[19] = 0xB2
	return a
}

func TestAdmitInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	inserted, err := m.Admit(ctx, regA(), "legacy/1")
	require.NoError(t, err)
	assert.True(t, inserted, "first admit must insert")

	inserted, err = m.Admit(ctx, regA(), "legacy/1")
	require.NoError(t, err)
	assert.False(t, inserted, "second admit must report already present")

	admitted, err := m.IsAdmitted(ctx, regA(), "legacy/1")
	require.NoError(t, err)
	assert.True(t, admitted)
}

func TestAdmissionScopedPerRegistry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Admit(ctx, regA(), "legacy/1")
	require.NoError(t, err)

	// The same tag against a different registry is a fresh admission.
	inserted, err := m.Admit(ctx, regB(), "legacy/1")
	require.NoError(t, err)
	assert.True(t, inserted)

	admitted, err := m.IsAdmitted(ctx, regB(), "legacy/2")
	require.NoError(t, err)
	assert.False(t, admitted)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	removed, err := m.Clear(ctx, regA(), "legacy/1")
	require.NoError(t, err)
	assert.False(t, removed, "clearing an absent tag reports false")

	_, err = m.Admit(ctx, regA(), "legacy/1")
	require.NoError(t, err)

	removed, err = m.Clear(ctx, regA(), "legacy/1")
	require.NoError(t, err)
	assert.True(t, removed)

	admitted, _ := m.IsAdmitted(ctx, regA(), "legacy/1")
	assert.False(t, admitted)
}

func TestStatsCounters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var actor core.Address
	actor[19] = 1

	stats, err := m.StatsFor(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, core.ActorStats{}, stats, "unseen actor has zero stats")

	at := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.RecordImport(ctx, actor, at))
	require.NoError(t, m.RecordImport(ctx, actor, at.Add(time.Minute)))
	require.NoError(t, m.RecordFailure(ctx, actor))

	stats, err = m.StatsFor(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.TotalImported)
	assert.Equal(t, uint64(1), stats.TotalFailed)
	assert.Equal(t, at.Add(time.Minute), stats.LastImportAt)
}

func TestBalanceLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	balance, err := m.Balance(ctx)
	require.NoError(t, err)
	assert.Zero(t, balance)

	require.NoError(t, m.CreditBalance(ctx, 5))
	require.NoError(t, m.CreditBalance(ctx, 7))

	prior, err := m.WithdrawBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), prior)

	balance, err = m.Balance(ctx)
	require.NoError(t, err)
	assert.Zero(t, balance, "withdraw must zero the balance")

	prior, err = m.WithdrawBalance(ctx)
	require.NoError(t, err)
	assert.Zero(t, prior, "second withdraw returns zero")
}

func TestOriginIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.LookupOrigin(ctx, regA(), "digest-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.IndexOrigin(ctx, regA(), "digest-1", 7))

	idx, ok, err := m.LookupOrigin(ctx, regA(), "digest-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), idx)

	// First write wins; the index maps a digest to its original mint.
	require.NoError(t, m.IndexOrigin(ctx, regA(), "digest-1", 99))
	idx, _, _ = m.LookupOrigin(ctx, regA(), "digest-1")
	assert.Equal(t, uint64(7), idx)

	// Scoped per registry.
	_, ok, err = m.LookupOrigin(ctx, regB(), "digest-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecentAuditNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < 5; i++ {
		require.NoError(t, m.AppendAudit(ctx, core.AuditEntry{
			ID:     string(rune('a' + i)),
			Action: core.ActionImport,
		}))
	}

	entries, err := m.RecentAudit(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e", entries[0].ID)
	assert.Equal(t, "d", entries[1].ID)
	assert.Equal(t, "c", entries[2].ID)

	// A limit beyond the stored count returns everything.
	entries, err = m.RecentAudit(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}
