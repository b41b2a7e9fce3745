package store

import (
	"context"
	"sync"
	"time"

	"github.com/tokenforge/mintbridge/internal/core"
)

type admittedKey struct {
	registry core.Address
	tag      string
}

type indexKey struct {
	registry core.Address
	digest   string
}

// Memory is an in-memory core.Store for tests. Each test instantiates its
// own isolated store; there is no ambient shared state.
type Memory struct {
	mu       sync.Mutex
	admitted map[admittedKey]time.Time
	stats    map[core.Address]core.ActorStats
	index    map[indexKey]uint64
	balance  uint64
	audit    []core.AuditEntry

	// FailAdmit, when set, makes Admit return this error.
	FailAdmit error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		admitted: make(map[admittedKey]time.Time),
		stats:    make(map[core.Address]core.ActorStats),
		index:    make(map[indexKey]uint64),
	}
}

// Admit inserts the tag if absent, atomically.
func (m *Memory) Admit(ctx context.Context, registry core.Address, tag string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAdmit != nil {
		return false, m.FailAdmit
	}

	key := admittedKey{registry, tag}
	if _, ok := m.admitted[key]; ok {
		return false, nil
	}
	m.admitted[key] = time.Now()
	return true, nil
}

// IsAdmitted reports whether the tag is in the admitted set.
func (m *Memory) IsAdmitted(ctx context.Context, registry core.Address, tag string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.admitted[admittedKey{registry, tag}]
	return ok, nil
}

// Clear removes a tag from the admitted set.
func (m *Memory) Clear(ctx context.Context, registry core.Address, tag string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := admittedKey{registry, tag}
	if _, ok := m.admitted[key]; !ok {
		return false, nil
	}
	delete(m.admitted, key)
	return true, nil
}

// RecordImport increments TotalImported and stamps LastImportAt.
func (m *Memory) RecordImport(ctx context.Context, actor core.Address, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats[actor]
	s.TotalImported++
	s.LastImportAt = at
	m.stats[actor] = s
	return nil
}

// RecordFailure increments TotalFailed.
func (m *Memory) RecordFailure(ctx context.Context, actor core.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats[actor]
	s.TotalFailed++
	m.stats[actor] = s
	return nil
}

// StatsFor returns the actor's counters.
func (m *Memory) StatsFor(ctx context.Context, actor core.Address) (core.ActorStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[actor], nil
}

// CreditBalance adds amount to the engine balance.
func (m *Memory) CreditBalance(ctx context.Context, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance += amount
	return nil
}

// Balance returns the current engine balance.
func (m *Memory) Balance(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance, nil
}

// WithdrawBalance zeroes the balance and returns the prior amount.
func (m *Memory) WithdrawBalance(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prior := m.balance
	m.balance = 0
	return prior, nil
}

// IndexOrigin records the tag digest -> token index mapping.
func (m *Memory) IndexOrigin(ctx context.Context, registry core.Address, tagDigest string, index uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := indexKey{registry, tagDigest}
	if _, ok := m.index[key]; !ok {
		m.index[key] = index
	}
	return nil
}

// LookupOrigin returns the token index for a tag digest, if indexed.
func (m *Memory) LookupOrigin(ctx context.Context, registry core.Address, tagDigest string) (uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index, ok := m.index[indexKey{registry, tagDigest}]
	return index, ok, nil
}

// AppendAudit records an audit entry.
func (m *Memory) AppendAudit(ctx context.Context, e core.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, e)
	return nil
}

// RecentAudit returns up to limit entries, newest first.
func (m *Memory) RecentAudit(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.audit) {
		limit = len(m.audit)
	}
	entries := make([]core.AuditEntry, 0, limit)
	for i := len(m.audit) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, m.audit[i])
	}
	return entries, nil
}
