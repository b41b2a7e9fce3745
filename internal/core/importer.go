package core

// importer.go implements the single-record import path.
//
// An import either fully commits (token minted, tag admitted, stats and audit
// updated) or leaves no admission behind. Effects are staged: nothing is
// written before the mint, and the admitted set is only touched after the
// registry accepts the token. A per-tag lock covers the whole
// check-mint-admit window, so concurrent imports of one tag serialize and the
// loser fails the duplicate check. Should the process die between mint and
// admit, the validator's ground-truth registry check rejects a re-import of
// the same tag, so the admitted set heals on the next attempt.

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EngineConfig carries the fixed parameters of a migration engine.
type EngineConfig struct {
	// Implementation is the nested-ownership account implementation address.
	// Zero disables nested imports.
	Implementation Address

	// ChainID qualifies derived account addresses.
	ChainID uint64

	// Salt is mixed into every account derivation.
	Salt [32]byte

	// MaxBatch bounds ImportBatch input size. Defaults to DefaultMaxBatch.
	MaxBatch int

	// ImportFee, when non-zero, is credited to the engine balance per
	// successful import.
	ImportFee uint64

	// Admin is the initial administrative actor.
	Admin Address
}

// DefaultMaxBatch is the batch size bound when none is configured.
const DefaultMaxBatch = 100

// Engine is the migration engine: it admits import records into the
// destination registry exactly once per origin tag.
type Engine struct {
	reg       Registry
	store     Store
	resolver  AccountResolver
	lookup    *Lookup
	validator *Validator
	cfg       EngineConfig
	locks     *tagLocks

	adminMu sync.RWMutex
	admin   Address

	now func() time.Time
}

// NewEngine wires an Engine from its collaborators. If store also implements
// OriginIndex, lookups use the auxiliary index and mints maintain it.
func NewEngine(reg Registry, store Store, resolver AccountResolver, cfg EngineConfig) *Engine {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	index, _ := store.(OriginIndex)
	lookup := NewLookup(reg, index)

	return &Engine{
		reg:       reg,
		store:     store,
		resolver:  resolver,
		lookup:    lookup,
		validator: NewValidator(reg, store, lookup, cfg.Implementation),
		cfg:       cfg,
		locks:     newTagLocks(),
		admin:     cfg.Admin,
		now:       time.Now,
	}
}

// Validate pre-flights a single record without mutating any state.
func (e *Engine) Validate(ctx context.Context, rec ImportRecord) error {
	return e.validator.ValidateRecord(ctx, rec)
}

// ValidateBatch pre-flights every record without mutating any state.
func (e *Engine) ValidateBatch(ctx context.Context, recs []ImportRecord) []ImportResult {
	return e.validator.ValidateBatch(ctx, recs)
}

// Import admits one record. The returned result always carries the record's
// origin tag; on failure the reason explains why and no admission persists.
func (e *Engine) Import(ctx context.Context, actor Address, rec ImportRecord) ImportResult {
	tokenID, err := e.importOne(ctx, actor, rec, "")
	if err != nil {
		return ImportResult{OriginTag: rec.OriginTag, Success: false, Reason: err.Error()}
	}
	return ImportResult{OriginTag: rec.OriginTag, TokenID: tokenID, Success: true}
}

// importOne runs the staged import. batchID is empty for single imports.
func (e *Engine) importOne(ctx context.Context, actor Address, rec ImportRecord, batchID string) (uint64, error) {
	release := e.locks.acquire(rec.OriginTag)
	defer release()

	// Validation failures leave no trace, not even a stats update.
	if err := e.validator.ValidateRecord(ctx, rec); err != nil {
		return 0, err
	}

	recipient := rec.Recipient
	if rec.NestedSourceTag != "" {
		resolved, err := e.resolveNested(ctx, rec.NestedSourceTag)
		if err != nil {
			return 0, err
		}
		recipient = resolved
	}

	tokenID, err := e.reg.Mint(ctx, MintParams{
		Recipient:   recipient,
		MetadataURI: rec.MetadataURI,
		RoyaltyRate: rec.RoyaltyRate,
		SoulBound:   rec.SoulBound,
		Creator:     rec.Creator,
		OriginTag:   rec.OriginTag,
	})
	if err != nil {
		if statsErr := e.store.RecordFailure(ctx, actor); statsErr != nil {
			slog.Error("record failure stat", "actor", actor, "error", statsErr)
		}
		e.appendAudit(ctx, func(entry *AuditEntry) {
			entry.Action = ActionImport
			entry.OriginTag = rec.OriginTag
			entry.BatchID = batchID
			entry.Reason = err.Error()
		}, actor)
		return 0, destinationRejected(err)
	}

	if err := e.commitImport(ctx, actor, rec, tokenID, batchID); err != nil {
		return 0, err
	}
	return tokenID, nil
}

// resolveNested locates the parent token and materializes its bound account.
// The parent must be locatable: lookup errors are hard failures here.
func (e *Engine) resolveNested(ctx context.Context, parentTag string) (Address, error) {
	parentIdx, found, err := e.lookup.Find(ctx, parentTag)
	if err != nil {
		return ZeroAddress, err
	}
	if !found {
		return ZeroAddress, parentNotFound(parentTag)
	}

	addr, err := e.resolver.Materialize(ctx, AccountParams{
		Implementation: e.cfg.Implementation,
		ChainID:        e.cfg.ChainID,
		TokenContract:  e.reg.Identity(),
		TokenID:        parentIdx,
		Salt:           e.cfg.Salt,
	})
	if err != nil {
		return ZeroAddress, internalErr("materialize bound account", err)
	}
	return addr, nil
}

// commitImport records all post-mint effects: admission, stats, origin index,
// fee credit, audit.
func (e *Engine) commitImport(ctx context.Context, actor Address, rec ImportRecord, tokenID uint64, batchID string) error {
	registry := e.reg.Identity()
	now := e.now()

	inserted, err := e.store.Admit(ctx, registry, rec.OriginTag)
	if err != nil {
		return internalErr("admit origin tag", err)
	}
	if !inserted {
		// Unreachable while the tag lock is held; the admitted set was
		// mutated behind the engine's back.
		slog.Error("origin tag admitted concurrently after mint",
			"origin_tag", rec.OriginTag,
			"token_id", tokenID,
		)
	}

	if err := e.store.RecordImport(ctx, actor, now); err != nil {
		return internalErr("record import stat", err)
	}

	if index, ok := e.store.(OriginIndex); ok {
		if err := index.IndexOrigin(ctx, registry, digestOf(rec.OriginTag), tokenID); err != nil {
			slog.Error("maintain origin index", "origin_tag", rec.OriginTag, "error", err)
		}
	}

	if e.cfg.ImportFee > 0 {
		if err := e.store.CreditBalance(ctx, e.cfg.ImportFee); err != nil {
			slog.Error("credit import fee", "amount", e.cfg.ImportFee, "error", err)
		}
	}

	e.appendAudit(ctx, func(entry *AuditEntry) {
		entry.Action = ActionImport
		entry.OriginTag = rec.OriginTag
		entry.BatchID = batchID
		entry.Affected = 1
	}, actor)

	return nil
}

// IsAdmitted reports whether tag has been admitted into the configured registry.
func (e *Engine) IsAdmitted(ctx context.Context, tag string) (bool, error) {
	return e.store.IsAdmitted(ctx, e.reg.Identity(), tag)
}

// StatsFor returns the actor's import counters.
func (e *Engine) StatsFor(ctx context.Context, actor Address) (ActorStats, error) {
	return e.store.StatsFor(ctx, actor)
}

// Registry returns the destination registry collaborator.
func (e *Engine) Registry() Registry {
	return e.reg
}

// RecentAudit returns up to limit audit entries, newest first.
func (e *Engine) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	return e.store.RecentAudit(ctx, limit)
}

// appendAudit writes an audit entry, logging rather than failing the import
// when the store cannot accept it.
func (e *Engine) appendAudit(ctx context.Context, fill func(*AuditEntry), actor Address) {
	entry := newAuditEntry("", actor, e.reg.Identity(), e.now())
	fill(&entry)
	if err := e.store.AppendAudit(ctx, entry); err != nil {
		slog.Error("append audit entry", "action", entry.Action, "error", err)
	}
}
