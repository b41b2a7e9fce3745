package core

// validation.go provides precondition checks for import records.
//
// Checks run in a fixed order and short-circuit at the first failure. The
// validator performs no writes, so it can be called standalone to pre-flight
// an entire batch before any mutation begins.
//
// Duplicate detection is checked twice on purpose: once against the engine's
// own admitted set, and once against the registry's stored tags via Lookup.
// The second check guards against the registry having been mutated by another
// path while the admitted set stayed behind.

import (
	"context"
	"log/slog"
)

// Validator runs the precondition checks for a single import record.
type Validator struct {
	reg      Registry
	store    Store
	lookup   *Lookup
	impl     Address // nested-ownership implementation; zero disables nesting
}

// NewValidator creates a Validator. impl is the nested-ownership account
// implementation address; records with a NestedSourceTag fail validation
// when it is zero.
func NewValidator(reg Registry, store Store, lookup *Lookup, impl Address) *Validator {
	return &Validator{reg: reg, store: store, lookup: lookup, impl: impl}
}

// ValidateRecord checks rec against the destination state. Returns nil when
// the record may be imported, or an *Error describing the first failure.
// No side effects.
func (v *Validator) ValidateRecord(ctx context.Context, rec ImportRecord) error {
	if v.reg.Identity().IsZero() {
		return invalidf("destination registry identity is not configured")
	}
	if rec.MetadataURI == "" {
		return invalidf("metadata URI is empty")
	}
	if rec.Recipient.IsZero() {
		return invalidf("recipient is the zero address")
	}
	if rec.Creator.IsZero() {
		return invalidf("creator is the zero address")
	}
	if rec.RoyaltyRate > 100 {
		return invalidf("royalty rate %d exceeds 100", rec.RoyaltyRate)
	}
	if rec.OriginTag == "" {
		return invalidf("origin tag is empty")
	}
	if rec.NestedSourceTag != "" && v.impl.IsZero() {
		return invalidf("nested import requested but no account implementation is configured")
	}

	admitted, err := v.store.IsAdmitted(ctx, v.reg.Identity(), rec.OriginTag)
	if err != nil {
		return internalErr("check admitted set", err)
	}
	if admitted {
		return alreadyImported(rec.OriginTag)
	}

	// Ground-truth duplicate check. An unreadable registry count fails open
	// here (treated as not found); the admitted set above remains the primary
	// guard.
	if _, found, err := v.lookup.Find(ctx, rec.OriginTag); err != nil {
		slog.Warn("origin lookup unavailable during duplicate check",
			"origin_tag", rec.OriginTag,
			"error", err,
		)
	} else if found {
		return alreadyImported(rec.OriginTag)
	}

	return nil
}

// ValidateBatch pre-flights every record without mutating any state.
// One result per record, in input order; TokenID is always 0.
func (v *Validator) ValidateBatch(ctx context.Context, recs []ImportRecord) []ImportResult {
	results := make([]ImportResult, len(recs))
	for i, rec := range recs {
		results[i] = ImportResult{OriginTag: rec.OriginTag, Success: true}
		if err := v.ValidateRecord(ctx, rec); err != nil {
			results[i].Success = false
			results[i].Reason = err.Error()
		}
	}
	return results
}
