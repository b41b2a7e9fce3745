package core

// batch.go runs many imports with per-item failure isolation.
//
// A failed record never prevents later records from being attempted, and the
// orchestrator never retries: callers resubmit a new batch holding only the
// failed origin tags if they want another pass.

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ImportBatch imports records in submission order, one result per record.
//
// Empty input and input exceeding the configured MaxBatch are rejected with a
// KindInvalidInput error before any record is processed.
func (e *Engine) ImportBatch(ctx context.Context, actor Address, recs []ImportRecord) (BatchResult, error) {
	if len(recs) == 0 {
		return BatchResult{}, invalidf("batch is empty")
	}
	if len(recs) > e.cfg.MaxBatch {
		return BatchResult{}, invalidf("batch of %d records exceeds maximum of %d", len(recs), e.cfg.MaxBatch)
	}

	start := e.now()
	batch := BatchResult{
		BatchID: uuid.NewString(),
		Results: make([]ImportResult, len(recs)),
	}

	slog.Info("batch import started",
		"batch_id", batch.BatchID,
		"actor", actor,
		"records", len(recs),
	)

	for i, rec := range recs {
		tokenID, err := e.importOne(ctx, actor, rec, batch.BatchID)
		if err != nil {
			batch.Results[i] = ImportResult{OriginTag: rec.OriginTag, Success: false, Reason: err.Error()}
			batch.Failed++
			continue
		}
		batch.Results[i] = ImportResult{OriginTag: rec.OriginTag, TokenID: tokenID, Success: true}
		batch.Succeeded++
	}

	batch.Duration = time.Since(start)

	slog.Info("batch import completed",
		"batch_id", batch.BatchID,
		"actor", actor,
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
		"duration_ms", batch.Duration.Milliseconds(),
	)

	e.appendAudit(ctx, func(entry *AuditEntry) {
		entry.Action = ActionBatchImport
		entry.BatchID = batch.BatchID
		entry.Affected = batch.Succeeded
	}, actor)

	return batch, nil
}
