package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tokenforge/mintbridge/internal/core"
)

// maxBodyBytes bounds request bodies to protect against oversized payloads.
const maxBodyBytes = 4 << 20 // 4MB

// actorFromRequest extracts and parses the X-Actor header identifying the
// caller. Every mutating endpoint requires it.
func actorFromRequest(r *http.Request) (core.Address, error) {
	raw := r.Header.Get("X-Actor")
	if raw == "" {
		return core.ZeroAddress, errors.New("missing X-Actor header")
	}
	return core.ParseAddress(raw)
}

// decodeBody decodes a JSON request body into v with a size cap.
func decodeBody(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleValidate pre-flights a batch of records without performing any
// import. Results are data, not HTTP errors: invalid records come back with
// success=false and the validation reason.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var recs []core.ImportRecord
	if err := decodeBody(r, &recs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(recs) == 0 {
		writeError(w, http.StatusBadRequest, "no records to validate")
		return
	}

	results := s.engine.ValidateBatch(r.Context(), recs)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleImport imports a single record on behalf of the calling actor.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var rec core.ImportRecord
	if err := decodeBody(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res := s.engine.Import(r.Context(), actor, rec)
	writeJSON(w, http.StatusOK, res)
}

// handleImportBatch imports a batch of records. Concurrency is bounded by the
// import limiter; callers are asked to retry when all slots are busy.
func (s *Server) handleImportBatch(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		if errors.Is(err, core.ErrTooManyImports) {
			w.Header().Set("Retry-After", "30")
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer s.limiter.Release()

	var recs []core.ImportRecord
	if err := decodeBody(r, &recs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.engine.ImportBatch(r.Context(), actor, recs)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleIsAdmitted answers whether an origin tag has already been imported.
func (s *Server) handleIsAdmitted(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		writeError(w, http.StatusBadRequest, "missing tag query parameter")
		return
	}

	admitted, err := s.engine.IsAdmitted(r.Context(), tag)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tag":      tag,
		"admitted": admitted,
	})
}

// handleStats returns per-actor import counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	actor, err := core.ParseAddress(chi.URLParam(r, "actor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid actor address: "+err.Error())
		return
	}

	stats, err := s.engine.StatsFor(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleRegistryInfo reports the destination registry identity and its
// current token count.
func (s *Server) handleRegistryInfo(w http.ResponseWriter, r *http.Request) {
	reg := s.engine.Registry()
	count, err := reg.TotalCount(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registry":   reg.Identity(),
		"totalCount": count,
		"admin":      s.engine.Admin(),
	})
}

// handleAudit returns the most recent audit entries, newest first.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := s.engine.RecentAudit(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleAdminTransfer hands administrative control to another address.
func (s *Server) handleAdminTransfer(w http.ResponseWriter, r *http.Request) {
	caller, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		To core.Address `json:"to"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.engine.TransferAdmin(r.Context(), caller, req.To); err != nil {
		respondError(w, err)
		return
	}

	slog.Info("admin transferred", "from", caller, "to", req.To)
	writeJSON(w, http.StatusOK, map[string]any{"admin": req.To})
}

// handleAdminClear removes an origin tag from the admitted set so it can be
// imported again.
func (s *Server) handleAdminClear(w http.ResponseWriter, r *http.Request) {
	caller, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		OriginTag string `json:"originTag"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.OriginTag == "" {
		writeError(w, http.StatusBadRequest, "originTag is required")
		return
	}

	if err := s.engine.ClearAdmitted(r.Context(), caller, req.OriginTag); err != nil {
		respondError(w, err)
		return
	}

	slog.Info("origin tag cleared", "tag", req.OriginTag, "by", caller)
	writeJSON(w, http.StatusOK, map[string]any{"cleared": req.OriginTag})
}

// handleAdminWithdraw drains the accumulated import fee balance.
func (s *Server) handleAdminWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := s.engine.Withdraw(r.Context(), caller)
	if err != nil {
		respondError(w, err)
		return
	}

	slog.Info("balance withdrawn", "amount", amount, "by", caller)
	writeJSON(w, http.StatusOK, map[string]any{"withdrawn": amount})
}
