package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/pkg/httputil"
	"github.com/shopspring/decimal"
)

const monthLayout = "Jan_2006"

// monthParam reads the {month} path segment. "current" selects the
// ledger's current month; anything else must look like Jan_2025.
func monthParam(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "month")
	if raw == "current" {
		return "", true
	}
	t, err := time.Parse(monthLayout, raw)
	if err != nil {
		return "", false
	}
	return t.Format(monthLayout), true
}

// ListTargets returns every salesperson's record for a month.
//
//	GET /api/targets/{month}
func (h *Handlers) ListTargets(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(r)
	if !ok {
		httputil.BadRequest(w, "month must look like Jan_2025 or be \"current\"")
		return
	}
	list, err := h.ledger.ListMonth(r.Context(), month)
	if err != nil {
		respondError(w, err, "failed to load targets")
		return
	}
	httputil.OK(w, map[string]any{"targets": list, "total": len(list)})
}

// GetTarget returns one salesperson's record. A missing record reads as
// zero.
//
//	GET /api/targets/{month}/{salesPerson}
func (h *Handlers) GetTarget(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(r)
	if !ok {
		httputil.BadRequest(w, "month must look like Jan_2025 or be \"current\"")
		return
	}
	rec, err := h.ledger.Get(r.Context(), chi.URLParam(r, "salesPerson"), month)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		respondError(w, err, "failed to load target")
		return
	}
	httputil.OK(w, rec)
}

type setTargetsRequest struct {
	ConvertedLeadsTarget  int64           `json:"convertedLeadsTarget"`
	AmountCollectedTarget decimal.Decimal `json:"amountCollectedTarget"`
}

// SetTargets records a salesperson's monthly targets.
//
//	PUT /api/targets/{month}/{salesPerson}
func (h *Handlers) SetTargets(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(r)
	if !ok {
		httputil.BadRequest(w, "month must look like Jan_2025 or be \"current\"")
		return
	}
	var req setTargetsRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	salesPerson := chi.URLParam(r, "salesPerson")
	if err := h.ledger.SetTargets(r.Context(), salesPerson, month, req.ConvertedLeadsTarget, req.AmountCollectedTarget); err != nil {
		respondError(w, err, "failed to save targets")
		return
	}
	rec, err := h.ledger.Get(r.Context(), salesPerson, month)
	if err != nil {
		respondError(w, err, "failed to load target")
		return
	}
	httputil.OK(w, rec)
}
