package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/settlement-desk/internal/payments"
	"github.com/ignite/settlement-desk/internal/pkg/httputil"
	"github.com/shopspring/decimal"
)

// ListPayments returns payment requests, optionally filtered by status.
//
//	GET /api/payments?status=pending
func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	status := payments.Status(r.URL.Query().Get("status"))
	switch status {
	case "", payments.StatusPending, payments.StatusApproved:
	default:
		httputil.BadRequest(w, "status must be pending or approved")
		return
	}

	list, err := h.payments.List(r.Context(), status)
	if err != nil {
		respondError(w, err, "failed to list payment requests")
		return
	}
	httputil.OK(w, map[string]any{"payments": list, "total": len(list)})
}

// GetPayment returns one payment request.
//
//	GET /api/payments/{id}
func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.payments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err, "failed to load payment request")
		return
	}
	httputil.OK(w, p)
}

// CreatePayment stores a new pending payment request.
//
//	POST /api/payments
func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var in payments.NewPayment
	if !httputil.Decode(w, r, &in) {
		return
	}
	p, err := h.payments.Create(r.Context(), in)
	if err != nil {
		respondError(w, err, "failed to create payment request")
		return
	}
	httputil.Created(w, p)
}

type approveRequest struct {
	ApprovedBy string `json:"approvedBy"`
}

// ApprovePayment approves a pending request and credits the ledger.
//
//	POST /api/payments/{id}/approve
func (h *Handlers) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if r.ContentLength != 0 && !httputil.Decode(w, r, &req) {
		return
	}
	p, err := h.payments.Approve(r.Context(), chi.URLParam(r, "id"), req.ApprovedBy)
	if err != nil {
		respondError(w, err, "failed to approve payment request")
		return
	}
	httputil.OK(w, p)
}

type editRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	EditedBy string           `json:"editedBy"`
}

// EditPayment changes a request's amount.
//
//	PUT /api/payments/{id}
func (h *Handlers) EditPayment(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Amount == nil {
		httputil.BadRequest(w, "amount is required")
		return
	}
	p, err := h.payments.Edit(r.Context(), chi.URLParam(r, "id"), *req.Amount, req.EditedBy)
	if err != nil {
		respondError(w, err, "failed to edit payment request")
		return
	}
	httputil.OK(w, p)
}

// DeletePayment removes a request, reversing its credit if approved.
//
//	DELETE /api/payments/{id}
func (h *Handlers) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.payments.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err, "failed to delete payment request")
		return
	}
	httputil.NoContent(w)
}
