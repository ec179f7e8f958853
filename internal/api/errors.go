package api

import (
	"errors"
	"net/http"

	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/istime"
	"github.com/ignite/settlement-desk/internal/ledger"
	"github.com/ignite/settlement-desk/internal/payments"
	"github.com/ignite/settlement-desk/internal/pkg/httputil"
	"github.com/ignite/settlement-desk/internal/productivity"
	"github.com/ignite/settlement-desk/internal/reports"
)

// statusFor maps service errors onto HTTP status codes. Anything not
// listed is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, payments.ErrNotFound),
		errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, reports.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, payments.ErrInvalidAmount),
		errors.Is(err, payments.ErrNoSalesPerson),
		errors.Is(err, ledger.ErrNoSalesPerson),
		errors.Is(err, ledger.ErrNegativeAmount),
		errors.Is(err, istime.ErrUnknownPreset),
		errors.Is(err, productivity.ErrUnsupportedRange):
		return http.StatusBadRequest
	case errors.Is(err, payments.ErrNotPending),
		errors.Is(err, payments.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. 4xx errors describe the
// caller's input and are returned verbatim; 5xx details are logged and the
// client gets publicMsg only.
func respondError(w http.ResponseWriter, err error, publicMsg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		httputil.InternalError(w, publicMsg, err)
		return
	}
	httputil.Error(w, status, err.Error())
}
