package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/settlement-desk/internal/istime"
	"github.com/ignite/settlement-desk/internal/pkg/httputil"
	"github.com/ignite/settlement-desk/internal/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handlers) buildReport(w http.ResponseWriter, r *http.Request) (*reports.Report, bool) {
	kind := reports.Kind(chi.URLParam(r, "kind"))
	rep, err := h.reports.Build(r.Context(), kind, r.URL.Query().Get("preset"))
	if err != nil {
		respondError(w, err, "failed to build report")
		return nil, false
	}
	return rep, true
}

// GetReport returns a dashboard. An empty preset covers all time.
//
//	GET /api/reports/{kind}?preset=last7days
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	httputil.OK(w, rep)
}

// DownloadReport renders a dashboard as an XLSX workbook.
//
//	GET /api/reports/{kind}/xlsx?preset=thisMonth
func (h *Handlers) DownloadReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	data, err := reports.ExportXLSX(rep)
	if err != nil {
		httputil.InternalError(w, "failed to render workbook", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(rep.Kind)+".xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ExportReport renders a dashboard and uploads it to the export bucket.
//
//	POST /api/reports/{kind}/export?preset=lastMonth
func (h *Handlers) ExportReport(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "report export is not configured")
		return
	}
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	key, err := h.exporter.Upload(r.Context(), rep)
	if err != nil {
		httputil.InternalError(w, "failed to export report", err)
		return
	}
	httputil.Created(w, map[string]string{"key": key})
}

// ListPresets returns the accepted date presets.
//
//	GET /api/reports/presets
func (h *Handlers) ListPresets(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string][]string{"presets": istime.Presets})
}

// GetProductivity returns leads worked per salesperson. The range
// defaults to today.
//
//	GET /api/productivity?range=last7days
func (h *Handlers) GetProductivity(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("range")
	if name == "" {
		name = istime.Today
	}
	rep, err := h.productivity.Read(r.Context(), name)
	if err != nil {
		respondError(w, err, "failed to load productivity")
		return
	}
	httputil.OK(w, rep)
}
