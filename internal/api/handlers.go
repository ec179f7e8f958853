// Package api exposes the dashboards, the productivity view, payment
// requests and the target ledger over HTTP.
package api

import (
	"github.com/ignite/settlement-desk/internal/ledger"
	"github.com/ignite/settlement-desk/internal/payments"
	"github.com/ignite/settlement-desk/internal/productivity"
	"github.com/ignite/settlement-desk/internal/reports"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	reports      *reports.Service
	productivity *productivity.Reader
	payments     *payments.Service
	ledger       *ledger.Ledger
	exporter     *reports.Exporter
	health       *HealthChecker
}

// Deps are the services the handlers serve. Exporter and Health may be
// nil: exports then answer 503 and /health only reports liveness.
type Deps struct {
	Reports      *reports.Service
	Productivity *productivity.Reader
	Payments     *payments.Service
	Ledger       *ledger.Ledger
	Exporter     *reports.Exporter
	Health       *HealthChecker
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		reports:      d.Reports,
		productivity: d.Productivity,
		payments:     d.Payments,
		ledger:       d.Ledger,
		exporter:     d.Exporter,
		health:       d.Health,
	}
}
