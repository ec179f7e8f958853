// Package records names the collections and fields the desk reads. Older
// documents spell some fields differently, so readers take alias lists
// and use the first one present.
package records

import (
	"github.com/ignite/settlement-desk/internal/aggregate"
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/normalize"
)

// Collections.
const (
	Leads     = "leads"
	Clients   = "clients"
	Payments  = "paymentRequests"
	Snapshots = "productivitySnapshots"
)

// Field alias lists, preferred spelling first.
var (
	LeadOwner    = []string{"assignedTo", "assigned_to", "salesPerson"}
	LeadStatus   = []string{"status"}
	LeadSource   = []string{"source", "leadSource"}
	LeadCreated  = []string{"date", "createdAt", "created_at", "timestamp"}
	LeadModified = []string{"lastModified", "lastModifiedTime", "updatedAt", "date"}

	ClientOwner      = []string{"alloc_adv", "advocate", "assignedTo"}
	ClientCreated    = []string{"startDate", "createdAt", "created_at"}
	ClientCity       = []string{"city"}
	ClientState      = []string{"state"}
	ClientBank       = []string{"bankName", "bank"}
	ClientOccupation = []string{"occupation"}
	ClientIncome     = []string{"monthlyIncome", "income"}
	ClientAge        = []string{"age"}
	ClientAmount     = []string{"loanAmount", "outstandingAmount", "amount"}

	PaymentOwner   = []string{"salesPersonName", "salesPerson"}
	PaymentSource  = []string{"source"}
	PaymentAmount  = []string{"amount"}
	PaymentCreated = []string{"timestamp", "createdAt", "created_at"}
)

// First returns the first non-empty text value among fields.
func First(d docstore.Document, fields []string) string {
	return aggregate.FirstField(fields...)(d)
}

// LeadStatusOf returns the normalized status, or "" when the lead has
// no status at all. The dash placeholder is a status ("No Status").
func LeadStatusOf(d docstore.Document) string {
	raw := First(d, LeadStatus)
	if raw == "" {
		return ""
	}
	return normalize.Status(raw)
}
