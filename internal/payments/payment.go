// Package payments manages payment requests and keeps the target ledger
// in step with their approvals, amount edits and deletions.
package payments

import (
	"time"

	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/istime"
	"github.com/ignite/settlement-desk/internal/money"
	"github.com/ignite/settlement-desk/internal/records"
	"github.com/shopspring/decimal"
)

// Status of a payment request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// Stored field names.
const (
	fieldAmount      = "amount"
	fieldStatus      = "status"
	fieldSalesPerson = "salesPersonName"
	fieldSource      = "source"
	fieldClientName  = "clientName"
	fieldNotes       = "notes"
	fieldCreatedBy   = "createdBy"
	fieldTimestamp   = "timestamp"
	fieldEditedBy    = "edited_by"
	fieldEditedAt    = "edited_at"
	fieldApprovedBy  = "approvedBy"
	fieldApprovedAt  = "approvedAt"
)

// Payment is a payment request as stored.
type Payment struct {
	ID              string          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Status          Status          `json:"status"`
	SalesPersonName string          `json:"salesPersonName"`
	Source          string          `json:"source,omitempty"`
	ClientName      string          `json:"clientName,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       string          `json:"createdBy,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	EditedBy        string          `json:"edited_by,omitempty"`
	EditedAt        *time.Time      `json:"edited_at,omitempty"`
	ApprovedBy      string          `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time      `json:"approvedAt,omitempty"`
}

// Approved reports whether the request has been approved.
func (p *Payment) Approved() bool { return p.Status == StatusApproved }

// NewPayment is the input to Create.
type NewPayment struct {
	Amount          decimal.Decimal `json:"amount"`
	SalesPersonName string          `json:"salesPersonName"`
	Source          string          `json:"source"`
	ClientName      string          `json:"clientName"`
	Notes           string          `json:"notes"`
	CreatedBy       string          `json:"createdBy"`
}

func fromDocument(d docstore.Document) *Payment {
	p := &Payment{
		ID:              d.ID(),
		Amount:          money.Parse(d[fieldAmount]),
		Status:          StatusPending,
		SalesPersonName: records.First(d, records.PaymentOwner),
		Source:          d.String(fieldSource),
		ClientName:      d.String(fieldClientName),
		Notes:           d.String(fieldNotes),
		CreatedBy:       d.String(fieldCreatedBy),
		EditedBy:        d.String(fieldEditedBy),
		ApprovedBy:      d.String(fieldApprovedBy),
	}
	if Status(d.String(fieldStatus)) == StatusApproved {
		p.Status = StatusApproved
	}
	if t, ok := istime.Resolve(d[fieldTimestamp]); ok {
		p.CreatedAt = t
	}
	if t, ok := istime.Resolve(d[fieldEditedAt]); ok {
		p.EditedAt = &t
	}
	if t, ok := istime.Resolve(d[fieldApprovedAt]); ok {
		p.ApprovedAt = &t
	}
	return p
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
