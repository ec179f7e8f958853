package records

import (
	"testing"

	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/normalize"
	"github.com/stretchr/testify/assert"
)

func TestFirst(t *testing.T) {
	tests := []struct {
		name string
		doc  docstore.Document
		want string
	}{
		{"preferred spelling", docstore.Document{"assignedTo": "Asha", "salesPerson": "Ravi"}, "Asha"},
		{"legacy spelling", docstore.Document{"assigned_to": " Ravi "}, "Ravi"},
		{"blank preferred falls through", docstore.Document{"assignedTo": "  ", "salesPerson": "Meera"}, "Meera"},
		{"missing", docstore.Document{"status": "Interested"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, First(tt.doc, LeadOwner))
		})
	}
}

func TestLeadStatusOf(t *testing.T) {
	tests := []struct {
		name   string
		status any
		want   string
	}{
		{"absent", nil, ""},
		{"blank", "   ", ""},
		{"dash placeholder is a status", "—", normalize.NoStatus},
		{"normalized", "interested", normalize.Status("interested")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := docstore.Document{"id": "1"}
			if tt.status != nil {
				d["status"] = tt.status
			}
			assert.Equal(t, tt.want, LeadStatusOf(d))
		})
	}
}
