package docstore

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSub(t *testing.T) {
	assert.Equal(t, "targets/Jan_2025/salespersons", Sub("targets", "Jan_2025", "salespersons"))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, ValidatePath("leads"))
	assert.NoError(t, ValidatePath(Sub("targets", "Jan_2025", "salespersons")))
	assert.Error(t, ValidatePath(""))
	assert.Error(t, ValidatePath("targets/Jan_2025"))
}

func TestDocumentClone(t *testing.T) {
	orig := Document{"id": "a", "breakdown": map[string]any{"Interested": 1.0}}
	cp := orig.Clone()
	cp["breakdown"].(map[string]any)["Interested"] = 5.0

	assert.Equal(t, 1.0, orig["breakdown"].(map[string]any)["Interested"])
	assert.Equal(t, "a", cp.ID())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(5000.0, 5000))
	assert.True(t, Equal(decimal.NewFromInt(12), 12.0))
	assert.True(t, Equal("approved", "approved"))
	assert.False(t, Equal("approved", "pending"))
	assert.False(t, Equal(nil, "x"))
}
