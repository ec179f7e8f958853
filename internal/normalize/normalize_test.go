package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBank(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"ICICI BANK ONE CARD", "OneCard"},
		{"icici   bank", "ICICI Bank"},
		{"RBL Bajaj SuperCard", "RBL (Bajaj)"},
		{"Bajaj RBL", "RBL (Bajaj)"},
		{"rbl", "RBL Bank"},
		{"Bajaj Finance Ltd", "Bajaj Finserv"},
		{"HDFC CC", "HDFC Bank"},
		{"sbi cards", "SBI Card"},
		{"State Bank of India", "SBI Card"},
		{"Amex", "American Express"},
		{"IndusInd", "IndusInd Bank"},
		{"Early Salary", "Fibe"},
		{"  Some Local Co-op  ", "Some Local Co-op"},
		{"", Unknown},
		{"–", Unknown},
		{"N/A", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Bank(tt.raw))
			assert.Equal(t, tt.want, Normalize(KindBank, tt.raw))
		})
	}
}

func TestOccupation(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"salaried", "Salaried"},
		{"Private job", "Salaried"},
		{"Software Engineer", "Salaried"},
		{"self employed", "Self-Employed"},
		{"Bussiness", "Business"},
		{"Govt employee", "Government Employee"},
		{"not working", "Unemployed"},
		{"Doctor", "Professional"},
		{"house wife", "Homemaker"},
		{"", Unknown},
		{"Farmer", "Farmer"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Occupation(tt.raw))
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"–", NoStatus},
		{"—", NoStatus},
		{"", NoStatus},
		{"   ", NoStatus},
		{"Interested", "Interested"},
		{"not interested", "Not Interested"},
		{"NI", "Not Interested"},
		{"call back tomorrow", "Callback"},
		{"RNR", "Not Answering"},
		{"switch off", "Switched Off"},
		{"Converted", "Converted"},
		{"Docs Pending", "Docs Pending"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.raw))
		})
	}
}

func TestCityAndState(t *testing.T) {
	assert.Equal(t, "Bengaluru", City("bangalore"))
	assert.Equal(t, "Navi Mumbai", City("NAVI MUMBAI"))
	assert.Equal(t, "Mumbai", City("bombay"))
	assert.Equal(t, "Greater Noida", City("greater noida west"))
	assert.Equal(t, "Nashik", City("  nashik "))
	assert.Equal(t, Unknown, City(""))

	assert.Equal(t, "Maharashtra", State("MH"))
	assert.Equal(t, "Tamil Nadu", State("tamilnadu"))
	assert.Equal(t, "Goa", State("goa"))
}

func TestIdempotent(t *testing.T) {
	inputs := []string{
		"", "–", "ICICI BANK ONE CARD", "rbl bajaj", "RBL", "sbi", "hdfc",
		"kotak", "idfc first", "au small finance", "yes bank", "citi", "hsbc",
		"dbs", "federal", "pnb", "bob", "canara", "union bank", "tata capital",
		"aditya birla", "kreditbee", "moneyview", "fibe", "navi", "paysense",
		"cashe", "standard chartered", "amex", "indusind", "axis", "bajaj",
		"Unknown Lender   Pvt",
	}
	for _, kind := range []Kind{KindBank, KindOccupation, KindStatus, KindCity, KindState} {
		for _, in := range inputs {
			once := Normalize(kind, in)
			assert.Equal(t, once, Normalize(kind, once), "kind=%s input=%q", kind, in)
		}
		// Every canonical label maps onto itself.
		for _, r := range tables[kind].Rules {
			assert.Equal(t, r.Canonical, Normalize(kind, r.Canonical), "kind=%s canonical", kind)
		}
	}
}

func TestUnknownKindPassesThrough(t *testing.T) {
	assert.Equal(t, "x", Normalize(Kind("advocate"), "  x "))
}
