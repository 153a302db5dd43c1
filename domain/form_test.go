package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atlas/backoffice-engine/domain"
)

func TestForm_Lookup_NestedPath(t *testing.T) {
	form := domain.Form{
		"formResponses": map[string]any{
			"nationalId": "ID-12345",
		},
	}

	v, ok := form.Lookup("formResponses.nationalId")
	assert.True(t, ok)
	assert.Equal(t, "ID-12345", v)

	_, ok = form.Lookup("formResponses.missing")
	assert.False(t, ok)

	// Path segment into a non-map value.
	_, ok = form.Lookup("formResponses.nationalId.deeper")
	assert.False(t, ok)
}

func TestForm_FirstString_OrderedProbing(t *testing.T) {
	form := domain.Form{
		"loan_amount": "5000",
		"amount":      "9999",
	}

	v, ok := form.FirstString("loanAmount", "loan_amount", "amount")
	assert.True(t, ok)
	assert.Equal(t, "5000", v, "first present key wins")
}

func TestForm_FirstString_EmptyStringTreatedAsAbsent(t *testing.T) {
	form := domain.Form{
		"employer": "",
		"formResponses": map[string]any{
			"employer": "Civil Service",
		},
	}

	v, ok := form.FirstString("employer", "formResponses.employer")
	assert.True(t, ok)
	assert.Equal(t, "Civil Service", v)
}

func TestForm_FirstString_NumbersStringified(t *testing.T) {
	// JSON decoding yields float64 for numeric fields.
	form := domain.Form{"nationalId": float64(123456789)}

	v, ok := form.FirstString("nationalId")
	assert.True(t, ok)
	assert.Equal(t, "123456789", v)
}

func TestForm_FirstDecimal(t *testing.T) {
	tests := []struct {
		name string
		form domain.Form
		want string
		ok   bool
	}{
		{"float value", domain.Form{"loanAmount": 120000.50}, "120000.5", true},
		{"string value", domain.Form{"loanAmount": "120000"}, "120000", true},
		{"unparseable string skipped", domain.Form{"loanAmount": "a lot", "amount": "500"}, "500", true},
		{"empty string skipped", domain.Form{"loanAmount": "", "amount": "250"}, "250", true},
		{"nothing present", domain.Form{}, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.form.FirstDecimal("loanAmount", "amount")
			assert.Equal(t, tt.ok, ok)
			assert.True(t, got.Equal(domain.MustDecimal(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestForm_Bool(t *testing.T) {
	form := domain.Form{
		"hasAccount": true,
		"flagText":   "TRUE",
		"flagOther":  "yes",
		"count":      1,
	}

	assert.True(t, form.Bool("hasAccount"))
	assert.True(t, form.Bool("flagText"), "string true counts")
	assert.False(t, form.Bool("flagOther"), "only explicit true counts")
	assert.False(t, form.Bool("count"), "numbers are not truthy")
	assert.False(t, form.Bool("missing"))
}
