package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDraft(t *testing.T) {
	cases := []struct {
		name   string
		draft  Draft
		field  string
		reason string
	}{
		{"empty description", Draft{Description: "", Amount: "10"}, "description", ReasonRequired},
		{"empty amount", Draft{Description: "x", Amount: ""}, "amount", ReasonRequired},
		{"decimal amount", Draft{Description: "x", Amount: "10.5"}, "amount", ReasonPattern},
		{"negative amount", Draft{Description: "x", Amount: "-3"}, "amount", ReasonPattern},
		{"letters", Draft{Description: "x", Amount: "12a"}, "amount", ReasonPattern},
		{"overflow", Draft{Description: "x", Amount: "99999999999999999999"}, "amount", ReasonRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, v := ValidateDraft(tc.draft)
			require.Len(t, v, 1)
			assert.Equal(t, Violation{Field: tc.field, Reason: tc.reason}, v[0])
		})
	}
}

func TestValidateDraft_Valid(t *testing.T) {
	item, v := ValidateDraft(Draft{Description: "Mes de enero", Amount: "1500"})
	require.Empty(t, v)
	assert.Equal(t, LineItem{Description: "Mes de enero", Amount: 1500}, item)
	assert.Equal(t, "$1500", item.DisplayAmount())

	item, v = ValidateDraft(Draft{Description: "gratis", Amount: "0"})
	require.Empty(t, v)
	assert.Equal(t, int64(0), item.Amount)
}

func TestValidateReceipt(t *testing.T) {
	f := NewReceiptForm(ReceiptDefaults{ReceivedBy: "Teresita Portillo", Phone: "6682311921"})
	v := ValidateReceipt(f)
	assert.True(t, v.Has("from"))
	assert.True(t, v.Has("concept"))
	assert.True(t, v.Has("date"))
	assert.False(t, v.Has("received_by"))
	assert.False(t, v.Has("comments"))

	f.Apply(FormPatch{From: strp("Juan Pérez"), Concept: strp("Renta"), Date: strp("2025-01-15")})
	assert.Empty(t, ValidateReceipt(f))

	f.Apply(FormPatch{Phone: strp("")})
	v = ValidateReceipt(f)
	require.Len(t, v, 1)
	assert.Equal(t, "phone", v[0].Field)

	var target Violations
	assert.True(t, errors.As(error(v), &target))
	assert.Contains(t, v.Error(), "phone: required")
}

func TestViolationsPrefixed(t *testing.T) {
	v := Violations{{Field: "amount", Reason: ReasonPattern}}
	p := v.Prefixed("items[1].")
	assert.Equal(t, "items[1].amount", p[0].Field)
	assert.Equal(t, "amount", v[0].Field)
}

func strp(s string) *string { return &s }
