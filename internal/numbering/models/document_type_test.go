package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validType() DocumentType {
	return DocumentType{
		Code:             "PO",
		Name:             "Purchase Orders",
		NumberingPattern: "{CODE}-{YYYY}-{#####}",
		ResetCycle:       ResetYearly,
		StartingNumber:   1,
		NumberLength:     5,
		IncrementBy:      1,
		RequiresYear:     true,
		IsActive:         true,
	}
}

func TestDocumentTypeValidate(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		docType := validType()
		require.NoError(t, docType.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*DocumentType)
	}{
		{"empty code", func(d *DocumentType) { d.Code = " " }},
		{"lower case code", func(d *DocumentType) { d.Code = "po" }},
		{"empty name", func(d *DocumentType) { d.Name = "" }},
		{"zero starting number", func(d *DocumentType) { d.StartingNumber = 0 }},
		{"zero increment", func(d *DocumentType) { d.IncrementBy = 0 }},
		{"unknown reset cycle", func(d *DocumentType) { d.ResetCycle = "quarterly" }},
		{"unknown pattern token", func(d *DocumentType) { d.NumberingPattern = "{CODE}-{XXX}-{#####}" }},
		{"no sequence token", func(d *DocumentType) { d.NumberingPattern = "{CODE}-{YYYY}" }},
		{"two sequence tokens", func(d *DocumentType) { d.NumberingPattern = "{####}-{####}"; d.NumberLength = 4 }},
		{"width mismatch", func(d *DocumentType) { d.NumberLength = 6 }},
		{"site required but absent from pattern", func(d *DocumentType) { d.RequiresSiteCode = true }},
		{"year required but absent from pattern", func(d *DocumentType) {
			d.NumberingPattern = "{CODE}-{#####}"
		}},
		{"month required but absent from pattern", func(d *DocumentType) { d.RequiresMonth = true }},
		{"modifiers without separator", func(d *DocumentType) { d.SupportsModifiers = true }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			docType := validType()
			tc.mutate(&docType)
			assert.Error(t, docType.Validate())
		})
	}
}

func TestParseResetCycle(t *testing.T) {
	for _, raw := range []string{"never", "yearly", "monthly"} {
		cycle, err := ParseResetCycle(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, string(cycle))
	}
	_, err := ParseResetCycle("weekly")
	assert.Error(t, err)
}

func TestAllowsModifier(t *testing.T) {
	docType := validType()
	docType.SupportsModifiers = true
	docType.ModifierSeparator = "-"
	docType.ModifierOptions = map[string]string{"R": "Revision"}

	assert.True(t, docType.AllowsModifier("R"))
	assert.False(t, docType.AllowsModifier("X"))

	docType.SupportsModifiers = false
	assert.False(t, docType.AllowsModifier("R"))
}

func TestIsVoidOnlyStatus(t *testing.T) {
	docType := validType()
	docType.VoidOnlyStatuses = []string{"completed", "closed"}

	assert.True(t, docType.IsVoidOnlyStatus("completed"))
	assert.False(t, docType.IsVoidOnlyStatus("draft"))
}
