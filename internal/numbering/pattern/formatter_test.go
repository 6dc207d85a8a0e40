package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registrar/pkg/domain-errors"
)

func TestFormat(t *testing.T) {
	values := Values{Site: "MN", Code: "PO", Year: 2026, Month: 4, Sequence: 42}

	tests := []struct {
		name     string
		template string
		padWidth int
		want     string
	}{
		{"code year sequence", "{CODE}-{YYYY}-{#####}", 5, "PO-2026-00042"},
		{"site scoped", "{SITE}-{CODE}-{YYYY}-{####}", 4, "MN-PO-2026-0042"},
		{"monthly", "{CODE}/{YYYY}/{MM}/{######}", 6, "PO/2026/04/000042"},
		{"no separators", "{CODE}{YYYY}{####}", 4, "PO20260042"},
		{"literal text survives", "DOC-{####}-FINAL", 4, "DOC-0042-FINAL"},
		{"widest sequence token", "{########}", 8, "00000042"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Format(tc.template, values, tc.padWidth)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("pad width wins over token width", func(t *testing.T) {
		got, err := Format("{####}", values, 6)
		require.NoError(t, err)
		assert.Equal(t, "000042", got)
	})

	t.Run("sequence wider than padding is not truncated", func(t *testing.T) {
		got, err := Format("{####}", Values{Sequence: 123456}, 4)
		require.NoError(t, err)
		assert.Equal(t, "123456", got)
	})
}

// A template typo must never leak a literal token into an issued number.
func TestFormatFailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{"unknown token", "{CODE}-{BOGUS}-{####}"},
		{"lowercase year", "{CODE}-{yyyy}-{####}"},
		{"sequence too narrow", "{CODE}-{###}"},
		{"sequence too wide", "{CODE}-{#########}"},
		{"unterminated token", "{CODE}-{YYYY"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Format(tc.template, Values{Code: "PO", Year: 2026, Sequence: 1}, 4)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}

func TestSequenceTokenWidth(t *testing.T) {
	width, err := SequenceTokenWidth("{CODE}-{YYYY}-{#####}")
	require.NoError(t, err)
	assert.Equal(t, 5, width)

	_, err = SequenceTokenWidth("{CODE}-{YYYY}")
	assert.Error(t, err)

	_, err = SequenceTokenWidth("{####}-{####}")
	assert.Error(t, err)
}

func TestValidateTokens(t *testing.T) {
	assert.NoError(t, ValidateTokens("{SITE}-{CODE}-{YYYY}-{MM}-{####}"))
	assert.Error(t, ValidateTokens("{CODE}-{NOPE}-{####}"))
	assert.Error(t, ValidateTokens("{CODE}-{####}}"))
}

func TestAppendModifiers(t *testing.T) {
	t.Run("no modifiers", func(t *testing.T) {
		assert.Equal(t, "PO-2026-00001", AppendModifiers("PO-2026-00001", "-", nil))
	})

	t.Run("dash separator", func(t *testing.T) {
		got := AppendModifiers("PO-2026-00001", "-", []string{"R", "X"})
		assert.Equal(t, "PO-2026-00001-R-X", got)
	})

	// The closing paren applies only to the "(" separator; other separators
	// stay open-ended so renumbered legacy documents compare equal.
	t.Run("parenthesis separator closes", func(t *testing.T) {
		got := AppendModifiers("PO-2026-00001", "(", []string{"R1"})
		assert.Equal(t, "PO-2026-00001(R1)", got)
	})

	t.Run("slash separator does not close", func(t *testing.T) {
		got := AppendModifiers("PO-2026-00001", "/", []string{"A"})
		assert.Equal(t, "PO-2026-00001/A", got)
	})
}
