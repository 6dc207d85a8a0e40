package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
)

func TestSiteValidate(t *testing.T) {
	valid := func() Site {
		return Site{ID: id.NewSiteID(), Code: "KDH", Name: "Kandahar Depot", IsActive: true}
	}

	v := valid()
	require.NoError(t, v.Validate())

	t.Run("numeric codes are fine", func(t *testing.T) {
		s := valid()
		s.Code = "SITE01"
		assert.NoError(t, s.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Site)
	}{
		{"blank code", func(s *Site) { s.Code = "  " }},
		{"lower case code", func(s *Site) { s.Code = "kdh" }},
		{"code over ten characters", func(s *Site) { s.Code = "WAREHOUSE01" }},
		{"punctuation in code", func(s *Site) { s.Code = "KDH-1" }},
		{"blank name", func(s *Site) { s.Name = " " }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := valid()
			tc.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, domerrors.HasCode(err, domerrors.CodeInvalidInput))
		})
	}
}
